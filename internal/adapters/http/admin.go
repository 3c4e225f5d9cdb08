package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AdminAuth accepts "Authorization: Bearer <token>".
func AdminAuth(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			log.Warn().Str("module", "adapters.http.admin").Str("ip", c.ClientIP()).Msg("admin auth rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

type adminHandlers struct {
	orch *orch.Orchestrator
}

func registerAdmin(g *gin.RouterGroup, o *orch.Orchestrator) {
	h := adminHandlers{orch: o}
	g.GET("/users", h.listUsers)
	g.GET("/rooms", h.listRooms)
	g.GET("/sessions", h.listSessions)
	g.POST("/kick/:username", h.kick)
	g.POST("/rooms/:code/clear", h.clear)
	g.POST("/block/:username", h.block)
	g.DELETE("/block/:username", h.unblock)
	g.GET("/blocked", h.blocked)
}

func (h adminHandlers) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.ListOnlineUsers())
}

func (h adminHandlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.ListRoomsAndMessages())
}

func (h adminHandlers) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.ListSessions())
}

func (h adminHandlers) kick(c *gin.Context) {
	username, ok := usernameParam(c)
	if !ok {
		return
	}
	rooms := h.orch.Kick(username)
	if rooms == nil {
		rooms = []domain.RoomCode{}
	}
	c.JSON(http.StatusOK, gin.H{"username": username, "rooms": rooms})
}

func (h adminHandlers) clear(c *gin.Context) {
	code := domain.NormalizeRoomCode(c.Param("code"))
	if !h.orch.ClearRoom(code) {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrRoomNotFound.Error(), "room": code})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": code, "cleared": true})
}

func (h adminHandlers) block(c *gin.Context) {
	username, ok := usernameParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username, "changed": h.orch.BlockUser(username)})
}

func (h adminHandlers) unblock(c *gin.Context) {
	username, ok := usernameParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username, "changed": h.orch.UnblockUser(username)})
}

func (h adminHandlers) blocked(c *gin.Context) {
	users := h.orch.BlockedUsers()
	if users == nil {
		users = []domain.Username{}
	}
	c.JSON(http.StatusOK, users)
}

func usernameParam(c *gin.Context) (domain.Username, bool) {
	username, err := domain.NewUsername(c.Param("username"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return username, true
}
