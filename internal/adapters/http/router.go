package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Relay/internal/adapters/signal"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware tags every browser with a long-lived token. It only
// correlates log lines; relay sessions get their own id per connection.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required,max=36"`
	Room     string `form:"room" json:"room" binding:"omitempty,max=32"`
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600 * 24 * 7,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("RelaySessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/login", handleLogin)
	api.GET("/session", handleSession)
	api.POST("/logout", handleLogout)

	ctrl := signal.NewSignalWSController(o, cfg)
	api.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	if cfg.AdminToken != "" {
		registerAdmin(api.Group("/admin", AdminAuth(cfg.AdminToken)), o)
	} else {
		log.Info().Str("module", "adapters.http").Msg("admin_token empty, admin API disabled")
	}

	log.Info().Str("module", "adapters.http").Bool("admin_api", cfg.AdminToken != "").Msg("router setup")
	return r
}

// handleLogin remembers who the browser is and which room it asked for. The
// room store is untouched until the WebSocket join.
func handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	username, err := domain.NewUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room := domain.NormalizeRoomCode(req.Room)

	s := sessions.Default(c)
	s.Set("username", string(username))
	s.Set("room", string(room))
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", string(username)).Str("room", string(room)).Msg("login")
	c.JSON(http.StatusOK, gin.H{"username": username, "room": room})
}

func handleSession(c *gin.Context) {
	s := sessions.Default(c)
	username, _ := s.Get("username").(string)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	room, _ := s.Get("room").(string)
	c.JSON(http.StatusOK, gin.H{"username": username, "room": room, "client": c.GetString("client_token")})
}

func handleLogout(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("clear session")
	}
	c.Status(http.StatusNoContent)
}
