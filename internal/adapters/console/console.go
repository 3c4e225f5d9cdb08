// Package console is the operator's line-oriented admin surface. It reads
// commands from any reader, so the same code serves stdin and tests.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
)

const help = `commands:
  1 | list_users                 rooms and their participants
  2 | list_rooms_and_messages    retained messages per room
  3 | kick <username>            remove a user from every room
  4 | clear <room>               delete a room's messages
  5 | block <username>           stop a user from publishing
  6 | unblock <username>
  7 | quit                       close the console, the server keeps running
  8 | blocked                    list blocked users
  help`

var aliases = map[string]string{
	"1": "list_users",
	"2": "list_rooms_and_messages",
	"3": "kick",
	"4": "clear",
	"5": "block",
	"6": "unblock",
	"7": "quit",
	"8": "blocked",
}

type Console struct {
	Orch   *orch.Orchestrator
	In     io.Reader
	Out    io.Writer
	Prompt string
}

func New(o *orch.Orchestrator, in io.Reader, out io.Writer) *Console {
	return &Console{Orch: o, In: in, Out: out, Prompt: "> "}
}

// Run serves commands until quit, end of input or ctx cancellation. None of
// those stop the server.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			log.Warn().Err(err).Str("module", "console").Msg("read input")
		}
	}()

	log.Info().Str("module", "console").Msg("admin console started")
	fmt.Fprintln(c.Out, "type help for commands")
	for {
		fmt.Fprint(c.Out, c.Prompt)
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				log.Info().Str("module", "console").Msg("admin console input closed")
				return nil
			}
			if c.Exec(line) {
				log.Info().Str("module", "console").Msg("admin console closed")
				return nil
			}
		}
	}
}

// Exec runs one command line and reports whether the console should stop.
// A panicking command is logged and does not end the console.
func (c *Console) Exec(line string) (quit bool) {
	var pc panics.Catcher
	pc.Try(func() { quit = c.exec(strings.Fields(line)) })
	if r := pc.Recovered(); r != nil {
		log.Error().Err(r.AsError()).Str("module", "console").Str("line", line).Msg("command panicked")
		fmt.Fprintln(c.Out, "command failed")
	}
	return quit
}

func (c *Console) exec(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToLower(fields[0])
	if full, ok := aliases[cmd]; ok {
		cmd = full
	}
	args := fields[1:]

	switch cmd {
	case "list_users":
		c.listUsers()
	case "list_rooms_and_messages":
		c.listRoomsAndMessages()
	case "kick":
		if u, ok := c.username(cmd, args); ok {
			c.kick(u)
		}
	case "clear":
		if len(args) != 1 {
			fmt.Fprintln(c.Out, "usage: clear <room>")
			return false
		}
		code := domain.NormalizeRoomCode(args[0])
		if c.Orch.ClearRoom(code) {
			fmt.Fprintf(c.Out, "cleared %s\n", code)
		} else {
			fmt.Fprintf(c.Out, "room %s not found\n", code)
		}
	case "block":
		if u, ok := c.username(cmd, args); ok {
			if c.Orch.BlockUser(u) {
				fmt.Fprintf(c.Out, "blocked %s\n", u)
			} else {
				fmt.Fprintf(c.Out, "%s is already blocked\n", u)
			}
		}
	case "unblock":
		if u, ok := c.username(cmd, args); ok {
			if c.Orch.UnblockUser(u) {
				fmt.Fprintf(c.Out, "unblocked %s\n", u)
			} else {
				fmt.Fprintf(c.Out, "%s is not blocked\n", u)
			}
		}
	case "blocked":
		users := c.Orch.BlockedUsers()
		if len(users) == 0 {
			fmt.Fprintln(c.Out, "no blocked users")
			return false
		}
		fmt.Fprintln(c.Out, joinNames(users))
	case "help", "?":
		fmt.Fprintln(c.Out, help)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(c.Out, "unknown command %q, type help\n", fields[0])
	}
	return false
}

func (c *Console) username(cmd string, args []string) (domain.Username, bool) {
	if len(args) != 1 {
		fmt.Fprintf(c.Out, "usage: %s <username>\n", cmd)
		return "", false
	}
	u, err := domain.NewUsername(args[0])
	if err != nil {
		fmt.Fprintln(c.Out, err)
		return "", false
	}
	return u, true
}

func (c *Console) kick(u domain.Username) {
	rooms := c.Orch.Kick(u)
	if len(rooms) == 0 {
		fmt.Fprintf(c.Out, "%s is not in any room\n", u)
		return
	}
	codes := lo.Map(rooms, func(r domain.RoomCode, _ int) string { return string(r) })
	fmt.Fprintf(c.Out, "kicked %s from %s\n", u, strings.Join(codes, ", "))
}

func (c *Console) listUsers() {
	rooms := c.Orch.ListOnlineUsers()
	if len(rooms) == 0 {
		fmt.Fprintln(c.Out, "no rooms")
		return
	}
	table := c.table([]string{"Room", "Participants", "Messages"})
	for _, r := range rooms {
		table.Append([]string{string(r.Code), joinNames(r.Participants), fmt.Sprint(r.MessageCount)})
	}
	table.Render()
}

func (c *Console) listRoomsAndMessages() {
	rooms := c.Orch.ListRoomsAndMessages()
	if len(rooms) == 0 {
		fmt.Fprintln(c.Out, "no rooms")
		return
	}
	table := c.table([]string{"Room", "Time", "Author", "Payload"})
	for _, r := range rooms {
		if len(r.Messages) == 0 {
			table.Append([]string{string(r.Code), "-", "-", "-"})
			continue
		}
		for _, m := range r.Messages {
			table.Append([]string{string(r.Code), m.CreatedAt.Format("15:04:05"), string(m.Author), m.Payload})
		}
	}
	table.Render()
}

func (c *Console) table(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.Out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func joinNames(users []domain.Username) string {
	return strings.Join(lo.Map(users, func(u domain.Username, _ int) string { return string(u) }), ", ")
}
