package admin

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Operator is the session issuing a command.
type Operator interface {
	Name() string
	AccessLevel() int32
	// Reply sends a text line back to the operator.
	Reply(msg string)
}

// Command is the interface for admin commands (//command).
// Each command registers one or more names and a required access level.
type Command interface {
	// Handle executes the command. args includes command name at [0].
	Handle(op Operator, args []string) error
	// Names returns all registered command names (without // prefix).
	Names() []string
	// RequiredAccessLevel returns the minimum access level to use this command.
	RequiredAccessLevel() int32
}

// UserCommand is the interface for user commands (/command).
// Available to every player (no access level check).
type UserCommand interface {
	// Handle executes the user command. params is the rest of the line after the name.
	Handle(op Operator, params string) error
	// Names returns all registered command names (without / prefix).
	Names() []string
}

// Handler dispatches admin (//) and user (/) commands.
// Commands are registered once at startup, then read-only.
type Handler struct {
	mu        sync.RWMutex
	adminCmds map[string]Command
	userCmds  map[string]UserCommand
}

// NewHandler creates a new admin/user command handler.
func NewHandler() *Handler {
	return &Handler{
		adminCmds: make(map[string]Command, 8),
		userCmds:  make(map[string]UserCommand, 4),
	}
}

// RegisterAdmin registers an admin command.
// All command names are lowercased for case-insensitive lookup.
func (h *Handler) RegisterAdmin(cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, name := range cmd.Names() {
		h.adminCmds[strings.ToLower(name)] = cmd
	}
}

// RegisterUser registers a user command.
func (h *Handler) RegisterUser(cmd UserCommand) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, name := range cmd.Names() {
		h.userCmds[strings.ToLower(name)] = cmd
	}
}

// Handle routes a command line by prefix: "//" to admin commands and "/" to
// user commands. Returns true if a command ran.
func (h *Handler) Handle(op Operator, line string) bool {
	switch {
	case strings.HasPrefix(line, "//"):
		return h.HandleAdminCommand(op, line[2:])
	case strings.HasPrefix(line, "/"):
		return h.HandleUserCommand(op, line[1:])
	default:
		op.Reply("Commands start with / or //")
		return false
	}
}

// HandleAdminCommand processes a message starting with //.
// Returns true if a command was found and executed.
// text is the full message WITHOUT the // prefix.
func (h *Handler) HandleAdminCommand(op Operator, text string) bool {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return false
	}
	cmdName := strings.ToLower(parts[0])

	h.mu.RLock()
	cmd, ok := h.adminCmds[cmdName]
	h.mu.RUnlock()

	if !ok {
		op.Reply("Unknown command: //" + cmdName)
		return false
	}

	accessLevel := op.AccessLevel()
	al := GetAccessLevel(accessLevel)
	if al == nil || !al.CanUseAdminCommands {
		slog.Warn("unauthorized admin command attempt",
			"operator", op.Name(),
			"command", cmdName,
			"accessLevel", accessLevel)
		return false
	}

	if accessLevel < cmd.RequiredAccessLevel() {
		op.Reply(fmt.Sprintf("Insufficient access level for //%s (need %d, have %d)",
			cmdName, cmd.RequiredAccessLevel(), accessLevel))
		slog.Warn("admin command access denied",
			"operator", op.Name(),
			"command", cmdName,
			"required", cmd.RequiredAccessLevel(),
			"actual", accessLevel)
		return false
	}

	slog.Info("admin command",
		"operator", op.Name(),
		"command", text)

	if err := cmd.Handle(op, parts); err != nil {
		op.Reply(fmt.Sprintf("Command error: %s", err))
		slog.Error("admin command failed",
			"operator", op.Name(),
			"command", text,
			"error", err)
	}

	return true
}

// HandleUserCommand processes a message starting with /.
// Returns true if a command was found and executed.
// text is the full message WITHOUT the / prefix.
func (h *Handler) HandleUserCommand(op Operator, text string) bool {
	text = strings.TrimSpace(text)
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return false
	}
	cmdName := strings.ToLower(parts[0])

	h.mu.RLock()
	cmd, ok := h.userCmds[cmdName]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	params := strings.TrimSpace(text[len(parts[0]):])

	if err := cmd.Handle(op, params); err != nil {
		op.Reply(fmt.Sprintf("Command error: %s", err))
		slog.Error("user command failed",
			"operator", op.Name(),
			"command", text,
			"error", err)
	}

	return true
}

// AdminCommandCount returns number of registered admin command names.
func (h *Handler) AdminCommandCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.adminCmds)
}

// UserCommandCount returns number of registered user command names.
func (h *Handler) UserCommandCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userCmds)
}
