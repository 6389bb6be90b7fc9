package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOperator struct {
	name    string
	level   int32
	replies []string
}

func (o *mockOperator) Name() string       { return o.name }
func (o *mockOperator) AccessLevel() int32 { return o.level }
func (o *mockOperator) Reply(msg string)   { o.replies = append(o.replies, msg) }

type mockAdminCmd struct {
	names       []string
	required    int32
	handleCalls int
	lastArgs    []string
	err         error
}

func (c *mockAdminCmd) Names() []string            { return c.names }
func (c *mockAdminCmd) RequiredAccessLevel() int32 { return c.required }
func (c *mockAdminCmd) Handle(op Operator, args []string) error {
	c.handleCalls++
	c.lastArgs = args
	return c.err
}

type mockUserCmd struct {
	names      []string
	lastParams string
}

func (c *mockUserCmd) Names() []string { return c.names }
func (c *mockUserCmd) Handle(op Operator, params string) error {
	c.lastParams = params
	op.Reply("user ok")
	return nil
}

func TestHandler_RegisterAndCount(t *testing.T) {
	h := NewHandler()
	h.RegisterAdmin(&mockAdminCmd{names: []string{"questadmin", "qa"}, required: 1})
	h.RegisterUser(&mockUserCmd{names: []string{"quests"}})

	assert.Equal(t, 2, h.AdminCommandCount())
	assert.Equal(t, 1, h.UserCommandCount())
}

func TestHandler_AdminCommand(t *testing.T) {
	tests := []struct {
		name      string
		level     int32
		required  int32
		wantRun   bool
		wantReply bool
	}{
		{"game master runs", 2, 2, true, false},
		{"administrator runs", 100, 2, true, false},
		{"plain user is silently refused", 0, 1, false, false},
		{"moderator below requirement", 1, 2, false, true},
		{"banned", -1, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			cmd := &mockAdminCmd{names: []string{"QuestAdmin"}, required: tt.required}
			h.RegisterAdmin(cmd)
			op := &mockOperator{name: "op", level: tt.level}

			ran := h.Handle(op, "//questadmin grant Steve all")
			assert.Equal(t, tt.wantRun, ran)
			assert.Equal(t, tt.wantRun, cmd.handleCalls == 1)
			assert.Equal(t, tt.wantReply, len(op.replies) > 0)
			if tt.wantRun {
				assert.Equal(t, []string{"questadmin", "grant", "Steve", "all"}, cmd.lastArgs)
			}
		})
	}
}

func TestHandler_AdminCommandErrorIsReplied(t *testing.T) {
	h := NewHandler()
	h.RegisterAdmin(&mockAdminCmd{names: []string{"questadmin"}, err: assert.AnError})
	op := &mockOperator{name: "root", level: 100}

	assert.True(t, h.Handle(op, "//questadmin list"))
	require.Len(t, op.replies, 1)
	assert.Contains(t, op.replies[0], "Command error")
}

func TestHandler_UnknownAndMalformed(t *testing.T) {
	h := NewHandler()
	op := &mockOperator{name: "root", level: 100}

	assert.False(t, h.Handle(op, "//nope"))
	assert.Equal(t, "Unknown command: //nope", op.replies[0])

	assert.False(t, h.Handle(op, "//"))
	assert.False(t, h.Handle(op, "hello"))
	assert.False(t, h.Handle(op, "/missing"))
}

func TestHandler_UserCommand(t *testing.T) {
	h := NewHandler()
	cmd := &mockUserCmd{names: []string{"quests"}}
	h.RegisterUser(cmd)
	op := &mockOperator{name: "Alex"}

	assert.True(t, h.Handle(op, "/quests  daily "))
	assert.Equal(t, "daily", cmd.lastParams)
	assert.Equal(t, []string{"user ok"}, op.replies)
}
