package agent

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mull/internal/errors"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantText  string
		wantKinds []string
	}{
		{"plain text", "  hello there \n", "hello there", nil},
		{"json text", `{"text":"Done."}`, "Done.", nil},
		{
			"json with interrupts",
			`{"text":"Send it?","interrupts":[{"kind":"confirm_send","payload":{"to":"a@b"}},{"type":"pick"},{"payload":1}]}`,
			"Send it?",
			[]string{"confirm_send", "pick"},
		},
		{"broken json", `{"text":`, `{"text":`, nil},
		{"json array is text", `[1,2]`, `[1,2]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReply(tt.in)
			assert.Equal(t, tt.wantText, got.Text)
			var kinds []string
			for _, in := range got.Interrupts {
				kinds = append(kinds, in.Kind)
			}
			assert.Equal(t, tt.wantKinds, kinds)
		})
	}
}

func TestParseReply_PayloadRaw(t *testing.T) {
	got := ParseReply(`{"text":"x","interrupts":[{"kind":"k","payload":{"to":"a@b"}}]}`)
	require.Len(t, got.Interrupts, 1)
	assert.JSONEq(t, `{"to":"a@b"}`, string(got.Interrupts[0].Payload))
}

func TestFunc(t *testing.T) {
	var a Agent = Func(func(_ context.Context, prompt string) (Reply, error) {
		return Reply{Text: "echo: " + prompt}, nil
	})
	got, err := a.Respond(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", got.Text)
}

func TestNewCommand_Empty(t *testing.T) {
	_, err := NewCommand(nil)
	assert.True(t, errors.Is(err, errors.ErrNotConfigured))
}

func TestCommand_Respond(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	c, err := NewCommand([]string{"sh", "-c", `read line; printf '{"text":"got %s"}' "$line"`})
	require.NoError(t, err)

	got, err := c.Respond(context.Background(), "ping\n")
	require.NoError(t, err)
	assert.Equal(t, "got ping", got.Text)
}

func TestCommand_Failure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	c, err := NewCommand([]string{"sh", "-c", "echo boom >&2; exit 3"})
	require.NoError(t, err)

	_, err = c.Respond(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAgentFailed))
	me := errors.As(err)
	assert.Contains(t, me.Unwrap().Error(), "boom")
}
