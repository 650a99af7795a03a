package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommandStripsConfiguredMention(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		mention string
		command string
		arg     string
	}{
		{"plain command", "/help", "@gena_bot", "/help", ""},
		{"suffixed command", "/help@gena_bot", "@gena_bot", "/help", ""},
		{"renamed bot", "/settings@my_renamed_bot", "@my_renamed_bot", "/settings", ""},
		{"mixed case mention", "/Help@Gena_Bot", "@gena_bot", "/help", ""},
		{"foreign mention stays", "/help@other_bot", "@gena_bot", "/help@other_bot", ""},
		{"argument is lowercased", "/persona MYSTIC", "@gena_bot", "/persona", "mystic"},
		{"no mention configured", "/help@gena_bot", "", "/help@gena_bot", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, arg := parseCommand(tt.text, tt.mention)
			assert.Equal(t, tt.command, command)
			assert.Equal(t, tt.arg, arg)
		})
	}
}

func TestNewDispatcherNormalizesMention(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, nil, "@Gena_Bot")
	assert.Equal(t, "@gena_bot", d.mention)

	d = NewDispatcher(nil, nil, nil, nil, nil, "")
	assert.Equal(t, "", d.mention)
}
