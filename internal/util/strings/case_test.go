package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MyGame", "my_game"},
		{"space-game", "space_game"},
		{"HTTPServer v2", "http_server_v2"},
		{"already_snake", "already_snake"},
		{"  --Lead", "lead"},
		{"trail--", "trail"},
		{"a.b c", "a_b_c"},
		{"Level2Boss", "level2_boss"},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSnakeCase(tt.in))
		})
	}
}
