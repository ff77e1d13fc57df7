package strings

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts a name such as "MyGame", "space-game" or
// "HTTPServer v2" into a lowercase identifier: "my_game", "space_game",
// "http_server_v2". Runs of separators collapse into one underscore and
// anything that is not a letter or digit counts as a separator.
func ToSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	pending := false

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pending = b.Len() > 0
			continue
		}

		if unicode.IsUpper(r) && i > 0 && b.Len() > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			// word boundary: "yG" in myGame, or "PS" in HTTPServer
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				pending = true
			}
		}

		if pending {
			b.WriteRune('_')
			pending = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
