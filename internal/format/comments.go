package format

import "strings"

// comment is a `-- line` or `--[[ block ]]` comment in the source
type comment struct {
	Start int
	End   int
	Text  string
	Block bool
}

// scanComments finds every comment in src, skipping string literals
func scanComments(src string) []comment {
	var out []comment
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '"':
			i++
			for i < len(src) && src[i] != '"' && src[i] != '\n' {
				if src[i] == '\\' {
					i++
				}
				i++
			}
		case '-':
			if i+1 >= len(src) || src[i+1] != '-' {
				continue
			}
			start := i
			if strings.HasPrefix(src[i+2:], "[[") {
				end := strings.Index(src[i+4:], "]]")
				if end < 0 {
					i = len(src)
				} else {
					i += 4 + end + 2
				}
				out = append(out, comment{Start: start, End: i, Text: src[start:i], Block: true})
				i--
				continue
			}
			for i < len(src) && src[i] != '\n' {
				i++
			}
			out = append(out, comment{Start: start, End: i, Text: strings.TrimRight(src[start:i], " \t\r")})
			i--
		}
	}
	return out
}

// sameLine reports whether no newline separates offsets a and b
func sameLine(src string, a, b int) bool {
	if a > b {
		a, b = b, a
	}
	return !strings.Contains(src[a:b], "\n")
}

// blankLineBetween reports whether src[a:b] holds an empty line
func blankLineBetween(src string, a, b int) bool {
	if a >= b {
		return false
	}
	lines := strings.Split(src[a:b], "\n")
	if len(lines) < 3 {
		return false
	}
	for _, line := range lines[1 : len(lines)-1] {
		if strings.TrimSpace(line) == "" {
			return true
		}
	}
	return false
}
