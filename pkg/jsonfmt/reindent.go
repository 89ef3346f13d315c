// Package jsonfmt re-indents minified JSON text for readability.
//
// The formatter is naive: every double quote toggles the "inside a string"
// state, escaped or not, and brackets change the nesting depth even inside
// string values.
package jsonfmt

import (
	"errors"
	"fmt"
	"strings"
)

// Indent is the string written once per nesting level.
const Indent = "    "

// ErrUnbalanced is returned when a closing bracket would drive the nesting
// depth below zero.
var ErrUnbalanced = errors.New("jsonfmt: unbalanced brackets")

// Reindent returns s with a line break after every top-level comma and around
// every bracket, indented by nesting depth. On error the caller should keep
// using s unchanged.
func Reindent(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)

	depth := 0
	quotes := 0

	for i, ch := range s {
		switch ch {
		case '"':
			quotes++
			b.WriteRune(ch)
		case ',':
			b.WriteRune(ch)
			if quotes%2 == 0 {
				newline(&b, depth)
			}
		case '{', '[':
			depth++
			b.WriteRune(ch)
			newline(&b, depth)
		case '}', ']':
			depth--
			if depth < 0 {
				return "", fmt.Errorf("%w: %q at offset %d", ErrUnbalanced, ch, i)
			}
			newline(&b, depth)
			b.WriteRune(ch)
		default:
			b.WriteRune(ch)
		}
	}

	return b.String(), nil
}

// ReindentOrKeep returns the re-indented text, or s itself if formatting
// failed, along with the formatting error (if any).
func ReindentOrKeep(s string) (string, error) {
	out, err := Reindent(s)
	if err != nil {
		return s, err
	}
	return out, nil
}

func newline(b *strings.Builder, depth int) {
	b.WriteByte('\n')
	for i := 0; i < depth; i++ {
		b.WriteString(Indent)
	}
}
