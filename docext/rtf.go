package docext

import (
	"errors"
	"strconv"
	"strings"
)

// extractRtf strips RTF control words and groups, keeping the document text.
// Destination groups like font tables and stylesheets are skipped entirely.
func extractRtf(data []byte) (string, error) {
	src := string(data)
	if !strings.HasPrefix(src, `{\rtf`) {
		return "", errors.New("missing rtf header")
	}

	var out strings.Builder
	skipDepth := 0 // depth inside a skipped destination group, 0 when not skipping
	depth := 0

	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch ch {
		case '{':
			depth++
		case '}':
			if skipDepth > 0 && depth == skipDepth {
				skipDepth = 0
			}
			depth--
		case '\\':
			if i+1 >= len(src) {
				break
			}
			next := src[i+1]
			switch {
			case next == '\\' || next == '{' || next == '}':
				if skipDepth == 0 {
					out.WriteByte(next)
				}
				i++
			case next == '\'':
				// Hex-escaped byte.
				if i+3 < len(src) {
					if b, err := strconv.ParseUint(src[i+2:i+4], 16, 8); err == nil && skipDepth == 0 {
						out.WriteByte(byte(b))
					}
					i += 3
				}
			case next == '*':
				// \* marks an ignorable destination; skip its whole group.
				if skipDepth == 0 {
					skipDepth = depth
				}
				i++
			default:
				word, param, consumed := readControlWord(src[i+1:])
				i += consumed
				if skipDepth > 0 {
					continue
				}
				switch word {
				case "par", "line":
					out.WriteByte('\n')
				case "tab":
					out.WriteByte('\t')
				case "u":
					// Unicode escape: \uN followed by a fallback character.
					out.WriteRune(rune(param))
					if i+1 < len(src) && src[i+1] != '\\' && src[i+1] != '{' && src[i+1] != '}' {
						i++ // swallow the fallback
					}
				case "fonttbl", "colortbl", "stylesheet", "info", "pict":
					skipDepth = depth
				}
			}
		default:
			if skipDepth == 0 && ch != '\r' && ch != '\n' {
				out.WriteByte(ch)
			}
		}
	}

	return out.String(), nil
}

// readControlWord parses a control word starting right after the backslash
// and returns the word, its numeric parameter, and the bytes consumed.
func readControlWord(s string) (word string, param int, consumed int) {
	i := 0
	for i < len(s) && isAlpha(s[i]) {
		i++
	}
	word = s[:i]

	numStart := i
	if i < len(s) && (s[i] == '-' || isDigit(s[i])) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		param, _ = strconv.Atoi(s[numStart:i])
	}

	consumed = i
	// A single space terminating the control word belongs to it.
	if i < len(s) && s[i] == ' ' {
		consumed++
	}
	return word, param, consumed
}

func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }
