package pdf

import (
	"encoding/hex"
	"strings"
)

// decodeContentText recovers show-text strings from a decoded PDF content
// stream. It understands literal strings "(...)" with the standard escapes,
// hex strings "<...>", and the text-showing operators Tj, TJ, ' and ".
// Text-positioning operators (Td, TD, T*) become newlines so lines keep their
// visual breaks. Font encoding is not resolved; text using exotic encodings
// degrades to whatever bytes the string carries.
func decodeContentText(content []byte) string {
	var out strings.Builder
	var pending []string

	flush := func() {
		for _, s := range pending {
			out.WriteString(s)
		}
		pending = pending[:0]
	}

	i := 0
	for i < len(content) {
		c := content[i]
		switch c {
		case '(':
			s, next := readLiteralString(content, i)
			pending = append(pending, s)
			i = next
		case '<':
			// "<<" opens a dictionary, a single "<" a hex string.
			if i+1 < len(content) && content[i+1] == '<' {
				i += 2
				continue
			}
			s, next := readHexString(content, i)
			pending = append(pending, s)
			i = next
		case 'T':
			if i+1 < len(content) {
				switch content[i+1] {
				case 'j', 'J':
					flush()
					i += 2
					continue
				case 'd', 'D', '*':
					out.WriteByte('\n')
					pending = pending[:0]
					i += 2
					continue
				}
			}
			i++
		case '\'', '"':
			out.WriteByte('\n')
			flush()
			i++
		default:
			i++
		}
	}

	return normalizeText(out.String())
}

// readLiteralString reads a "(...)" string starting at the opening paren.
// Returns the decoded string and the index after the closing paren.
func readLiteralString(content []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 0
	i := start
	for i < len(content) {
		c := content[i]
		switch c {
		case '\\':
			if i+1 >= len(content) {
				return sb.String(), i + 1
			}
			next := content[i+1]
			switch next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r', 'f', 'b':
				// Carriage returns and form feeds add no text.
			case '(', ')', '\\':
				sb.WriteByte(next)
			default:
				// Octal escapes and anything else: keep the raw byte.
				sb.WriteByte(next)
			}
			i += 2
		case '(':
			depth++
			if depth > 1 {
				sb.WriteByte(c)
			}
			i++
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), i
}

// readHexString reads a "<...>" string starting at the opening bracket.
func readHexString(content []byte, start int) (string, int) {
	end := start + 1
	for end < len(content) && content[end] != '>' {
		end++
	}
	raw := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, string(content[start+1:end]))

	if len(raw)%2 == 1 {
		raw += "0" // trailing zero is implied by the spec
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return "", min(end+1, len(content))
	}

	// UTF-16BE heuristic for two-byte strings, common with CID fonts.
	if len(decoded) >= 2 && decoded[0] == 0xFE && decoded[1] == 0xFF {
		var sb strings.Builder
		for j := 2; j+1 < len(decoded); j += 2 {
			sb.WriteRune(rune(uint16(decoded[j])<<8 | uint16(decoded[j+1])))
		}
		return sb.String(), min(end+1, len(content))
	}

	return string(decoded), min(end+1, len(content))
}

// normalizeText collapses runs of blank lines and trims trailing whitespace.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
