// internal/script/rtf.go
package script

import (
	"strconv"
	"strings"
)

// rtfSkipDestination reports destinations whose content is metadata, not document text
func rtfSkipDestination(word string) bool {
	switch word {
	case "fonttbl", "colortbl", "expandedcolortbl", "stylesheet", "info", "pict",
		"header", "footer", "listtable", "listoverridetable", "generator":
		return true
	}
	return false
}

// RTFToText strips control words and groups from an RTF document.
// Paragraph and line controls become newlines, \tab a tab, and \'hh and
// \uN escapes are decoded.
func RTFToText(src string) string {
	var sb strings.Builder

	type group struct{ skip bool }
	stack := []group{{}}
	skipping := func() bool { return stack[len(stack)-1].skip }

	i := 0
	ucSkip := 1
	for i < len(src) {
		c := src[i]
		switch c {
		case '{':
			stack = append(stack, group{skip: skipping()})
			i++
		case '}':
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			i++
		case '\\':
			i++
			if i >= len(src) {
				break
			}
			next := src[i]
			switch {
			case next == '\\' || next == '{' || next == '}':
				if !skipping() {
					sb.WriteByte(next)
				}
				i++
			case next == '*':
				// \* marks an ignorable destination
				stack[len(stack)-1].skip = true
				i++
			case next == '\'':
				if i+2 < len(src) {
					if v, err := strconv.ParseUint(src[i+1:i+3], 16, 8); err == nil && !skipping() {
						sb.WriteRune(cp1252(byte(v)))
					}
					i += 3
				} else {
					i = len(src)
				}
			case next == '\n' || next == '\r':
				if !skipping() {
					sb.WriteByte('\n')
				}
				i++
			case isASCIILetter(next):
				start := i
				for i < len(src) && isASCIILetter(src[i]) {
					i++
				}
				word := src[start:i]

				numStart := i
				if i < len(src) && src[i] == '-' {
					i++
				}
				for i < len(src) && src[i] >= '0' && src[i] <= '9' {
					i++
				}
				param := src[numStart:i]
				if i < len(src) && src[i] == ' ' {
					i++
				}

				if rtfSkipDestination(word) {
					stack[len(stack)-1].skip = true
					continue
				}
				if skipping() {
					continue
				}
				switch word {
				case "par", "line", "sect", "page":
					sb.WriteByte('\n')
				case "tab":
					sb.WriteByte('\t')
				case "emdash":
					sb.WriteString("\u2014")
				case "endash":
					sb.WriteString("\u2013")
				case "bullet":
					sb.WriteString("\u2022")
				case "lquote", "rquote":
					sb.WriteByte('\'')
				case "ldblquote", "rdblquote":
					sb.WriteByte('"')
				case "uc":
					if n, err := strconv.Atoi(param); err == nil {
						ucSkip = n
					}
				case "u":
					if n, err := strconv.Atoi(param); err == nil {
						if n < 0 {
							n += 65536
						}
						sb.WriteRune(rune(n))
						// skip the fallback characters that follow \uN
						for k := 0; k < ucSkip && i < len(src) && src[i] != '\\' && src[i] != '{' && src[i] != '}'; k++ {
							i++
						}
					}
				}
			default:
				// control symbol such as \~ or \-
				if next == '~' && !skipping() {
					sb.WriteByte(' ')
				}
				i++
			}
		case '\r', '\n':
			i++
		default:
			if !skipping() {
				sb.WriteByte(c)
			}
			i++
		}
	}

	return strings.TrimSpace(sb.String())
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// decodeCP1252 converts a document written in the ANSI code page to UTF-8.
// RTF syntax is ASCII, so this is safe to run before parsing.
func decodeCP1252(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c < 0x80 {
			sb.WriteByte(c)
			continue
		}
		sb.WriteRune(cp1252(c))
	}
	return sb.String()
}

// cp1252 decodes a \'hh escape. Only the 0x80-0x9F block differs from Latin-1.
func cp1252(b byte) rune {
	switch b {
	case 0x85:
		return '\u2026'
	case 0x91:
		return '\u2018'
	case 0x92:
		return '\u2019'
	case 0x93:
		return '\u201c'
	case 0x94:
		return '\u201d'
	case 0x95:
		return '\u2022'
	case 0x96:
		return '\u2013'
	case 0x97:
		return '\u2014'
	}
	return rune(b)
}
