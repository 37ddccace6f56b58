package engine

import (
	"regexp"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// mapUnquoted applies fn to the parts of s outside strings, comments and
// url() arguments.
func mapUnquoted(s string, fn func(string) string) string {
	var sb strings.Builder
	plain := 0
	flush := func(upTo int) {
		if upTo > plain {
			sb.WriteString(fn(s[plain:upTo]))
		}
	}
	for i := 0; i < len(s); i++ {
		end := -1
		switch {
		case s[i] == '"' || s[i] == '\'':
			if e, ok := stringEnd(s, i); ok {
				end = e + 1
			} else {
				end = len(s)
			}
		case strings.HasPrefix(s[i:], "/*"):
			if e := strings.Index(s[i+2:], "*/"); e >= 0 {
				end = i + e + 4
			} else {
				end = len(s)
			}
		case len(s)-i >= 4 && strings.EqualFold(s[i:i+4], "url("):
			if e := strings.IndexByte(s[i:], ')'); e >= 0 {
				end = i + e + 1
			} else {
				end = len(s)
			}
		}
		if end < 0 {
			continue
		}
		flush(i)
		sb.WriteString(s[i:end])
		plain = end
		i = end - 1
	}
	flush(len(s))
	return sb.String()
}

// convertQuotes rewrites every string literal in s, outside comments, to use
// the target quote ("single" or "double"), re-escaping as needed.
func convertQuotes(s, target string) string {
	want := byte('\'')
	if target == "double" {
		want = '"'
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.HasPrefix(s[i:], "/*") {
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				sb.WriteString(s[i:])
				break
			}
			sb.WriteString(s[i : i+end+4])
			i += end + 3
			continue
		}
		if c != '"' && c != '\'' {
			sb.WriteByte(c)
			continue
		}
		end, ok := stringEnd(s, i)
		if !ok {
			sb.WriteString(s[i:])
			break
		}
		if c == want {
			sb.WriteString(s[i : end+1])
		} else {
			sb.WriteByte(want)
			sb.WriteString(requote(s[i+1:end], c, want))
			sb.WriteByte(want)
		}
		i = end
	}
	return sb.String()
}

// requote converts the body of a string quoted with from to one quoted
// with to: \from becomes from, a bare to becomes \to.
func requote(body string, from, to byte) string {
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body):
			if body[i+1] == from {
				sb.WriteByte(from)
			} else {
				sb.WriteString(body[i : i+2])
			}
			i++
		case c == to:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

var (
	missingZero = regexp.MustCompile(`(^|[\s,(/*+:-])\.(\d)`)
	presentZero = regexp.MustCompile(`(^|[\s,(/*+:-])0+\.(\d)`)
	zeroLength  = regexp.MustCompile(`(^|[\s,(/*+:-])0+(?:\.0+)?(?i:px|em|rem|ex|ch|vw|vh|vmin|vmax|cm|mm|in|pt|pc|q)\b`)
	hexColor    = regexp.MustCompile(`#([0-9a-fA-F]{3,8})\b`)
)

func leadingZero(s string, want bool) string {
	if want {
		return missingZero.ReplaceAllString(s, "${1}0.${2}")
	}
	return presentZero.ReplaceAllString(s, "${1}.${2}")
}

func unitlessZero(s string) string {
	return zeroLength.ReplaceAllString(s, "${1}0")
}

// hexColors applies color-shorthand and color-case to hex colors. Only
// strings csscolorparser accepts as colors are touched.
func (s *settings) hexColors(seg string) string {
	return hexColor.ReplaceAllStringFunc(seg, func(m string) string {
		hex := m[1:]
		switch len(hex) {
		case 3, 4, 6, 8:
		default:
			return m
		}
		if _, err := csscolorparser.Parse(m); err != nil {
			return m
		}
		if s.colorShorthand != nil {
			hex = shorthand(hex, *s.colorShorthand)
		}
		switch s.colorCase {
		case "lower":
			hex = strings.ToLower(hex)
		case "upper":
			hex = strings.ToUpper(hex)
		}
		return "#" + hex
	})
}

func shorthand(hex string, short bool) string {
	if short {
		if len(hex) != 6 && len(hex) != 8 {
			return hex
		}
		var sb strings.Builder
		for i := 0; i < len(hex); i += 2 {
			if !strings.EqualFold(hex[i:i+1], hex[i+1:i+2]) {
				return hex
			}
			sb.WriteByte(hex[i])
		}
		return sb.String()
	}
	if len(hex) != 3 && len(hex) != 4 {
		return hex
	}
	var sb strings.Builder
	for i := 0; i < len(hex); i++ {
		sb.WriteByte(hex[i])
		sb.WriteByte(hex[i])
	}
	return sb.String()
}
