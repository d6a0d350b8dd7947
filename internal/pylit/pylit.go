// Package pylit parses the "nearly JSON" list fields of the raw movie
// extracts. The source encodes nested collections as Python literals:
//
//	[{'id': 28, 'name': 'Action'}, {'id': 12, 'name': 'Adventure'}]
//
// which is not valid JSON because of the single quotes (and occasional
// None/True/False). ParseList normalizes that syntax to strict JSON and then
// decodes it with encoding/json.
//
// The parser is deliberately lenient: callers treat a parse failure as "this
// row contributes zero entities", never as a pipeline failure.
package pylit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one embedded object from a parsed list. Values are the usual
// encoding/json types (string, float64, bool, nil).
type Record map[string]any

// Int returns the named field as int64 and whether it was present and
// numeric. JSON numbers decode as float64; integer-looking strings are also
// accepted because the feed is not strict about quoting ids.
func (r Record) Int(key string) (int64, bool) {
	switch v := r[key].(type) {
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// String returns the named field as a trimmed string, or "" when absent or
// not a string.
func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// ParseList parses a Python-literal (or plain JSON) list of objects.
//
// Edge cases:
//   - empty input or the literals "[]", "nan", "None" yield (nil, nil)
//   - anything that does not decode to a list of objects yields an error;
//     callers log it and skip the row
func ParseList(s string) ([]Record, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "[]", "nan", "NaN", "None", "null":
		return nil, nil
	}

	normalized, err := normalize(s)
	if err != nil {
		return nil, err
	}

	var out []Record
	if err := json.Unmarshal([]byte(normalized), &out); err != nil {
		return nil, fmt.Errorf("pylit: %w", err)
	}
	return out, nil
}

// normalize rewrites Python-literal syntax into strict JSON:
//
//   - single-quoted strings become double-quoted, with inner double quotes
//     escaped and Python's \' unescaped
//   - None/True/False become null/true/false
//
// It runs a small string-aware scanner rather than a blind quote replacement
// so titles like "Ender's Game" survive when the feed happens to use strict
// JSON quoting, and embedded quotes inside single-quoted strings do not
// corrupt the output.
func normalize(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s) + 16)

	rs := []rune(s)
	i := 0
	for i < len(rs) {
		c := rs[i]
		switch c {
		case '\'':
			// Single-quoted string: copy until the matching quote.
			b.WriteByte('"')
			i++
			for i < len(rs) {
				c = rs[i]
				if c == '\\' && i+1 < len(rs) {
					next := rs[i+1]
					if next == '\'' {
						// \' is not a JSON escape; emit the bare quote.
						b.WriteRune('\'')
					} else {
						b.WriteRune('\\')
						b.WriteRune(next)
					}
					i += 2
					continue
				}
				if c == '\'' {
					break
				}
				if c == '"' {
					b.WriteString(`\"`)
				} else {
					b.WriteRune(c)
				}
				i++
			}
			if i >= len(rs) {
				return "", fmt.Errorf("pylit: unterminated string")
			}
			b.WriteByte('"')
			i++

		case '"':
			// Already-JSON string: copy verbatim including escapes.
			b.WriteByte('"')
			i++
			closed := false
			for i < len(rs) {
				c = rs[i]
				if c == '\\' && i+1 < len(rs) {
					b.WriteRune(c)
					b.WriteRune(rs[i+1])
					i += 2
					continue
				}
				b.WriteRune(c)
				i++
				if c == '"' {
					closed = true
					break
				}
			}
			if !closed {
				return "", fmt.Errorf("pylit: unterminated string")
			}

		default:
			if replaced, n := pyWord(rs[i:]); n > 0 {
				b.WriteString(replaced)
				i += n
				continue
			}
			b.WriteRune(c)
			i++
		}
	}

	return b.String(), nil
}

// pyWord matches a Python bareword constant at the start of rs and returns its
// JSON spelling plus the matched length, or ("", 0).
func pyWord(rs []rune) (string, int) {
	for _, w := range [...]struct {
		py   string
		json string
	}{
		{"None", "null"},
		{"True", "true"},
		{"False", "false"},
	} {
		if hasRunePrefix(rs, w.py) && !followedByWordRune(rs, len(w.py)) {
			return w.json, len(w.py)
		}
	}
	return "", 0
}

func hasRunePrefix(rs []rune, s string) bool {
	ws := []rune(s)
	if len(rs) < len(ws) {
		return false
	}
	for i, r := range ws {
		if rs[i] != r {
			return false
		}
	}
	return true
}

func followedByWordRune(rs []rune, n int) bool {
	if n >= len(rs) {
		return false
	}
	c := rs[n]
	return c == '_' || (c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
