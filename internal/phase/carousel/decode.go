package carousel

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// fields wraps a decoded JSON object with tolerant accessors. Every repair
// made while reading is appended to notes.
type fields struct {
	obj   map[string]json.RawMessage
	path  string
	notes *[]string
}

func newFields(obj map[string]json.RawMessage, path string, notes *[]string) fields {
	return fields{obj: obj, path: path, notes: notes}
}

func (f fields) note(format string, args ...any) {
	if f.notes != nil {
		*f.notes = append(*f.notes, fmt.Sprintf(format, args...))
	}
}

func (f fields) key(name string) string {
	if f.path == "" {
		return name
	}
	return f.path + "." + name
}

func (f fields) has(name string) bool {
	raw, ok := f.obj[name]
	return ok && !isNull(raw)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null" || len(raw) == 0
}

// str reads a string member. Numbers and booleans are rendered as text;
// anything else becomes "" with a note.
func (f fields) str(name string) string {
	raw, ok := f.obj[name]
	if !ok || isNull(raw) {
		return ""
	}
	s, ok := looseString(raw)
	if !ok {
		f.note("%s: expected string, ignored", f.key(name))
	}
	return strings.TrimSpace(s)
}

func looseString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}

// strList reads a list of strings. A lone string becomes a one-item list;
// blank items are dropped; a missing member yields an empty list.
func (f fields) strList(name string) []string {
	raw, ok := f.obj[name]
	if !ok || isNull(raw) {
		return []string{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if s, ok := looseString(raw); ok {
			if strings.TrimSpace(s) == "" {
				return []string{}
			}
			return []string{strings.TrimSpace(s)}
		}
		f.note("%s: expected list of strings, ignored", f.key(name))
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := looseString(item)
		if !ok {
			f.note("%s: dropped non-string item", f.key(name))
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// integer reads a whole number, accepting numeric strings. Fractions are
// truncated and magnitudes beyond int32 are clamped. NaN is rejected.
func (f fields) integer(name string) (int, bool) {
	raw, ok := f.obj[name]
	if !ok || isNull(raw) {
		return 0, false
	}
	s, ok := looseString(raw)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(n) {
		return 0, false
	}
	return int(max(math.MinInt32, min(math.MaxInt32, math.Trunc(n)))), true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// object returns a nested object, or false if absent or not an object.
func (f fields) object(name string) (fields, bool) {
	raw, ok := f.obj[name]
	if !ok || isNull(raw) {
		return fields{}, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return fields{}, false
	}
	return newFields(obj, f.key(name), f.notes), true
}

// array returns the elements of an array member, or false if absent or
// not an array.
func (f fields) array(name string) ([]json.RawMessage, bool) {
	raw, ok := f.obj[name]
	if !ok || isNull(raw) {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// element decodes the i-th array item as an object.
func (f fields) element(name string, i int, raw json.RawMessage) (fields, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return fields{}, false
	}
	return newFields(obj, fmt.Sprintf("%s[%d]", f.key(name), i), f.notes), true
}

// mergeUnique appends the items of extra not already in base, ignoring case.
func mergeUnique(base []string, extra ...[]string) []string {
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base))
	for _, s := range base {
		k := strings.ToLower(s)
		if !seen[k] {
			seen[k] = true
			out = append(out, s)
		}
	}
	for _, list := range extra {
		for _, s := range list {
			k := strings.ToLower(strings.TrimSpace(s))
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
