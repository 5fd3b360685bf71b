package carousel

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMicrocopy fills a CopyOutput whose microcopy came back missing.
func DefaultMicrocopy() Microcopy {
	return Microcopy{
		SwipeHint: "Swipe →",
		SaveHint:  "Save for later",
		ShareHint: "Share with a friend",
	}
}

// CopyField is one populated text field of a slide. Key is the charCounts
// key; Field selects the template limit.
type CopyField struct {
	Key   string
	Field string
	Value string
}

// BulletKey is the charCounts key of the i-th bullet.
func BulletKey(i int) string {
	return fmt.Sprintf("%s%d", FieldBullet, i+1)
}

// TextFields lists every non-blank field in display order.
func (s SlideCopy) TextFields() []CopyField {
	var out []CopyField
	add := func(field, value string) {
		if strings.TrimSpace(value) != "" {
			out = append(out, CopyField{Key: field, Field: field, Value: value})
		}
	}

	add(FieldHeadline, s.Headline)
	add(FieldSubheadline, s.Subheadline)
	add(FieldBody, s.Body)
	for i, b := range s.Bullets {
		if strings.TrimSpace(b) != "" {
			out = append(out, CopyField{Key: BulletKey(i), Field: FieldBullet, Value: b})
		}
	}
	add(FieldStat, s.Stat)
	add(FieldCTA, s.CTA)
	add(FieldCaption, s.Caption)
	return out
}

// CountChars returns the rune length of every populated field.
func (s SlideCopy) CountChars() map[string]int {
	counts := make(map[string]int)
	for _, f := range s.TextFields() {
		counts[f.Key] = utf8.RuneCountInString(f.Value)
	}
	return counts
}

// AllText joins every populated field, for phrase scanning.
func (s SlideCopy) AllText() string {
	fields := s.TextFields()
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Value
	}
	return strings.Join(parts, "\n")
}
