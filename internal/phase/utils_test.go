package phase

import (
	"testing"
)

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object",
			input: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "prose around object",
			input: "Here is the plan:\n{\"a\":{\"b\":2}}\nLet me know!",
			want:  `{"a":{"b":2}}`,
		},
		{
			name:  "braces inside strings",
			input: `Sure: {"text":"use {curly} braces","n":1} done`,
			want:  `{"text":"use {curly} braces","n":1}`,
		},
		{
			name:  "trailing comma",
			input: `{"items":[1,2,],}`,
			want:  `{"items":[1,2]}`,
		},
		{
			name:  "raw newline in string",
			input: "{\"body\":\"line one\nline two\"}",
			want:  `{"body":"line one\nline two"}`,
		},
		{
			name:  "unquoted keys",
			input: `{name: "x", count: 2}`,
			want:  `{"name": "x","count": 2}`,
		},
		{
			name:  "no json at all",
			input: "I cannot help with that.",
			want:  "I cannot help with that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanJSONResponse(tt.input)
			if tt.name == "unquoted keys" {
				if !isValidJSON(got) {
					t.Errorf("CleanJSONResponse() = %q, want valid JSON", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("CleanJSONResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"within limit", "Short line", 20, "Short line"},
		{"exact limit", "12345", 5, "12345"},
		{"cuts at word boundary", "Plans that update themselves overnight", 20, "Plans that update…"},
		{"drops trailing punctuation", "Stop. Start shipping now", 10, "Stop…"},
		{"single long word", "Supercalifragilistic", 8, "Superca…"},
		{"zero limit ignored", "anything", 0, "anything"},
		{"multibyte runes", "Café au lait très chaud", 12, "Café au…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.input, tt.limit)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
			}
			if tt.limit > 0 && CharCount(got) > tt.limit {
				t.Errorf("TruncateWords() length %d exceeds limit %d", CharCount(got), tt.limit)
			}
		})
	}
}

func TestCharCountUsesRunes(t *testing.T) {
	if got := CharCount("Swipe →"); got != 7 {
		t.Errorf("CharCount() = %d, want 7", got)
	}
}

func TestDecodeObject(t *testing.T) {
	obj, err := DecodeObject(`{"slides":[],"notes":{}}`)
	if err != nil {
		t.Fatalf("DecodeObject() error = %v", err)
	}
	if !IsArray(obj["slides"]) || !isObject(obj["notes"]) {
		t.Errorf("unexpected member kinds: %v", obj)
	}

	for _, bad := range []string{`[1,2]`, `null`, `nope`} {
		if _, err := DecodeObject(bad); err == nil {
			t.Errorf("DecodeObject(%q) expected error", bad)
		}
	}
}
