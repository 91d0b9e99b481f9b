package store

import (
	"reflect"
	"testing"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"vocab", "vocab"},
		{"french_verbs", "french_verbs"},
		{"FrenchVerbs", "frenchverbs"},
		{"french verbs", "french-verbs"},
		{"chapter.3", "chapter-3"},
		{"bio/cells", "bio-cells"},
		{"  spaces  ", "spaces"},
		{"---leading", "leading"},
		{"trailing---", "trailing"},
		{"café", "café"}, // letters from any script survive
		{"hello world!", "hello-world"},
		{"", ""},
		{"   ", ""},
		{"!!!!", ""},
	}

	for _, tt := range tests {
		got := NormalizeTag(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeTagsDedupes(t *testing.T) {
	got := normalizeTags([]string{"B", "a", "b", "", "!!"})
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalizeTags = %v, want %v", got, want)
	}
}
