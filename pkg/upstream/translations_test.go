package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTranslations(t *testing.T) {
	payload := []byte(`{
		"athletes": {
			"search": {"placeholder": "Search athletes"},
			"title": "Athletes"
		},
		"common": {"save": "Save"}
	}`)
	tree, err := ParseTranslations(payload)
	require.NoError(t, err)

	tests := []struct {
		name      string
		key       string
		want      string
		wantFound bool
	}{
		{
			name:      "nested key",
			key:       "athletes.search.placeholder",
			want:      "Search athletes",
			wantFound: true,
		},
		{name: "top group key", key: "common.save", want: "Save", wantFound: true},
		{name: "missing key", key: "athletes.search.missing", wantFound: false},
		{name: "inner node is no leaf", key: "athletes.search", wantFound: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := tree.Lookup(tt.key)
			if found != tt.wantFound {
				t.Fatalf("Lookup(%q) found = %v, want %v", tt.key, found, tt.wantFound)
			}
			if got != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestParseTranslationsRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `{"a":`},
		{name: "not an object", payload: `["a","b"]`},
		{name: "numeric leaf", payload: `{"a": {"b": 42}}`},
		{name: "array leaf", payload: `{"a": ["b"]}`},
		{name: "null leaf", payload: `{"a": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTranslations([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}
