package export

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"ascii truncated with ellipsis", "hello world", 6, "hello…"},
		{"zero cap disables truncation", "hello", 0, "hello"},
		{"cap of one keeps one rune", "hello", 1, "h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.n))
		})
	}
}

// Truncation must cut on rune boundaries: a flag reason edited in a non-ASCII
// locale may not come out of the export as invalid UTF-8.
func TestTruncate_MultibyteSafe(t *testing.T) {
	in := "Rechnungsprüfung über fällige Beträge, bitte prüfen"
	out := truncate(in, 10)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 10, utf8.RuneCountInString(out))
	assert.Equal(t, "Rechnungs…", out)
}
