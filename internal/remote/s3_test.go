package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"/", ""},
		{"backups", "backups/"},
		{"backups/", "backups/"},
		{"/backups/", "backups/"},
		{"deep/nested/path", "deep/nested/path/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizePrefix(tt.input), "input %q", tt.input)
	}
}

func TestSortByNameDesc(t *testing.T) {
	nodes := []Node{
		{Name: "backup_202401010900"},
		{Name: "backup_202401031100"},
		{Name: "backup_202401021000"},
	}
	sortByNameDesc(nodes)
	assert.Equal(t, "backup_202401031100", nodes[0].Name)
	assert.Equal(t, "backup_202401010900", nodes[2].Name)
}
