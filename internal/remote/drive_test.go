package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, "plain name", escapeQuery("plain name"))
	assert.Equal(t, `it\'s`, escapeQuery("it's"))
	assert.Equal(t, `a\\b`, escapeQuery(`a\b`))
	assert.Equal(t, `mix\\ed \'quote`, escapeQuery(`mix\ed 'quote`))
}

func TestNewDriveMissingCredentials(t *testing.T) {
	_, err := NewDrive(context.Background(), "/nonexistent/google-creds.json")
	assert.ErrorContains(t, err, "credentials file")
}
