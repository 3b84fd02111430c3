package apps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectEmptyReturnsAll(t *testing.T) {
	apps, err := Select("")
	require.NoError(t, err)
	assert.Len(t, apps, len(All()))
}

func TestSelectByName(t *testing.T) {
	apps, err := Select("fish, cursor")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "fish", apps[0].Name())
	assert.Equal(t, "cursor", apps[1].Name())
}

func TestSelectUnknown(t *testing.T) {
	_, err := Select("fish,emacs")
	assert.ErrorContains(t, err, `unknown app "emacs"`)
}

func TestRegistryNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, app := range All() {
		require.False(t, seen[app.Name()], "duplicate app %s", app.Name())
		seen[app.Name()] = true
	}
}
