package apps

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExtensions = `[
  {
    "identifier": {"id": "golang.go"},
    "version": "0.42.0",
    "metadata": {"publisherDisplayName": "Go Team at Google"}
  },
  {
    "identifier": {"id": "EditorConfig.EditorConfig"},
    "version": "0.16.4",
    "metadata": {"publisherDisplayName": "EditorConfig"}
  }
]`

func newTestCursor(t *testing.T) *Cursor {
	t.Helper()
	base := t.TempDir()
	return &Cursor{
		ConfigDir: filepath.Join(base, "Cursor"),
		DataDir:   filepath.Join(base, ".cursor"),
	}
}

func TestCursorProfiles(t *testing.T) {
	c := newTestCursor(t)
	writeFile(t, filepath.Join(c.userDir(), "settings.json"), "{}")
	writeFile(t, filepath.Join(c.userDir(), "profiles", "work", "settings.json"), "{}")

	profiles := c.profiles()
	require.Len(t, profiles, 2)
	assert.Equal(t, "Default", profiles[0].name)
	assert.True(t, profiles[0].isDefault)
	assert.Equal(t, "work", profiles[1].name)
	assert.False(t, profiles[1].isDefault)
}

func TestCursorExtract(t *testing.T) {
	c := newTestCursor(t)
	writeFile(t, filepath.Join(c.userDir(), "settings.json"), `{"editor.fontSize": 14} // comment`)
	writeFile(t, filepath.Join(c.userDir(), "keybindings.json"), "[]")
	writeFile(t, filepath.Join(c.userDir(), "snippets", "go.json"), "{}")
	writeFile(t, filepath.Join(c.userDir(), "globalStorage", "storage.json"), `{"theme": "dark"}`)
	writeFile(t, filepath.Join(c.DataDir, "argv.json"), `{"enable-crash-reporter": false}`)
	writeFile(t, filepath.Join(c.DataDir, "extensions", "extensions.json"), sampleExtensions)
	writeFile(t, filepath.Join(c.userDir(), "profiles", "work", "settings.json"), `{"workbench.colorTheme": "Light"}`)

	cfg := testConfig(t)
	require.NoError(t, c.Extract(cfg))

	staged := cfg.StagingDir("cursor")

	// JSONC settings are copied byte for byte, comments included.
	assert.Equal(t, `{"editor.fontSize": 14} // comment`,
		readFile(t, filepath.Join(staged, "Default", "settings.json")))
	assert.True(t, exists(filepath.Join(staged, "Default", "keybindings.json")))
	assert.True(t, exists(filepath.Join(staged, "Default", "snippets", "go.json")))
	assert.True(t, exists(filepath.Join(staged, "work", "settings.json")))

	assert.Equal(t, `{"enable-crash-reporter": false}`,
		readFile(t, filepath.Join(staged, "_global", "argv.json")))
	assert.Equal(t, `{"theme": "dark"}`,
		readFile(t, filepath.Join(staged, "_global", "globalStorage.json")))

	// Extensions export lives with the default profile only.
	var extensions []cursorExtension
	require.NoError(t, json.Unmarshal(
		[]byte(readFile(t, filepath.Join(staged, "Default", "extensions.json"))), &extensions))
	require.Len(t, extensions, 2)
	assert.Equal(t, "EditorConfig.EditorConfig", extensions[0].ID)
	assert.Equal(t, "golang.go", extensions[1].ID)
	assert.False(t, exists(filepath.Join(staged, "work", "extensions.json")))
}

func TestExtensionsList(t *testing.T) {
	out := extensionsList([]cursorExtension{
		{ID: "EditorConfig.EditorConfig", Version: "0.16.4"},
		{ID: "golang.go", Version: "0.42.0"},
	})

	assert.Contains(t, out, "# Total: 2\n")
	assert.Contains(t, out, "#   cursor --install-extension <extension-id>\n")
	assert.Contains(t, out, "EditorConfig.EditorConfig\ngolang.go\n")
}

func TestCursorRestore(t *testing.T) {
	c := newTestCursor(t)
	writeFile(t, filepath.Join(c.userDir(), "settings.json"), "local settings")
	writeFile(t, filepath.Join(c.DataDir, "argv.json"), "local argv")

	cfg := testConfig(t)
	staged := cfg.StagingDir("cursor")
	writeFile(t, filepath.Join(staged, "Default", "settings.json"), "restored settings")
	writeFile(t, filepath.Join(staged, "Default", "snippets", "go.json"), "{}")
	writeFile(t, filepath.Join(staged, "work", "settings.json"), "work settings")
	writeFile(t, filepath.Join(staged, "_global", "argv.json"), "restored argv")
	writeFile(t, filepath.Join(staged, "_global", "globalStorage.json"), `{"theme": "dark"}`)

	require.NoError(t, c.Restore(cfg))

	assert.Equal(t, "restored settings", readFile(t, filepath.Join(c.userDir(), "settings.json")))
	assert.Equal(t, "local settings", readFile(t, filepath.Join(c.userDir(), "settings.json.bak")))
	assert.True(t, exists(filepath.Join(c.userDir(), "snippets", "go.json")))
	assert.Equal(t, "work settings",
		readFile(t, filepath.Join(c.userDir(), "profiles", "work", "settings.json")))

	// argv.json comes back; globalStorage.json stays a reference copy.
	assert.Equal(t, "restored argv", readFile(t, filepath.Join(c.DataDir, "argv.json")))
	assert.Equal(t, "local argv", readFile(t, filepath.Join(c.DataDir, "argv.json.bak")))
	assert.False(t, exists(filepath.Join(c.DataDir, "globalStorage.json")))
}

func TestCursorRestoreGlobalOnly(t *testing.T) {
	c := newTestCursor(t)
	cfg := testConfig(t)
	staged := cfg.StagingDir("cursor")
	writeFile(t, filepath.Join(staged, "_global", "argv.json"), "restored argv")

	require.NoError(t, c.Restore(cfg))
	assert.Equal(t, "restored argv", readFile(t, filepath.Join(c.DataDir, "argv.json")))
	assert.False(t, exists(filepath.Join(c.DataDir, "argv.json.bak")))
}

func TestExtensionsToInstall(t *testing.T) {
	dir := t.TempDir()

	// Nothing staged.
	assert.Empty(t, extensionsToInstall(dir))

	// JSON fallback.
	writeFile(t, filepath.Join(dir, "extensions.json"), sampleExtensions)
	assert.Equal(t, []string{"golang.go", "EditorConfig.EditorConfig"}, extensionsToInstall(dir))

	// The plain list wins when present; comments and blanks are skipped.
	writeFile(t, filepath.Join(dir, "extensions.txt"),
		"# Cursor IDE extensions\n# Total: 2\n\nEditorConfig.EditorConfig\ngolang.go\n")
	assert.Equal(t, []string{"EditorConfig.EditorConfig", "golang.go"}, extensionsToInstall(dir))
}

func TestCursorRestoreToleratesMissingCLI(t *testing.T) {
	c := newTestCursor(t)
	c.Command = filepath.Join(t.TempDir(), "no-such-cursor")

	cfg := testConfig(t)
	staged := cfg.StagingDir("cursor")
	writeFile(t, filepath.Join(staged, "Default", "settings.json"), "restored settings")
	writeFile(t, filepath.Join(staged, "Default", "extensions.txt"), "golang.go\n")

	require.NoError(t, c.Restore(cfg))
	assert.Equal(t, "restored settings", readFile(t, filepath.Join(c.userDir(), "settings.json")))
}

func TestCursorRestoreNothingStaged(t *testing.T) {
	c := newTestCursor(t)
	err := c.Restore(testConfig(t))
	assert.ErrorContains(t, err, "no cursor backup found")
}
