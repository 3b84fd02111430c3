package apps

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKonsole(t *testing.T) *Konsole {
	t.Helper()
	base := t.TempDir()
	return &Konsole{
		ConfigPath:    filepath.Join(base, "konsolerc"),
		SSHConfigPath: filepath.Join(base, "konsolesshconfig"),
		ProfilesDir:   filepath.Join(base, "konsole"),
	}
}

func TestKonsoleExtract(t *testing.T) {
	k := newTestKonsole(t)
	writeFile(t, k.ConfigPath, "[General]\n")
	writeFile(t, filepath.Join(k.ProfilesDir, "Main.profile"), "[Appearance]\n")
	writeFile(t, filepath.Join(k.ProfilesDir, "Server.profile"), "[Appearance]\n")

	cfg := testConfig(t)
	require.NoError(t, k.Extract(cfg))

	staged := cfg.StagingDir("konsole")
	assert.Equal(t, "[General]\n", readFile(t, filepath.Join(staged, "konsolerc")))
	assert.True(t, exists(filepath.Join(staged, "profiles", "Main.profile")))
	assert.True(t, exists(filepath.Join(staged, "profiles", "Server.profile")))
	// No ssh config on disk, none staged.
	assert.False(t, exists(filepath.Join(staged, "konsolesshconfig")))
}

func TestKonsoleRestore(t *testing.T) {
	k := newTestKonsole(t)
	writeFile(t, k.ConfigPath, "[General]\nlocal\n")
	writeFile(t, filepath.Join(k.ProfilesDir, "Main.profile"), "local profile")

	cfg := testConfig(t)
	staged := cfg.StagingDir("konsole")
	writeFile(t, filepath.Join(staged, "konsolerc"), "[General]\nrestored\n")
	writeFile(t, filepath.Join(staged, "konsolesshconfig"), "[SSH]\n")
	writeFile(t, filepath.Join(staged, "profiles", "Main.profile"), "restored profile")
	writeFile(t, filepath.Join(staged, "profiles", "Server.profile"), "new profile")
	writeFile(t, filepath.Join(staged, "profiles", "notes.txt"), "not a profile")

	require.NoError(t, k.Restore(cfg))

	assert.Equal(t, "[General]\nrestored\n", readFile(t, k.ConfigPath))
	assert.Equal(t, "[General]\nlocal\n", readFile(t, k.ConfigPath+".bak"))
	assert.Equal(t, "[SSH]\n", readFile(t, k.SSHConfigPath))

	assert.Equal(t, "restored profile", readFile(t, filepath.Join(k.ProfilesDir, "Main.profile")))
	assert.Equal(t, "local profile", readFile(t, filepath.Join(k.ProfilesDir, "Main.profile.bak")))
	assert.Equal(t, "new profile", readFile(t, filepath.Join(k.ProfilesDir, "Server.profile")))
	assert.False(t, exists(filepath.Join(k.ProfilesDir, "notes.txt")))
}

func TestKonsoleRestorePartialBackup(t *testing.T) {
	k := newTestKonsole(t)
	cfg := testConfig(t)
	staged := cfg.StagingDir("konsole")
	writeFile(t, filepath.Join(staged, "konsolerc"), "[General]\n")

	require.NoError(t, k.Restore(cfg))
	assert.True(t, exists(k.ConfigPath))
	assert.False(t, exists(k.SSHConfigPath))
}

func TestKonsoleRestoreNothingStaged(t *testing.T) {
	k := newTestKonsole(t)
	err := k.Restore(testConfig(t))
	assert.ErrorContains(t, err, "no konsole backup found")
}

func TestCountProfiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.profile"), "")
	writeFile(t, filepath.Join(dir, "b.profile"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	assert.Equal(t, 2, countProfiles(dir))
}
