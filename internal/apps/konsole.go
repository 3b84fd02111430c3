package apps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/wilterson/auto-backup-manjaro/internal/config"
	"github.com/wilterson/auto-backup-manjaro/internal/logging"
)

// Konsole backs up the Konsole terminal configuration and profiles.
type Konsole struct {
	ConfigPath    string
	SSHConfigPath string
	ProfilesDir   string
}

// NewKonsole returns a Konsole app pointed at the standard KDE locations.
func NewKonsole() *Konsole {
	return &Konsole{
		ConfigPath:    filepath.Join(xdg.ConfigHome, "konsolerc"),
		SSHConfigPath: filepath.Join(xdg.ConfigHome, "konsolesshconfig"),
		ProfilesDir:   filepath.Join(xdg.DataHome, "konsole"),
	}
}

func (k *Konsole) Name() string { return "konsole" }

func (k *Konsole) Detect() bool {
	return exists(k.ConfigPath) || exists(k.SSHConfigPath) || exists(k.ProfilesDir)
}

func (k *Konsole) Extract(cfg *config.Config) error {
	log := logging.GetLogger("apps.konsole")
	out := cfg.StagingDir(k.Name())
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}

	if exists(k.ConfigPath) {
		if err := copyFile(k.ConfigPath, filepath.Join(out, "konsolerc")); err != nil {
			log.Error().Err(err).Msg("failed to copy konsolerc")
		} else {
			log.Info().Msg("copied konsolerc")
		}
	} else {
		log.Warn().Str("path", k.ConfigPath).Msg("konsolerc not found")
	}

	if exists(k.SSHConfigPath) {
		if err := copyFile(k.SSHConfigPath, filepath.Join(out, "konsolesshconfig")); err != nil {
			log.Error().Err(err).Msg("failed to copy konsolesshconfig")
		} else {
			log.Info().Msg("copied konsolesshconfig")
		}
	}

	if exists(k.ProfilesDir) {
		if err := copyTree(k.ProfilesDir, filepath.Join(out, "profiles")); err != nil {
			log.Error().Err(err).Msg("failed to copy profiles")
		} else {
			count := countProfiles(filepath.Join(out, "profiles"))
			log.Info().Int("profiles", count).Msg("copied profiles")
		}
	} else {
		log.Warn().Str("path", k.ProfilesDir).Msg("profiles directory not found")
	}

	return nil
}

func (k *Konsole) Restore(cfg *config.Config) error {
	log := logging.GetLogger("apps.konsole")
	staged := cfg.StagingDir(k.Name())
	if !exists(staged) {
		return fmt.Errorf("no konsole backup found in %s", staged)
	}

	restored := 0
	files := []struct{ src, dst, name string }{
		{filepath.Join(staged, "konsolerc"), k.ConfigPath, "konsolerc"},
		{filepath.Join(staged, "konsolesshconfig"), k.SSHConfigPath, "konsolesshconfig"},
	}
	for _, f := range files {
		if !exists(f.src) {
			log.Warn().Str("file", f.name).Msg("not found in backup")
			continue
		}
		if err := backupExisting(f.dst); err != nil {
			return fmt.Errorf("failed to back up existing %s: %w", f.name, err)
		}
		if err := copyFile(f.src, f.dst); err != nil {
			return fmt.Errorf("failed to restore %s: %w", f.name, err)
		}
		log.Info().Str("file", f.name).Msg("restored")
		restored++
	}

	// Profiles are restored file by file; anything else living in the
	// profiles dir (colorschemes added later, session data) stays put.
	profiles, _ := filepath.Glob(filepath.Join(staged, "profiles", "*.profile"))
	for _, p := range profiles {
		target := filepath.Join(k.ProfilesDir, filepath.Base(p))
		if err := backupExisting(target); err != nil {
			log.Error().Err(err).Str("profile", filepath.Base(p)).Msg("failed to back up existing profile")
			continue
		}
		if err := copyFile(p, target); err != nil {
			log.Error().Err(err).Str("profile", filepath.Base(p)).Msg("restore failed")
			continue
		}
		restored++
	}
	if len(profiles) > 0 {
		log.Info().Int("profiles", len(profiles)).Msg("restored profiles")
	}

	if restored == 0 {
		return fmt.Errorf("nothing restored from %s", staged)
	}
	return nil
}

func countProfiles(dir string) int {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.profile"))
	return len(matches)
}
