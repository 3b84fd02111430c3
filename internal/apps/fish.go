package apps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/wilterson/auto-backup-manjaro/internal/config"
	"github.com/wilterson/auto-backup-manjaro/internal/logging"
)

// Fish backs up the fish shell history and config directory.
type Fish struct {
	HistoryPath string
	ConfigDir   string
}

// NewFish returns a Fish app pointed at the standard XDG locations.
func NewFish() *Fish {
	return &Fish{
		HistoryPath: filepath.Join(xdg.DataHome, "fish", "fish_history"),
		ConfigDir:   filepath.Join(xdg.ConfigHome, "fish"),
	}
}

func (f *Fish) Name() string { return "fish" }

func (f *Fish) Detect() bool {
	return exists(f.HistoryPath) || exists(f.ConfigDir)
}

func (f *Fish) Extract(cfg *config.Config) error {
	log := logging.GetLogger("apps.fish")
	out := cfg.StagingDir(f.Name())
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}

	if exists(f.HistoryPath) {
		if err := copyFile(f.HistoryPath, filepath.Join(out, "fish_history")); err != nil {
			log.Error().Err(err).Msg("failed to copy fish_history")
		} else {
			log.Info().Msg("copied fish_history")
		}
	} else {
		log.Warn().Str("path", f.HistoryPath).Msg("fish history not found")
	}

	if exists(f.ConfigDir) {
		if err := copyTree(f.ConfigDir, filepath.Join(out, "config")); err != nil {
			log.Error().Err(err).Msg("failed to copy fish config")
		} else {
			log.Info().Msg("copied fish config directory")
		}
	} else {
		log.Warn().Str("path", f.ConfigDir).Msg("fish config directory not found")
	}

	return nil
}

func (f *Fish) Restore(cfg *config.Config) error {
	log := logging.GetLogger("apps.fish")
	staged := cfg.StagingDir(f.Name())

	history := filepath.Join(staged, "fish_history")
	configDir := filepath.Join(staged, "config")
	if !exists(history) && !exists(configDir) {
		return fmt.Errorf("no fish backup found in %s", staged)
	}

	if exists(history) {
		if err := backupExisting(f.HistoryPath); err != nil {
			return fmt.Errorf("failed to back up existing history: %w", err)
		}
		if err := copyFile(history, f.HistoryPath); err != nil {
			return fmt.Errorf("failed to restore fish_history: %w", err)
		}
		log.Info().Msg("restored fish_history")
	}

	if exists(configDir) {
		if err := backupExisting(f.ConfigDir); err != nil {
			return fmt.Errorf("failed to back up existing config: %w", err)
		}
		if err := copyTree(configDir, f.ConfigDir); err != nil {
			return fmt.Errorf("failed to restore fish config: %w", err)
		}
		log.Info().Msg("restored fish config directory")
	}

	return nil
}
