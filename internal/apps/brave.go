package apps

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/adrg/xdg"

	"github.com/wilterson/auto-backup-manjaro/internal/config"
	"github.com/wilterson/auto-backup-manjaro/internal/logging"
)

// Brave backs up bookmarks and history for every Brave browser profile.
type Brave struct {
	BaseDir string
}

// NewBrave returns a Brave app pointed at the standard profile location.
func NewBrave() *Brave {
	return &Brave{
		BaseDir: filepath.Join(xdg.ConfigHome, "BraveSoftware", "Brave-Browser"),
	}
}

func (b *Brave) Name() string { return "brave" }

func (b *Brave) Detect() bool {
	return len(b.profiles()) > 0
}

type braveProfile struct {
	dir     string // directory name, the stable key ("Default", "Profile 1", ...)
	display string
	path    string
}

// profiles finds every directory under BaseDir that holds browser data.
// The display name comes from the profile's Preferences file when available.
func (b *Brave) profiles() []braveProfile {
	entries, err := os.ReadDir(b.BaseDir)
	if err != nil {
		return nil
	}

	var profiles []braveProfile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(b.BaseDir, entry.Name())
		if !exists(filepath.Join(path, "Bookmarks")) && !exists(filepath.Join(path, "History")) {
			continue
		}
		profiles = append(profiles, braveProfile{
			dir:     entry.Name(),
			display: profileDisplayName(path, entry.Name()),
			path:    path,
		})
	}

	// Default first, then alphabetically.
	sort.Slice(profiles, func(i, j int) bool {
		if (profiles[i].dir == "Default") != (profiles[j].dir == "Default") {
			return profiles[i].dir == "Default"
		}
		return profiles[i].dir < profiles[j].dir
	})
	return profiles
}

func profileDisplayName(path, fallback string) string {
	data, err := os.ReadFile(filepath.Join(path, "Preferences"))
	if err != nil {
		return fallback
	}

	var prefs struct {
		AccountInfo []struct {
			Email string `json:"email"`
		} `json:"account_info"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return fallback
	}
	if len(prefs.AccountInfo) > 0 && prefs.AccountInfo[0].Email != "" {
		return fmt.Sprintf("%s (%s)", fallback, prefs.AccountInfo[0].Email)
	}
	if prefs.Profile.Name != "" {
		return fmt.Sprintf("%s (%s)", fallback, prefs.Profile.Name)
	}
	return fallback
}

func (b *Brave) Extract(cfg *config.Config) error {
	log := logging.GetLogger("apps.brave")

	profiles := b.profiles()
	if len(profiles) == 0 {
		log.Warn().Str("path", b.BaseDir).Msg("no Brave profiles found")
		return nil
	}

	for _, p := range profiles {
		out := filepath.Join(cfg.StagingDir(b.Name()), p.dir)
		if err := os.MkdirAll(out, 0755); err != nil {
			return fmt.Errorf("failed to create staging dir for %s: %w", p.dir, err)
		}
		plog := log.With().Str("profile", p.display).Logger()

		bookmarks := filepath.Join(p.path, "Bookmarks")
		if exists(bookmarks) {
			if err := copyFile(bookmarks, filepath.Join(out, "Bookmarks")); err != nil {
				plog.Error().Err(err).Msg("failed to copy Bookmarks")
			} else if err := exportBookmarksJSON(bookmarks, filepath.Join(out, "bookmarks.json"), plog); err != nil {
				plog.Warn().Err(err).Msg("could not parse Bookmarks for export")
			}
		} else {
			plog.Warn().Msg("Bookmarks file not found")
		}

		history := filepath.Join(p.path, "History")
		if exists(history) {
			if err := copyFile(history, filepath.Join(out, "History")); err != nil {
				plog.Error().Err(err).Msg("failed to copy History")
			} else {
				plog.Info().Msg("copied history database")
			}
		} else {
			plog.Warn().Msg("History file not found")
		}
	}

	return nil
}

func (b *Brave) Restore(cfg *config.Config) error {
	log := logging.GetLogger("apps.brave")
	staged := cfg.StagingDir(b.Name())

	entries, err := os.ReadDir(staged)
	if err != nil {
		return fmt.Errorf("no brave backup found in %s", staged)
	}

	restored := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		src := filepath.Join(staged, entry.Name())
		target := filepath.Join(b.BaseDir, entry.Name())
		if err := os.MkdirAll(target, 0755); err != nil {
			log.Error().Err(err).Str("profile", entry.Name()).Msg("failed to create profile directory")
			continue
		}
		plog := log.With().Str("profile", entry.Name()).Logger()

		for _, file := range []string{"Bookmarks", "History"} {
			from := filepath.Join(src, file)
			if !exists(from) {
				continue
			}
			to := filepath.Join(target, file)
			if err := backupExisting(to); err != nil {
				plog.Error().Err(err).Str("file", file).Msg("failed to back up existing file")
				continue
			}
			if err := copyFile(from, to); err != nil {
				plog.Error().Err(err).Str("file", file).Msg("restore failed")
				continue
			}
			plog.Info().Str("file", file).Msg("restored")
			restored++
		}
	}

	if restored == 0 {
		return fmt.Errorf("nothing restored from %s", staged)
	}
	return nil
}
