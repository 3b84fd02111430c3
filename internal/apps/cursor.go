package apps

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"github.com/wilterson/auto-backup-manjaro/internal/config"
	"github.com/wilterson/auto-backup-manjaro/internal/logging"
)

// Cursor backs up settings, keybindings, snippets and the extensions list of
// the Cursor IDE, for the default profile and any extra profiles.
type Cursor struct {
	ConfigDir string // settings live under <ConfigDir>/User
	DataDir   string // extensions and argv.json live here
	Command   string // executable used to reinstall extensions
}

// NewCursor returns a Cursor app pointed at the standard Linux locations.
// CURSOR_EXECUTABLE overrides the CLI name for non-standard installs.
func NewCursor() *Cursor {
	command := os.Getenv("CURSOR_EXECUTABLE")
	if command == "" {
		command = "cursor"
	}
	return &Cursor{
		ConfigDir: filepath.Join(xdg.ConfigHome, "Cursor"),
		DataDir:   filepath.Join(xdg.Home, ".cursor"),
		Command:   command,
	}
}

func (c *Cursor) Name() string { return "cursor" }

func (c *Cursor) Detect() bool {
	return exists(c.ConfigDir) || exists(c.DataDir)
}

func (c *Cursor) userDir() string {
	return filepath.Join(c.ConfigDir, "User")
}

type cursorProfile struct {
	name      string
	path      string
	isDefault bool
}

func (c *Cursor) profiles() []cursorProfile {
	var profiles []cursorProfile

	user := c.userDir()
	if exists(filepath.Join(user, "settings.json")) || exists(filepath.Join(user, "keybindings.json")) {
		profiles = append(profiles, cursorProfile{name: "Default", path: user, isDefault: true})
	}

	entries, err := os.ReadDir(filepath.Join(user, "profiles"))
	if err != nil {
		return profiles
	}
	for _, entry := range entries {
		if entry.IsDir() {
			profiles = append(profiles, cursorProfile{
				name: entry.Name(),
				path: filepath.Join(user, "profiles", entry.Name()),
			})
		}
	}
	return profiles
}

func (c *Cursor) Extract(cfg *config.Config) error {
	log := logging.GetLogger("apps.cursor")

	profiles := c.profiles()
	if len(profiles) == 0 {
		log.Warn().Str("path", c.ConfigDir).Msg("no Cursor profiles found")
		return nil
	}

	c.extractGlobal(cfg, log)

	for _, p := range profiles {
		out := filepath.Join(cfg.StagingDir(c.Name()), p.name)
		if err := os.MkdirAll(out, 0755); err != nil {
			return fmt.Errorf("failed to create staging dir for %s: %w", p.name, err)
		}
		plog := log.With().Str("profile", p.name).Logger()

		// Copied verbatim; settings and keybindings are JSONC and must
		// keep their comments.
		for _, file := range []string{"settings.json", "keybindings.json"} {
			src := filepath.Join(p.path, file)
			if !exists(src) {
				plog.Warn().Str("file", file).Msg("not found")
				continue
			}
			if err := copyFile(src, filepath.Join(out, file)); err != nil {
				plog.Error().Err(err).Str("file", file).Msg("copy failed")
			} else {
				plog.Info().Str("file", file).Msg("copied")
			}
		}

		snippets := filepath.Join(p.path, "snippets")
		if exists(snippets) {
			if err := copyTree(snippets, filepath.Join(out, "snippets")); err != nil {
				plog.Error().Err(err).Msg("failed to copy snippets")
			} else {
				plog.Info().Msg("copied snippets")
			}
		}

		// Extensions are shared across profiles; export them once with
		// the default profile.
		if p.isDefault {
			if err := c.exportExtensions(out, plog); err != nil {
				plog.Warn().Err(err).Msg("could not export extensions list")
			}
		}
	}

	return nil
}

// extractGlobal stages the profile-independent files under _global.
func (c *Cursor) extractGlobal(cfg *config.Config, log zerolog.Logger) {
	out := filepath.Join(cfg.StagingDir(c.Name()), "_global")
	if err := os.MkdirAll(out, 0755); err != nil {
		log.Error().Err(err).Msg("failed to create _global staging dir")
		return
	}

	files := []struct{ src, name string }{
		{filepath.Join(c.DataDir, "argv.json"), "argv.json"},
		{filepath.Join(c.userDir(), "globalStorage", "storage.json"), "globalStorage.json"},
	}
	for _, f := range files {
		if !exists(f.src) {
			continue
		}
		if err := copyFile(f.src, filepath.Join(out, f.name)); err != nil {
			log.Error().Err(err).Str("file", f.name).Msg("copy failed")
		} else {
			log.Info().Str("file", f.name).Msg("copied")
		}
	}
}

// cursorExtension is one entry of the exported extensions.json.
type cursorExtension struct {
	ID        string `json:"id"`
	Version   string `json:"version"`
	Publisher string `json:"publisher,omitempty"`
}

// exportExtensions reads the shared extensions manifest and writes both a
// machine-readable extensions.json and a plain extensions.txt install list.
func (c *Cursor) exportExtensions(out string, log zerolog.Logger) error {
	manifest := filepath.Join(c.DataDir, "extensions", "extensions.json")
	data, err := os.ReadFile(manifest)
	if err != nil {
		return err
	}

	var raw []struct {
		Identifier struct {
			ID string `json:"id"`
		} `json:"identifier"`
		Version  string `json:"version"`
		Metadata struct {
			PublisherDisplayName string `json:"publisherDisplayName"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	extensions := make([]cursorExtension, 0, len(raw))
	for _, ext := range raw {
		extensions = append(extensions, cursorExtension{
			ID:        ext.Identifier.ID,
			Version:   ext.Version,
			Publisher: ext.Metadata.PublisherDisplayName,
		})
	}
	sort.Slice(extensions, func(i, j int) bool {
		return strings.ToLower(extensions[i].ID) < strings.ToLower(extensions[j].ID)
	})

	encoded, err := json.MarshalIndent(extensions, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(out, "extensions.json"), encoded, 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(out, "extensions.txt"), []byte(extensionsList(extensions)), 0644); err != nil {
		return err
	}

	log.Info().Int("extensions", len(extensions)).Msg("exported extensions list")
	return nil
}

// extensionsList renders the reinstall list shipped next to extensions.json.
func extensionsList(extensions []cursorExtension) string {
	var b strings.Builder
	b.WriteString("# Cursor IDE extensions\n")
	fmt.Fprintf(&b, "# Total: %d\n", len(extensions))
	b.WriteString("#\n")
	b.WriteString("# To install, run:\n")
	b.WriteString("#   cursor --install-extension <extension-id>\n")
	b.WriteString("\n")
	for _, ext := range extensions {
		b.WriteString(ext.ID)
		b.WriteString("\n")
	}
	return b.String()
}

func (c *Cursor) Restore(cfg *config.Config) error {
	log := logging.GetLogger("apps.cursor")
	staged := cfg.StagingDir(c.Name())

	entries, err := os.ReadDir(staged)
	if err != nil {
		return fmt.Errorf("no cursor backup found in %s", staged)
	}

	restored := 0
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "_global" {
			continue
		}
		src := filepath.Join(staged, entry.Name())

		target := c.userDir()
		if entry.Name() != "Default" {
			target = filepath.Join(target, "profiles", entry.Name())
		}
		if err := os.MkdirAll(target, 0755); err != nil {
			log.Error().Err(err).Str("profile", entry.Name()).Msg("failed to create profile directory")
			continue
		}
		plog := log.With().Str("profile", entry.Name()).Logger()

		for _, file := range []string{"settings.json", "keybindings.json"} {
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

		snippets := filepath.Join(src, "snippets")
		if exists(snippets) {
			to := filepath.Join(target, "snippets")
			if err := backupExisting(to); err != nil {
				plog.Error().Err(err).Msg("failed to back up existing snippets")
			} else if err := copyTree(snippets, to); err != nil {
				plog.Error().Err(err).Msg("failed to restore snippets")
			} else {
				plog.Info().Msg("restored snippets")
				restored++
			}
		}

		// Extensions were exported with the default profile; reinstall
		// them from there.
		if entry.Name() == "Default" {
			c.installExtensions(src, plog)
		}
	}

	restored += c.restoreGlobal(staged, log)

	if restored == 0 {
		return fmt.Errorf("nothing restored from %s", staged)
	}
	return nil
}

// restoreGlobal writes the staged _global files back. Only argv.json is a
// restore target; globalStorage.json is kept as a reference copy because
// writing it into a running installation corrupts window state.
func (c *Cursor) restoreGlobal(staged string, log zerolog.Logger) int {
	src := filepath.Join(staged, "_global", "argv.json")
	if !exists(src) {
		return 0
	}

	dst := filepath.Join(c.DataDir, "argv.json")
	if err := backupExisting(dst); err != nil {
		log.Error().Err(err).Msg("failed to back up existing argv.json")
		return 0
	}
	if err := copyFile(src, dst); err != nil {
		log.Error().Err(err).Msg("failed to restore argv.json")
		return 0
	}
	log.Info().Str("file", "argv.json").Msg("restored")
	return 1
}

// extensionsToInstall reads the staged install list, preferring the plain
// extensions.txt over extensions.json.
func extensionsToInstall(dir string) []string {
	if data, err := os.ReadFile(filepath.Join(dir, "extensions.txt")); err == nil {
		var ids []string
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				ids = append(ids, line)
			}
		}
		return ids
	}

	data, err := os.ReadFile(filepath.Join(dir, "extensions.json"))
	if err != nil {
		return nil
	}
	var extensions []cursorExtension
	if err := json.Unmarshal(data, &extensions); err != nil {
		return nil
	}
	var ids []string
	for _, ext := range extensions {
		if ext.ID != "" {
			ids = append(ids, ext.ID)
		}
	}
	return ids
}

// installExtensions reinstalls the staged extension list through the Cursor
// CLI, skipping ones already present. A missing or failing CLI never fails
// the restore; settings and keybindings land regardless.
func (c *Cursor) installExtensions(src string, log zerolog.Logger) {
	ids := extensionsToInstall(src)
	if len(ids) == 0 {
		return
	}

	present := c.listInstalled()
	installed, skipped, failed := 0, 0, 0
	for _, id := range ids {
		if present[strings.ToLower(id)] {
			skipped++
			continue
		}
		if err := exec.Command(c.Command, "--install-extension", id, "--force").Run(); err != nil {
			log.Error().Err(err).Str("extension", id).Msg("install failed")
			failed++
			continue
		}
		log.Debug().Str("extension", id).Msg("installed")
		installed++
	}
	log.Info().
		Int("installed", installed).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("reinstalled extensions")
}

// listInstalled asks the Cursor CLI which extensions are already present.
func (c *Cursor) listInstalled() map[string]bool {
	out, err := exec.Command(c.Command, "--list-extensions").Output()
	if err != nil {
		return nil
	}
	present := make(map[string]bool)
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			present[strings.ToLower(line)] = true
		}
	}
	return present
}
