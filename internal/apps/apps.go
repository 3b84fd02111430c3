// Package apps holds the per-application extractors and restorers. Each app
// stages its files under <backup>/<name>-data; restorers copy existing
// targets to .bak before overwriting them.
package apps

import (
	"fmt"
	"strings"

	"github.com/wilterson/auto-backup-manjaro/internal/config"
)

// App is one backed-up application.
type App interface {
	// Name is the registry key and the staging directory prefix.
	Name() string
	// Detect reports whether the application's data is present locally.
	Detect() bool
	// Extract copies the application's data into the staging tree.
	Extract(cfg *config.Config) error
	// Restore copies staged data back into the application's locations.
	Restore(cfg *config.Config) error
}

// All returns every known app, in extraction order.
func All() []App {
	return []App{
		NewFish(),
		NewBrave(),
		NewCursor(),
		NewKonsole(),
	}
}

// Select filters the registry by comma-separated names; an empty selector
// returns every app.
func Select(selector string) ([]App, error) {
	if selector == "" {
		return All(), nil
	}

	byName := make(map[string]App)
	for _, app := range All() {
		byName[app.Name()] = app
	}

	var out []App
	for _, name := range strings.Split(selector, ",") {
		name = strings.TrimSpace(name)
		app, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown app %q", name)
		}
		out = append(out, app)
	}
	return out, nil
}
