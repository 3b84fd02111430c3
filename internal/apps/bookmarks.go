package apps

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// BookmarkNode is one entry in the exported bookmark tree. Type is either
// "bookmark" or "folder", matching the export format of the staged
// bookmarks.json.
type BookmarkNode struct {
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	URL       string         `json:"url,omitempty"`
	DateAdded string         `json:"date_added,omitempty"`
	Children  []BookmarkNode `json:"children,omitempty"`
}

// Chromium's on-disk Bookmarks format.
type chromiumBookmarks struct {
	Roots map[string]chromiumNode `json:"roots"`
}

type chromiumNode struct {
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	URL       string         `json:"url"`
	DateAdded string         `json:"date_added"`
	Children  []chromiumNode `json:"children"`
}

// ParseBookmarks reads a Chromium Bookmarks file and flattens its roots
// (bookmark bar, other, synced) into an exportable tree.
func ParseBookmarks(path string) ([]BookmarkNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw chromiumBookmarks
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(raw.Roots))
	for k := range raw.Roots {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []BookmarkNode
	for _, k := range keys {
		root := raw.Roots[k]
		name := root.Name
		if name == "" {
			name = k
		}
		out = append(out, BookmarkNode{
			Type:     "folder",
			Name:     name,
			Children: convertBookmarkNodes(root.Children),
		})
	}
	return out, nil
}

func convertBookmarkNodes(nodes []chromiumNode) []BookmarkNode {
	var out []BookmarkNode
	for _, n := range nodes {
		switch n.Type {
		case "url":
			out = append(out, BookmarkNode{
				Type:      "bookmark",
				Name:      n.Name,
				URL:       n.URL,
				DateAdded: chromiumDate(n.DateAdded),
			})
		case "folder":
			out = append(out, BookmarkNode{
				Type:     "folder",
				Name:     n.Name,
				Children: convertBookmarkNodes(n.Children),
			})
		}
	}
	return out
}

// Chromium stores timestamps as microseconds since 1601-01-01; this is the
// offset of the Unix epoch from that, in seconds.
const chromiumEpochOffset = 11644473600

func chromiumDate(raw string) string {
	micros, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "Unknown"
	}
	t := time.Unix(micros/1e6-chromiumEpochOffset, micros%1e6*1000).UTC()
	return t.Format("2006-01-02 15:04:05")
}

// CountBookmarks counts the url entries in an exported tree.
func CountBookmarks(nodes []BookmarkNode) int {
	count := 0
	for _, n := range nodes {
		if n.Type == "bookmark" {
			count++
		}
		count += CountBookmarks(n.Children)
	}
	return count
}

func exportBookmarksJSON(bookmarksPath, outPath string, log zerolog.Logger) error {
	tree, err := ParseBookmarks(bookmarksPath)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return err
	}

	log.Info().Int("bookmarks", CountBookmarks(tree)).Msg("extracted bookmarks")
	return nil
}
