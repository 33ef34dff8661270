// Package browser registers the browsing RPC methods —
// browser.path_summary (authoritative) and browser.listdir (a
// restricted, older-revision listing kept alongside it) — against a
// jsonrpc.Dispatcher.
package browser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gitexplorer/internal/content"
	"gitexplorer/internal/core"
	"gitexplorer/internal/jsonrpc"
	"gitexplorer/internal/sanitize"
)

// Register binds "browser.path_summary" and "browser.listdir" against
// d, both backed by producer.
func Register(d *jsonrpc.Dispatcher, producer *content.Producer) {
	d.Register("browser.path_summary", pathSummaryMethod(producer))
	d.Register("browser.listdir", listDirMethod(producer))
}

func pathSummaryMethod(producer *content.Producer) jsonrpc.Method {
	return func(params []json.RawMessage) (any, error) {
		path, err := firstStringParam(params)
		if err != nil {
			return nil, err
		}

		summary, err := producer.Summary(path)
		if err != nil {
			return nil, err
		}
		return summaryToWire(path, summary), nil
	}
}

// wireSummary is the JSON shape browser.path_summary replies with,
// matching spec.md §8's literal boundary scenario:
// {type, data, meta:{path}}.
type wireSummary struct {
	Type string `json:"type"`
	Data any    `json:"data"`
	Meta struct {
		Path string `json:"path"`
	} `json:"meta"`
}

func summaryToWire(path string, s content.Summary) wireSummary {
	w := wireSummary{Type: string(s.Kind)}
	w.Meta.Path = path

	switch s.Kind {
	case content.SummaryFolder:
		entries := make([]map[string]any, 0, len(s.Entries))
		for _, e := range s.Entries {
			entry := map[string]any{"type": e.Kind, "name": e.Name}
			if e.IsRepo {
				entry["is_repo"] = true
			}
			entries = append(entries, entry)
		}
		w.Data = entries
	case content.SummaryRepo:
		w.Data = map[string]any{"endpoints": s.Endpoints, "description": s.Description}
	case content.SummaryRepoFolder:
		w.Data = map[string]any{"items": s.Items}
	case content.SummaryRepoItem:
		item := map[string]any{
			"type": map[string]any{
				"mimetype":      s.Type.MimeType,
				"supermimetype": s.Type.SuperMimeType,
				"extension":     s.Type.Extension,
			},
			"name": s.Name,
			"size": s.Size,
		}
		if s.Data != nil {
			item["data"] = s.Data
		}
		w.Data = item
	case content.SummaryRemoteLink:
		w.Data = map[string]any{
			"system":    s.System,
			"class":     s.Class,
			"name":      s.Name,
			"url":       s.URL,
			"commit_id": s.ID,
		}
	}
	return w
}

// listDirMethod implements the legacy restricted directory listing:
// like path_summary's folder case, but it additionally forbids any
// ancestor segment of path from being a git repo folder.
func listDirMethod(producer *content.Producer) jsonrpc.Method {
	return func(params []json.RawMessage) (any, error) {
		path, err := firstStringParam(params)
		if err != nil {
			return nil, err
		}

		rel, err := sanitize.Path(producer.Root, path)
		if err != nil {
			return nil, err
		}

		if err := rejectAncestorRepoDirs(producer.Root, rel); err != nil {
			return nil, err
		}

		dir := filepath.Join(string(producer.Root), string(rel))
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, core.PathBounds("%q could not be listed: %v", rel, err)
		}

		type dirEntry struct {
			Name   string `json:"name"`
			IsRepo bool   `json:"is_git_dir,omitempty"`
		}
		dirs := make([]dirEntry, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			dirs = append(dirs, dirEntry{Name: e.Name(), IsRepo: isRepoDir(filepath.Join(dir, e.Name()))})
		}

		return map[string]any{"path": string(rel), "dirs": dirs}, nil
	}
}

// rejectAncestorRepoDirs walks every ancestor of rel (not rel itself)
// and fails if any of them is a git repo folder: browsing inside a
// repo as a plain filesystem folder is meaningless.
func rejectAncestorRepoDirs(root core.ServedRoot, rel core.RelativePath) error {
	if rel == "" {
		return nil
	}
	segments := strings.Split(string(rel), "/")
	current := string(root)
	for _, seg := range segments[:len(segments)-1] {
		current = filepath.Join(current, seg)
		if isRepoDir(current) {
			return core.PathContainsRepoDir("a parent folder on the path is a git repo folder: %q", current)
		}
	}
	return nil
}

func isRepoDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	have := map[string]bool{}
	for _, e := range entries {
		have[strings.ToLower(e.Name())] = true
	}
	for _, want := range []string{"head", "info", "objects", "refs"} {
		if !have[want] {
			return false
		}
	}
	return true
}

func firstStringParam(params []json.RawMessage) (string, error) {
	if len(params) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(params[0], &s); err != nil {
		return "", core.PathUnfit("path parameter must be a string: %v", err)
	}
	return s, nil
}
