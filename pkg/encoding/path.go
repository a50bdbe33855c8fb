package encoding

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// NormalizePath normalizes an asset reference for case-insensitive lookup.
// Charts are authored on Windows, so references may use backslashes and
// any letter case.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "./")
	return strings.ToLower(path)
}

// ResolveAsset finds the file a chart refers to as name inside basePath.
// An exact match is preferred; otherwise each path element is matched
// case-insensitively.
func ResolveAsset(basePath, name string) (string, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(name, "\\", "/"))
	exact := filepath.Join(basePath, rel)
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}

	dir := basePath
	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(rel)), "/") {
		if part == "" || part == "." {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", fmt.Errorf("resolving %q: %w", name, err)
		}
		found := ""
		for _, e := range entries {
			if strings.EqualFold(e.Name(), part) {
				found = e.Name()
				break
			}
		}
		if found == "" {
			return "", fmt.Errorf("resolving %q: %w", name, fs.ErrNotExist)
		}
		dir = filepath.Join(dir, found)
	}
	return dir, nil
}
