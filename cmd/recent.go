package cmd

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// maxRecent is the number of books remembered.
const maxRecent = 10

// recentBook is a book opened by bgt.
type recentBook struct {
	Path   string    `json:"path"`
	Opened time.Time `json:"opened"`
}

// recentFile returns the file listing the recently opened books.
func recentFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bgt", "recent.json"), nil
}

// loadRecent reads the recent books, most recent first. A missing file is an
// empty list.
func loadRecent(file string) ([]recentBook, error) {
	content, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []recentBook
	if err := json.Unmarshal(content, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// addRecent moves path to the top of the recent books.
func addRecent(file, path string, now time.Time) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	list, err := loadRecent(file)
	if err != nil {
		return err
	}
	list = slices.DeleteFunc(list, func(r recentBook) bool { return r.Path == abs })
	list = append([]recentBook{{Path: abs, Opened: now.UTC()}}, list...)
	if len(list) > maxRecent {
		list = list[:maxRecent]
	}
	content, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, content, 0o644)
}
