package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/s0up4200/grister/grist"
)

// parseColumns reads column declarations of the form id:type:label
func parseColumns(decls []string) ([]grist.Column, error) {
	cols := make([]grist.Column, 0, len(decls))
	for _, d := range decls {
		parts := strings.Split(d, ":")
		if len(parts) != 3 || parts[0] == "" {
			return nil, fmt.Errorf("column must be declared as id:type:label, got %q", d)
		}
		cols = append(cols, grist.Column{
			ID:     parts[0],
			Fields: map[string]any{"type": parts[1], "label": parts[2]},
		})
	}
	return cols, nil
}

// parseAssignments reads key<sep>value pairs. Values are sent as strings and
// parsed by Grist according to the column type.
func parseAssignments(pairs []string, sep string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, sep)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key%svalue, got %q", sep, p)
		}
		fields[key] = value
	}
	return fields, nil
}

// checkDownloadPath makes sure the directory of a download target exists
func checkDownloadPath(path string) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("path does not exist: %s", dir)
	}
	return nil
}

// checkUploadPath makes sure an upload source is a regular file
func checkUploadPath(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("file does not exist: %s", path)
	}
	return nil
}
