// ABOUTME: Finds the primary export document inside a decompressed export directory.
// ABOUTME: An exact export.xml wins over other *export*.xml files.
package exportxml

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNoExport is wrapped in the FormatError returned when Locate finds nothing.
var ErrNoExport = errors.New("no export document found")

// Locate returns the path of the export document under dir.
func Locate(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", &FormatError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return "", &FormatError{Path: dir, Err: errors.New("not a directory")}
	}

	var exact, partial []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if filepath.Ext(name) != ".xml" || !strings.Contains(name, "export") {
			return nil
		}
		if name == "export.xml" {
			exact = append(exact, path)
		} else {
			partial = append(partial, path)
		}
		return nil
	})
	if err != nil {
		return "", &FormatError{Path: dir, Err: err}
	}

	for _, candidates := range [][]string{exact, partial} {
		if len(candidates) > 0 {
			slices.Sort(candidates)
			return candidates[0], nil
		}
	}
	return "", &FormatError{Path: dir, Err: ErrNoExport}
}
