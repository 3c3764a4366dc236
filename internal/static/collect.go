// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

// package static collects static assets from the configured source
// directories into the static root, from where the HTTP server serves
// them. Source directories are searched in order and the first file seen
// for a relative path wins.
package static // import "siteman/internal/static"

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Collect copies every regular file under the given source directories
// into root, preserving relative paths. Hidden files and directories
// (dot-prefixed) are skipped, as are source directories that do not
// exist. It returns the number of files copied.
func Collect(dirs []string, root string) (int, error) {
	if root == "" {
		return 0, fmt.Errorf("static: collection root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return 0, fmt.Errorf("static: could not create root %s: %w", root, err)
	}

	seen := make(map[string]bool)
	copied := 0

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue // apps without static assets are fine
		}

		err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") && p != dir {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			if seen[rel] {
				return nil // earlier directory already provided this path
			}

			if err := copyFile(p, filepath.Join(root, rel)); err != nil {
				return err
			}
			seen[rel] = true
			copied++
			return nil
		})
		if err != nil {
			return copied, fmt.Errorf("static: collecting from %s: %w", dir, err)
		}
	}

	return copied, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
