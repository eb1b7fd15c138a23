// Package ingest discovers invoice files on the local filesystem.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// File is one discovered document.
type File struct {
	Path    string
	Ext     string
	Size    int64
	HashHex string
	// DuplicateOf is the first path seen with identical content, if any.
	DuplicateOf string
}

type Stats struct {
	Scanned      uint32
	Matched      uint32
	Deduplicated uint32
	Failed       uint32
}

type ScanOptions struct {
	// Exts limits matches (lowercase, no dot). Empty means constants.AllowedExtensions.
	Exts       []string
	SkipHidden bool
	// Dedupe hashes every match and flags byte-identical copies.
	Dedupe bool
}

// Scan walks root and returns matching files in lexical path order.
// Unreadable entries are counted as failed and skipped.
func Scan(ctx context.Context, root string, opts ScanOptions) ([]File, Stats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, Stats{}, errors.New("root path is required")
	}
	exts := extSet(opts.Exts)

	var (
		files []File
		stats Stats
		seen  = map[string]string{}
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil
		}
		if opts.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := exts[ext]; !ok {
			return nil
		}
		stats.Matched++

		info, err := d.Info()
		if err != nil {
			stats.Failed++
			return nil
		}
		f := File{Path: path, Ext: ext, Size: info.Size()}
		if opts.Dedupe {
			if f.HashHex, err = HashFile(path); err != nil {
				stats.Failed++
				return nil
			}
			if first, dup := seen[f.HashHex]; dup {
				f.DuplicateOf = first
				stats.Deduplicated++
			} else {
				seen[f.HashHex] = path
			}
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return files, stats, fmt.Errorf("walk: %w", err)
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, stats, nil
}

// AllowedExt reports whether ext is one of the default supported extensions.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func extSet(in []string) map[string]struct{} {
	if len(in) == 0 {
		return constants.AllowedExtensions
	}
	out := make(map[string]struct{}, len(in))
	for _, e := range in {
		if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}
