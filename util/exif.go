package util

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/evanoberholster/imagemeta"
)

// TakenAt returns when the photo at path was taken. EXIF DateTimeOriginal is
// preferred, then CreateDate, then ModifyDate, then the file modification time.
func TakenAt(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	exifData, err := imagemeta.Decode(f)
	if err == nil {
		switch {
		case !exifData.DateTimeOriginal().IsZero():
			return exifData.DateTimeOriginal(), nil
		case !exifData.CreateDate().IsZero():
			return exifData.CreateDate(), nil
		case !exifData.ModifyDate().IsZero():
			return exifData.ModifyDate(), nil
		}
	} else {
		slog.Debug("no exif metadata, using modification time", "path", path, "error", err)
	}

	info, err := f.Stat()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.ModTime(), nil
}

// SortByTakenAt orders paths oldest first. Paths that cannot be read keep
// their relative order at the end.
func SortByTakenAt(paths []string) []string {
	type taken struct {
		path string
		at   time.Time
		ok   bool
	}

	items := make([]taken, len(paths))
	for i, p := range paths {
		at, err := TakenAt(p)
		if err != nil {
			slog.Warn("unable to read capture time", "path", p, "error", err)
		}
		items[i] = taken{path: p, at: at, ok: err == nil}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ok != items[j].ok {
			return items[i].ok
		}
		return items[i].at.Before(items[j].at)
	})

	sorted := make([]string, len(items))
	for i, item := range items {
		sorted[i] = item.path
	}
	return sorted
}
