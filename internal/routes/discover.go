package routes

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover returns every file named filename under root, deepest first.
// Files at equal depth keep their walk order, which is lexical.
// A root that does not exist holds no route files; any other filesystem error is returned.
func Discover(root, filename string) ([]string, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "discover", Path: root, Err: errors.New("not a directory")}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == filename {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	SortBySpecificity(files, func(i int) int { return Depth(root, files[i]) })
	return files, nil
}

// Depth is the number of directory separators in file's path relative to root.
// A route file at the root has depth 0.
func Depth(root, file string) int {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		rel = file
	}
	return strings.Count(filepath.ToSlash(rel), "/")
}

// SortBySpecificity stably sorts a slice so that entries with greater depth come first.
// depth reports the depth of the element currently at index i.
func SortBySpecificity[T any](items []T, depth func(i int) int) {
	depths := make([]int, len(items))
	for i := range items {
		depths[i] = depth(i)
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return depths[idx[a]] > depths[idx[b]] })

	sorted := make([]T, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
}

// RouteBase derives the route base of file: the configured prefix followed by the
// file's directory relative to root.
func RouteBase(prefix, root, file string) string {
	rel, err := filepath.Rel(root, filepath.Dir(file))
	if err != nil || rel == "." {
		rel = ""
	}
	return JoinBase(prefix, filepath.ToSlash(rel))
}

// JoinBase joins route base segments into "" or a "/"-prefixed path without a trailing slash.
func JoinBase(parts ...string) string {
	var segments []string
	for _, part := range parts {
		for _, seg := range strings.Split(part, "/") {
			if seg != "" {
				segments = append(segments, seg)
			}
		}
	}
	if len(segments) == 0 {
		return ""
	}
	return "/" + strings.Join(segments, "/")
}

// FullPath composes the router path for a route: routeBase + "/" + path, with a
// leading slash, no repeated slashes and no trailing slash except for "/".
func FullPath(routeBase, path string) string {
	full := JoinBase(routeBase, path)
	if full == "" {
		return "/"
	}
	return full
}
