package routes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscover_DeepestFirst(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"routes.yaml",
		"a/routes.yaml",
		"a/b/routes.yaml",
		"b/routes.yaml",
		"a/b/c/routes.yaml",
		"a/other.yaml",
	} {
		writeFile(t, filepath.Join(root, rel), "")
	}

	files, err := Discover(root, "routes.yaml")
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{
		"a/b/c/routes.yaml",
		"a/b/routes.yaml",
		"a/routes.yaml",
		"b/routes.yaml",
		"routes.yaml",
	}, rels)
}

func TestDiscover_MissingRootHasNoFiles(t *testing.T) {
	files, err := Discover(filepath.Join(t.TempDir(), "missing"), "routes.yaml")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_RootMustBeDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "routes.yaml")
	writeFile(t, file, "")

	_, err := Discover(file, "routes.yaml")
	assert.Error(t, err)
}

func TestSortBySpecificity_IsStable(t *testing.T) {
	items := []string{"x0", "y1", "z0", "w2", "v1"}
	depths := map[string]int{"x0": 0, "y1": 1, "z0": 0, "w2": 2, "v1": 1}

	SortBySpecificity(items, func(i int) int { return depths[items[i]] })

	assert.Equal(t, []string{"w2", "y1", "v1", "x0", "z0"}, items)
}

func TestRouteBaseAndFullPath(t *testing.T) {
	root := filepath.Join("app", "modules")

	assert.Equal(t, "", RouteBase("", root, filepath.Join(root, "routes.yaml")))
	assert.Equal(t, "/user", RouteBase("", root, filepath.Join(root, "user", "routes.yaml")))
	assert.Equal(t, "/api/user/admin", RouteBase("/api/", root, filepath.Join(root, "user", "admin", "routes.yaml")))
	assert.Equal(t, "/api", RouteBase("api", root, filepath.Join(root, "routes.yaml")))

	assert.Equal(t, "/", FullPath("", ""))
	assert.Equal(t, "/xyz", FullPath("", "xyz"))
	assert.Equal(t, "/user/me", FullPath("/user", "me"))
	assert.Equal(t, "/user", FullPath("/user", ""))
	assert.Equal(t, "/user/:id/posts", FullPath("user/", "/:id//posts/"))
}
