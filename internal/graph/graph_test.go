package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/ebbinghaus/internal/config"
	"github.com/aidanlsb/ebbinghaus/internal/logging"
	"github.com/aidanlsb/ebbinghaus/internal/refresh"
)

const templatesPage = `- Review
	- #+BEGIN_QUERY
	  {:title "created"
	   :inputs [["20000101"]]}
	  #+END_QUERY
	  ;; @ebbinghaus-created
	- unrelated
- tail
`

func newGraph(t *testing.T, files map[string]string) *Graph {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	g, err := Open(root, Options{
		StatePath: filepath.Join(root, ".state", "state.toml"),
		Logger:    logging.Discard(),
	})
	require.NoError(t, err)
	return g
}

func TestOpen_RequiresDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
}

func TestListPages(t *testing.T) {
	g := newGraph(t, map[string]string{
		"pages/Templates.md":      templatesPage,
		"pages/reading___2025.md": "- # Reading this year\n",
		"pages/Custom.md":         "title:: My Custom Page\n\n- x\n",
		"pages/.hidden.md":        "- x\n",
		"journals/2025_03_10.md":  "- entry\n",
		"pages/notes.txt":         "ignored",
	})

	list, err := g.ListPages()
	require.NoError(t, err)

	names := map[string]PageInfo{}
	for _, p := range list {
		names[p.Name] = p
	}
	require.Len(t, names, 4)
	assert.Equal(t, "Reading this year", names["reading/2025"].Title)
	assert.Equal(t, "pages/reading___2025.md", names["reading/2025"].File)
	assert.Contains(t, names, "My Custom Page")
	assert.True(t, names["2025_03_10"].Journal)
	assert.Equal(t, "Templates", names["Templates"].Title)
}

func TestFindPage(t *testing.T) {
	g := newGraph(t, map[string]string{
		"pages/Templates.md":    templatesPage,
		"pages/Custom.md":       "title:: My Custom Page\n- x\n",
		"pages/Reading List.md": "- x\n",
	})

	tests := []struct {
		query string
		file  string
	}{
		{"Templates", "pages/Templates.md"},
		{"templates", "pages/Templates.md"},
		{"  Templates　", "pages/Templates.md"},
		{"my custom page", "pages/Custom.md"},
		{"Custom", "pages/Custom.md"},
		{"reading-list", "pages/Reading List.md"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			info, err := g.FindPage(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.file, info.File)
		})
	}

	_, err := g.FindPage("nope")
	assert.ErrorIs(t, err, ErrPageNotFound)
	assert.ErrorIs(t, err, refresh.ErrPageNotFound)
}

func TestPageBlockTree(t *testing.T) {
	g := newGraph(t, map[string]string{"pages/Templates.md": templatesPage})

	tree, err := g.PageBlockTree(context.Background(), "Templates")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "pages/Templates#0", tree[0].ID)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "pages/Templates#0.0", tree[0].Children[0].ID)
	assert.Contains(t, tree[0].Children[0].Text, ":inputs [[\"20000101\"]]")
	assert.Equal(t, "pages/Templates#1", tree[1].ID)

	_, err = g.PageBlockTree(context.Background(), "missing")
	assert.ErrorIs(t, err, refresh.ErrPageNotFound)
}

func TestUpdateBlockText_Surgical(t *testing.T) {
	g := newGraph(t, map[string]string{"pages/Templates.md": templatesPage})
	ctx := context.Background()

	tree, err := g.PageBlockTree(ctx, "Templates")
	require.NoError(t, err)
	query := tree[0].Children[0]

	require.NoError(t, g.UpdateBlockText(ctx, query.ID, "replaced\nsecond line"))

	data, err := os.ReadFile(filepath.Join(g.Root(), "pages", "Templates.md"))
	require.NoError(t, err)
	assert.Equal(t, "- Review\n\t- replaced\n\t  second line\n\t- unrelated\n- tail\n", string(data))

	info, err := os.Stat(filepath.Join(g.Root(), "pages", "Templates.md"))
	require.NoError(t, err)
	mtime := info.ModTime()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, g.UpdateBlockText(ctx, query.ID, "replaced\nsecond line"))
	info, err = os.Stat(filepath.Join(g.Root(), "pages", "Templates.md"))
	require.NoError(t, err)
	assert.Equal(t, mtime, info.ModTime(), "unchanged text is not rewritten")
}

func TestUpdateBlockText_Errors(t *testing.T) {
	g := newGraph(t, map[string]string{"pages/Templates.md": templatesPage})
	ctx := context.Background()

	assert.ErrorIs(t, g.UpdateBlockText(ctx, "pages/Templates#9", "x"), ErrBlockNotFound)
	assert.ErrorIs(t, g.UpdateBlockText(ctx, "pages/Missing#0", "x"), ErrBlockNotFound)
	assert.ErrorIs(t, g.UpdateBlockText(ctx, "no-hash", "x"), ErrBlockNotFound)
	assert.ErrorIs(t, g.UpdateBlockText(ctx, "pages/Templates#a.b", "x"), ErrBlockNotFound)
	assert.Error(t, g.UpdateBlockText(ctx, "../outside#0", "x"))
}

func TestCurrentPageAndInsert(t *testing.T) {
	g := newGraph(t, map[string]string{"pages/Templates.md": "- one\n"})
	ctx := context.Background()

	name, err := g.CurrentPageName(ctx)
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.ErrorIs(t, g.InsertAtCursor(ctx, "x"), ErrNoCurrentPage)

	require.NoError(t, g.SetCurrentPage("templates"))
	name, err = g.CurrentPageName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "templates", name)

	require.NoError(t, g.InsertAtCursor(ctx, "two\nlines"))
	data, err := os.ReadFile(filepath.Join(g.Root(), "pages", "Templates.md"))
	require.NoError(t, err)
	assert.Equal(t, "- one\n- two\n  lines\n", string(data))

	require.NoError(t, g.SetCurrentPage("Brand New"))
	require.NoError(t, g.InsertAtCursor(ctx, "first"))
	data, err = os.ReadFile(filepath.Join(g.Root(), "pages", "Brand New.md"))
	require.NoError(t, err)
	assert.Equal(t, "- first\n", string(data))

	st, err := config.LoadState(filepath.Join(g.Root(), ".state", "state.toml"))
	require.NoError(t, err)
	assert.Equal(t, "Brand New", st.CurrentPage)
}

func TestCreatePage(t *testing.T) {
	g := newGraph(t, nil)

	info, err := g.CreatePage("project/alpha")
	require.NoError(t, err)
	assert.Equal(t, "pages/project___alpha.md", info.File)
	assert.Equal(t, "project/alpha", info.Name)

	again, err := g.CreatePage("Project/Alpha")
	require.NoError(t, err)
	assert.Equal(t, info.File, again.File)
}

func TestRefreshThroughGraph(t *testing.T) {
	g := newGraph(t, map[string]string{"pages/Templates.md": templatesPage})
	ctx := context.Background()

	engine := refresh.New(g, logging.Discard())
	opts := refresh.Options{
		Marker:       "@ebbinghaus-created",
		Mode:         refresh.ModeOffsets,
		Offsets:      []int{1, 2},
		ExcludeToday: true,
		Now:          time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local),
	}

	stats, err := engine.RefreshPage(ctx, "Templates", opts)
	require.NoError(t, err)
	assert.Equal(t, refresh.Stats{Scanned: 4, Marked: 1, InputsFound: 1, InputsUpdated: 1}, stats)

	data, err := os.ReadFile(filepath.Join(g.Root(), "pages", "Templates.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\t   :inputs [[\"20250309\"\n\t            \"20250308\"]]}\n")
	assert.Contains(t, string(data), "\t- unrelated\n- tail\n")

	stats, err = engine.RefreshPage(ctx, "Templates", opts)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.InputsUpdated)
}

func TestDispatch(t *testing.T) {
	g := newGraph(t, nil)
	var routes, contents int
	g.OnRouteChanged(func() { routes++ })
	g.OnContentChanged(func() { contents++ })
	g.OnContentChanged(func() { contents++ })

	g.dispatch(0, "pages/a.md")
	g.dispatch(1, "state.toml")

	assert.Equal(t, 1, routes)
	assert.Equal(t, 2, contents)
}
