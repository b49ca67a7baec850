package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/ebbinghaus/internal/config"
	"github.com/aidanlsb/ebbinghaus/internal/logging"
	"github.com/aidanlsb/ebbinghaus/internal/outline"
	"github.com/aidanlsb/ebbinghaus/internal/refresh"
	"github.com/aidanlsb/ebbinghaus/internal/schedule"
	"github.com/aidanlsb/ebbinghaus/internal/testutil"
)

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.Local)

// offsetsForest builds a parent with one offsets query child; ids are
// prefix+"p" and prefix+"q" so pages never share ids.
func offsetsForest(prefix, marker string) []outline.Block {
	return []outline.Block{{ID: prefix + "p", Text: "Review", Children: []outline.Block{
		{ID: prefix + "q", Text: "#+BEGIN_QUERY\n{:inputs [[\"20000101\"]]}\n#+END_QUERY\n;; " + marker},
	}}}
}

func rangeForest(marker, sentinel string) []outline.Block {
	return []outline.Block{{ID: "r", Text: "Reading", Children: []outline.Block{
		{ID: "rq", Text: "#+BEGIN_QUERY\n{:inputs [[\"20000101\"]]}\n#+END_QUERY\n;; " + marker + " " + sentinel},
	}}}
}

func settingsWith(mut func(*config.Settings)) SettingsFunc {
	return func() config.Settings {
		s := config.DefaultSettings()
		if mut != nil {
			mut(&s)
		}
		return s
	}
}

func newPlugin(host Host, settings SettingsFunc) *Plugin {
	return New(host, settings, Options{
		Logger: logging.Discard(),
		Now:    func() time.Time { return fixedNow },
	})
}

func textOf(t *testing.T, forest []outline.Block, id string) string {
	t.Helper()
	b, ok := outline.Flatten(forest).Block(id)
	require.True(t, ok, "block %s", id)
	return b.Text
}

func TestUpdateTemplatePagesOnce(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetPage("Templates", offsetsForest("", config.DefaultMarkerOffsets))
	host.SetPage("Weekly", offsetsForest("w", config.DefaultMarkerOffsets))
	host.SetPage("Other", offsetsForest("o", config.DefaultMarkerOffsets))

	p := newPlugin(host, settingsWith(func(s *config.Settings) {
		s.TemplatePages = "Templates, Weekly, Missing"
		s.OffsetDays = "1,2"
	}))

	res, err := p.UpdateTemplatePagesOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Templates", "Weekly", "Missing"}, res.Pages)
	assert.Equal(t, refresh.Stats{Scanned: 4, Marked: 2, InputsFound: 2, InputsUpdated: 2}, res.Stats)

	assert.Contains(t, textOf(t, host.Page("Templates"), "q"), "[[\"20250309\"\n          \"20250308\"]]")
	assert.Contains(t, textOf(t, host.Page("Other"), "oq"), "20000101", "non-template pages untouched")

	res, err = p.UpdateTemplatePagesOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stats.InputsUpdated)
}

func TestUpdateCurrentPageRangeOnce(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetPage("Reading", rangeForest(config.DefaultMarkerRange, "RANGE:20250301..20250303"))
	p := newPlugin(host, nil)

	stats, err := p.UpdateCurrentPageRangeOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, refresh.Stats{}, stats, "no current page")

	host.SetCurrent("reading")
	stats, err = p.UpdateCurrentPageRangeOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.InputsUpdated)
	assert.Contains(t, textOf(t, host.Page("Reading"), "rq"), "\"20250303\"]]")

	host.FailCurrent = errors.New("host gone")
	_, err = p.UpdateCurrentPageRangeOnce(context.Background())
	assert.Error(t, err)
}

func TestUpdateCurrentPageRange_DefaultRange(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetPage("Reading", []outline.Block{{ID: "rq", Text: "{:inputs [[\"x\"]]} ;; @ebbinghaus-range"}})
	host.SetCurrent("Reading")

	p := newPlugin(host, settingsWith(func(s *config.Settings) {
		s.RangeStart = "20250105"
		s.RangeEnd = "20250106"
	}))
	stats, err := p.UpdateCurrentPageRangeOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.InputsUpdated)
	assert.Contains(t, textOf(t, host.Page("Reading"), "rq"), "[[\"20250105\"\n          \"20250106\"]]")
}

func TestUpdateFailureReturnsPartialStats(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetPage("Templates", offsetsForest("", config.DefaultMarkerOffsets))
	host.FailUpdates = errors.New("read-only")

	p := newPlugin(host, nil)
	res, err := p.UpdateTemplatePagesOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, res.Stats.InputsFound)
	assert.Equal(t, 0, res.Stats.InputsUpdated)
}

func TestInsertOffsetsQuery(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetPage("Templates", nil)
	host.SetCurrent("templates")

	p := newPlugin(host, settingsWith(func(s *config.Settings) { s.OffsetDays = "1" }))
	msg, err := p.InsertOffsetsQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Inserted offsets into template. inputsUpdated=1", msg)

	inserted := host.Page("Templates")[0].Text
	assert.Contains(t, inserted, `:inputs [["20250309"]]`)
	assert.Contains(t, inserted, "[(get ?props :created) ?c]")
	assert.True(t, strings.HasSuffix(inserted, ";; @ebbinghaus-created"))
}

func TestInsertOffsetsQuery_NotTemplatePage(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetPage("Journal", nil)
	host.SetCurrent("Journal")

	p := newPlugin(host, nil)
	msg, err := p.InsertOffsetsQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, InsertedOffsetsElsewhereMessage, msg)
	assert.Contains(t, host.Page("Journal")[0].Text, `[["20000101"]]`)
	assert.Equal(t, 0, host.UpdateCount())
}

func TestInsertOffsetsQuery_CaseSensitiveMatch(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetCurrent("templates")

	p := newPlugin(host, settingsWith(func(s *config.Settings) { s.CaseInsensitivePageMatch = false }))
	msg, err := p.InsertOffsetsQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, InsertedOffsetsElsewhereMessage, msg)
}

func TestInsertRangeQuery(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetCurrent("Reading")

	p := newPlugin(host, nil)
	msg, err := p.InsertRangeQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Inserted RANGE. inputsUpdated=1", msg)

	text := host.Page("Reading")[0].Text
	assert.Contains(t, text, ";; @ebbinghaus-range RANGE:20250101-20251010")
	assert.Contains(t, text, `:inputs [["20250101"`)
	assert.Contains(t, text, `"20251010"]]`)
}

func TestInsertRangeQuery_ConfiguredDefault(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetCurrent("Reading")

	p := newPlugin(host, settingsWith(func(s *config.Settings) {
		s.RangeStart = "20250201"
		s.RangeEnd = "20250202"
	}))
	_, err := p.InsertRangeQuery(context.Background())
	require.NoError(t, err)
	text := host.Page("Reading")[0].Text
	assert.Contains(t, text, "RANGE:20250201-20250202")
	assert.Contains(t, text, "[[\"20250201\"\n          \"20250202\"]]")
}

func TestInsert_NoCurrentPage(t *testing.T) {
	p := newPlugin(testutil.NewMemHost(), nil)
	_, err := p.InsertOffsetsQuery(context.Background())
	assert.Error(t, err)
	_, err = p.InsertRangeQuery(context.Background())
	assert.Error(t, err)
}

func TestBlocksFromTemplateFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "templates"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", "offsets.md"),
		[]byte("custom {{property}} :inputs [[\"x\"]] ;; {{marker}} \\{{kept}}\n"), 0o644))

	p := New(testutil.NewMemHost(), settingsWith(func(s *config.Settings) {
		s.OffsetsTemplate = "offsets.md"
		s.TemplateDir = "templates/"
		s.PropertyKey = "born"
	}), Options{GraphRoot: root, Logger: logging.Discard()})

	block, err := p.OffsetsBlock()
	require.NoError(t, err)
	assert.Equal(t, "custom born :inputs [[\"x\"]] ;; @ebbinghaus-created {{kept}}", block)

	_, err = New(testutil.NewMemHost(), settingsWith(func(s *config.Settings) {
		s.RangeTemplate = "../escape.md"
	}), Options{GraphRoot: root, Logger: logging.Discard()}).RangeBlock()
	assert.Error(t, err)
}

func TestMatchTemplatePage(t *testing.T) {
	p := newPlugin(testutil.NewMemHost(), settingsWith(func(s *config.Settings) {
		s.TemplatePages = "Templates,Weekly Review"
	}))
	assert.True(t, p.MatchTemplatePage("templates"))
	assert.True(t, p.MatchTemplatePage("Weekly　Review "))
	assert.False(t, p.MatchTemplatePage("Weekly"))
}

// blockedDaily returns a scheduler whose timer never fires.
func blockedDaily() *schedule.Daily {
	return &schedule.Daily{After: func(time.Duration) <-chan time.Time { return make(chan time.Time) }}
}

func TestStart_Triggers(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetPage("Templates", offsetsForest("", config.DefaultMarkerOffsets))
	host.SetPage("Reading", rangeForest(config.DefaultMarkerRange, "RANGE:20250301-20250302"))

	var offsetDays atomic.Value
	offsetDays.Store("1")
	settings := settingsWith(func(s *config.Settings) {
		s.OffsetDays = offsetDays.Load().(string)
		s.EditDebounceMs = 20
	})

	p := New(host, settings, Options{
		Logger: logging.Discard(),
		Now:    func() time.Time { return fixedNow },
		Daily:  blockedDaily(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	defer func() {
		cancel()
		p.Wait()
	}()

	// Startup pass.
	assert.Contains(t, textOf(t, host.Page("Templates"), "q"), `[["20250309"]]`)

	// Route to a template page re-runs offsets with fresh settings.
	offsetDays.Store("2")
	host.Navigate("Templates")
	assert.Contains(t, textOf(t, host.Page("Templates"), "q"), `[["20250308"]]`)

	// Route to a range page runs a range pass.
	host.Navigate("Reading")
	assert.Contains(t, textOf(t, host.Page("Reading"), "rq"), "[[\"20250301\"\n          \"20250302\"]]")

	// Edits are debounced into one range pass.
	host.SetPage("Reading", rangeForest(config.DefaultMarkerRange, "RANGE:20250305-20250305"))
	before := host.UpdateCount()
	for i := 0; i < 5; i++ {
		host.Edit()
	}
	require.Eventually(t, func() bool { return host.UpdateCount() == before+1 }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, textOf(t, host.Page("Reading"), "rq"), `[["20250305"]]`)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, before+1, host.UpdateCount())
}

func TestStart_DisabledTriggers(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetPage("Templates", offsetsForest("", config.DefaultMarkerOffsets))
	host.SetPage("Reading", rangeForest(config.DefaultMarkerRange, "RANGE:20250301-20250302"))

	p := New(host, settingsWith(func(s *config.Settings) {
		s.AutoUpdateTemplates = false
		s.UpdateWhenOpenTemplatePage = false
		s.AutoUpdateRangeOnOpenPage = false
		s.AutoUpdateRangeOnEdit = false
	}), Options{Logger: logging.Discard()})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	host.Navigate("Reading")
	host.Edit()
	time.Sleep(50 * time.Millisecond)
	cancel()
	p.Wait()

	assert.Equal(t, 0, host.UpdateCount())
}

func TestStart_TriggerErrorsAreSwallowed(t *testing.T) {
	host := testutil.NewMemHost()
	host.SetPage("Templates", offsetsForest("", config.DefaultMarkerOffsets))
	host.FailUpdates = errors.New("disk full")
	host.FailCurrent = errors.New("no route")

	p := New(host, nil, Options{Logger: logging.Discard(), Daily: blockedDaily()})
	ctx, cancel := context.WithCancel(context.Background())
	assert.NotPanics(t, func() {
		p.Start(ctx)
		host.Navigate("Templates")
	})
	cancel()
	p.Wait()
}

func TestMessages(t *testing.T) {
	s := refresh.Stats{Marked: 3, InputsFound: 2, InputsUpdated: 1}
	assert.Equal(t, "Template offsets updated. inputsUpdated=1 (found=2, marked=3)", TemplatesUpdatedMessage(s))
	assert.Equal(t, "RANGE updated on this page. inputsUpdated=1 (found=2, marked=3)", RangeUpdatedMessage(s))
}
