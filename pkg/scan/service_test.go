package scan

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/folioscan/folio/pkg/drive"
	"github.com/folioscan/folio/pkg/sheet"
	"github.com/folioscan/folio/pkg/state"
)

// testClock is a manual clock. Now never advances on its own; tests and
// the timedProvider wrapper advance it explicitly.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// timedProvider charges a fixed clock cost per Resolve so tests can
// exhaust the time budget at a chosen entry.
type timedProvider struct {
	drive.Provider
	clock *testClock
	cost  time.Duration
}

func (p *timedProvider) Resolve(ctx context.Context, id string) (*drive.Folder, error) {
	p.clock.Advance(p.cost)
	return p.Provider.Resolve(ctx, id)
}

// stubProvider injects failures for specific resolve arguments or
// folder ids.
type stubProvider struct {
	drive.Provider
	failResolve map[string]error
	failTrash   map[string]error
}

func (p *stubProvider) Resolve(ctx context.Context, id string) (*drive.Folder, error) {
	if err, ok := p.failResolve[id]; ok {
		return nil, err
	}
	return p.Provider.Resolve(ctx, id)
}

func (p *stubProvider) Trash(ctx context.Context, folder *drive.Folder) error {
	if err, ok := p.failTrash[folder.ID]; ok {
		return err
	}
	return p.Provider.Trash(ctx, folder)
}

// capturingSink records progress events.
type capturingSink struct {
	events []ProgressEvent
}

func (c *capturingSink) OnEvent(e ProgressEvent) { c.events = append(c.events, e) }

// testEnv bundles the scan collaborators over a memfs tree:
//
//	drive/
//	  alpha/  (report.txt)
//	  beta/
//	  gamma/
type testEnv struct {
	fs       billy.Filesystem
	provider *drive.LocalProvider
	sink     *sheet.MemSink
	store    *state.MemStore
	clock    *testClock
	svc      *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fs := memfs.New()
	mkdir(t, fs, "alpha")
	mkdir(t, fs, "beta")
	mkdir(t, fs, "gamma")
	addFile(t, fs, "alpha/report.txt")

	env := &testEnv{
		fs:       fs,
		provider: drive.NewWithFilesystem(fs, "/drive"),
		sink:     sheet.NewMemSink(),
		store:    state.NewMemStore(),
		clock:    newTestClock(),
	}
	env.svc = NewService().
		WithProvider(env.provider).
		WithSheet(env.sink).
		WithStore(env.store).
		WithNow(env.clock.Now)
	return env
}

func mkdir(t *testing.T, fs billy.Filesystem, dir string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(dir, 0o755))
}

func addFile(t *testing.T, fs billy.Filesystem, name string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, name, []byte("x"), 0o644))
}

func testParams() Params {
	return Params{RootID: ".", BatchSize: 2, TimeBudget: time.Hour}
}

// dataRows strips the header from the sink contents.
func dataRows(t *testing.T, env *testEnv) [][]string {
	t.Helper()
	rows := env.sink.Rows()
	require.NotEmpty(t, rows, "sheet should at least hold the header")
	require.Equal(t, Columns, rows[0])
	return rows[1:]
}

func TestRun_MissingDeps(t *testing.T) {
	ctx := context.Background()

	_, err := NewService().Run(ctx, testParams())
	require.Error(t, err)
	require.True(t, IsValidation(err))

	_, err = NewService().WithProvider(drive.NewWithFilesystem(memfs.New(), "/d")).Run(ctx, testParams())
	require.True(t, IsValidation(err))
}

func TestRun_InvalidParams(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params Params
	}{
		{"zero batch size", Params{RootID: ".", BatchSize: 0, TimeBudget: time.Hour}},
		{"negative batch size", Params{RootID: ".", BatchSize: -1, TimeBudget: time.Hour}},
		{"zero time budget", Params{RootID: ".", BatchSize: 2, TimeBudget: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Run(ctx, tt.params)
			require.Error(t, err)
			require.True(t, IsValidation(err))
		})
	}
}

func TestRun_CompletesFlatScan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Run(ctx, testParams())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res.Status)
	require.NotEmpty(t, res.ScanID)
	require.Equal(t, "drive", res.RootName)
	require.False(t, res.Resumed)
	require.Equal(t, 3, res.Processed)
	require.Equal(t, 3, res.Total)
	require.Equal(t, 3, res.RowsWritten)
	require.Zero(t, res.ErrorRows)

	at := env.clock.Now().Format(time.RFC3339)
	require.Equal(t, [][]string{
		{"drive", "alpha", "file:///drive/alpha", at, "", ""},
		{"drive", "beta", "file:///drive/beta", at, "", ""},
		{"drive", "gamma", "file:///drive/gamma", at, "", ""},
	}, dataRows(t, env))

	// Checkpoint deleted on completion; saved settings survive.
	_, found, err := loadState(ctx, env.store)
	require.NoError(t, err)
	require.False(t, found)
	saved, ok, err := loadSavedParams(ctx, env.store)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ".", saved.RootID)
}

func TestRun_SubfolderMode(t *testing.T) {
	env := newTestEnv(t)
	mkdir(t, env.fs, "alpha/docs")
	mkdir(t, env.fs, "alpha/media")
	mkdir(t, env.fs, "gamma/archive")
	ctx := context.Background()

	params := testParams()
	params.IncludeSubfolders = true
	res, err := env.svc.Run(ctx, params)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res.Status)
	require.Equal(t, 3, res.Processed)
	require.Equal(t, 4, res.RowsWritten)

	rows := dataRows(t, env)
	require.Len(t, rows, 4)
	require.Equal(t, []string{"alpha", "docs"}, rows[0][:2])
	require.Equal(t, []string{"alpha", "media"}, rows[1][:2])
	require.Equal(t, []string{"beta", NoSubfolders}, rows[2][:2])
	require.Equal(t, []string{"gamma", "archive"}, rows[3][:2])
	require.Empty(t, rows[2][ColLink], "sentinel rows carry no link")
}

func TestRun_PausesOnBudgetAndResumes(t *testing.T) {
	env := newTestEnv(t)
	env.svc.WithProvider(&timedProvider{Provider: env.provider, clock: env.clock, cost: time.Second})
	ctx := context.Background()

	params := testParams()
	params.TimeBudget = 3 * time.Second

	// Slice 1: root resolve plus alpha and beta exhaust the budget.
	res, err := env.svc.Run(ctx, params)
	require.NoError(t, err, "an exhausted budget is a pause, not an error")
	require.Equal(t, StatusPaused, res.Status)
	require.Equal(t, 2, res.Processed)
	require.Equal(t, 3, res.Total)

	rows := dataRows(t, env)
	require.Len(t, rows, 2, "pause flushes the rows for every visited entry")
	require.Equal(t, "alpha", rows[0][ColName])
	require.Equal(t, "beta", rows[1][ColName])

	st, found, err := loadState(ctx, env.store)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, st.CurrentIndex)
	require.Equal(t, 2, st.ProcessedCount)
	require.Equal(t, 3, st.TotalFolders)

	// Slice 2: resumes at gamma and finishes.
	res2, err := env.svc.Run(ctx, params)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res2.Status)
	require.True(t, res2.Resumed)
	require.Equal(t, res.ScanID, res2.ScanID, "resume keeps the scan identity")
	require.Equal(t, 3, res2.Processed)

	rows = dataRows(t, env)
	require.Len(t, rows, 3)
	require.Equal(t, "gamma", rows[2][ColName])

	_, found, err = loadState(ctx, env.store)
	require.NoError(t, err)
	require.False(t, found, "checkpoint deleted after completion")
}

func TestRun_ResumeIgnoresNewArguments(t *testing.T) {
	env := newTestEnv(t)
	env.svc.WithProvider(&timedProvider{Provider: env.provider, clock: env.clock, cost: time.Second})
	ctx := context.Background()

	params := testParams()
	params.TimeBudget = 3 * time.Second
	res, err := env.svc.Run(ctx, params)
	require.NoError(t, err)
	require.Equal(t, StatusPaused, res.Status)

	// Re-invoke with a different root and mode; both must be ignored.
	params.RootID = "gamma"
	params.IncludeSubfolders = true
	res2, err := env.svc.Run(ctx, params)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res2.Status)
	require.Equal(t, "drive", res2.RootName)

	rows := dataRows(t, env)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Equal(t, "drive", row[ColParent], "rows still belong to the original scan")
	}
}

func TestRun_ErrorRowForFailedEntry(t *testing.T) {
	env := newTestEnv(t)
	env.svc.WithProvider(&stubProvider{
		Provider:    env.provider,
		failResolve: map[string]error{"beta": drive.NewNotFoundError("folder", "beta")},
	})
	ctx := context.Background()

	res, err := env.svc.Run(ctx, testParams())
	require.NoError(t, err, "one bad folder never fails the scan")
	require.Equal(t, StatusCompleted, res.Status)
	require.Equal(t, 3, res.Processed, "entries after the failure are still visited")
	require.Equal(t, 1, res.ErrorRows)

	rows := dataRows(t, env)
	require.Len(t, rows, 3)
	require.Equal(t, "beta", rows[1][ColName], "error row stays identifiable by id")
	require.Empty(t, rows[1][ColLink])
	require.Contains(t, rows[1][ColStatus], "error")
	require.Equal(t, "gamma", rows[2][ColName])
}

func TestRun_RootFailureLeavesNoState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	params := testParams()
	params.RootID = "missing"
	_, err := env.svc.Run(ctx, params)
	require.Error(t, err)
	require.True(t, drive.IsNotFound(err))

	_, found, stateErr := loadState(ctx, env.store)
	require.NoError(t, stateErr)
	require.False(t, found, "a failed start must not leave a checkpoint")
	_, ok, savedErr := loadSavedParams(ctx, env.store)
	require.NoError(t, savedErr)
	require.False(t, ok, "a failed start must not save settings")
}

func TestRun_NoRootAndNothingSaved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	params := testParams()
	params.RootID = ""
	_, err := env.svc.Run(ctx, params)
	require.ErrorIs(t, err, ErrNoRoot)
}

func TestRun_ReusesSavedSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Run(ctx, testParams())
	require.NoError(t, err)

	// Next scan without arguments repeats the saved root.
	params := Params{BatchSize: 2, TimeBudget: time.Hour}
	res, err := env.svc.Run(ctx, params)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res.Status)
	require.Equal(t, "drive", res.RootName)
	require.Equal(t, 3, res.Processed)
}

func TestRun_UpdateModeAppendsOnlyNewLinks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Run(ctx, testParams())
	require.NoError(t, err)
	require.Len(t, dataRows(t, env), 3)

	// A folder created after the first scan.
	mkdir(t, env.fs, "delta")

	params := testParams()
	params.Update = true
	res, err := env.svc.Run(ctx, params)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res.Status)
	require.Equal(t, 4, res.Processed, "every snapshotted entry is visited")
	require.Equal(t, 1, res.RowsWritten, "only the new link is appended")
	require.Equal(t, 3, res.SkippedRows)

	rows := dataRows(t, env)
	require.Len(t, rows, 4)
	require.Equal(t, "delta", rows[3][ColName])
}

func TestRun_ContextCancelPausesBeforeNextEntry(t *testing.T) {
	env := newTestEnv(t)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := env.svc.Run(cancelled, testParams())
	require.NoError(t, err, "cancellation pauses instead of failing")
	require.Equal(t, StatusPaused, res.Status)
	require.Zero(t, res.Processed)

	st, found, err := loadState(context.Background(), env.store)
	require.NoError(t, err)
	require.True(t, found)
	require.Zero(t, st.CurrentIndex)

	// A later invocation finishes the scan.
	res2, err := env.svc.Run(context.Background(), testParams())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res2.Status)
	require.True(t, res2.Resumed)
	require.Equal(t, 3, res2.Processed)
}

func TestRun_SliceCountDoesNotChangeRows(t *testing.T) {
	ctx := context.Background()

	// Reference: the whole scan in one slice.
	oneShot := newTestEnv(t)
	_, err := oneShot.svc.Run(ctx, testParams())
	require.NoError(t, err)

	// Same tree scanned one or two entries per slice.
	sliced := newTestEnv(t)
	sliced.svc.WithProvider(&timedProvider{Provider: sliced.provider, clock: sliced.clock, cost: time.Second})
	params := testParams()
	params.TimeBudget = 2 * time.Second

	lastProcessed := 0
	for i := 0; i < 10; i++ {
		res, err := sliced.svc.Run(ctx, params)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Processed, lastProcessed, "progress never moves backwards")
		lastProcessed = res.Processed
		if res.Status == StatusCompleted {
			break
		}
		require.Equal(t, StatusPaused, res.Status)
	}
	require.Equal(t, 3, lastProcessed)

	// Timestamps differ between the runs; compare everything else.
	strip := func(rows [][]string) [][]string {
		out := make([][]string, len(rows))
		for i, row := range rows {
			cp := append([]string(nil), row...)
			cp[ColListedAt] = ""
			out[i] = cp
		}
		return out
	}
	require.Equal(t, strip(oneShot.sink.Rows()), strip(sliced.sink.Rows()))
}

func TestRun_EmitsProgressEvents(t *testing.T) {
	env := newTestEnv(t)
	events := &capturingSink{}
	env.svc.WithProgressSink(events)
	ctx := context.Background()

	_, err := env.svc.Run(ctx, testParams())
	require.NoError(t, err)

	var phases []string
	for _, ev := range events.events {
		phases = append(phases, ev.Phase)
	}
	require.Contains(t, phases, "snapshot")
	require.Contains(t, phases, "folder")
	require.Contains(t, phases, "checkpoint")
	require.Contains(t, phases, "finish")

	last := events.events[len(events.events)-1]
	require.Equal(t, StatusCompleted, last.Status)
	require.Equal(t, 3, last.Current)
	require.Equal(t, 3, last.Total)
}

func TestReset(t *testing.T) {
	env := newTestEnv(t)
	env.svc.WithProvider(&timedProvider{Provider: env.provider, clock: env.clock, cost: time.Second})
	ctx := context.Background()

	params := testParams()
	params.TimeBudget = 3 * time.Second
	res, err := env.svc.Run(ctx, params)
	require.NoError(t, err)
	require.Equal(t, StatusPaused, res.Status)

	require.NoError(t, env.svc.Reset(ctx))

	_, found, err := loadState(ctx, env.store)
	require.NoError(t, err)
	require.False(t, found)
	require.Len(t, dataRows(t, env), 2, "reset never touches sheet rows")

	// The next run starts a fresh scan instead of resuming.
	res2, err := env.svc.Run(ctx, params)
	require.NoError(t, err)
	require.False(t, res2.Resumed)
	require.NotEqual(t, res.ScanID, res2.ScanID)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, found, err := env.svc.Status(ctx)
	require.NoError(t, err)
	require.False(t, found)

	env.svc.WithProvider(&timedProvider{Provider: env.provider, clock: env.clock, cost: time.Second})
	params := testParams()
	params.TimeBudget = 3 * time.Second
	_, err = env.svc.Run(ctx, params)
	require.NoError(t, err)

	st, found, err := env.svc.Status(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "drive", st.RootName)
	require.Equal(t, 2, st.ProcessedCount)
	require.False(t, st.Done())
}
