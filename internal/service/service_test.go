package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"netgraph/internal/codec"
	"netgraph/internal/domain"
	"netgraph/internal/metrics"
	"netgraph/internal/repository/sqlite"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const level01 = `type pc l01
type pc l02
type pc l03
type router r01
link l01 r01
link l02 r01
link l03 r01
`

type fixture struct {
	svc     *LevelService
	events  chan Event
	metrics *metrics.Registry
}

func newFixture(t *testing.T, opts ...codec.Option) *fixture {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	bus := NewEventBus()
	events := make(chan Event, 16)
	bus.Subscribe(events)

	reg := metrics.NewRegistry()
	return &fixture{
		svc:     NewLevelService(repo, bus, reg, zerolog.Nop(), opts...),
		events:  events,
		metrics: reg,
	}
}

func (f *fixture) nextEvent(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-f.events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return Event{}
	}
}

// metricValue reads a single counter or gauge
func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	level, err := f.svc.Import(ctx, "test01", level01)
	require.NoError(t, err)
	assert.Equal(t, 4, level.Graph.Len())
	assert.Equal(t, 3, level.Graph.LinkCount())

	ev := f.nextEvent(t)
	assert.Equal(t, EventLevelLoaded, ev.Type)
	assert.Equal(t, LevelPayload{Name: "test01", Nodes: 4, Links: 3}, ev.Level)

	stored, err := f.svc.Get(ctx, "test01")
	require.NoError(t, err)
	assert.Equal(t, level01, stored.Source)
	assert.Equal(t, level.Graph.Links(), stored.Graph.Links())

	assert.Equal(t, 1.0, metricValue(t, f.metrics.DescriptorsParsedTotal.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 4.0, metricValue(t, f.metrics.LevelNodes.WithLabelValues("test01")))
	assert.Equal(t, 1.0, metricValue(t, f.metrics.LevelsLoaded))
}

func TestImportRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Import(ctx, "broken", "type pc a\nlink a ghost\n")
	d, ok := domain.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindBadLink, d.Kind)

	ev := f.nextEvent(t)
	assert.Equal(t, EventLevelFailed, ev.Type)
	assert.Equal(t, "broken", ev.Level.Name)
	assert.Equal(t, domain.KindBadLink, ev.Level.Kind)
	assert.Equal(t, 2, ev.Level.Line)
	assert.Equal(t, err.Error(), ev.Level.Error)

	_, err = f.svc.Get(ctx, "broken")
	assert.ErrorIs(t, err, ErrLevelNotFound)
	assert.Equal(t, 1.0, metricValue(t, f.metrics.DescriptorsParsedTotal.WithLabelValues("bad_link")))
}

func TestImportKeepsPreviousOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Import(ctx, "lab", level01)
	require.NoError(t, err)

	_, err = f.svc.Import(ctx, "lab", "bogus line\n")
	require.Error(t, err)

	stored, err := f.svc.Get(ctx, "lab")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Graph.Len())
}

func TestImportInvalidName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Import(context.Background(), "../etc", level01)
	assert.ErrorIs(t, err, ErrInvalidLevelName)
}

func TestStrictNames(t *testing.T) {
	f := newFixture(t, codec.WithStrictNames())

	_, err := f.svc.Import(context.Background(), "dup", "type pc a\ntype router a\n")
	assert.True(t, domain.IsKind(err, domain.KindDuplicateAsset))
}

func TestImportFormat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := codec.Parse(level01)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, codec.NewYAMLCodec().Export(g, &buf))

	level, err := f.svc.ImportFormat(ctx, "fromyaml", "yaml", &buf)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes(), level.Graph.Nodes())
	assert.Empty(t, level.Source)

	level, err = f.svc.ImportFormat(ctx, "fromtext", "descriptor", strings.NewReader(level01))
	require.NoError(t, err)
	assert.Equal(t, level01, level.Source)

	_, err = f.svc.ImportFormat(ctx, "x", "toml", strings.NewReader(""))
	assert.ErrorIs(t, err, codec.ErrUnsupportedFormat)
}

func TestLoadFileAndDir(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "test01.txt"), []byte(level01), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.txt"), []byte("link a b\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("ignored"), 0644))

	level, err := f.svc.LoadFile(ctx, filepath.Join(dir, "test01.txt"))
	require.NoError(t, err)
	assert.Equal(t, "test01", level.Name)

	results, err := f.svc.LoadDir(ctx, dir)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, domain.IsKind(results[0].Err, domain.KindBadLink), "bad.txt sorts first")
	assert.NoError(t, results[1].Err)

	levels, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "test01", levels[0].Name)

	_, err = f.svc.LoadFile(ctx, filepath.Join(dir, "missing.txt"))
	assert.True(t, domain.IsKind(err, domain.KindIo))
}

func TestLoadDirRecordsPerFileDuration(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(level01), 0644))
	}

	start := time.Now()
	_, err := f.svc.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	wall := time.Since(start)

	var out dto.Metric
	require.NoError(t, f.metrics.DescriptorParseDuration.Write(&out))
	assert.Equal(t, uint64(3), out.Histogram.GetSampleCount())
	assert.LessOrEqual(t, out.Histogram.GetSampleSum(), wall.Seconds())
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Import(ctx, "gone", level01)
	require.NoError(t, err)
	f.nextEvent(t)

	require.NoError(t, f.svc.DeleteFile(ctx, "/some/dir/gone.txt"))
	ev := f.nextEvent(t)
	assert.Equal(t, EventLevelDeleted, ev.Type)
	assert.Equal(t, 0.0, metricValue(t, f.metrics.LevelsLoaded))

	assert.ErrorIs(t, f.svc.Delete(ctx, "gone"), ErrLevelNotFound)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Import(ctx, "test01", "# comment\n"+level01)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(ctx, "test01", "descriptor", &buf))
	assert.Equal(t, level01, buf.String())

	buf.Reset()
	require.NoError(t, f.svc.Export(ctx, "test01", "json", &buf))
	assert.Contains(t, buf.String(), `"name": "r01"`)

	assert.ErrorIs(t, f.svc.Export(ctx, "nope", "json", &buf), ErrLevelNotFound)
	assert.ErrorIs(t, f.svc.Export(ctx, "test01", "dot", &buf), codec.ErrUnsupportedFormat)
}

func TestEventBusSkipsSlowSubscriber(t *testing.T) {
	bus := NewEventBus()
	slow := make(chan Event)
	fast := make(chan Event, 1)
	bus.Subscribe(slow)
	bus.Subscribe(fast)

	bus.Publish(deletedEvent("x"))

	select {
	case ev := <-fast:
		assert.Equal(t, EventLevelDeleted, ev.Type)
		assert.Equal(t, "x", ev.Level.Name)
	default:
		t.Fatal("fast subscriber did not receive event")
	}
	assert.Equal(t, uint64(1), bus.Dropped())
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	a := make(chan Event, 1)
	b := make(chan Event, 1)
	bus.Subscribe(a)
	bus.Subscribe(b)
	bus.Unsubscribe(a)

	bus.Publish(deletedEvent("x"))

	assert.Len(t, a, 0)
	assert.Len(t, b, 1)
	assert.Zero(t, bus.Dropped())
}
