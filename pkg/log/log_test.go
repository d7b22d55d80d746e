package log

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

func sampleEvents() []Event {
	return []Event{
		{Timestamp: t0, RunID: "run-1", Stage: StageLoad, Category: CategorySummary, Source: "periph.yaml", Summary: &SummaryEvent{Blocks: 2}},
		{Timestamp: t0.Add(time.Millisecond), RunID: "run-1", Block: "Periph", Stage: StageValidate, Category: CategorySummary, Summary: &SummaryEvent{Fields: 5}},
		{Timestamp: t0.Add(2 * time.Millisecond), RunID: "run-1", Block: "Bad", Stage: StageValidate, Category: CategoryViolation, Violation: &ViolationEvent{
			Rule: "RW-ANY",
			A:    FieldInfo{Name: "a", Offset: 0, Width: 4, Access: "RW"},
			B:    FieldInfo{Name: "b", Offset: 0, Width: 4, Access: "RO", Pos: "bad.yaml:9"},
		}},
		{Timestamp: t0.Add(3 * time.Millisecond), RunID: "run-1", Block: "Periph", Stage: StageEmit, Category: CategoryArtifact, Duration: 150 * time.Microsecond, Emit: &EmitEvent{
			FileName: "periph_gen.go", Fingerprint: "blake2b-256:00", Size: 2048, Accessors: []string{"read_dr", "write_dr"},
		}},
		{Timestamp: t0.Add(4 * time.Millisecond), RunID: "run-2", Block: "Bad", Stage: StageValidate, Category: CategoryError, Error: &ErrorEventData{Message: "1 overlap violation", Kind: "overlap"}},
	}
}

func writeTrace(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.rbtrace")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())
	return path
}

func TestEncodeDecodeViolation(t *testing.T) {
	in := sampleEvents()[2]
	data, err := EncodeEvent(in)
	require.NoError(t, err)

	out, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.True(t, in.Timestamp.Equal(out.Timestamp), "nanosecond timestamps survive")
	out.Timestamp = in.Timestamp
	assert.Equal(t, in, out)
}

func TestEncodingIsDeterministic(t *testing.T) {
	e := sampleEvents()[3]
	a, err := EncodeEvent(e)
	require.NoError(t, err)
	b, err := EncodeEvent(e)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte{0xff, 0x00})
	assert.Error(t, err)
}

func TestStageAndCategoryNames(t *testing.T) {
	for _, s := range Stages {
		got, ok := ParseStage(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	st, ok := ParseStage("emit")
	assert.True(t, ok)
	assert.Equal(t, StageEmit, st)
	_, ok = ParseStage("link")
	assert.False(t, ok)
	assert.Equal(t, "UNKNOWN", Stage(99).String())

	c, ok := ParseCategory("violation")
	assert.True(t, ok)
	assert.Equal(t, CategoryViolation, c)
	assert.Equal(t, "UNKNOWN", Category(99).String())
}

func TestFileLoggerAppends(t *testing.T) {
	events := sampleEvents()
	path := writeTrace(t, events[:2])

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	assert.Equal(t, path, logger.Path())
	logger.Log(events[2])
	require.NoError(t, logger.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.rbtrace")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(Event{Timestamp: time.Now(), RunID: "r", Stage: StagePlan})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, logger.Close())
	assert.NoError(t, logger.Err())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, got, 200)
}

func TestFileLoggerCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.rbtrace")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	require.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())

	logger.Log(sampleEvents()[0])
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "events after Close are dropped")
}

func TestNewFileLoggerBadPath(t *testing.T) {
	_, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "x.rbtrace"))
	assert.ErrorContains(t, err, "opening trace")
}

func TestReaderFilter(t *testing.T) {
	path := writeTrace(t, sampleEvents())

	validate := StageValidate
	violation := CategoryViolation
	start := t0.Add(time.Millisecond)
	end := t0.Add(4 * time.Millisecond)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 5},
		{"run", Filter{RunID: "run-2"}, 1},
		{"block", Filter{Block: "Periph"}, 2},
		{"stage", Filter{Stage: &validate}, 3},
		{"category", Filter{Category: &violation}, 1},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 3},
		{"combined", Filter{Block: "Bad", Stage: &validate, RunID: "run-1"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			require.NoError(t, err)
			defer r.Close()
			got, err := r.ReadAll()
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestReaderEOF(t *testing.T) {
	path := writeTrace(t, nil)
	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

type mockLogger struct{ mock.Mock }

func (m *mockLogger) Log(event Event) { m.Called(event) }

func TestMultiLogger(t *testing.T) {
	m1, m2 := &mockLogger{}, &mockLogger{}
	e := sampleEvents()[1]
	m1.On("Log", e).Once()
	m2.On("Log", e).Once()

	NewMultiLogger(m1, nil, m2).Log(e)

	m1.AssertExpectations(t)
	m2.AssertExpectations(t)
	NewMultiLogger().Log(e)
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(sampleEvents()[0])
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewSlogAdapter(logger)

	adapter.Log(sampleEvents()[2])
	adapter.Log(sampleEvents()[4])

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var violation map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &violation))
	assert.Equal(t, "DEBUG", violation["level"])
	assert.Equal(t, "trace", violation["msg"])
	assert.Equal(t, "run-1", violation["run_id"])
	assert.Equal(t, "VALIDATE", violation["stage"])
	assert.Equal(t, "RW-ANY", violation["rule"])
	assert.Equal(t, "bad.yaml:9", violation["pos"])

	var failure map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &failure))
	assert.Equal(t, "WARN", failure["level"])
	assert.Equal(t, "overlap", failure["error_kind"])
}
