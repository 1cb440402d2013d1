package errors

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityFatal, "fatal"},
		{Severity(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.severity.String())
		})
	}
}

func TestStyleErrorFormatting(t *testing.T) {
	err := NewStyleError(ErrCodeStyleFile, "cannot load style file", fmt.Errorf("boom")).
		WithConsumer("button").
		WithLocation("styles/button.yaml", 12)

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_STYLE_FILE]")
	assert.Contains(t, msg, "consumer:button")
	assert.Contains(t, msg, "styles/button.yaml:12")
	assert.Contains(t, msg, ": boom")
	assert.True(t, IsRecoverable(err))
	assert.True(t, IsStyleError(err))
}

func TestSentinelMatching(t *testing.T) {
	err := ErrAdoption("c1", 3, 2)

	assert.True(t, errors.Is(err, ErrAdoptionMismatch))
	assert.False(t, errors.Is(err, ErrTargetWrite))
	assert.True(t, IsTargetError(err))
	assert.True(t, IsFatalError(err))
	assert.False(t, IsRecoverable(err))

	wrapped := fmt.Errorf("adopting: %w", err)
	assert.True(t, errors.Is(wrapped, ErrAdoptionMismatch))

	ctx := GetErrorContext(err)
	assert.Equal(t, 3, ctx["ids"])
	assert.Equal(t, 2, ctx["segments"])
	assert.Equal(t, ErrCodeAdoptionMismatch, ctx["code"])
}

func TestWrapPreservesStyleContext(t *testing.T) {
	inner := WrapStyle(fmt.Errorf("bad yaml"), "a.yaml").WithConsumer("a")
	outer := WrapTarget(inner, ErrCodeTargetWrite, "flush failed")

	require.NotNil(t, outer)
	assert.Equal(t, "a", outer.Consumer)
	assert.Equal(t, "a.yaml", outer.FilePath)
	assert.False(t, outer.Recoverable)
	assert.Equal(t, "bad yaml", ExtractCause(outer).Error())

	assert.Nil(t, Wrap(nil, ErrorTypeIO, "X", "y"))
}

func TestCollectorKeepsLatestPerFile(t *testing.T) {
	collector := NewCollector()
	assert.False(t, collector.HasErrors())

	collector.AddError("b", "b.yaml", fmt.Errorf("first"))
	collector.AddError("b", "b.yaml", fmt.Errorf("second"))
	collector.AddError("a", "a.yaml", fmt.Errorf("other"))
	collector.AddError("c", "c.yaml", nil)

	diagnostics := collector.Diagnostics()
	require.Len(t, diagnostics, 2)
	assert.Equal(t, "a.yaml", diagnostics[0].File)
	assert.Equal(t, "second", diagnostics[1].Message)

	collector.Resolve("a.yaml")
	assert.Len(t, collector.Diagnostics(), 1)

	collector.Clear()
	assert.False(t, collector.HasErrors())
}

func TestCollectorOverlayEscapes(t *testing.T) {
	collector := NewCollector()
	assert.Empty(t, collector.Overlay())

	collector.AddError("x", "<x>.yaml", fmt.Errorf("<script>"))
	overlay := collector.Overlay()
	assert.Contains(t, overlay, "stylesync-error-overlay")
	assert.Contains(t, overlay, "&lt;script&gt;")
	assert.NotContains(t, overlay, "<script>")
}

func TestCollectorConcurrency(t *testing.T) {
	collector := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			collector.AddError("c", fmt.Sprintf("f%d.yaml", i), fmt.Errorf("e%d", i))
			_ = collector.Diagnostics()
		}(i)
	}
	wg.Wait()
	assert.Len(t, collector.Diagnostics(), 20)
}

type recordingLogger struct {
	warns, errors int
}

func (r *recordingLogger) Error(_ context.Context, _ error, _ string, _ ...interface{}) { r.errors++ }
func (r *recordingLogger) Warn(_ context.Context, _ error, _ string, _ ...interface{})  { r.warns++ }

func TestErrorHandlerRoutesByType(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)
	ctx := context.Background()

	handler.Handle(ctx, nil)
	handler.Handle(ctx, WrapStyle(fmt.Errorf("x"), "a.yaml"))
	handler.Handle(ctx, ErrAdoption("c", 1, 0))
	handler.Handle(ctx, fmt.Errorf("plain"))

	assert.Equal(t, 1, logger.warns)
	assert.Equal(t, 2, logger.errors)
}
