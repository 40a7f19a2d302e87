// internal/infrastructure/metrics/metrics_test.go
package metrics

import (
	"context"
	"errors"
	"fmt"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/internal/core/domain/analysis/level_engine"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	return c
}

func TestNewCollectorRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestObservePass(t *testing.T) {
	c := newTestCollector(t)

	c.ObservePass("EURUSD", "1h", 20*time.Millisecond, nil)
	c.ObservePass("EURUSD", "1h", 5*time.Millisecond, &key_levels.InputError{Kind: key_levels.ErrInsufficientData, Index: -1})

	assert.Equal(t, 2, testutil.CollectAndCount(c.PassDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PassFailures.WithLabelValues("EURUSD", "1h", ReasonInsufficientData)))
}

func TestObserveLevelsAndFlips(t *testing.T) {
	c := newTestCollector(t)

	c.ObserveLevels("EURUSD", "1h", 7)
	c.ObserveLevels("EURUSD", "1h", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Levels.WithLabelValues("EURUSD", "1h")))

	c.ObserveFlips("EURUSD", "1h", 2)
	c.ObserveFlips("EURUSD", "1h", 0)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.LevelFlips.WithLabelValues("EURUSD", "1h")))

	c.ObserveWarnings("EURUSD", "1h", 4)
	assert.Equal(t, 4.0, testutil.ToFloat64(c.Warnings.WithLabelValues("EURUSD", "1h")))
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&key_levels.InputError{Kind: key_levels.ErrInsufficientData, Index: -1}, ReasonInsufficientData},
		{&key_levels.InputError{Kind: key_levels.ErrMalformedBar, Index: 3}, ReasonMalformedBar},
		{fmt.Errorf("%w: redis down", level_engine.ErrPublish), ReasonPublish},
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), ReasonTimeout},
		{errors.New("connection refused"), ReasonFeed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FailureReason(tt.err), tt.err.Error())
	}
}
