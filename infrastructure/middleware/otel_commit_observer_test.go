package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTelCommitObserver_PreCommitPostCommitRoundTrip(t *testing.T) {
	o := NewOTelCommitObserver(testPrometheusMetrics, "sync")

	ctx := o.PreCommit(context.Background(), 10)
	assert.NotPanics(t, func() {
		o.PostCommit(ctx, 10, 10, 5*time.Millisecond, nil)
	})
}

func TestOTelCommitObserver_PostCommitRecordsError(t *testing.T) {
	o := NewOTelCommitObserver(testPrometheusMetrics, "async")

	ctx := o.PreCommit(context.Background(), 3)
	assert.NotPanics(t, func() {
		o.PostCommit(ctx, 3, 0, time.Millisecond, errors.New("backend unavailable"))
	})
}

func TestOTelCommitObserver_PostCommitWithoutPreCommitIsANoop(t *testing.T) {
	o := NewOTelCommitObserver(nil, "sync")
	assert.NotPanics(t, func() {
		o.PostCommit(context.Background(), 1, 1, time.Millisecond, nil)
	})
}

// Concurrent Subpartitioner workers share one observer; each call's span
// must travel through its own context rather than a struct field shared
// across goroutines.
func TestOTelCommitObserver_ConcurrentCommitsDoNotRace(t *testing.T) {
	o := NewOTelCommitObserver(testPrometheusMetrics, "sync")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ctx := o.PreCommit(context.Background(), n)
			o.PostCommit(ctx, n, n, time.Microsecond, nil)
		}(i)
	}
	wg.Wait()
}
