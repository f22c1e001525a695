package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Record(t *testing.T) {
	r := NewRecorder()

	r.Record("GET /users", 100*time.Millisecond, nil)
	r.Record("GET /users", 150*time.Millisecond, nil)
	r.Record("POST /upload", 200*time.Millisecond, nil)
	r.Record("GET /users", 50*time.Millisecond, errors.New("boom"))

	s := r.Summary()
	assert.Equal(t, int64(4), s.Total)
	assert.Equal(t, int64(3), s.Success)
	assert.Equal(t, int64(1), s.Errors)
	assert.InDelta(t, 0.75, s.SuccessRate, 0.001)

	require.Len(t, s.Requests, 2)
	assert.Equal(t, "GET /users", s.Requests[0].Name)
	assert.Equal(t, int64(3), s.Requests[0].Total)
	assert.Equal(t, int64(1), s.Requests[0].Errors)
	assert.Equal(t, "POST /upload", s.Requests[1].Name)
}

func TestRecorder_Percentiles(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < 100; i++ {
		r.Record("ping", time.Duration(i+1)*time.Millisecond, nil)
	}

	s := r.Summary()
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(s.P95), float64(time.Millisecond))
	assert.InDelta(t, float64(time.Millisecond), float64(s.Min), float64(10*time.Microsecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(time.Millisecond))
	assert.True(t, s.P50 <= s.P95)
	assert.True(t, s.P95 <= s.P99)
}

func TestRecorder_EmptySummary(t *testing.T) {
	s := NewRecorder().Summary()

	assert.Zero(t, s.Total)
	assert.Zero(t, s.P50)
	assert.Zero(t, s.SuccessRate)
	assert.Empty(t, s.Requests)
}

func TestRecorder_UnnamedRecordSkipsBreakdown(t *testing.T) {
	r := NewRecorder()
	r.Record("", time.Millisecond, nil)

	s := r.Summary()
	assert.Equal(t, int64(1), s.Total)
	assert.Empty(t, s.Requests)
}

func TestRecorder_ClampsLatency(t *testing.T) {
	assert.Equal(t, int64(minLatencyUs), clampLatency(0))
	assert.Equal(t, int64(maxLatencyUs), clampLatency(2*time.Minute))
	assert.Equal(t, int64(1500), clampLatency(1500*time.Microsecond))
}

func TestRecorder_Reset(t *testing.T) {
	r := NewRecorder()
	r.Record("a", time.Millisecond, nil)
	r.Reset()

	s := r.Summary()
	assert.Zero(t, s.Total)
	assert.Empty(t, s.Requests)
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Record("concurrent", time.Millisecond, nil)
			}
		}()
	}
	wg.Wait()

	s := r.Summary()
	assert.Equal(t, int64(1000), s.Total)
	require.Len(t, s.Requests, 1)
	assert.Equal(t, int64(1000), s.Requests[0].Total)
}
