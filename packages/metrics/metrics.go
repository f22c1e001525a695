package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// latency is tracked in microseconds between 1us and 60s
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
	sigFigs      = 3
)

// Recorder collects request latencies and outcomes. It satisfies the client's
// MetricsRecorder interface.
type Recorder struct {
	mu sync.RWMutex

	total   atomic.Int64
	success atomic.Int64
	errors  atomic.Int64

	histogram *hdrhistogram.Histogram
	requests  map[string]*requestMetrics

	startTime time.Time
}

type requestMetrics struct {
	mu        sync.Mutex
	total     int64
	success   int64
	errors    int64
	histogram *hdrhistogram.Histogram
}

// NewRecorder creates a recorder whose clock starts now
func NewRecorder() *Recorder {
	return &Recorder{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs),
		requests:  make(map[string]*requestMetrics),
		startTime: time.Now(),
	}
}

// Record records one completed call
func (r *Recorder) Record(name string, duration time.Duration, err error) {
	r.total.Add(1)
	if err != nil {
		r.errors.Add(1)
	} else {
		r.success.Add(1)
	}

	latencyUs := clampLatency(duration)

	r.mu.Lock()
	_ = r.histogram.RecordValue(latencyUs)
	rm, ok := r.requests[name]
	if !ok && name != "" {
		rm = &requestMetrics{histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs)}
		r.requests[name] = rm
	}
	r.mu.Unlock()

	if rm == nil {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.total++
	if err != nil {
		rm.errors++
	} else {
		rm.success++
	}
	_ = rm.histogram.RecordValue(latencyUs)
}

func clampLatency(d time.Duration) int64 {
	us := d.Microseconds()
	if us < minLatencyUs {
		return minLatencyUs
	}
	if us > maxLatencyUs {
		return maxLatencyUs
	}
	return us
}

// Summary is a point-in-time view of the recorded calls
type Summary struct {
	Elapsed     time.Duration
	Total       int64
	Success     int64
	Errors      int64
	RPS         float64
	SuccessRate float64

	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration

	Requests []RequestSummary
}

// RequestSummary holds the figures for one request name
type RequestSummary struct {
	Name    string
	Total   int64
	Success int64
	Errors  int64
	P50     time.Duration
	P95     time.Duration
	Mean    time.Duration
}

// Summary returns the current figures. Requests are sorted by name.
func (r *Recorder) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	elapsed := time.Since(r.startTime)
	total := r.total.Load()
	success := r.success.Load()

	s := Summary{
		Elapsed: elapsed,
		Total:   total,
		Success: success,
		Errors:  r.errors.Load(),
	}
	if elapsed.Seconds() > 0 {
		s.RPS = float64(total) / elapsed.Seconds()
	}
	if total > 0 {
		s.SuccessRate = float64(success) / float64(total)
		s.P50 = quantile(r.histogram, 50)
		s.P95 = quantile(r.histogram, 95)
		s.P99 = quantile(r.histogram, 99)
		s.Min = micros(r.histogram.Min())
		s.Max = micros(r.histogram.Max())
		s.Mean = micros(int64(r.histogram.Mean()))
	}

	for name, rm := range r.requests {
		rm.mu.Lock()
		s.Requests = append(s.Requests, RequestSummary{
			Name:    name,
			Total:   rm.total,
			Success: rm.success,
			Errors:  rm.errors,
			P50:     quantile(rm.histogram, 50),
			P95:     quantile(rm.histogram, 95),
			Mean:    micros(int64(rm.histogram.Mean())),
		})
		rm.mu.Unlock()
	}
	sort.Slice(s.Requests, func(i, j int) bool {
		return s.Requests[i].Name < s.Requests[j].Name
	})

	return s
}

// Reset clears all recorded values and restarts the clock
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total.Store(0)
	r.success.Store(0)
	r.errors.Store(0)
	r.histogram.Reset()
	r.requests = make(map[string]*requestMetrics)
	r.startTime = time.Now()
}

func quantile(h *hdrhistogram.Histogram, q float64) time.Duration {
	return micros(h.ValueAtQuantile(q))
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
