package reachability

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	// DefaultInterval is how often the monitor re-probes without an OS signal
	DefaultInterval = 10 * time.Second
	// DefaultWatchPath is rewritten by network managers whenever the active link changes
	DefaultWatchPath = "/etc/resolv.conf"
	// DebounceDelay collapses bursts of file events into one probe
	DebounceDelay = 300 * time.Millisecond
)

// Listener receives true when the network is reachable over WiFi/ethernet or
// cellular, false when it is unreachable or unknown.
type Listener func(reachable bool)

// Monitor tracks reachability. The background watcher starts lazily on first use.
// Only one listener is registered at a time.
type Monitor struct {
	prober    Prober
	interval  time.Duration
	watchPath string
	logger    *zap.Logger

	mu       sync.Mutex
	status   Status
	probed   bool
	listener Listener

	// refreshMu serializes probes; notifyMu is taken before refreshMu is released
	// so listeners see transitions in the order the status changed
	refreshMu sync.Mutex
	notifyMu  sync.Mutex
	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

type Option func(*Monitor)

func WithProber(p Prober) Option {
	return func(m *Monitor) {
		m.prober = p
	}
}

func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithWatchPath sets the file whose changes trigger an immediate re-probe.
// An empty path disables file watching.
func WithWatchPath(path string) Option {
	return func(m *Monitor) {
		m.watchPath = path
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

func New(opts ...Option) *Monitor {
	m := &Monitor{
		interval:  DefaultInterval,
		watchPath: DefaultWatchPath,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.prober == nil {
		m.prober = NewDialProber(DefaultProbeAddress)
	}
	return m
}

// IsReachable returns the current reachability snapshot
func (m *Monitor) IsReachable() bool {
	return m.Status().Reachable()
}

// Status returns the last probed status, probing synchronously on first use.
func (m *Monitor) Status() Status {
	m.ensureStarted()

	m.mu.Lock()
	probed, status := m.probed, m.status
	m.mu.Unlock()

	if !probed {
		return m.Refresh(context.Background())
	}
	return status
}

// StartListening registers handler as the only listener, replacing any previous
// one, and delivers the current state to it. The handler must not call Refresh.
func (m *Monitor) StartListening(handler Listener) {
	m.ensureStarted()

	m.notifyMu.Lock()
	m.mu.Lock()
	m.listener = handler
	probed, status := m.probed, m.status
	m.mu.Unlock()

	if probed {
		if handler != nil {
			handler(status.Reachable())
		}
		m.notifyMu.Unlock()
		return
	}
	m.notifyMu.Unlock()

	// the first probe always counts as a transition and notifies the new listener
	m.Refresh(context.Background())
}

// StopListening removes the registered listener
func (m *Monitor) StopListening() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = nil
}

// Refresh probes now and notifies the listener if the status changed.
func (m *Monitor) Refresh(ctx context.Context) Status {
	m.refreshMu.Lock()
	status := m.prober.Probe(ctx)

	m.mu.Lock()
	changed := !m.probed || status != m.status
	previous := m.status
	m.status = status
	m.probed = true
	m.mu.Unlock()

	if !changed {
		m.refreshMu.Unlock()
		return status
	}

	m.notifyMu.Lock()
	m.refreshMu.Unlock()
	defer m.notifyMu.Unlock()

	m.logger.Debug("reachability changed",
		zap.Stringer("from", previous),
		zap.Stringer("to", status))

	m.mu.Lock()
	listener := m.listener
	m.mu.Unlock()
	if listener != nil {
		listener(status.Reachable())
	}
	return status
}

// Stop shuts down the background watcher. The last status stays readable.
func (m *Monitor) Stop() {
	m.startOnce.Do(func() {})
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

func (m *Monitor) ensureStarted() {
	m.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.done = make(chan struct{})
		go m.run(ctx, m.newWatcher())
	})
}

func (m *Monitor) newWatcher() *fsnotify.Watcher {
	if m.watchPath == "" {
		return nil
	}
	dir := filepath.Dir(m.watchPath)
	if _, err := os.Stat(dir); err != nil {
		m.logger.Debug("reachability watch path unavailable", zap.String("path", m.watchPath), zap.Error(err))
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.logger.Warn("failed to create reachability watcher", zap.Error(err))
		return nil
	}
	// the parent directory is watched so atomic replacements of the file are seen
	if err := watcher.Add(dir); err != nil {
		m.logger.Warn("failed to watch reachability path", zap.String("path", dir), zap.Error(err))
		watcher.Close()
		return nil
	}
	return watcher
}

func (m *Monitor) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var errs chan error
	if watcher != nil {
		defer watcher.Close()
		events = watcher.Events
		errs = watcher.Errors
	}

	target := filepath.Clean(m.watchPath)
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Refresh(ctx)
		case <-debounce:
			debounce = nil
			m.Refresh(ctx)
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				debounce = time.After(DebounceDelay)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.logger.Warn("reachability watcher error", zap.Error(err))
		}
	}
}
