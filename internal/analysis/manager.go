package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"crossing-simulator/internal/cycle"
	mmetrics "crossing-simulator/internal/metrics"
	"crossing-simulator/internal/publisher"
	"crossing-simulator/internal/signal"
)

// Store is the read side of the recording subsystem.
type Store interface {
	ListJunctions(ctx context.Context) ([]string, error)
	LoadSnapshot(ctx context.Context, junctionID string) (signal.Snapshot, error)
}

type Publisher interface {
	PublishReport(msg publisher.ReportMessage) error
}

// Entry is the latest report computed for a junction.
type Entry struct {
	RunID      string
	ComputedAt time.Time
	Report     *cycle.Report
	key        uint64
}

type Options struct {
	RecomputeInterval time.Duration
	RefreshInterval   time.Duration
	// Junction restricts the manager to one junction id when set.
	Junction  string
	CacheSize int
	Metrics   *mmetrics.Collector
}

// Manager keeps one worker per junction that recomputes the junction report
// from a fresh snapshot on every tick and publishes it when it changes.
type Manager struct {
	store   Store
	pub     Publisher
	opts    Options
	metrics *mmetrics.Collector
	memo    gcache.Cache // snapshot hash -> *cycle.Report

	mu      sync.Mutex
	running map[string]context.CancelFunc // junctionID -> cancel
	latest  map[string]Entry
	wg      sync.WaitGroup

	refreshCancel context.CancelFunc
	refreshWG     sync.WaitGroup
}

// NewManager builds a manager. pub may be nil to disable publishing.
func NewManager(store Store, pub Publisher, opts Options) *Manager {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	return &Manager{
		store:   store,
		pub:     pub,
		opts:    opts,
		metrics: opts.Metrics,
		memo:    gcache.New(opts.CacheSize).LRU().Build(),
		running: make(map[string]context.CancelFunc),
		latest:  make(map[string]Entry),
	}
}

func (m *Manager) Start(ctx context.Context, junctions []string) {
	for _, id := range junctions {
		if m.opts.Junction != "" && id != m.opts.Junction {
			continue
		}
		m.startJunction(ctx, id)
	}
}

func (m *Manager) startJunction(parent context.Context, id string) {
	m.mu.Lock()
	if _, exists := m.running[id]; exists {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.running[id] = cancel
	m.wg.Add(1)
	if m.metrics != nil {
		m.metrics.ActiveJunctions.Set(float64(len(m.running)))
	}
	m.mu.Unlock()

	log.Printf("starting junction %s", id)
	go func() {
		defer m.wg.Done()
		if err := m.runJunction(ctx, id); err != nil && ctx.Err() == nil {
			log.Printf("junction %s error: %v", id, err)
		}
		m.mu.Lock()
		delete(m.running, id)
		if m.metrics != nil {
			m.metrics.ActiveJunctions.Set(float64(len(m.running)))
		}
		m.mu.Unlock()
	}()
}

func (m *Manager) runJunction(ctx context.Context, id string) error {
	if _, _, err := m.Recompute(ctx, id); err != nil {
		log.Printf("junction %s recompute error: %v", id, err)
	}
	if m.opts.RecomputeInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	tick := time.NewTicker(m.opts.RecomputeInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if _, _, err := m.Recompute(ctx, id); err != nil {
				log.Printf("junction %s recompute error: %v", id, err)
			}
		}
	}
}

// Recompute loads a fresh snapshot and rebuilds the junction's report, reusing
// a memoized report when the snapshot is unchanged. changed reports whether
// the stored report differs from the previous one; changed reports are
// published.
func (m *Manager) Recompute(ctx context.Context, id string) (*cycle.Report, bool, error) {
	snap, err := m.store.LoadSnapshot(ctx, id)
	if err != nil {
		m.countRecompute("error")
		return nil, false, err
	}
	key, err := snapshotKey(snap)
	if err != nil {
		m.countRecompute("error")
		return nil, false, err
	}

	var report *cycle.Report
	if cached, err := m.memo.Get(key); err == nil {
		report = cached.(*cycle.Report)
		m.countRecompute("cached")
	} else {
		start := time.Now()
		report, err = cycle.Analyze(snap)
		if err != nil {
			m.countRecompute("error")
			return nil, false, err
		}
		if m.metrics != nil {
			m.metrics.ComputeDuration.Observe(time.Since(start).Seconds())
		}
		_ = m.memo.Set(key, report)
		m.countRecompute("computed")
	}

	m.mu.Lock()
	// RefreshJunctions cancels and clears a removed junction under mu, so a
	// cancelled worker must not store its report afterwards.
	if err := ctx.Err(); err != nil {
		m.mu.Unlock()
		return nil, false, err
	}
	prev, had := m.latest[id]
	changed := !had || prev.key != key
	entry := prev
	if changed {
		entry = Entry{RunID: uuid.NewString(), ComputedAt: time.Now(), Report: report, key: key}
		m.latest[id] = entry
	}
	m.mu.Unlock()

	if changed {
		m.observeReport(id, report)
		if m.pub != nil {
			msg := publisher.ReportMessage{RunID: entry.RunID, JunctionID: id, ComputedAt: entry.ComputedAt, Report: report}
			if err := m.pub.PublishReport(msg); err != nil {
				log.Printf("publish error for %s: %v", id, err)
			}
		}
	}
	return report, changed, nil
}

func (m *Manager) observeReport(id string, r *cycle.Report) {
	if m.metrics == nil {
		return
	}
	m.metrics.ReportsChanged.Inc()
	noTimeline := 0
	for _, c := range r.Crossings {
		if c.Segments == nil {
			noTimeline++
		}
	}
	noData := 0
	for _, j := range r.Journeys {
		if j.Summary == nil {
			noData++
		}
	}
	m.metrics.CrossingsNoData.WithLabelValues(id).Set(float64(noTimeline))
	m.metrics.JourneysNoData.WithLabelValues(id).Set(float64(noData))
	if len(r.Suggestions) > 0 {
		m.metrics.BestConflicts.WithLabelValues(id).Set(float64(r.Suggestions[0].ConflictCount))
	}
}

func (m *Manager) countRecompute(result string) {
	if m.metrics != nil {
		m.metrics.Recomputations.WithLabelValues(result).Inc()
	}
}

func snapshotKey(s signal.Snapshot) (uint64, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("hash snapshot: %w", err)
	}
	return xxhash.Sum64(b), nil
}

// Latest returns the last report computed for a junction.
func (m *Manager) Latest(id string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.latest[id]
	return e, ok
}

// Junctions lists the junctions with a running worker.
func (m *Manager) Junctions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.running))
	for id := range m.running {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) Stop() {
	if m.refreshCancel != nil {
		m.refreshCancel()
	}
	m.refreshWG.Wait()
	m.mu.Lock()
	for _, cancel := range m.running {
		cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// StartRefresher launches a background loop that periodically lists junctions
// and starts workers for new ones.
func (m *Manager) StartRefresher(parent context.Context) {
	if m.opts.RefreshInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.refreshCancel = cancel
	m.refreshWG.Add(1)
	go func() {
		defer m.refreshWG.Done()
		ticker := time.NewTicker(m.opts.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.RefreshJunctions(parent); err != nil {
					log.Printf("refresh junctions error: %v", err)
				}
			}
		}
	}()
}

// RefreshJunctions starts workers for junctions that appeared and stops those
// that disappeared from the store.
func (m *Manager) RefreshJunctions(ctx context.Context) error {
	ids, err := m.store.ListJunctions(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}
	m.mu.Lock()
	for id, cancel := range m.running {
		if !present[id] {
			log.Printf("stopping removed junction %s", id)
			cancel()
			delete(m.latest, id)
		}
	}
	m.mu.Unlock()
	m.Start(ctx, ids)
	return nil
}
