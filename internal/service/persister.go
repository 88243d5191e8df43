package service

import (
	"context"
	"sync"
	"time"

	"github.com/yourusername/parlay-slip/internal/logger"
	"github.com/yourusername/parlay-slip/internal/metrics"
	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/repository"
)

// PersisterConfig controls the background writer
type PersisterConfig struct {
	Backend string
	// QueueSize bounds writes waiting for the worker.
	QueueSize int
	// RetryLimit bounds sessions waiting for a retry; beyond it writes are dropped.
	RetryLimit   int
	WriteTimeout time.Duration
}

// write is one save (Slip != nil) or delete (Slip == nil) for a session.
// Seq increases per session so stale writes can be recognized.
type write struct {
	SessionID string
	Slip      *models.SerializedSlip
	Seq       uint64
	Attempts  int
	barrier   chan struct{}
}

// Persister saves slip snapshots off the mutation path. Failed writes are
// kept per session, newest wins, until RetryPending succeeds or a newer
// write for the same session lands.
type Persister struct {
	repo    repository.SlipRepository
	cfg     PersisterConfig
	audit   *logger.AuditLogger
	metrics *metrics.Metrics

	queue    chan write
	wg       sync.WaitGroup
	flushers sync.WaitGroup

	// writeMu serializes store writes between the worker and RetryPending.
	writeMu sync.Mutex

	mu        sync.Mutex
	closed    bool
	seq       map[string]uint64
	persisted map[string]uint64
	retry     map[string]write
	// latest holds the newest write per session until it is stored.
	latest map[string]write
}

// NewPersister creates a persister; call Start before enqueueing
func NewPersister(repo repository.SlipRepository, cfg PersisterConfig, audit *logger.AuditLogger, m *metrics.Metrics) *Persister {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = cfg.QueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if audit == nil {
		audit = logger.NewAuditLogger(discardLogger())
	}
	return &Persister{
		repo:      repo,
		cfg:       cfg,
		audit:     audit,
		metrics:   m,
		queue:     make(chan write, cfg.QueueSize),
		seq:       make(map[string]uint64),
		persisted: make(map[string]uint64),
		retry:     make(map[string]write),
		latest:    make(map[string]write),
	}
}

// Start launches the background worker
func (p *Persister) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for w := range p.queue {
			if w.barrier != nil {
				close(w.barrier)
				continue
			}
			p.apply(ctx, w)
		}
	}()
}

// Stop drains queued writes and stops the worker. Writes enqueued after
// Stop go straight to the retry set.
func (p *Persister) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.flushers.Wait()
	close(p.queue)
	p.wg.Wait()
}

// Enqueue schedules a write and never blocks. slip == nil deletes the session's slip.
func (p *Persister) Enqueue(sessionID string, slip *models.SerializedSlip) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq[sessionID]++
	w := write{SessionID: sessionID, Slip: slip, Seq: p.seq[sessionID]}
	p.latest[sessionID] = w

	if !p.closed {
		select {
		case p.queue <- w:
			return
		default:
		}
	}
	p.deferLocked(w)
}

// Flush blocks until every write enqueued before the call has been attempted
func (p *Persister) Flush(ctx context.Context) error {
	done := make(chan struct{})

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.flushers.Add(1)
	p.mu.Unlock()
	defer p.flushers.Done()

	select {
	case p.queue <- write{barrier: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryPending re-attempts every deferred write once and returns how many
// succeeded and how many remain.
func (p *Persister) RetryPending(ctx context.Context) (succeeded, remaining int) {
	p.mu.Lock()
	pending := make([]write, 0, len(p.retry))
	for _, w := range p.retry {
		pending = append(pending, w)
	}
	p.mu.Unlock()

	for _, w := range pending {
		if p.apply(ctx, w) {
			succeeded++
		}
	}
	return succeeded, p.Pending()
}

// Unsaved returns the newest write for sessionID that has not reached the
// store yet. ok is false when the store is current; slip is nil for a
// pending delete.
func (p *Persister) Unsaved(sessionID string) (slip *models.SerializedSlip, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.latest[sessionID]
	return w.Slip, ok
}

// Pending returns the number of sessions waiting for a retry
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.retry)
}

// apply performs one write unless a newer one already landed
func (p *Persister) apply(ctx context.Context, w write) bool {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	stale := w.Seq <= p.persisted[w.SessionID]
	p.mu.Unlock()
	if stale {
		return true
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.cfg.WriteTimeout)
	defer cancel()

	start := time.Now()
	var err error
	if w.Slip == nil {
		err = p.repo.Delete(writeCtx, w.SessionID)
	} else {
		err = p.repo.Save(writeCtx, w.SessionID, *w.Slip)
	}
	p.metrics.RecordPersist(time.Since(start).Seconds(), err)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		w.Attempts++
		p.audit.LogPersistFailure(w.SessionID, w.Attempts, err)
		p.deferLocked(w)
		return false
	}

	p.persisted[w.SessionID] = w.Seq
	if r, ok := p.retry[w.SessionID]; ok && r.Seq <= w.Seq {
		delete(p.retry, w.SessionID)
	}
	if l, ok := p.latest[w.SessionID]; ok && l.Seq <= w.Seq {
		delete(p.latest, w.SessionID)
	}
	p.metrics.SetPersistQueueDepth(len(p.retry))
	if w.Slip == nil {
		p.audit.LogSlipDeleted(w.SessionID, p.cfg.Backend)
	} else {
		p.audit.LogSlipPersisted(w.SessionID, w.Slip.ID, len(w.Slip.Legs), p.cfg.Backend)
	}
	return true
}

// deferLocked records w for retry if it is the newest write for its session
func (p *Persister) deferLocked(w write) {
	defer func() { p.metrics.SetPersistQueueDepth(len(p.retry)) }()

	if w.Seq <= p.persisted[w.SessionID] {
		return
	}
	if existing, ok := p.retry[w.SessionID]; ok {
		if existing.Seq < w.Seq {
			p.retry[w.SessionID] = w
		}
		return
	}
	if len(p.retry) >= p.cfg.RetryLimit {
		p.audit.LogPersistDropped(w.SessionID, p.cfg.RetryLimit)
		return
	}
	p.retry[w.SessionID] = w
}
