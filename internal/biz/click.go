package biz

import (
	"context"
	"sync"
	"time"

	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"
)

// ClickSink accepts clicks without blocking the caller.
type ClickSink interface {
	// Record queues c and reports whether it was accepted.
	Record(c *domain.Click) bool
}

// ClickEnricher derives the analytics dimensions of a click.
type ClickEnricher interface {
	Enrich(c *domain.Click)
}

// ClickRecorder persists clicks from a bounded queue with a fixed pool of
// workers. Clicks are dropped, never retried, when the queue is full, the
// recorder is stopped or the insert fails.
type ClickRecorder struct {
	repo     domain.ClickRepository
	enricher ClickEnricher
	workers  int
	timeout  time.Duration
	log      *log.Helper

	queue   chan *domain.Click
	abandon chan struct{}
	done    chan struct{}

	mu      sync.RWMutex
	started bool
	closed  bool
}

func NewClickRecorder(repo domain.ClickRepository, enricher ClickEnricher, opts *Options, logger log.Logger) *ClickRecorder {
	return &ClickRecorder{
		repo:     repo,
		enricher: enricher,
		workers:  opts.ClickWorkers,
		timeout:  opts.ClickTimeout,
		log:      log.NewHelper(logger),
		queue:    make(chan *domain.Click, opts.ClickQueueSize),
		abandon:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Record never blocks.
func (r *ClickRecorder) Record(c *domain.Click) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.log.Warnf("click recorder stopped, dropping click for link %d", c.LinkID)
		return false
	}

	select {
	case r.queue <- c:
		return true
	default:
		r.log.Warnf("click queue full, dropping click for link %d", c.LinkID)
		return false
	}
}

// Start launches the workers. It returns immediately.
func (r *ClickRecorder) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return nil
	}
	r.started = true

	var g errgroup.Group
	for i := 0; i < r.workers; i++ {
		g.Go(r.work)
	}
	go func() {
		_ = g.Wait()
		close(r.done)
	}()

	r.log.Infof("click recorder started with %d workers", r.workers)
	return nil
}

// Stop refuses new clicks and drains the queue until ctx is done. Clicks
// still queued at the deadline are abandoned.
func (r *ClickRecorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	started := r.started
	r.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-r.done:
		r.log.Info("message", "click recorder drained")
		return nil
	case <-ctx.Done():
		close(r.abandon)
		r.log.Warnf("click recorder stopped before draining, abandoning %d clicks", len(r.queue))
		return ctx.Err()
	}
}

func (r *ClickRecorder) work() error {
	for {
		select {
		case <-r.abandon:
			return nil
		case c, ok := <-r.queue:
			if !ok {
				return nil
			}
			select {
			case <-r.abandon:
				return nil
			default:
			}
			r.persist(c)
		}
	}
}

func (r *ClickRecorder) persist(c *domain.Click) {
	// Detached from the request so a finished response cannot cancel it.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if r.enricher != nil {
		r.enricher.Enrich(c)
	}
	if err := r.repo.Insert(ctx, c); err != nil {
		r.log.WithContext(ctx).Errorf("dropping click for link %d: %v", c.LinkID, err)
	}
}
