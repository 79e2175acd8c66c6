package ocr

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/quizgen/internal/common"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("ocr pool closed")

// Pool bounds how many engines exist and hands each one to a single caller at a time.
// Engines are created lazily on first demand and reused afterwards.
type Pool struct {
	name    string
	factory Factory
	logger  *slog.Logger

	idle  chan Engine
	slots chan struct{} // one token per live engine

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool of at most size engines.
func NewPool(name string, factory Factory, size int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		name:    name,
		factory: factory,
		logger:  logger,
		idle:    make(chan Engine, size),
		slots:   make(chan struct{}, size),
	}
}

// Name is the engine name the pool was built for.
func (p *Pool) Name() string { return p.name }

// Size is the maximum number of engines.
func (p *Pool) Size() int { return cap(p.slots) }

// Live is the number of engines currently created.
func (p *Pool) Live() int { return len(p.slots) }

// Acquire checks out an engine, creating one if the pool has room, otherwise waiting
// for one to be released. Initialization failures are *common.OCRUnavailableError.
func (p *Pool) Acquire(ctx context.Context) (Engine, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}

	select {
	case e := <-p.idle:
		return e, nil
	default:
	}

	select {
	case e := <-p.idle:
		return e, nil
	case p.slots <- struct{}{}:
		e, err := p.factory(ctx)
		if err != nil {
			<-p.slots
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			p.logger.Error("ocr.pool.init_failed", "engine", p.name, "error", err)
			return nil, &common.OCRUnavailableError{Engine: p.name, Err: err}
		}
		p.logger.Info("ocr.pool.engine_created", "engine", p.name, "live", p.Live(), "size", p.Size())
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an engine to the pool.
func (p *Pool) Release(e Engine) {
	if e == nil {
		return
	}
	if p.isClosed() {
		p.discard(e)
		return
	}
	p.idle <- e
}

// Discard closes an engine that should not be reused and frees its slot.
func (p *Pool) Discard(e Engine) {
	if e == nil {
		return
	}
	p.discard(e)
}

func (p *Pool) discard(e Engine) {
	if err := e.Close(); err != nil {
		p.logger.Warn("ocr.pool.close_failed", "engine", p.name, "error", err)
	}
	<-p.slots
}

// Close closes idle engines. Engines still checked out are closed when released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case e := <-p.idle:
			if err := e.Close(); err != nil {
				errs = append(errs, err)
			}
			<-p.slots
		default:
			return errors.Join(errs...)
		}
	}
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
