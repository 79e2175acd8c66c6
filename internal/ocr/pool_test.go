package ocr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/common"
)

type fakeEngine struct {
	id     int
	text   []string
	err    error
	closed atomic.Bool
	calls  atomic.Int32
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(context.Context, []byte) ([]string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

func (f *fakeEngine) Close() error {
	f.closed.Store(true)
	return nil
}

func countingFactory(created *atomic.Int32, text ...string) Factory {
	return func(context.Context) (Engine, error) {
		n := created.Add(1)
		return &fakeEngine{id: int(n), text: text}, nil
	}
}

func TestPool_ReusesEngines(t *testing.T) {
	var created atomic.Int32
	p := NewPool("fake", countingFactory(&created), 2, nil)

	for i := 0; i < 5; i++ {
		e, err := p.Acquire(context.Background())
		require.NoError(t, err)
		p.Release(e)
	}
	assert.EqualValues(t, 1, created.Load(), "sequential use initializes one engine")
	assert.Equal(t, 1, p.Live())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	var created, inUse, maxInUse atomic.Int32
	p := NewPool("fake", countingFactory(&created), 3, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := p.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			n := inUse.Add(1)
			for {
				m := maxInUse.Load()
				if n <= m || maxInUse.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inUse.Add(-1)
			p.Release(e)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, created.Load(), int32(3))
	assert.LessOrEqual(t, maxInUse.Load(), int32(3))
}

func TestPool_InitFailure(t *testing.T) {
	boom := errors.New("no eng.traineddata")
	p := NewPool("tesseract", func(context.Context) (Engine, error) { return nil, boom }, 1, nil)

	_, err := p.Acquire(context.Background())
	var unavailable *common.OCRUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "tesseract", unavailable.Engine)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, p.Live(), "slot returned after failed init")
}

func TestPool_AcquireHonoursContext(t *testing.T) {
	var created atomic.Int32
	p := NewPool("fake", countingFactory(&created), 1, nil)

	held, err := p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p.Release(held)
}

func TestPool_DiscardAndClose(t *testing.T) {
	var created atomic.Int32
	p := NewPool("fake", countingFactory(&created), 2, nil)

	e1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Discard(e1)
	assert.True(t, e1.(*fakeEngine).closed.Load())
	assert.Equal(t, 0, p.Live())

	e2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Release(e2)

	require.NoError(t, p.Close())
	assert.True(t, e2.(*fakeEngine).closed.Load())

	_, err = p.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}
