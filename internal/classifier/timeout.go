package classifier

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"emotion-recognition/internal/core"
)

// Guarded bounds each inference call by a timeout. A call that overruns
// fails with core.ErrInference; until the backend returns from it, new calls
// fail immediately rather than piling up behind the stalled one.
type Guarded struct {
	inner   core.Classifier
	timeout time.Duration
	busy    chan struct{}
}

// WithTimeout wraps c. A non-positive timeout returns c unchanged.
func WithTimeout(c core.Classifier, timeout time.Duration) core.Classifier {
	if timeout <= 0 {
		return c
	}
	return &Guarded{
		inner:   c,
		timeout: timeout,
		busy:    make(chan struct{}, 1),
	}
}

type inferResult struct {
	scores core.ScoreVector
	err    error
}

func (g *Guarded) Infer(ctx context.Context, tensor core.Tensor) (core.ScoreVector, error) {
	select {
	case g.busy <- struct{}{}:
	default:
		return nil, errors.Wrap(core.ErrInference, "previous inference still running")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	results := make(chan inferResult, 1)
	go func() {
		scores, err := g.inner.Infer(ctx, tensor)
		<-g.busy
		results <- inferResult{scores: scores, err: err}
	}()

	select {
	case r := <-results:
		return r.scores, r.err
	case <-ctx.Done():
		return nil, errors.Wrapf(core.ErrInference, "inference exceeded %s: %v", g.timeout, ctx.Err())
	}
}

func (g *Guarded) Classes() int {
	return g.inner.Classes()
}

func (g *Guarded) Close() error {
	return g.inner.Close()
}
