package classifier

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"emotion-recognition/internal/core"
)

// blockingClassifier holds every call until release is closed
type blockingClassifier struct {
	release chan struct{}
	calls   atomic.Int32
	closed  atomic.Bool
}

func (b *blockingClassifier) Infer(_ context.Context, _ core.Tensor) (core.ScoreVector, error) {
	b.calls.Add(1)
	<-b.release
	return core.ScoreVector{0, 1, 0, 0, 0, 0, 0}, nil
}

func (b *blockingClassifier) Classes() int { return 7 }

func (b *blockingClassifier) Close() error {
	b.closed.Store(true)
	return nil
}

type instantClassifier struct{}

func (instantClassifier) Infer(ctx context.Context, _ core.Tensor) (core.ScoreVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return core.ScoreVector{0, 0, 0, 1, 0, 0, 0}, nil
}

func (instantClassifier) Classes() int { return 7 }
func (instantClassifier) Close() error { return nil }

func TestBackends(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"onnx", "tflite"}, Backends())
	assert.True(t, IsValidBackend("onnx"))
	assert.True(t, IsValidBackend("tflite"))
	assert.False(t, IsValidBackend("torch"))
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := New("torch", Options{})
	require.ErrorIs(t, err, core.ErrModelLoad)

	_, err = New("onnx", Options{ModelPath: filepath.Join(dir, "missing.onnx")})
	require.ErrorIs(t, err, core.ErrModelLoad)

	_, err = New("tflite", Options{ModelPath: filepath.Join(dir, "missing.tflite")})
	require.ErrorIs(t, err, core.ErrModelLoad)

	wrongExt := filepath.Join(dir, "model.pb")
	require.NoError(t, os.WriteFile(wrongExt, []byte("graph"), 0o600))
	_, err = New("onnx", Options{ModelPath: wrongExt})
	require.ErrorIs(t, err, core.ErrModelLoad)
}

func TestWithTimeout_DisabledReturnsInner(t *testing.T) {
	t.Parallel()

	inner := instantClassifier{}
	assert.Equal(t, core.Classifier(inner), WithTimeout(inner, 0))
	assert.Equal(t, core.Classifier(inner), WithTimeout(inner, -time.Second))
}

func TestWithTimeout_PassesResultsThrough(t *testing.T) {
	t.Parallel()

	guarded := WithTimeout(instantClassifier{}, time.Second)

	for i := 0; i < 3; i++ {
		scores, err := guarded.Infer(context.Background(), core.NewTensor())
		require.NoError(t, err)
		label, _, err := core.Select(scores, core.DefaultLabels)
		require.NoError(t, err)
		assert.Equal(t, core.ClassLabel("Happy"), label)
	}
	assert.Equal(t, 7, guarded.Classes())
}

func TestWithTimeout_StalledCall(t *testing.T) {
	defer goleak.VerifyNone(t)

	inner := &blockingClassifier{release: make(chan struct{})}
	guarded := WithTimeout(inner, 20*time.Millisecond)

	_, err := guarded.Infer(context.Background(), core.NewTensor())
	require.ErrorIs(t, err, core.ErrInference, "an overrun degrades to an inference error")

	_, err = guarded.Infer(context.Background(), core.NewTensor())
	require.ErrorIs(t, err, core.ErrInference, "calls fail fast while the stalled one runs")
	assert.Equal(t, int32(1), inner.calls.Load())

	close(inner.release)
	require.Eventually(t, func() bool {
		_, err := guarded.Infer(context.Background(), core.NewTensor())
		return err == nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, guarded.Close())
	assert.True(t, inner.closed.Load())
}

func TestWithTimeout_ParentCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	inner := &blockingClassifier{release: make(chan struct{})}
	guarded := WithTimeout(inner, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := guarded.Infer(ctx, core.NewTensor())
	require.ErrorIs(t, err, core.ErrInference)

	close(inner.release)
}
