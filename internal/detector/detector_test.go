package detector

import (
	"image"
	"io"
	"path/filepath"
	"testing"

	pigo "github.com/esimov/pigo/core"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"emotion-recognition/internal/core"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestBackends(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"haar", "pigo"}, Backends())
	assert.True(t, IsValidBackend("haar"))
	assert.True(t, IsValidBackend("pigo"))
	assert.False(t, IsValidBackend("dlib"))
}

func TestNew_UnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := New("dlib", Options{Logger: quietLogger()})
	require.ErrorIs(t, err, core.ErrModelLoad)
}

func TestNew_MissingCascade(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := New("haar", Options{CascadePath: filepath.Join(dir, "missing.xml"), Logger: quietLogger()})
	require.ErrorIs(t, err, core.ErrModelLoad)

	_, err = New("pigo", Options{CascadePath: filepath.Join(dir, "facefinder"), Logger: quietLogger()})
	require.ErrorIs(t, err, core.ErrModelLoad)
}

func TestValidateParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		scale        float64
		minNeighbors int
		wantErr      bool
	}{
		{"reference values", 1.2, 4, false},
		{"zero neighbors", 1.05, 0, false},
		{"scale of one", 1.0, 4, true},
		{"scale below one", 0.9, 4, true},
		{"negative neighbors", 1.2, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateParameters(tt.scale, tt.minNeighbors)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAcceptClusters(t *testing.T) {
	t.Parallel()

	bounds := image.Rect(0, 0, 200, 200)
	face := pigo.Detection{Row: 100, Col: 100, Scale: 40, Q: 12}
	raw := []pigo.Detection{
		{Row: 100, Col: 100, Scale: 40, Q: 3},
		{Row: 101, Col: 99, Scale: 40, Q: 3},
		{Row: 99, Col: 101, Scale: 42, Q: 3},
		{Row: 10, Col: 10, Scale: 20, Q: 1},
	}

	t.Run("enough neighbors", func(t *testing.T) {
		regions := acceptClusters(raw, []pigo.Detection{face}, 2, 0.2, 5, bounds)
		require.Len(t, regions, 1)
		assert.Equal(t, image.Rect(80, 80, 120, 120), regions[0])
	})

	t.Run("neighbors must exceed the threshold", func(t *testing.T) {
		assert.Empty(t, acceptClusters(raw, []pigo.Detection{face}, 3, 0.2, 5, bounds))
	})

	t.Run("low quality cluster dropped", func(t *testing.T) {
		weak := face
		weak.Q = 2
		assert.Empty(t, acceptClusters(raw, []pigo.Detection{weak}, 0, 0.2, 5, bounds))
	})

	t.Run("clipped to frame", func(t *testing.T) {
		edge := pigo.Detection{Row: 190, Col: 190, Scale: 40, Q: 20}
		edgeRaw := []pigo.Detection{edge, edge}
		regions := acceptClusters(edgeRaw, []pigo.Detection{edge}, 1, 0.2, 5, bounds)
		require.Len(t, regions, 1)
		assert.Equal(t, image.Rect(170, 170, 200, 200), regions[0])
		assert.NoError(t, core.ValidateRegion(bounds, regions[0]))
	})
}

func TestCountNeighbors(t *testing.T) {
	t.Parallel()

	region := image.Rect(80, 80, 120, 120)
	raw := []pigo.Detection{
		{Row: 100, Col: 100, Scale: 40},
		{Row: 100, Col: 160, Scale: 40},
	}
	assert.Equal(t, 1, countNeighbors(region, raw, 0.2))
	assert.Equal(t, 0, countNeighbors(region, nil, 0.2))
}

func TestClipToFrame(t *testing.T) {
	t.Parallel()

	bounds := image.Rect(0, 0, 100, 100)
	regions := clipToFrame([]image.Rectangle{
		image.Rect(10, 10, 50, 50),
		image.Rect(90, 90, 130, 130),
		image.Rect(150, 150, 160, 160),
	}, bounds)

	assert.Equal(t, []image.Rectangle{
		image.Rect(10, 10, 50, 50),
		image.Rect(90, 90, 100, 100),
	}, regions)
}

func TestPigo_ClosedDetectorFindsNothing(t *testing.T) {
	t.Parallel()

	p := &Pigo{closed: true, logger: quietLogger()}
	gray := gocv.NewMatWithSize(50, 50, gocv.MatTypeCV8UC1)
	defer gray.Close()

	assert.Empty(t, p.Detect(gray, 1.1, 0))
	assert.NoError(t, p.Close())
}
