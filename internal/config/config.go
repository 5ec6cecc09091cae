// Package config loads application settings with viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Settings is the complete application configuration
type Settings struct {
	Debug      bool               `mapstructure:"debug"`
	Camera     CameraSettings     `mapstructure:"camera"`
	Detector   DetectorSettings   `mapstructure:"detector"`
	Classifier ClassifierSettings `mapstructure:"classifier"`
	Pipeline   PipelineSettings   `mapstructure:"pipeline"`
	Annotation AnnotationSettings `mapstructure:"annotation"`
	Metrics    MetricsSettings    `mapstructure:"metrics"`
	Labels     []string           `mapstructure:"labels"`
}

// CameraSettings control device enumeration
type CameraSettings struct {
	ProbeLimit int `mapstructure:"probe_limit"` // indices 0..ProbeLimit-1 are probed at startup
	Device     int `mapstructure:"device"`      // default device for headless runs
}

// DetectorSettings configure face region detection
type DetectorSettings struct {
	Backend      string  `mapstructure:"backend"` // haar or pigo
	CascadePath  string  `mapstructure:"cascade_path"`
	ScaleFactor  float64 `mapstructure:"scale_factor"`
	MinNeighbors int     `mapstructure:"min_neighbors"`
	MinSize      int     `mapstructure:"min_size"`
	MaxSize      int     `mapstructure:"max_size"`
	ShiftFactor  float64 `mapstructure:"shift_factor"`
	IoUThreshold float64 `mapstructure:"iou_threshold"`
	MinQuality   float64 `mapstructure:"min_quality"`
}

// ClassifierSettings configure the emotion model
type ClassifierSettings struct {
	Backend    string        `mapstructure:"backend"` // onnx or tflite
	ModelPath  string        `mapstructure:"model_path"`
	InputName  string        `mapstructure:"input_name"`
	OutputName string        `mapstructure:"output_name"`
	DNNBackend string        `mapstructure:"dnn_backend"`
	DNNTarget  string        `mapstructure:"dnn_target"`
	Threads    int           `mapstructure:"threads"`
	Timeout    time.Duration `mapstructure:"timeout"` // 0 disables the inference timeout
}

// PipelineSettings tune the frame loop
type PipelineSettings struct {
	YieldInterval time.Duration `mapstructure:"yield_interval"`
}

// AnnotationSettings control overlay drawing
type AnnotationSettings struct {
	BoxThickness  int     `mapstructure:"box_thickness"`
	FontScale     float64 `mapstructure:"font_scale"`
	TextThickness int     `mapstructure:"text_thickness"`
}

// MetricsSettings control the Prometheus endpoint
type MetricsSettings struct {
	Listen string `mapstructure:"listen"` // empty disables the endpoint
}

// EnvPrefix prefixes environment overrides, e.g. EMOTION_DETECTOR_SCALE_FACTOR
const EnvPrefix = "EMOTION"

// NewViper returns a viper instance with defaults and environment binding
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file, if any, and returns validated settings.
// With an empty path the default locations are searched and a missing file
// is not an error.
func Load(v *viper.Viper, path string) (*Settings, error) {
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		for _, dir := range configPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config into struct")
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.Wrap(err, "error validating settings")
	}
	return settings, nil
}

// ConfigFileUsed reports the file viper loaded, if any
func ConfigFileUsed(v *viper.Viper) string {
	return v.ConfigFileUsed()
}

func configPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "emotion-recognition"))
	}
	return paths
}
