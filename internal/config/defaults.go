package config

import (
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("camera.probe_limit", 5)
	v.SetDefault("camera.device", 0)

	v.SetDefault("detector.backend", "haar")
	v.SetDefault("detector.cascade_path", "haarcascade_frontalface_default.xml")
	v.SetDefault("detector.scale_factor", 1.2)
	v.SetDefault("detector.min_neighbors", 4)
	v.SetDefault("detector.min_size", 0)
	v.SetDefault("detector.max_size", 0)
	v.SetDefault("detector.shift_factor", 0.1)
	v.SetDefault("detector.iou_threshold", 0.2)
	v.SetDefault("detector.min_quality", 5.0)

	v.SetDefault("classifier.backend", "onnx")
	v.SetDefault("classifier.model_path", "emotion_detection_model.onnx")
	v.SetDefault("classifier.input_name", "conv2d_1_input")
	v.SetDefault("classifier.output_name", "")
	v.SetDefault("classifier.dnn_backend", "")
	v.SetDefault("classifier.dnn_target", "")
	v.SetDefault("classifier.threads", 0)
	v.SetDefault("classifier.timeout", time.Duration(0))

	v.SetDefault("pipeline.yield_interval", time.Millisecond)

	v.SetDefault("annotation.box_thickness", 2)
	v.SetDefault("annotation.font_scale", 2.0)
	v.SetDefault("annotation.text_thickness", 3)

	v.SetDefault("metrics.listen", "")

	v.SetDefault("labels", []string{"Angry", "Disgust", "Fear", "Happy", "Neutral", "Sad", "Surprised"})
}
