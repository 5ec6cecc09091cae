package capture

import (
	"github.com/sirupsen/logrus"

	"emotion-recognition/internal/core"
)

// DefaultProbeLimit is the number of device indices probed at startup
const DefaultProbeLimit = 5

// Probe opens indices 0..maxIndex-1, closes each immediately and returns
// the usable ones in ascending order. A non-positive maxIndex probes nothing.
func Probe(opener core.SourceOpener, maxIndex int, logger *logrus.Logger) []int {
	if maxIndex <= 0 {
		return []int{}
	}

	usable := make([]int, 0, maxIndex)
	for i := 0; i < maxIndex; i++ {
		source, err := opener.Open(i)
		if err != nil {
			logger.WithField("device", i).WithError(err).Debug("CAPTURE: Device not usable")
			continue
		}
		if err := source.Close(); err != nil {
			logger.WithField("device", i).WithError(err).Warn("CAPTURE: Failed to release probed device")
		}
		usable = append(usable, i)
	}

	logger.WithFields(logrus.Fields{
		"probed": maxIndex,
		"usable": usable,
	}).Info("CAPTURE: Device probe complete")
	return usable
}

// SourceNames renders display names for probed indices
func SourceNames(indices []int) []string {
	names := make([]string, len(indices))
	for i, index := range indices {
		names[i] = SourceName(index)
	}
	return names
}
