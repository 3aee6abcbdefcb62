// Package video provides frame sources for the vision sampler: a still
// image, a synthetic moving pattern and an OpenCV webcam.
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/vision"
)

// ErrWebcamUnavailable is returned when no camera can be opened, either
// because the binary was built without OpenCV or the device refused access.
var ErrWebcamUnavailable = errors.New("video: webcam unavailable")

// Source names accepted by Open.
const (
	SourcePattern = "pattern"
	SourceImage   = "image"
	SourceWebcam  = "webcam"
)

// Runner is implemented by sources that decode frames in the background.
type Runner interface {
	Start(ctx context.Context) error
	Close() error
}

// Advancer is implemented by sources driven by simulation time.
type Advancer interface {
	Advance(dt float32)
}

// Open creates the source selected by cfg.Source.
func Open(cfg config.VideoConfig, logger *slog.Logger) (vision.Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("opening video source",
		"source", cfg.Source,
		"device", cfg.Device,
		"ideal_width", cfg.IdealWidth,
		"ideal_height", cfg.IdealHeight,
	)

	switch cfg.Source {
	case SourcePattern, "":
		return NewPattern(cfg.IdealWidth, cfg.IdealHeight), nil
	case SourceImage:
		if cfg.ImagePath == "" {
			return nil, fmt.Errorf("video.image_path is required for source %q", SourceImage)
		}
		return LoadImage(cfg.ImagePath)
	case SourceWebcam:
		return newWebcam(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported video source: %s", cfg.Source)
	}
}
