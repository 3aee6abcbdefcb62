//go:build !gocv

package video

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/vision"
)

// newWebcam returns an error when built without OpenCV support.
func newWebcam(cfg config.VideoConfig, logger *slog.Logger) (vision.Source, error) {
	return nil, fmt.Errorf("%w: built without the gocv tag", ErrWebcamUnavailable)
}
