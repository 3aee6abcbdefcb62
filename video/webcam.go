//go:build gocv

package video

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/vision"
	"golang.org/x/image/draw"
)

// Webcam captures frames from an OpenCV device in a background goroutine.
// DrawInto always reads the latest decoded frame.
type Webcam struct {
	device int
	logger *slog.Logger
	cap    *gocv.VideoCapture

	mu     sync.RWMutex
	latest *image.RGBA
	frames int64

	stopOnce sync.Once
	done     chan struct{}
	exited   chan struct{}
	started  bool
}

func newWebcam(cfg config.VideoConfig, logger *slog.Logger) (vision.Source, error) {
	return NewWebcam(cfg, logger)
}

// NewWebcam opens the configured capture device.
func NewWebcam(cfg config.VideoConfig, logger *slog.Logger) (*Webcam, error) {
	capture, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrWebcamUnavailable, cfg.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d not opened", ErrWebcamUnavailable, cfg.Device)
	}
	if cfg.IdealWidth > 0 && cfg.IdealHeight > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.IdealWidth))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.IdealHeight))
	}

	return &Webcam{
		device: cfg.Device,
		logger: logger,
		cap:    capture,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}, nil
}

// Start launches the capture loop. It returns immediately; the loop exits
// when ctx is cancelled or Close is called.
func (w *Webcam) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	w.started = true
	go w.loop(ctx)
	return nil
}

func (w *Webcam) loop(ctx context.Context) {
	defer close(w.exited)
	bgr := gocv.NewMat()
	defer bgr.Close()
	rgba := gocv.NewMat()
	defer rgba.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		default:
		}

		if ok := w.cap.Read(&bgr); !ok || bgr.Empty() {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		gocv.CvtColor(bgr, &rgba, gocv.ColorBGRToRGBA)

		cols, rows := rgba.Cols(), rgba.Rows()
		data := rgba.ToBytes()

		w.mu.Lock()
		if w.latest == nil || w.latest.Rect.Dx() != cols || w.latest.Rect.Dy() != rows {
			w.latest = image.NewRGBA(image.Rect(0, 0, cols, rows))
			w.logger.Info("webcam frame size", "device", w.device, "width", cols, "height", rows)
		}
		copy(w.latest.Pix, data)
		w.frames++
		w.mu.Unlock()
	}
}

// Ready reports whether at least one frame has been decoded.
func (w *Webcam) Ready() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest != nil
}

// Dimensions returns the size of the latest decoded frame.
func (w *Webcam) Dimensions() (int, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.latest == nil {
		return 0, 0
	}
	return w.latest.Rect.Dx(), w.latest.Rect.Dy()
}

// DrawInto scales the latest frame to cover dst.
func (w *Webcam) DrawInto(dst *image.RGBA) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.latest == nil {
		return
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), w.latest, w.latest.Rect, draw.Src, nil)
}

// Close stops the capture loop and releases the device.
func (w *Webcam) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.RLock()
		started := w.started
		w.mu.RUnlock()
		if started {
			<-w.exited
		}
		err = w.cap.Close()
	})
	return err
}
