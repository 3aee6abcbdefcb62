package video

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// ImageSource serves a still image as a video source. Every sample sees the
// same frame, so the motion map stays at zero.
type ImageSource struct {
	img image.Image
}

// NewImageSource wraps an already decoded image.
func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{img: img}
}

// LoadImage decodes a PNG or JPEG file.
func LoadImage(path string) (*ImageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return NewImageSource(img), nil
}

// Ready reports whether an image is loaded.
func (s *ImageSource) Ready() bool {
	return s.img != nil
}

// Dimensions returns the image size.
func (s *ImageSource) Dimensions() (int, int) {
	if s.img == nil {
		return 0, 0
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// DrawInto scales the image to cover dst.
func (s *ImageSource) DrawInto(dst *image.RGBA) {
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), s.img, s.img.Bounds(), draw.Src, nil)
}
