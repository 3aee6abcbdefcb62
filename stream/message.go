// Package stream serves particle frames to remote viewers over WebSocket
// and exposes the configuration surface and telemetry over HTTP.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/particlevision/systems"
)

// Wire format, little-endian:
//
//	header:  magic "PVF1" | tick u64 | layers u8
//	layer:   kind u8 | blend u8 | visible u8 | reserved u8 |
//	         count u32 | size f32 | opacity f32 | scale f32 |
//	         positions f32[count*3] | colors f32[count*3]
//
// Only visible layers are sent, so the visible byte is always set.
const (
	magic           = "PVF1"
	headerSize      = 4 + 8 + 1
	layerHeaderSize = 4 + 4 + 4 + 4 + 4
)

// ErrMalformed is returned when a frame message cannot be decoded.
var ErrMalformed = errors.New("stream: malformed frame message")

// EncodedSize returns the message size for frames.
func EncodedSize(frames []systems.LayerFrame) int {
	n := headerSize
	for i := range frames {
		if frames[i].Visible {
			n += layerHeaderSize + frames[i].Count*6*4
		}
	}
	return n
}

// EncodeFrames appends the binary message for the visible frames to dst.
func EncodeFrames(dst []byte, tick uint64, frames []systems.LayerFrame) []byte {
	visible := 0
	for i := range frames {
		if frames[i].Visible {
			visible++
		}
	}
	dst = append(dst, magic...)
	dst = binary.LittleEndian.AppendUint64(dst, tick)
	dst = append(dst, uint8(visible))

	for i := range frames {
		f := &frames[i]
		if !f.Visible {
			continue
		}
		dst = append(dst, uint8(f.Kind), uint8(f.Blend), 1, 0)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(f.Count))
		dst = appendFloat(dst, f.Size)
		dst = appendFloat(dst, f.Opacity)
		dst = appendFloat(dst, f.Scale)
		for _, v := range f.Positions[:f.Count*3] {
			dst = appendFloat(dst, v)
		}
		for _, v := range f.Colors[:f.Count*3] {
			dst = appendFloat(dst, v)
		}
	}
	return dst
}

// DecodeFrames parses a message produced by EncodeFrames. The returned
// frames own their arrays.
func DecodeFrames(data []byte) (uint64, []systems.LayerFrame, error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return 0, nil, ErrMalformed
	}
	tick := binary.LittleEndian.Uint64(data[4:12])
	layers := int(data[12])
	off := headerSize

	frames := make([]systems.LayerFrame, 0, layers)
	for l := 0; l < layers; l++ {
		if len(data)-off < layerHeaderSize {
			return 0, nil, fmt.Errorf("%w: layer %d header truncated", ErrMalformed, l)
		}
		f := systems.LayerFrame{
			Kind:    systems.LayerKind(data[off]),
			Blend:   systems.BlendMode(data[off+1]),
			Visible: data[off+2] != 0,
		}
		count := int(binary.LittleEndian.Uint32(data[off+4:]))
		f.Size = readFloat(data[off+8:])
		f.Opacity = readFloat(data[off+12:])
		f.Scale = readFloat(data[off+16:])
		off += layerHeaderSize

		if count < 0 || len(data)-off < count*6*4 {
			return 0, nil, fmt.Errorf("%w: layer %d body truncated", ErrMalformed, l)
		}
		f.Count = count
		f.Positions = make([]float32, count*3)
		f.Colors = make([]float32, count*3)
		for i := range f.Positions {
			f.Positions[i] = readFloat(data[off:])
			off += 4
		}
		for i := range f.Colors {
			f.Colors[i] = readFloat(data[off:])
			off += 4
		}
		frames = append(frames, f)
	}
	return tick, frames, nil
}

func appendFloat(dst []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
}

func readFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
