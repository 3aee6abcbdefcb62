package config

import (
	"strings"
	"sync"
)

// LayerSurface holds the externally mutable settings of one layer.
type LayerSurface struct {
	Color   RGB     `json:"color"`
	Visible bool    `json:"visible"`
	Blend   string  `json:"blend"`
	Scale   float32 `json:"scale"`
}

// Surface is the configuration the engine re-reads every tick.
// All fields are plain values; changing one never triggers invalidation.
type Surface struct {
	Motion     LayerSurface `json:"motion"`
	Static     LayerSurface `json:"static"`
	Background LayerSurface `json:"background"`

	NonMovingColor  RGB  `json:"non_moving_color"`
	HideStatic      bool `json:"hide_static"`
	EnableBlend     bool `json:"enable_blend"`
	BackgroundColor RGB  `json:"background_color"`

	MotionThreshold float32 `json:"motion_threshold"`
	StaticThreshold float32 `json:"static_threshold"`
}

// MinMotionThreshold is the smallest motion threshold the store accepts.
const MinMotionThreshold = 0.001

// SurfaceStore guards a Surface shared between the tick and its editors
// (control panel, HTTP API).
type SurfaceStore struct {
	mu      sync.RWMutex
	surface Surface
	version uint64
}

// NewSurfaceStore creates a store holding s.
func NewSurfaceStore(s Surface) *SurfaceStore {
	s.normalizeBlends()
	return &SurfaceStore{surface: s}
}

// normalizeBlends lowercases the blend mode names so editors can match
// them against the known modes.
func (s *Surface) normalizeBlends() {
	for _, l := range []*LayerSurface{&s.Motion, &s.Static, &s.Background} {
		l.Blend = strings.ToLower(strings.TrimSpace(l.Blend))
	}
}

// Get returns a copy of the current surface.
func (st *SurfaceStore) Get() Surface {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.surface
}

// Update applies fn to the surface under the write lock.
// Thresholds are kept ordered so the classification stays exhaustive.
func (st *SurfaceStore) Update(fn func(*Surface)) Surface {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.surface)
	st.surface.normalizeBlends()
	if st.surface.MotionThreshold < MinMotionThreshold {
		st.surface.MotionThreshold = MinMotionThreshold
	}
	if st.surface.StaticThreshold < 0 {
		st.surface.StaticThreshold = 0
	}
	if st.surface.StaticThreshold > st.surface.MotionThreshold {
		st.surface.StaticThreshold = st.surface.MotionThreshold
	}
	st.version++
	return st.surface
}

// Version returns a counter incremented on every Update.
func (st *SurfaceStore) Version() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.version
}
