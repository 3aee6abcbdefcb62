package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/particlevision/config"
	"github.com/pthm-cable/particlevision/systems"
)

func testFrames() []systems.LayerFrame {
	return []systems.LayerFrame{
		{
			Kind: systems.LayerBackground, Count: 2, Blend: systems.BlendAdditive, Visible: true,
			Size: 0.015, Opacity: 0.4, Scale: 1,
			Positions: []float32{1, 2, 3, -4, -5, -6},
			Colors:    []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
		},
		{
			Kind: systems.LayerMotion, Count: 1, Blend: systems.BlendMultiply, Visible: false,
			Size: 0.025, Opacity: 0.9, Scale: 2,
			Positions: []float32{0.5, -0.5, 3},
			Colors:    []float32{1, 0, 0.25},
		},
	}
}

func TestEncodeDecodeFrames(t *testing.T) {
	frames := testFrames()
	frames[1].Visible = true
	msg := EncodeFrames(nil, 42, frames)
	if len(msg) != EncodedSize(frames) {
		t.Fatalf("encoded %d bytes, EncodedSize says %d", len(msg), EncodedSize(frames))
	}

	tick, got, err := DecodeFrames(msg)
	if err != nil {
		t.Fatal(err)
	}
	if tick != 42 {
		t.Errorf("tick = %d, want 42", tick)
	}
	if len(got) != len(frames) {
		t.Fatalf("decoded %d layers, want %d", len(got), len(frames))
	}
	for i, want := range frames {
		g := got[i]
		if g.Kind != want.Kind || g.Blend != want.Blend || g.Visible != want.Visible ||
			g.Count != want.Count || g.Size != want.Size || g.Opacity != want.Opacity || g.Scale != want.Scale {
			t.Errorf("layer %d header = %+v, want %+v", i, g, want)
		}
		for j := range want.Positions {
			if g.Positions[j] != want.Positions[j] || g.Colors[j] != want.Colors[j] {
				t.Errorf("layer %d value %d differs", i, j)
			}
		}
	}
}

func TestEncodeFramesSkipsHiddenLayers(t *testing.T) {
	frames := testFrames()
	msg := EncodeFrames(nil, 7, frames)
	if len(msg) != EncodedSize(frames) {
		t.Fatalf("encoded %d bytes, EncodedSize says %d", len(msg), EncodedSize(frames))
	}
	if want := headerSize + layerHeaderSize + frames[0].Count*6*4; len(msg) != want {
		t.Errorf("encoded %d bytes, want %d for the visible layer only", len(msg), want)
	}

	_, got, err := DecodeFrames(msg)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Kind != systems.LayerBackground {
		t.Fatalf("decoded %+v, want only the background layer", got)
	}
}

func TestDecodeFramesRejectsTruncated(t *testing.T) {
	msg := EncodeFrames(nil, 1, testFrames())
	for _, n := range []int{0, 3, headerSize, headerSize + 5, len(msg) - 1} {
		if _, _, err := DecodeFrames(msg[:n]); !errors.Is(err, ErrMalformed) {
			t.Errorf("len %d: err = %v, want ErrMalformed", n, err)
		}
	}
}

// attach registers a connectionless client so tests can read its queue.
func attach(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := &Client{ID: "test", hub: h, send: make(chan []byte, sendQueue)}
	h.register <- c
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}
	return c
}

func runHub(t *testing.T, h *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHubPublishesOnInterval(t *testing.T) {
	h := NewHub(2)
	runHub(t, h)

	// Without viewers nothing is encoded
	h.Publish(0, testFrames())
	if h.Stats().FramesSent != 0 {
		t.Fatal("published with no viewers")
	}

	c := attach(t, h)
	for tick := uint64(1); tick <= 4; tick++ {
		h.Publish(tick, testFrames())
	}

	for _, want := range []uint64{2, 4} {
		tick, _, err := DecodeFrames(receive(t, c))
		if err != nil {
			t.Fatal(err)
		}
		if tick != want {
			t.Errorf("received tick %d, want %d", tick, want)
		}
	}
	if s := h.Stats(); s.FramesSent != 2 || s.Clients != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestHubDropsSlowViewer(t *testing.T) {
	h := NewHub(1)
	runHub(t, h)
	c := attach(t, h)

	deadline := time.Now().Add(2 * time.Second)
	for tick := uint64(0); h.ClientCount() > 0; tick++ {
		if time.Now().After(deadline) {
			t.Fatal("slow viewer never dropped")
		}
		h.Publish(tick, testFrames())
		time.Sleep(time.Millisecond)
	}

	// The queue is closed once drained
	for range c.send {
	}
}

func newTestServer(t *testing.T) (*Server, *config.SurfaceStore) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	store := config.NewSurfaceStore(cfg.Surface())
	srv := NewServer(cfg.Stream, store, func() any {
		return map[string]int{"ready_ticks": 7}
	})
	return srv, store
}

func do(t *testing.T, srv *Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

func TestSurfaceAPI(t *testing.T) {
	srv, store := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/api/surface", "")
	if code != http.StatusOK {
		t.Fatalf("GET status %d", code)
	}
	var got config.Surface
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got != store.Get() {
		t.Errorf("GET surface = %+v, want %+v", got, store.Get())
	}

	before := store.Get()
	code, body = do(t, srv, http.MethodPut, "/api/surface",
		`{"hide_static": true, "motion": {"blend": "multiply", "color": "#FF0000"}}`)
	if code != http.StatusOK {
		t.Fatalf("PUT status %d: %s", code, body)
	}
	after := store.Get()
	if !after.HideStatic || after.Motion.Blend != "multiply" || after.Motion.Color.Hex() != "#FF0000" {
		t.Errorf("PUT not applied: %+v", after)
	}
	if after.Motion.Visible != before.Motion.Visible || after.Motion.Scale != before.Motion.Scale {
		t.Error("PUT changed fields absent from the body")
	}
	if after.Static != before.Static {
		t.Error("PUT changed another layer")
	}
}

func TestSurfaceAPIRejectsInvalid(t *testing.T) {
	srv, store := newTestServer(t)
	before := store.Get()

	for _, body := range []string{
		`{"hide_static": `,
		`{"motion": {"color": "not-a-color"}}`,
		`{"motion_threshold": 0}`,
	} {
		code, _ := do(t, srv, http.MethodPut, "/api/surface", body)
		if code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", body, code)
		}
	}
	if store.Get() != before || store.Version() != 0 {
		t.Error("rejected request modified the surface")
	}
}

func TestStatsAndUpgradeRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/api/stats", "")
	if code != http.StatusOK {
		t.Fatalf("stats status %d", code)
	}
	var stats struct {
		Hub    HubStats       `json:"hub"`
		Window map[string]int `json:"window"`
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Window["ready_ticks"] != 7 {
		t.Errorf("window stats = %v", stats.Window)
	}

	code, _ = do(t, srv, http.MethodGet, "/ws/particles", "")
	if code != http.StatusUpgradeRequired {
		t.Errorf("plain GET on websocket route: status %d, want 426", code)
	}
}
