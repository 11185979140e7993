package debugview

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"arena/internal/engine"
	"arena/internal/game"
	"arena/internal/game/geom"
)

func testRoom() engine.RoomSnapshot {
	return engine.RoomSnapshot{
		ID:       "room1",
		Size:     2048,
		Entities: 2,
		Sessions: 1,
		Bodies: []engine.Body{
			{
				ID:         "e1",
				Kind:       game.KindPlayer,
				Name:       "ada",
				Radius:     40,
				BaseRadius: 40,
				Points:     geom.RegularPolygon(5, 40),
				Health:     5,
				MaxHealth:  10,
			},
			{ID: "e2", Kind: game.KindProjectile, Position: geom.V(512, 512), Radius: 10, Health: 1, MaxHealth: 1},
		},
		Views: []game.Rect{{MinX: -300, MinY: -200, MaxX: 300, MaxY: 200}},
	}
}

// TestRenderDrawsBodies verifies bodies land where the room puts them
func TestRenderDrawsBodies(t *testing.T) {
	r := NewRenderer(768)
	img := r.Render(testRoom())

	if b := img.Bounds(); b.Dx() != 768 || b.Dy() != 768 {
		t.Fatalf("Unexpected bounds %v", b)
	}

	// The origin maps to the frame centre.
	if got := color.RGBAModel.Convert(img.At(384, 384)); got != playerColor {
		t.Errorf("Centre pixel = %v, want player colour %v", got, playerColor)
	}
	// (512, 512) maps to three quarters across.
	if got := color.RGBAModel.Convert(img.At(576, 576)); got != bulletColor {
		t.Errorf("Projectile pixel = %v, want %v", got, bulletColor)
	}
	if got := color.RGBAModel.Convert(img.At(700, 100)); got != background {
		t.Errorf("Empty pixel = %v, want background", got)
	}
}

// TestWritePNG verifies the encoded frame decodes
func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(128).WritePNG(&buf, testRoom()); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 128 {
		t.Errorf("Expected 128px frame, got %d", img.Bounds().Dx())
	}
}

// TestNewRendererClamps verifies out-of-range sizes
func TestNewRendererClamps(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultSize},
		{-5, DefaultSize},
		{10, MinSize},
		{100000, MaxSize},
		{512, 512},
	}
	for _, tt := range tests {
		if got := NewRenderer(tt.in).Size(); got != tt.want {
			t.Errorf("NewRenderer(%d).Size() = %d, want %d", tt.in, got, tt.want)
		}
	}
}
