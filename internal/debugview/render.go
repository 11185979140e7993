// Package debugview draws a room snapshot to an image for the debug
// server. It works only from engine snapshots, never live rooms.
package debugview

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"

	"arena/internal/engine"
	"arena/internal/game"
	"arena/internal/game/geom"
)

// Frame sizes accepted by Render.
const (
	DefaultSize = 768
	MinSize     = 64
	MaxSize     = 2048
)

const gridStep = 256.0 // world units between grid lines

var (
	background   = color.RGBA{12, 12, 28, 255}
	gridColor    = color.RGBA{30, 30, 45, 255}
	borderColor  = color.RGBA{90, 90, 120, 255}
	viewColor    = color.RGBA{120, 220, 120, 160}
	playerColor  = color.RGBA{0, 178, 225, 255}
	bulletColor  = color.RGBA{241, 78, 84, 255}
	healthBack   = color.RGBA{40, 40, 40, 200}
	healthFront  = color.RGBA{133, 227, 125, 255}
	outlineColor = color.RGBA{0, 0, 0, 140}
)

// shapeColors by outline vertex count.
var shapeColors = map[int]color.RGBA{
	3: {252, 118, 119, 255},
	4: {255, 232, 105, 255},
	5: {118, 141, 252, 255},
	6: {252, 195, 118, 255},
	7: {200, 120, 255, 255},
}

// Renderer draws square frames of a fixed pixel size.
type Renderer struct {
	size int
}

// NewRenderer clamps size into [MinSize, MaxSize].
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	size = min(max(size, MinSize), MaxSize)
	return &Renderer{size: size}
}

// Size returns the frame edge in pixels.
func (r *Renderer) Size() int { return r.size }

// Render draws the room: grid, bodies, health bars and viewer rectangles.
func (r *Renderer) Render(room engine.RoomSnapshot) image.Image {
	return r.draw(room).Image()
}

// WritePNG renders the room and encodes it as PNG.
func (r *Renderer) WritePNG(w io.Writer, room engine.RoomSnapshot) error {
	if err := r.draw(room).EncodePNG(w); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

func (r *Renderer) draw(room engine.RoomSnapshot) *gg.Context {
	dc := gg.NewContext(r.size, r.size)
	px := float64(r.size)

	dc.SetColor(background)
	dc.DrawRectangle(0, 0, px, px)
	dc.Fill()

	worldSize := room.Size
	if !(worldSize > 0) {
		worldSize = 1
	}
	scale := px / worldSize
	half := worldSize / 2
	toScreen := func(p geom.Vec2) (float64, float64) {
		return (p.X + half) * scale, (p.Y + half) * scale
	}

	r.drawGrid(dc, worldSize, scale)

	for _, b := range room.Bodies {
		drawBody(dc, b, scale, toScreen)
	}
	for _, b := range room.Bodies {
		drawHealth(dc, b, scale, toScreen)
	}

	dc.SetColor(viewColor)
	dc.SetLineWidth(1)
	for _, v := range room.Views {
		x0, y0 := toScreen(geom.V(v.MinX, v.MinY))
		x1, y1 := toScreen(geom.V(v.MaxX, v.MaxY))
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Stroke()
	}

	dc.SetColor(color.White)
	dc.DrawStringAnchored(fmt.Sprintf("%s  %d entities  %d sessions", room.ID, room.Entities, room.Sessions), 6, 6, 0, 1)

	return dc
}

func (r *Renderer) drawGrid(dc *gg.Context, worldSize, scale float64) {
	px := float64(r.size)
	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for w := gridStep; w < worldSize; w += gridStep {
		s := w * scale
		dc.DrawLine(s, 0, s, px)
		dc.Stroke()
		dc.DrawLine(0, s, px, s)
		dc.Stroke()
	}
	dc.SetColor(borderColor)
	dc.DrawRectangle(0.5, 0.5, px-1, px-1)
	dc.Stroke()
}

func bodyColor(b engine.Body) color.RGBA {
	var c color.RGBA
	switch b.Kind {
	case game.KindPlayer:
		c = playerColor
	case game.KindProjectile:
		c = bulletColor
	default:
		var ok bool
		if c, ok = shapeColors[len(b.Points)]; !ok {
			c = color.RGBA{200, 200, 200, 255}
		}
	}
	if b.Dead {
		c.A /= 3
	}
	return c
}

func drawBody(dc *gg.Context, b engine.Body, scale float64, toScreen func(geom.Vec2) (float64, float64)) {
	dc.SetColor(bodyColor(b))

	if len(b.Points) < 3 || !(b.BaseRadius > 0) {
		x, y := toScreen(b.Position)
		dc.DrawCircle(x, y, math.Max(b.Radius*scale, 1))
		dc.Fill()
		return
	}

	world := geom.Transform(b.Points, b.Radius/b.BaseRadius, b.Rotation, b.Position)
	for i, p := range world {
		x, y := toScreen(p)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
	dc.FillPreserve()
	dc.SetColor(outlineColor)
	dc.SetLineWidth(1)
	dc.Stroke()
}

func drawHealth(dc *gg.Context, b engine.Body, scale float64, toScreen func(geom.Vec2) (float64, float64)) {
	if b.Dead || !(b.MaxHealth > 0) || b.Health >= b.MaxHealth {
		return
	}
	x, y := toScreen(b.Position)
	w := math.Max(b.Radius*2*scale, 6)
	top := y + b.Radius*scale + 2

	dc.SetColor(healthBack)
	dc.DrawRectangle(x-w/2, top, w, 3)
	dc.Fill()
	dc.SetColor(healthFront)
	dc.DrawRectangle(x-w/2, top, w*b.Health/b.MaxHealth, 3)
	dc.Fill()
}
