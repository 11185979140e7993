package game

import (
	"math"
	"slices"

	"arena/internal/game/geom"
	"arena/internal/game/spatial"
)

// Canvas sizes below these are treated as these when computing zoom.
const (
	MinCanvasWidth  = 960.0
	MinCanvasHeight = 540.0
)

// Canvas is a viewer's drawing surface in screen pixels.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned world rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Intersects is a strict overlap test: touching edges do not count.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX < o.MaxX && r.MaxX > o.MinX && r.MinY < o.MaxY && r.MaxY > o.MinY
}

func boundsOf(e *Entity) Rect {
	return Rect{
		MinX: e.Position.X - e.Radius,
		MinY: e.Position.Y - e.Radius,
		MaxX: e.Position.X + e.Radius,
		MaxY: e.Position.Y + e.Radius,
	}
}

// Zoom returns world-to-screen magnification for a canvas and a body scale.
func Zoom(c Canvas, scale float64) float64 {
	w := math.Max(c.Width, MinCanvasWidth)
	h := math.Max(c.Height, MinCanvasHeight)
	if !(scale > 0) {
		scale = 1
	}
	return math.Sqrt(w*h/1e6) / (math.Sqrt(scale) * 0.2)
}

// Viewer is one session's window into the room.
type Viewer struct {
	SessionID string
	Canvas    Canvas
	Center    geom.Vec2
	View      Rect

	visible []*Entity
	hasFull map[string]bool // entity id -> full record already sent
}

// HasFullRecord reports whether entityID has been sent in full to this
// viewer since it last entered the view.
func (v *Viewer) HasFullRecord(entityID string) bool {
	return v.hasFull[entityID]
}

// Viewports tracks every viewer of a room and what each has been sent.
type Viewports struct {
	viewers map[string]*Viewer
	order   []string // join order, for deterministic iteration
}

// NewViewports creates an empty set.
func NewViewports() *Viewports {
	return &Viewports{viewers: make(map[string]*Viewer)}
}

// Add registers a viewer with the default canvas. Re-adding is a no-op.
func (vp *Viewports) Add(sessionID string) *Viewer {
	if v, ok := vp.viewers[sessionID]; ok {
		return v
	}
	v := &Viewer{
		SessionID: sessionID,
		Canvas:    Canvas{Width: MinCanvasWidth, Height: MinCanvasHeight},
		hasFull:   make(map[string]bool),
	}
	vp.viewers[sessionID] = v
	vp.order = append(vp.order, sessionID)
	return v
}

// Remove forgets a viewer and everything it was sent.
func (vp *Viewports) Remove(sessionID string) {
	if _, ok := vp.viewers[sessionID]; !ok {
		return
	}
	delete(vp.viewers, sessionID)
	for i, id := range vp.order {
		if id == sessionID {
			vp.order = append(vp.order[:i], vp.order[i+1:]...)
			break
		}
	}
}

// Get returns a viewer.
func (vp *Viewports) Get(sessionID string) (*Viewer, bool) {
	v, ok := vp.viewers[sessionID]
	return v, ok
}

// Len returns the number of viewers.
func (vp *Viewports) Len() int {
	return len(vp.viewers)
}

// Resize sets a viewer's canvas. Non-finite or negative sizes are ignored.
func (vp *Viewports) Resize(sessionID string, width, height float64) bool {
	v, ok := vp.viewers[sessionID]
	if !ok {
		return false
	}
	if !geom.IsFinite(width) || !geom.IsFinite(height) || width < 0 || height < 0 {
		return false
	}
	v.Canvas = Canvas{Width: width, Height: height}
	return true
}

// ForEach visits viewers in join order.
func (vp *Viewports) ForEach(fn func(v *Viewer)) {
	for _, id := range vp.order {
		fn(vp.viewers[id])
	}
}

// Update recomputes every viewer's rectangle and visible set. focus maps
// session ids to their player entity; grid must index entities by slice
// position.
func (vp *Viewports) Update(entities []*Entity, grid *spatial.SpatialGrid, focus map[string]*Entity) {
	for _, id := range vp.order {
		v := vp.viewers[id]

		scale := DeadPlayerZoomFactor
		if p, ok := focus[id]; ok && !p.RemoveFlag {
			v.Center = p.Position
			if !p.DeadFlag && p.BaseRadius > 0 {
				scale = p.TargetRadius / p.BaseRadius
			}
		}

		zoom := Zoom(v.Canvas, scale)
		halfW := math.Max(v.Canvas.Width, 1) / zoom / 2
		halfH := math.Max(v.Canvas.Height, 1) / zoom / 2
		v.View = Rect{
			MinX: v.Center.X - halfW,
			MinY: v.Center.Y - halfH,
			MaxX: v.Center.X + halfW,
			MaxY: v.Center.Y + halfH,
		}

		v.visible = v.visible[:0]
		seen := make(map[string]bool, len(v.hasFull))
		ids := grid.QueryRect(v.View.MinX, v.View.MinY, v.View.MaxX, v.View.MaxY)
		slices.Sort(ids)
		for _, idx := range ids {
			if int(idx) >= len(entities) {
				continue
			}
			e := entities[idx]
			if !v.View.Intersects(boundsOf(e)) {
				continue
			}
			v.visible = append(v.visible, e)
			seen[e.ID] = true
		}

		// Leaving the view forgets the full record.
		for eid := range v.hasFull {
			if !seen[eid] {
				delete(v.hasFull, eid)
			}
		}
	}
}

// Serialize builds the entity updates for one viewer: a full record the
// first time an entity is seen, partial records after that.
func (vp *Viewports) Serialize(sessionID string) []EntityUpdate {
	v, ok := vp.viewers[sessionID]
	if !ok {
		return nil
	}
	out := make([]EntityUpdate, 0, len(v.visible))
	for _, e := range v.visible {
		if v.HasFullRecord(e.ID) {
			out = append(out, EntityUpdate{ID: e.ID, Partial: e.PartialRecord()})
			continue
		}
		v.hasFull[e.ID] = true
		out = append(out, EntityUpdate{ID: e.ID, Full: e.FullRecord()})
	}
	return out
}
