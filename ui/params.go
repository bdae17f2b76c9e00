package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/murmur/sim"
)

// ParamsPanel edits the simulation parameters with sliders. Changes
// are handed to the apply callback, which stages them for the next
// tick boundary; a rejected change keeps the panel state and shows the
// error.
type ParamsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool

	pending  sim.Params
	maxCount int
	errText  string
}

// NewParamsPanel creates a parameter panel seeded with the current
// parameters. maxCount bounds the population slider.
func NewParamsPanel(x, y, width int32, initial sim.Params, maxCount int) *ParamsPanel {
	return &ParamsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		pending:  initial,
		maxCount: maxCount,
	}
}

// Toggle switches panel visibility.
func (p *ParamsPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// IsVisible returns whether the panel is shown.
func (p *ParamsPanel) IsVisible() bool { return p.visible }

// Sync replaces the pending parameters, e.g. after an external reset.
func (p *ParamsPanel) Sync(params sim.Params) {
	p.pending = params
	p.errText = ""
}

// Draw renders the panel and applies any slider change through the
// callback. Returns true while the pointer is over the panel so the
// caller can suppress world input.
func (p *ParamsPanel) Draw(apply func(sim.Params) error) bool {
	if !p.visible {
		return false
	}

	r := p.renderer
	padding := r.Theme.Padding

	const rows = 9
	height := int32(rows)*38 + padding*3 + 40
	r.DrawPanel(p.x, p.y, p.width, height)

	x := float32(p.x + padding)
	y := float32(p.y + padding)
	w := float32(p.width - padding*2)

	rl.DrawText("Parameters", int32(x), int32(y), 16, rl.White)
	y += 24

	prev := p.pending

	p.pending.SeparationWeight = p.slider(&y, x, w, "separation weight", p.pending.SeparationWeight, 0, 5, "%.2f")
	p.pending.AlignmentWeight = p.slider(&y, x, w, "alignment weight", p.pending.AlignmentWeight, 0, 5, "%.2f")
	p.pending.CohesionWeight = p.slider(&y, x, w, "cohesion weight", p.pending.CohesionWeight, 0, 5, "%.2f")
	p.pending.SeparationRadius = p.slider(&y, x, w, "separation radius", p.pending.SeparationRadius, 1, 200, "%.0f")
	p.pending.AlignmentRadius = p.slider(&y, x, w, "alignment radius", p.pending.AlignmentRadius, 1, 200, "%.0f")
	p.pending.CohesionRadius = p.slider(&y, x, w, "cohesion radius", p.pending.CohesionRadius, 1, 200, "%.0f")
	p.pending.MaxSpeed = p.slider(&y, x, w, "max speed", p.pending.MaxSpeed, 10, 1000, "%.0f")
	p.pending.MaxForce = p.slider(&y, x, w, "max force", p.pending.MaxForce, 10, 2000, "%.0f")

	count := p.slider(&y, x, w, "agents", float64(p.pending.AgentCount), 0, float64(p.maxCount), "%.0f")
	p.pending.AgentCount = int(count)

	if p.pending != prev {
		if err := apply(p.pending); err != nil {
			p.errText = err.Error()
		} else {
			p.errText = ""
		}
	}

	if p.errText != "" {
		rl.DrawText(p.errText, int32(x), int32(y), r.Theme.FontSize, r.Theme.ErrorColor)
	}

	mouse := rl.GetMousePosition()
	return mouse.X >= float32(p.x) && mouse.X <= float32(p.x+p.width) &&
		mouse.Y >= float32(p.y) && mouse.Y <= float32(p.y)+float32(height)
}

// slider draws a labeled slider row and returns the (possibly updated)
// value.
func (p *ParamsPanel) slider(y *float32, x, w float32, label string, value, min, max float64, format string) float64 {
	rl.DrawText(label, int32(x), int32(*y), 12, rl.Gray)
	*y += 16

	got := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: w - 60, Height: 18},
		"", "",
		float32(value), float32(min), float32(max),
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(x+w-52), int32(*y+2), 14, rl.LightGray)
	*y += 22

	return float64(got)
}
