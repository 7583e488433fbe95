// Package render draws world snapshots as ASCII maps.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/engine"
	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// Map symbols.
const (
	SymbolEmpty   = ' '
	SymbolStation = 'O'
	SymbolTarget  = 'x'
	SymbolEngaged = 'A'
	SymbolParked  = 'P'
	SymbolVessel  = 'v'
)

// TerminalRenderer provides a simple ASCII-based rendering for terminals
type TerminalRenderer struct {
	width     int
	height    int
	buffer    [][]rune
	scale     float64 // world units per cell
	centerPos physics.Vector2D
	out       io.Writer

	// ClearScreen emits an ANSI clear before every frame.
	ClearScreen bool
}

// NewTerminalRenderer creates a new terminal renderer with the specified dimensions
func NewTerminalRenderer(out io.Writer, width, height int, scale float64) *TerminalRenderer {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}

	r := &TerminalRenderer{
		width:  width,
		height: height,
		buffer: buffer,
		scale:  scale,
		out:    out,
	}
	r.Clear()
	return r
}

// SetCenter sets the center position of the view
func (r *TerminalRenderer) SetCenter(pos physics.Vector2D) {
	r.centerPos = pos
}

// worldToScreen converts world coordinates to a cell. World +Y is up.
func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (int, int) {
	screenX := int((pos.X-r.centerPos.X)/r.scale + float64(r.width)/2)
	screenY := int(float64(r.height)/2 - (pos.Y-r.centerPos.Y)/r.scale)
	return screenX, screenY
}

func (r *TerminalRenderer) plot(pos physics.Vector2D, symbol rune) {
	x, y := r.worldToScreen(pos)
	if x >= 0 && x < r.width && y >= 0 && y < r.height {
		r.buffer[y][x] = symbol
	}
}

// Clear blanks the frame buffer.
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = SymbolEmpty
		}
	}
}

// Draw paints a snapshot. Stations are filled discs, targets are drawn
// under vessels so a vessel sitting on its target stays visible.
func (r *TerminalRenderer) Draw(state engine.WorldState) {
	r.Clear()

	for _, s := range state.Stations {
		r.drawDisc(s.Position, s.Radius)
	}
	for _, v := range state.Vessels {
		if v.Target != nil {
			r.plot(*v.Target, SymbolTarget)
		}
	}
	for _, v := range state.Vessels {
		r.plot(v.Position, vesselSymbol(v))
	}
}

func (r *TerminalRenderer) drawDisc(center physics.Vector2D, radius float64) {
	cells := int(radius / r.scale)
	for dy := -cells; dy <= cells; dy++ {
		for dx := -cells; dx <= cells; dx++ {
			if dx*dx+dy*dy > cells*cells {
				continue
			}
			r.plot(center.Add(physics.Vector2D{X: float64(dx) * r.scale, Y: float64(dy) * r.scale}), SymbolStation)
		}
	}
}

func vesselSymbol(v engine.VesselState) rune {
	switch {
	case v.Engaged:
		return SymbolEngaged
	case v.Posture == actuation.Parked:
		return SymbolParked
	default:
		return SymbolVessel
	}
}

// Present writes the frame with a border and a status line per vessel.
func (r *TerminalRenderer) Present(state engine.WorldState) error {
	w := bufio.NewWriter(r.out)
	if r.ClearScreen {
		w.WriteString("\033[H\033[2J")
	}

	border := "+" + strings.Repeat("-", r.width) + "+\n"
	w.WriteString(border)
	for y := range r.buffer {
		w.WriteByte('|')
		w.WriteString(string(r.buffer[y]))
		w.WriteString("|\n")
	}
	w.WriteString(border)

	fmt.Fprintf(w, "tick %d\n", state.Tick)
	for _, v := range state.Vessels {
		fmt.Fprintf(w, "%c %-12s (%8.1f, %8.1f) speed %6.1f %-10s thrusters %s\n",
			vesselSymbol(v), v.Name, v.Position.X, v.Position.Y, v.Velocity.Length(),
			v.Phase.String(), v.Thrusters.String())
	}
	return w.Flush()
}
