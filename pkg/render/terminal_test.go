package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/autopilot"
	"github.com/opd-ai/go-autopilot/pkg/engine"
	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// TestNewTerminalRenderer tests the creation of a new terminal renderer
func TestNewTerminalRenderer_CreatesValidRenderer_WithCorrectDimensions(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		scale  float64
	}{
		{name: "small renderer", width: 10, height: 5, scale: 1.0},
		{name: "medium renderer", width: 80, height: 24, scale: 10.0},
		{name: "large renderer", width: 120, height: 40, scale: 5.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := NewTerminalRenderer(&bytes.Buffer{}, tt.width, tt.height, tt.scale)

			if len(renderer.buffer) != tt.height {
				t.Errorf("expected buffer height %d, got %d", tt.height, len(renderer.buffer))
			}
			for i, row := range renderer.buffer {
				if len(row) != tt.width {
					t.Errorf("row %d: expected width %d, got %d", i, tt.width, len(row))
				}
				for _, c := range row {
					if c != SymbolEmpty {
						t.Fatalf("row %d not blank: %q", i, string(row))
					}
				}
			}
		})
	}
}

func TestWorldToScreen_MapsWorldAxes(t *testing.T) {
	renderer := NewTerminalRenderer(&bytes.Buffer{}, 20, 10, 10)
	renderer.SetCenter(physics.Vector2D{X: 100, Y: 100})

	tests := []struct {
		name  string
		pos   physics.Vector2D
		wantX int
		wantY int
	}{
		{name: "center", pos: physics.Vector2D{X: 100, Y: 100}, wantX: 10, wantY: 5},
		{name: "east", pos: physics.Vector2D{X: 150, Y: 100}, wantX: 15, wantY: 5},
		{name: "north is up", pos: physics.Vector2D{X: 100, Y: 130}, wantX: 10, wantY: 2},
		{name: "south is down", pos: physics.Vector2D{X: 100, Y: 70}, wantX: 10, wantY: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := renderer.worldToScreen(tt.pos)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("worldToScreen(%v) = (%d, %d), want (%d, %d)", tt.pos, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestDraw_PlacesSymbols(t *testing.T) {
	renderer := NewTerminalRenderer(&bytes.Buffer{}, 20, 10, 10)
	target := physics.Vector2D{X: 50, Y: 0}

	renderer.Draw(engine.WorldState{
		Stations: []engine.StationState{{Name: "Rock", Position: physics.Vector2D{X: -50}, Radius: 15}},
		Vessels: []engine.VesselState{
			{Name: "Runner", Position: physics.Vector2D{}, Engaged: true, Target: &target},
			{Name: "Docked", Position: physics.Vector2D{X: 0, Y: -30}, Posture: actuation.Parked},
			{Name: "Off screen", Position: physics.Vector2D{X: 5000}},
		},
	})

	checks := []struct {
		name string
		x, y int
		want rune
	}{
		{"engaged vessel", 10, 5, SymbolEngaged},
		{"target", 15, 5, SymbolTarget},
		{"parked vessel", 10, 8, SymbolParked},
		{"station center", 5, 5, SymbolStation},
		{"station edge", 4, 5, SymbolStation},
		{"empty", 0, 0, SymbolEmpty},
	}
	for _, c := range checks {
		if got := renderer.buffer[c.y][c.x]; got != c.want {
			t.Errorf("%s at (%d,%d) = %q, want %q", c.name, c.x, c.y, got, c.want)
		}
	}
}

func TestDraw_ClearsPreviousFrame(t *testing.T) {
	renderer := NewTerminalRenderer(&bytes.Buffer{}, 10, 10, 1)
	renderer.Draw(engine.WorldState{Vessels: []engine.VesselState{{Position: physics.Vector2D{}}}})
	renderer.Draw(engine.WorldState{})

	for y, row := range renderer.buffer {
		if strings.TrimSpace(string(row)) != "" {
			t.Errorf("row %d not cleared: %q", y, string(row))
		}
	}
}

func TestPresent_WritesFrameAndStatus(t *testing.T) {
	var out bytes.Buffer
	renderer := NewTerminalRenderer(&out, 4, 2, 10)
	state := engine.WorldState{
		Tick: 42,
		Vessels: []engine.VesselState{{
			Name:      "Runner",
			Position:  physics.Vector2D{X: 1, Y: 2},
			Velocity:  physics.Vector2D{X: 3, Y: 4},
			Engaged:   true,
			Phase:     autopilot.PhaseNavigating,
			Thrusters: actuation.East.Flag(),
		}},
	}
	renderer.Draw(state)

	if err := renderer.Present(state); err != nil {
		t.Fatalf("Present: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out.String())
	}
	if lines[0] != "+----+" || lines[3] != "+----+" {
		t.Errorf("border lines = %q, %q", lines[0], lines[3])
	}
	if lines[4] != "tick 42" {
		t.Errorf("tick line = %q", lines[4])
	}
	for _, want := range []string{"A Runner", "speed    5.0", "navigating", "thrusters east"} {
		if !strings.Contains(lines[5], want) {
			t.Errorf("status line %q missing %q", lines[5], want)
		}
	}
	if strings.Contains(out.String(), "\033[") {
		t.Error("ANSI clear written without ClearScreen")
	}
}
