package steering

import (
	"math"

	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// Body is a nearby physical body as seen by the scanner.
type Body struct {
	ID       uint64
	Name     string
	Position physics.Vector2D
	Radius   float64
}

// Spatial answers range queries over the bodies in the world.
type Spatial interface {
	// BodiesInRange returns bodies whose extent intersects the circle.
	BodiesInRange(center physics.Vector2D, radius float64) []Body
}

// ScanParams tunes the forward-cylinder obstacle scan.
type ScanParams struct {
	MinSpeed          float64 `json:"minSpeed" mapstructure:"minSpeed"`
	MinLookAheadRatio float64 `json:"minLookAheadRatio" mapstructure:"minLookAheadRatio"`
	DefaultRadius     float64 `json:"defaultRadius" mapstructure:"defaultRadius"`
	SafetyMargin      float64 `json:"safetyMargin" mapstructure:"safetyMargin"`
	MinDistance       float64 `json:"minDistance" mapstructure:"minDistance"`
	BehindScale       float64 `json:"behindScale" mapstructure:"behindScale"`
	CylinderScale     float64 `json:"cylinderScale" mapstructure:"cylinderScale"`
	HeadOnScale       float64 `json:"headOnScale" mapstructure:"headOnScale"`
	CloseBoost        float64 `json:"closeBoost" mapstructure:"closeBoost"`
	BrakeZoneScale    float64 `json:"brakeZoneScale" mapstructure:"brakeZoneScale"`
	BrakeBlend        float64 `json:"brakeBlend" mapstructure:"brakeBlend"`
	ForceGain         float64 `json:"forceGain" mapstructure:"forceGain"`
}

// DefaultScanParams returns the tuning the simulator ships with.
func DefaultScanParams() ScanParams {
	return ScanParams{
		MinSpeed:          0.5,
		MinLookAheadRatio: 0.1,
		DefaultRadius:     10,
		SafetyMargin:      10,
		MinDistance:       0.01,
		BehindScale:       0.5,
		CylinderScale:     1.5,
		HeadOnScale:       0.3,
		CloseBoost:        0.3,
		BrakeZoneScale:    2,
		BrakeBlend:        0.5,
		ForceGain:         2,
	}
}

// Probe describes the scanning vessel.
type Probe struct {
	Self       uint64
	Position   physics.Vector2D
	Velocity   physics.Vector2D
	Radius     float64
	MaxSpeed   float64
	ScanRadius float64
	// Collect asks the scanner to return a Sighting for every body in the scan window.
	Collect bool
}

// Sighting is one body inside the forward scan window.
type Sighting struct {
	Body     Body
	Distance float64
	Lateral  float64
	Combined float64
	InPath   bool
	Bearing  string
}

// Threat is the outcome of one scan.
type Threat struct {
	Force     physics.Vector2D
	Level     float64
	Speed     float64
	LookAhead float64
	InRange   int
	Sightings []Sighting
}

// Scanner finds the nearest body on a collision course and derives an avoidance force.
type Scanner struct {
	params ScanParams
}

// NewScanner creates a scanner with the given tuning.
func NewScanner(params ScanParams) *Scanner {
	return &Scanner{params: params}
}

// Scan looks ahead along the probe's velocity. Candidates come from the
// whole scan radius; the forward window then trims them against lookAhead.
// A stationary probe or a zero scan radius produces no threat.
func (s *Scanner) Scan(spatial Spatial, probe Probe) Threat {
	p := s.params
	speed := probe.Velocity.Length()
	if speed < p.MinSpeed || probe.ScanRadius <= 0 || spatial == nil {
		return Threat{Speed: speed}
	}

	forward := probe.Velocity.Scale(1 / speed)
	ratio := 1.0
	if probe.MaxSpeed > 0 {
		ratio = math.Max(p.MinLookAheadRatio, math.Min(1, speed/probe.MaxSpeed))
	}
	lookAhead := probe.ScanRadius * ratio

	ownRadius := probe.Radius
	if ownRadius <= 0 {
		ownRadius = p.DefaultRadius
	}

	bodies := spatial.BodiesInRange(probe.Position, probe.ScanRadius)
	result := Threat{Speed: speed, LookAhead: lookAhead, InRange: len(bodies)}

	var direction physics.Vector2D
	nearest := math.Inf(1)

	for _, body := range bodies {
		if body.ID == probe.Self {
			continue
		}
		toBody := body.Position.Sub(probe.Position)
		distance := toBody.Length()
		if distance < p.MinDistance {
			continue
		}

		combined := ownRadius + body.Radius + p.SafetyMargin
		ahead := toBody.Dot(forward)
		if ahead < -combined*p.BehindScale || ahead > lookAhead+combined {
			continue
		}
		offset := toBody.Sub(forward.Scale(ahead))
		lateral := offset.Length()
		inPath := lateral < combined*p.CylinderScale

		if probe.Collect {
			result.Sightings = append(result.Sightings, Sighting{
				Body:     body,
				Distance: distance,
				Lateral:  lateral,
				Combined: combined,
				InPath:   inPath,
				Bearing:  Bearing(forward, toBody),
			})
		}
		if !inPath {
			continue
		}

		intersection := ahead - combined
		level := s.threatLevel(intersection, combined, lookAhead)
		result.Level = math.Max(result.Level, level)

		if intersection < nearest {
			nearest = intersection
			direction = s.escape(forward, offset, lateral, combined, intersection)
		}
	}

	if result.Level > 0 {
		result.Force = direction.Scale(result.Level * speed * p.ForceGain)
	}
	return result
}

// threatLevel is 1 at or inside contact and decays quadratically to 0 at lookAhead.
func (s *Scanner) threatLevel(intersection, combined, lookAhead float64) float64 {
	normalized := 0.0
	if lookAhead > 0 {
		normalized = math.Max(0, math.Min(1, intersection/lookAhead))
	}
	level := (1 - normalized) * (1 - normalized)
	if intersection < combined {
		level = math.Min(1, level+s.params.CloseBoost)
	}
	return level
}

// escape picks the unit direction that steers away from an obstacle.
func (s *Scanner) escape(forward, offset physics.Vector2D, lateral, combined, intersection float64) physics.Vector2D {
	p := s.params
	var dir physics.Vector2D
	if lateral < combined*p.HeadOnScale {
		// Nearly head-on: break sideways, away from whatever offset exists.
		dir = forward.Perp()
		if offset.Dot(dir) > 0 {
			dir = dir.Neg()
		}
	} else {
		dir = offset.Neg().Normalize()
	}

	zone := combined * p.BrakeZoneScale
	if intersection > 0 && intersection < zone {
		brake := forward.Neg().Scale(1 - intersection/zone)
		dir = dir.Add(brake.Scale(p.BrakeBlend)).Normalize()
	}
	return dir
}

// sectorEdge splits the compass into eight 45 degree sectors.
var sectorEdge = math.Cos(math.Pi / 8)

// Bearing describes where toBody lies relative to forward using nautical terms.
func Bearing(forward, toBody physics.Vector2D) string {
	fwd := forward.Normalize()
	dir := toBody.Normalize()
	along := dir.Dot(fwd)
	// Positive cross means the body is counter-clockwise of forward, to port.
	side := fwd.X*dir.Y - fwd.Y*dir.X

	switch {
	case along > sectorEdge:
		return "ahead"
	case along < -sectorEdge:
		return "behind"
	case side > sectorEdge:
		return "to port"
	case side < -sectorEdge:
		return "to starboard"
	case along > 0 && side > 0:
		return "ahead to port"
	case along > 0:
		return "ahead to starboard"
	case side > 0:
		return "behind to port"
	default:
		return "behind to starboard"
	}
}
