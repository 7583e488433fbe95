// Package actuation converts steering intent into discrete thruster commands.
package actuation

import "strings"

// Direction indexes a vessel's four linear thruster banks in local space.
// Local +Y is the vessel's front.
type Direction int

const (
	South Direction = iota
	East
	North
	West
)

// Directions lists every thruster bank in index order.
var Directions = [4]Direction{South, East, North, West}

var directionNames = [4]string{"south", "east", "north", "west"}

func (d Direction) String() string {
	if d < South || d > West {
		return "unknown"
	}
	return directionNames[d]
}

// Flag returns the bit for d.
func (d Direction) Flag() DirectionFlag {
	return DirectionFlag(1 << uint(d))
}

// DirectionFlag is a set of active thruster banks.
type DirectionFlag uint8

// None means every linear thruster is off.
const None DirectionFlag = 0

// Has reports whether d is in the set.
func (f DirectionFlag) Has(d Direction) bool {
	return f&d.Flag() != 0
}

// With returns the set plus d.
func (f DirectionFlag) With(d Direction) DirectionFlag {
	return f | d.Flag()
}

func (f DirectionFlag) String() string {
	if f == None {
		return "none"
	}
	var parts []string
	for _, d := range Directions {
		if f.Has(d) {
			parts = append(parts, d.String())
		}
	}
	return strings.Join(parts, "|")
}

// Posture is the body-level driving mode of a vessel.
type Posture int

const (
	// Drive lets the vessel move freely under thrust.
	Drive Posture = iota
	// Parked holds the vessel in place with heavy damping.
	Parked
)

func (p Posture) String() string {
	switch p {
	case Drive:
		return "drive"
	case Parked:
		return "parked"
	default:
		return "unknown"
	}
}
