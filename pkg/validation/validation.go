// Package validation checks operator navigation commands before they reach the autopilot.
package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// Command limits
const (
	MaxLabelLen        = 64
	MaxVesselNameLen   = 32
	MaxCommandsPerMin  = 30
	DefaultLabelPrefix = "waypoint"
)

var (
	ErrNonFiniteDestination = errors.New("destination is not finite")
	ErrOutOfBounds          = errors.New("destination outside world bounds")
	ErrLabelTooLong         = errors.New("label too long")
	ErrInvalidName          = errors.New("invalid vessel name")
	ErrRateLimited          = errors.New("command rate limit exceeded")
)

// ValidateDestination checks that p is finite and inside a world of the
// given size centered on the origin.
func ValidateDestination(p physics.Vector2D, worldSize float64) error {
	if !p.IsFinite() {
		return fmt.Errorf("%w: %v", ErrNonFiniteDestination, p)
	}
	half := worldSize / 2
	if math.Abs(p.X) > half || math.Abs(p.Y) > half {
		return fmt.Errorf("%w: %v exceeds +/-%v", ErrOutOfBounds, p, half)
	}
	return nil
}

// SanitizeLabel trims whitespace and strips control characters from a
// destination label. An empty result falls back to a label built from p.
func SanitizeLabel(label string, p physics.Vector2D) (string, error) {
	if !utf8.ValidString(label) {
		label = strings.ToValidUTF8(label, "")
	}

	filtered := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(label))
	filtered = strings.TrimSpace(filtered)

	if n := utf8.RuneCountInString(filtered); n > MaxLabelLen {
		return "", fmt.Errorf("%w: %d characters (max %d)", ErrLabelTooLong, n, MaxLabelLen)
	}
	if filtered == "" {
		return fmt.Sprintf("%s (%.0f, %.0f)", DefaultLabelPrefix, p.X, p.Y), nil
	}
	return filtered, nil
}

// ValidateVesselName validates and trims a vessel name
func ValidateVesselName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if !utf8.ValidString(trimmed) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrInvalidName)
	}
	if n := utf8.RuneCountInString(trimmed); n > MaxVesselNameLen {
		return "", fmt.Errorf("%w: %d characters (max %d)", ErrInvalidName, n, MaxVesselNameLen)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: contains control characters", ErrInvalidName)
		}
	}
	return trimmed, nil
}

// CommandValidator rate limits navigation commands per operator
type CommandValidator struct {
	rateLimiter *RateLimiter
	worldSize   float64
}

// NewCommandValidator creates a validator for a world of the given size
func NewCommandValidator(worldSize float64) *CommandValidator {
	return &CommandValidator{
		rateLimiter: NewRateLimiter(MaxCommandsPerMin, time.Minute),
		worldSize:   worldSize,
	}
}

// Close releases resources used by the validator
func (v *CommandValidator) Close() {
	if v.rateLimiter != nil {
		v.rateLimiter.Close()
	}
}

// ValidateNavigate checks a navigate command and returns the cleaned label.
func (v *CommandValidator) ValidateNavigate(operator string, p physics.Vector2D, label string) (string, error) {
	if err := v.Allow(operator); err != nil {
		return "", err
	}
	if err := ValidateDestination(p, v.worldSize); err != nil {
		return "", err
	}
	return SanitizeLabel(label, p)
}

// Allow charges one command against the operator's budget.
func (v *CommandValidator) Allow(operator string) error {
	if !v.rateLimiter.Allow(operator) {
		return fmt.Errorf("%w: max %d commands per minute", ErrRateLimited, v.rateLimiter.maxRequests)
	}
	return nil
}
