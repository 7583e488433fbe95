package autopilot

import (
	"github.com/opd-ai/go-autopilot/pkg/config"
	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// Phase is the navigation state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseNavigating
	PhaseArrived
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseNavigating:
		return "navigating"
	case PhaseArrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// NavigationState is the autopilot state of one vessel.
type NavigationState struct {
	Enabled  bool
	Target   *physics.Vector2D
	Label    string
	Settings config.NavigationConfig
	Phase    Phase
	// Outcome is the notice kind that ended the last journey.
	Outcome   NoticeKind
	JourneyID string

	reported map[noticeKey]struct{}
	// release switches thrusters off on the tick after arrival braking.
	release bool
}

func newNavigationState(settings config.NavigationConfig) *NavigationState {
	return &NavigationState{
		Settings: settings,
		reported: make(map[noticeKey]struct{}),
	}
}

// snapshot returns a copy that shares nothing with s.
func (s *NavigationState) snapshot() NavigationState {
	out := *s
	if s.Target != nil {
		target := *s.Target
		out.Target = &target
	}
	out.reported = nil
	return out
}

// markReported records a notice and reports whether it is new.
func (s *NavigationState) markReported(key noticeKey) bool {
	if _, ok := s.reported[key]; ok {
		return false
	}
	s.reported[key] = struct{}{}
	return true
}

func (s *NavigationState) resetJourney(journeyID string) {
	s.JourneyID = journeyID
	s.Outcome = NoticeNone
	s.release = false
	clear(s.reported)
}
