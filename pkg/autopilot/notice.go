package autopilot

import "github.com/opd-ai/go-autopilot/pkg/entity"

// NoticeKind classifies an operator notice. Each kind is throttled on its own.
type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeEngaged
	NoticeDisengaged
	NoticeArrived
	NoticeLostPower
	NoticePropulsionOffline
	NoticeNoDestination
	NoticeModuleDetached
	NoticeScanStatus
	NoticeObstacleSeen
)

var noticeNames = map[NoticeKind]string{
	NoticeNone:              "none",
	NoticeEngaged:           "engaged",
	NoticeDisengaged:        "disengaged",
	NoticeArrived:           "arrived",
	NoticeLostPower:         "lost_power",
	NoticePropulsionOffline: "propulsion_offline",
	NoticeNoDestination:     "no_destination",
	NoticeModuleDetached:    "module_detached",
	NoticeScanStatus:        "scan_status",
	NoticeObstacleSeen:      "obstacle_seen",
}

func (k NoticeKind) String() string {
	if name, ok := noticeNames[k]; ok {
		return name
	}
	return "unknown"
}

// Notice is a one-line message for a vessel's occupants.
type Notice struct {
	Kind      NoticeKind
	Vessel    entity.ID
	Obstacle  entity.ID // set for NoticeObstacleSeen only
	JourneyID string
	Label     string
	Message   string
	Tick      uint64
}

// noticeKey identifies one throttled notice within a journey.
type noticeKey struct {
	kind     NoticeKind
	obstacle entity.ID
}
