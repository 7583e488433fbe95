// Package notify turns autopilot notices into bus events and occupant
// messages. Delivery to occupants runs behind a circuit breaker so a
// failing message sink cannot stall the control loop.
package notify

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-autopilot/pkg/autopilot"
	"github.com/opd-ai/go-autopilot/pkg/config"
	"github.com/opd-ai/go-autopilot/pkg/entity"
	"github.com/opd-ai/go-autopilot/pkg/event"
	"github.com/opd-ai/go-autopilot/pkg/logging"
)

// Roster lists who is aboard a vessel.
type Roster interface {
	Occupants(id entity.ID) []string
}

// Deliverer hands one message to one occupant.
type Deliverer interface {
	Deliver(id entity.ID, occupant, text string) error
}

var eventTypes = map[autopilot.NoticeKind]event.Type{
	autopilot.NoticeEngaged:           event.AutopilotEngaged,
	autopilot.NoticeDisengaged:        event.AutopilotDisengaged,
	autopilot.NoticeArrived:           event.AutopilotArrived,
	autopilot.NoticeLostPower:         event.AutopilotLostPower,
	autopilot.NoticePropulsionOffline: event.AutopilotPropulsionOffline,
	autopilot.NoticeNoDestination:     event.AutopilotNoDestination,
	autopilot.NoticeModuleDetached:    event.AutopilotModuleDetached,
	autopilot.NoticeScanStatus:        event.AutopilotScanStatus,
	autopilot.NoticeObstacleSeen:      event.AutopilotObstacleSeen,
}

// EventType returns the bus event type a notice kind is published as.
func EventType(kind autopilot.NoticeKind) (event.Type, bool) {
	t, ok := eventTypes[kind]
	return t, ok
}

// Dispatcher implements autopilot.Notifier.
type Dispatcher struct {
	bus       *event.Bus
	roster    Roster
	deliverer Deliverer
	breaker   *gobreaker.CircuitBreaker
	logger    *logging.Logger
}

// NewDispatcher creates a dispatcher. bus may be nil to skip publishing and
// a nil deliverer skips occupant delivery.
func NewDispatcher(cfg config.NotifyConfig, bus *event.Bus, roster Roster, deliverer Deliverer, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}

	settings := gobreaker.Settings{
		Name:        "occupant-delivery",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from,
				"to", to,
			)
		},
	}

	return &Dispatcher{
		bus:       bus,
		roster:    roster,
		deliverer: deliverer,
		breaker:   gobreaker.NewCircuitBreaker(settings),
		logger:    logger,
	}
}

// Notify publishes n and delivers its message to every occupant.
func (d *Dispatcher) Notify(n autopilot.Notice) {
	ctx := logging.WithCorrelationID(context.Background(), n.JourneyID)

	if typ, ok := EventType(n.Kind); ok && d.bus != nil {
		ev := event.NewNavigationEvent(typ, d, uint64(n.Vessel), n.Message)
		ev.JourneyID = n.JourneyID
		ev.ObstacleID = uint64(n.Obstacle)
		ev.Tick = n.Tick
		d.bus.Publish(ev)
	}

	if d.deliverer == nil || d.roster == nil {
		return
	}
	for _, occupant := range d.roster.Occupants(n.Vessel) {
		if err := d.deliver(n.Vessel, occupant, n.Message); err != nil {
			d.logger.Warn(ctx, "notice not delivered",
				"vessel_id", n.Vessel,
				"occupant", occupant,
				"kind", n.Kind.String(),
				"error", err,
				"state", d.breaker.State().String(),
			)
		}
	}
}

func (d *Dispatcher) deliver(id entity.ID, occupant, text string) error {
	_, err := d.breaker.Execute(func() (interface{}, error) {
		return nil, d.deliverer.Deliver(id, occupant, text)
	})
	if err != nil {
		return fmt.Errorf("circuit breaker: %w", err)
	}
	return nil
}

// State returns the current state of the delivery circuit breaker.
func (d *Dispatcher) State() gobreaker.State {
	return d.breaker.State()
}

// Counts returns the delivery success and failure counts.
func (d *Dispatcher) Counts() gobreaker.Counts {
	return d.breaker.Counts()
}
