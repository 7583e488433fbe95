// pkg/event/event.go
package event

import (
	"sync"
	"time"
)

// Type represents the type of event
type Type string

// Navigation event types, one per autopilot notice kind.
const (
	AutopilotEngaged           Type = "autopilot_engaged"
	AutopilotDisengaged        Type = "autopilot_disengaged"
	AutopilotArrived           Type = "autopilot_arrived"
	AutopilotLostPower         Type = "autopilot_lost_power"
	AutopilotPropulsionOffline Type = "autopilot_propulsion_offline"
	AutopilotNoDestination     Type = "autopilot_no_destination"
	AutopilotModuleDetached    Type = "autopilot_module_detached"
	AutopilotScanStatus        Type = "autopilot_scan_status"
	AutopilotObstacleSeen      Type = "autopilot_obstacle_seen"
	VesselRemoved              Type = "vessel_removed"
	SimulationStarted          Type = "simulation_started"
	SimulationStopped          Type = "simulation_stopped"
)

// NavigationTypes lists every type a navigation notice can be published as.
var NavigationTypes = []Type{
	AutopilotEngaged,
	AutopilotDisengaged,
	AutopilotArrived,
	AutopilotLostPower,
	AutopilotPropulsionOffline,
	AutopilotNoDestination,
	AutopilotModuleDetached,
	AutopilotScanStatus,
	AutopilotObstacleSeen,
}

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler. Cancel removes it from the bus.
type Subscription struct {
	ID     uint64
	Type   Type
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Type:   eventType,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

// Unsubscribe removes the handler registered under sub.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.unsubscribe(sub.Type, sub.ID)
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribed handlers, in subscription order.
// Handlers run on the caller's goroutine.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := append([]subscriber(nil), b.handlers[event.GetType()]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// NavigationEvent carries one autopilot notice.
type NavigationEvent struct {
	BaseEvent
	VesselID   uint64
	JourneyID  string
	Message    string
	ObstacleID uint64
	Tick       uint64
	Time       time.Time
}

// NewNavigationEvent creates a navigation event stamped with the current time.
func NewNavigationEvent(eventType Type, source interface{}, vesselID uint64, message string) *NavigationEvent {
	return &NavigationEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		VesselID: vesselID,
		Message:  message,
		Time:     time.Now(),
	}
}

// VesselEvent reports a vessel lifecycle change.
type VesselEvent struct {
	BaseEvent
	VesselID uint64
}

// NewVesselEvent creates a vessel lifecycle event
func NewVesselEvent(eventType Type, source interface{}, vesselID uint64) *VesselEvent {
	return &VesselEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		VesselID: vesselID,
	}
}
