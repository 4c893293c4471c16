package log

import (
	"time"
)

// Event represents one engine log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// EngineID uniquely identifies the engine instance (UUID).
	EngineID string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Type-specific payload (one of these will be set).
	Subscription *SubscriptionEvent `cbor:"4,keyasint,omitempty"` // Subscribe/unsubscribe
	Schedule     *ScheduleEvent     `cbor:"5,keyasint,omitempty"` // Timer recomputation
	Tick         *TickEvent         `cbor:"6,keyasint,omitempty"` // Snapshot capture + dispatch
	State        *StateChangeEvent  `cbor:"7,keyasint,omitempty"` // Engine lifecycle
	Error        *ErrorEventData    `cbor:"8,keyasint,omitempty"` // Delivery faults
}

// Category classifies the event type.
type Category uint8

const (
	// CategorySubscription indicates a subscribe or unsubscribe.
	CategorySubscription Category = 0
	// CategorySchedule indicates a schedule recomputation.
	CategorySchedule Category = 1
	// CategoryTick indicates a timer fire with snapshot dispatch.
	CategoryTick Category = 2
	// CategoryState indicates an engine lifecycle state change.
	CategoryState Category = 3
	// CategoryError indicates a delivery fault.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySubscription:
		return "SUBSCRIPTION"
	case CategorySchedule:
		return "SCHEDULE"
	case CategoryTick:
		return "TICK"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SubscriptionAction distinguishes subscribe from unsubscribe.
type SubscriptionAction uint8

const (
	// ActionSubscribed indicates a new registration.
	ActionSubscribed SubscriptionAction = 0
	// ActionUnsubscribed indicates a registration removal.
	ActionUnsubscribed SubscriptionAction = 1
)

// String returns the action name.
func (a SubscriptionAction) String() string {
	switch a {
	case ActionSubscribed:
		return "SUBSCRIBED"
	case ActionUnsubscribed:
		return "UNSUBSCRIBED"
	default:
		return "UNKNOWN"
	}
}

// SubscriptionEvent captures a subscribe or unsubscribe.
type SubscriptionEvent struct {
	// Action is subscribe or unsubscribe.
	Action SubscriptionAction `cbor:"1,keyasint"`

	// RegistrationID is the UUID of the affected registration.
	RegistrationID string `cbor:"2,keyasint"`

	// Interval is the registration's requested maximum update interval
	// in nanoseconds. Meaningless when Unbounded is set.
	Interval time.Duration `cbor:"3,keyasint"`

	// Unbounded marks a registration with no periodic update request.
	Unbounded bool `cbor:"4,keyasint,omitempty"`

	// BucketChanged indicates the distinct-interval set changed
	// (bucket created on subscribe, deleted on unsubscribe).
	BucketChanged bool `cbor:"5,keyasint,omitempty"`

	// ActiveBuckets is the bucket count after the change.
	ActiveBuckets int `cbor:"6,keyasint"`
}

// ScheduleEvent captures one schedule recomputation.
type ScheduleEvent struct {
	// Armed indicates a new timer was armed. False means the engine went
	// (or stayed) idle.
	Armed bool `cbor:"1,keyasint"`

	// Delay is the armed delay in nanoseconds (0 when not armed).
	Delay time.Duration `cbor:"2,keyasint,omitempty"`

	// ActiveBuckets is the bucket count at recompute time.
	ActiveBuckets int `cbor:"3,keyasint"`
}

// TickEvent captures one timer fire: a snapshot capture plus dispatch.
type TickEvent struct {
	// Sequence is the captured snapshot's sequence.
	Sequence uint64 `cbor:"1,keyasint"`

	// Delivered is the number of callbacks invoked this tick.
	Delivered int `cbor:"2,keyasint"`

	// Faults is the number of deliveries that panicked this tick.
	Faults int `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures engine lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures a delivery fault.
type ErrorEventData struct {
	// Message is the fault description (recovered panic value).
	Message string `cbor:"1,keyasint"`

	// RegistrationID identifies the registration whose callback faulted.
	RegistrationID string `cbor:"2,keyasint,omitempty"`

	// Sequence is the snapshot sequence being delivered when the fault
	// occurred.
	Sequence uint64 `cbor:"3,keyasint,omitempty"`
}
