// Package events defines the local events emitted while dispatching actions
// and the in-process bus they travel on.
package events

import (
	"time"
)

type EventType string

// Topic carries every action event.
const Topic = "rowactions.events"

const EventTypeMetadataKey = "event_type"

const (
	// ActionTriggeredEvent is the user-visible event an "event" action
	// dispatches; EventName is chosen by the action's author.
	ActionTriggeredEvent EventType = "action.triggered"

	// Lifecycle events for UI consumers.
	ActionStartedEvent   EventType = "action.started"
	ActionCompletedEvent EventType = "action.completed"
	ActionFailedEvent    EventType = "action.failed"
)

// Event is anything publishable on the bus.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	ActionName string    `json:"action_name"`
}

// ActionTriggered carries one built payload. ItemID is set in individual
// mode, empty in batch mode.
type ActionTriggered struct {
	BaseEvent

	EventName string `json:"event_name"`
	Payload   string `json:"payload,omitempty"`
	ItemID    string `json:"item_id,omitempty"`
}

func (e ActionTriggered) GetType() EventType {
	return ActionTriggeredEvent
}

type ActionStarted struct {
	BaseEvent

	ItemCount int `json:"item_count"`
}

func (e ActionStarted) GetType() EventType {
	return ActionStartedEvent
}

type ActionCompleted struct {
	BaseEvent

	Duration time.Duration `json:"duration"`
}

func (e ActionCompleted) GetType() EventType {
	return ActionCompletedEvent
}

type ActionFailed struct {
	BaseEvent

	Error string `json:"error"`
}

func (e ActionFailed) GetType() EventType {
	return ActionFailedEvent
}
