package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Handler consumes one decoded event.
type Handler func(ctx context.Context, event Event) error

// Bus publishes and delivers action events over a Watermill pub/sub.
type Bus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	subscriptions map[EventType]Handler
}

// NewBus wraps an existing publisher/subscriber pair.
func NewBus(pub message.Publisher, sub message.Subscriber) *Bus {
	return &Bus{
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[EventType]Handler),
	}
}

// NewLocalBus builds a Bus on an in-process GoChannel pub/sub, the default
// transport for action events.
func NewLocalBus(logger watermill.LoggerAdapter) *Bus {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 1000,
	}, logger)

	return NewBus(pubSub, pubSub)
}

func (b *Bus) GenerateID() string {
	return watermill.NewULID()
}

// Publish serializes the event and puts it on the topic.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+b.GenerateID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(EventTypeMetadataKey, string(event.GetType()))

	return b.publisher.Publish(Topic, msg)
}

// Handle registers the handler run for one event type. Call before
// Subscribe.
func (b *Bus) Handle(eventType EventType, handler Handler) {
	b.subscriptions[eventType] = handler
}

// Subscribe starts delivering events to registered handlers until ctx is
// done. Events without a handler are acked and dropped.
func (b *Bus) Subscribe(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eventType := EventType(msg.Metadata.Get(EventTypeMetadataKey))

			handler, exists := b.subscriptions[eventType]
			if !exists {
				msg.Ack()

				continue
			}

			var event Event

			switch eventType {
			case ActionTriggeredEvent:
				event = &ActionTriggered{}
			case ActionStartedEvent:
				event = &ActionStarted{}
			case ActionCompletedEvent:
				event = &ActionCompleted{}
			case ActionFailedEvent:
				event = &ActionFailed{}
			default:
				msg.Nack()

				continue
			}

			if err := json.Unmarshal(msg.Payload, event); err != nil {
				msg.Nack()

				continue
			}

			if err := handler(ctx, deref(event)); err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

// Close shuts the underlying publisher down.
func (b *Bus) Close() error {
	return b.publisher.Close()
}

func deref(event Event) Event {
	switch e := event.(type) {
	case *ActionTriggered:
		return *e
	case *ActionStarted:
		return *e
	case *ActionCompleted:
		return *e
	case *ActionFailed:
		return *e
	default:
		return event
	}
}
