package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ActionKind discriminates the two dispatchable action variants.
type ActionKind string

const (
	// ActionKindEvent dispatches a local event carrying the built payload.
	ActionKindEvent ActionKind = "event"
	// ActionKindWebhook issues an HTTP request to a configured URL.
	ActionKindWebhook ActionKind = "webhook"
)

// BatchMode selects whether one dispatch covers all selected rows at once or
// runs once per row.
type BatchMode string

const (
	BatchModeBatch      BatchMode = "batch"
	BatchModeIndividual BatchMode = "individual"
)

// ContentType selects how the webhook body is shaped. The actual
// Content-Type header is derived from it, never set by the user.
type ContentType string

const (
	ContentTypeJSON ContentType = "json"
	ContentTypeText ContentType = "text"
	ContentTypeNone ContentType = "none"
)

// Action describes one dispatchable action. Kind selects the variant; the
// event-only and webhook-only fields of the other variant stay empty.
type Action struct {
	Name           string     `json:"name"            yaml:"name"            validate:"required"`
	Label          string     `json:"label,omitempty" yaml:"label,omitempty"`
	Icon           string     `json:"icon,omitempty"  yaml:"icon,omitempty"`
	ConfirmMessage string     `json:"confirm_message,omitempty" yaml:"confirm_message,omitempty"`
	Kind           ActionKind `json:"kind"            yaml:"kind"            validate:"required,oneof=event webhook"`
	BatchMode      BatchMode  `json:"batch_mode,omitempty" yaml:"batch_mode,omitempty" validate:"omitempty,oneof=batch individual"`
	Condition      *Condition `json:"condition,omitempty"  yaml:"condition,omitempty"`

	// Event variant.
	EventName string `json:"event_name,omitempty" yaml:"event_name,omitempty"`

	// Webhook variant.
	URL         string            `json:"url,omitempty"          yaml:"url,omitempty"`
	Method      string            `json:"method,omitempty"       yaml:"method,omitempty"`
	ContentType ContentType       `json:"content_type,omitempty" yaml:"content_type,omitempty" validate:"omitempty,oneof=json text none"`
	Headers     map[string]string `json:"headers,omitempty"      yaml:"headers,omitempty"`

	// BodyTemplate applies to both variants; when empty a default payload
	// is built from the selected rows.
	BodyTemplate string `json:"body_template,omitempty" yaml:"body_template,omitempty"`
}

var (
	// ErrActionKindInvalid is returned when an action carries an unknown kind.
	ErrActionKindInvalid = errors.New("invalid action kind")
	// ErrEventNameMissing is returned when an event action has no event name.
	ErrEventNameMissing = errors.New("event action requires an event name")
	// ErrWebhookURLMissing is returned when a webhook action has no URL.
	ErrWebhookURLMissing = errors.New("webhook action requires a url")
)

// Validate checks variant-specific requirements that struct tags cannot
// express.
func (a *Action) Validate() error {
	switch a.Kind {
	case ActionKindEvent:
		if a.EventName == "" {
			return fmt.Errorf("action %q: %w", a.Name, ErrEventNameMissing)
		}
	case ActionKindWebhook:
		if a.URL == "" {
			return fmt.Errorf("action %q: %w", a.Name, ErrWebhookURLMissing)
		}
	default:
		return fmt.Errorf("action %q has kind %q: %w", a.Name, a.Kind, ErrActionKindInvalid)
	}

	return nil
}

// EffectiveBatchMode defaults to batch when unset.
func (a *Action) EffectiveBatchMode() BatchMode {
	if a.BatchMode == "" {
		return BatchModeBatch
	}

	return a.BatchMode
}

// EffectiveContentType defaults to JSON body shaping.
func (a *Action) EffectiveContentType() ContentType {
	if a.ContentType == "" {
		return ContentTypeJSON
	}

	return a.ContentType
}

// EffectiveMethod defaults to POST for webhook actions.
func (a *Action) EffectiveMethod() string {
	if a.Method == "" {
		return http.MethodPost
	}

	return a.Method
}

// MethodSupportsBody reports whether the webhook method carries a request
// body.
func MethodSupportsBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}
