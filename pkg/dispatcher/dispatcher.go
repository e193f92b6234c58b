// Package dispatcher executes actions over selected rows: it builds
// payloads and URLs through the template interpolator, gates outbound
// requests with the rate limiter, and tracks per-row status while keeping
// row failures isolated from each other.
package dispatcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/rowactions/pkg/events"
	"github.com/dukex/rowactions/pkg/interpolate"
	"github.com/dukex/rowactions/pkg/models"
	"github.com/dukex/rowactions/pkg/otelhelper"
	"github.com/dukex/rowactions/pkg/ratelimit"
	"github.com/dukex/rowactions/pkg/status"
)

const defaultRequestTimeout = 30 * time.Second

// someRequestsFailed aggregates individual-mode failures at the action
// level; per-row detail stays in ItemResults.
const someRequestsFailed = "Some requests failed"

// HTTPDoer is the injected transport for webhook actions.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// EventPublisher is the injected local-event primitive for event actions.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Dispatcher runs actions against selections. All collaborators are
// injected; nil ones get safe defaults so tests can wire only what they
// exercise.
type Dispatcher struct {
	logger  *slog.Logger
	client  HTTPDoer
	bus     EventPublisher
	store   status.Store
	limiter *ratelimit.Limiter
	tracer  trace.Tracer
}

func New(logger *slog.Logger, client HTTPDoer, bus EventPublisher, store status.Store, limiter *ratelimit.Limiter) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}

	if store == nil {
		store = status.NewMemoryStore()
	}

	if limiter == nil {
		limiter = ratelimit.New(ratelimit.Config{})
	}

	return &Dispatcher{
		logger:  logger.With("module", "dispatcher"),
		client:  client,
		bus:     bus,
		store:   store,
		limiter: limiter,
		tracer:  otel.Tracer("rowactions/dispatcher"),
	}
}

// ExecuteOptions tunes one dispatch call.
type ExecuteOptions struct {
	// Variables is the dashboard-variable state substituted after field
	// interpolation.
	Variables map[string]interpolate.Variable

	// VariableFallback, when set, replaces variable tokens that have no
	// entry in Variables. Unset, unknown tokens stay verbatim.
	VariableFallback *string
}

// applyFallback resolves the variable tokens a dispatch left unsubstituted.
func (opts ExecuteOptions) applyFallback(text string) string {
	if opts.VariableFallback == nil {
		return text
	}

	return interpolate.ReplaceVariablesWithFallback(text, opts.Variables, *opts.VariableFallback)
}

// ExecuteSelectionAction runs one action over the selection. It never
// returns an error: every failure, including programmer errors such as an
// unknown action kind, surfaces inside the ExecutionResult. Confirmation,
// when the action requires one, already happened on the caller's side.
func (d *Dispatcher) ExecuteSelectionAction(ctx context.Context, action models.Action, selection models.SelectionSet, opts ExecuteOptions) models.ExecutionResult {
	if len(selection) == 0 {
		return models.ExecutionResult{Success: true}
	}

	attrs := []attribute.KeyValue{
		attribute.String(otelhelper.ActionNameKey, action.Name),
		attribute.String(otelhelper.ActionKindKey, string(action.Kind)),
		attribute.String(otelhelper.BatchModeKey, string(action.EffectiveBatchMode())),
		attribute.Int(otelhelper.ItemCountKey, len(selection)),
	}
	if action.EventName != "" {
		attrs = append(attrs, attribute.String(otelhelper.EventNameKey, action.EventName))
	}

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatcher.execute", attrs...)
	defer span.End()

	logger := d.logger.With(
		"action", action.Name,
		"kind", action.Kind,
		"batch_mode", action.EffectiveBatchMode(),
		"items", len(selection),
	)
	logger.InfoContext(ctx, "Executing selection action")

	started := time.Now()
	d.publishLifecycle(ctx, events.ActionStarted{
		BaseEvent: d.baseEvent(events.ActionStartedEvent, action),
		ItemCount: len(selection),
	})

	var result models.ExecutionResult

	switch action.Kind {
	case models.ActionKindEvent:
		if action.EffectiveBatchMode() == models.BatchModeIndividual {
			result = d.executeEventIndividual(ctx, action, selection, opts)
		} else {
			result = d.executeEventBatch(ctx, action, selection, opts)
		}
	case models.ActionKindWebhook:
		if action.EffectiveBatchMode() == models.BatchModeIndividual {
			result = d.executeWebhookIndividual(ctx, action, selection, opts)
		} else {
			result = d.executeWebhookBatch(ctx, action, selection, opts)
		}
	default:
		result = models.ExecutionResult{
			Success: false,
			Error:   fmt.Sprintf("unknown action kind %q", action.Kind),
		}
	}

	if !result.Success {
		otelhelper.SetError(span, fmt.Errorf("action %s failed: %s", action.Name, result.Error))
		logger.WarnContext(ctx, "Selection action failed", "error", result.Error)
		d.publishLifecycle(ctx, events.ActionFailed{
			BaseEvent: d.baseEvent(events.ActionFailedEvent, action),
			Error:     result.Error,
		})
	} else {
		logger.InfoContext(ctx, "Selection action finished")
		d.publishLifecycle(ctx, events.ActionCompleted{
			BaseEvent: d.baseEvent(events.ActionCompletedEvent, action),
			Duration:  time.Since(started),
		})
	}

	return result
}

func (d *Dispatcher) baseEvent(eventType events.EventType, action models.Action) events.BaseEvent {
	return events.BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		ActionName: action.Name,
	}
}

// publishLifecycle is best-effort: a bus outage must not fail a dispatch
// that already ran.
func (d *Dispatcher) publishLifecycle(ctx context.Context, event events.Event) {
	if d.bus == nil {
		return
	}

	if err := d.bus.Publish(ctx, event); err != nil {
		d.logger.WarnContext(ctx, "Failed to publish lifecycle event", "event", event.GetType(), "error", err)
	}
}

// executeEventBatch dispatches one local event covering the whole
// selection.
func (d *Dispatcher) executeEventBatch(ctx context.Context, action models.Action, selection models.SelectionSet, opts ExecuteOptions) models.ExecutionResult {
	d.store.SetActionStatus(action.Name, models.ActionStatus{Loading: true})

	payload, softErrs := BuildBulkPayload(selection.Items(), action, opts.Variables)
	d.logSoftErrors(ctx, action, softErrs)

	err := d.publishTriggered(ctx, action, opts.applyFallback(payload), "")
	if err != nil {
		d.store.SetActionStatus(action.Name, models.ActionStatus{
			Loading: false,
			Success: models.BoolPtr(false),
			Error:   err.Error(),
		})

		return models.ExecutionResult{Success: false, Error: err.Error()}
	}

	d.store.SetActionStatus(action.Name, models.ActionStatus{
		Loading: false,
		Success: models.BoolPtr(true),
	})

	return models.ExecutionResult{Success: true}
}

// executeEventIndividual dispatches one local event per row, in selection
// order. A failed row never aborts the loop.
func (d *Dispatcher) executeEventIndividual(ctx context.Context, action models.Action, selection models.SelectionSet, opts ExecuteOptions) models.ExecutionResult {
	count := len(selection)
	for _, id := range selection.IDs() {
		d.store.SetItemStatus(action.Name, id, models.ItemActionStatus{Loading: true})
	}

	itemResults := make(map[string]models.ItemResult, count)

	for index, sel := range selection {
		payload, softErrs := BuildPayload(sel, index, count, action, opts.Variables)
		d.logSoftErrors(ctx, action, softErrs)

		err := d.publishTriggered(ctx, action, opts.applyFallback(payload), sel.ID)
		if err != nil {
			itemResults[sel.ID] = models.ItemResult{Success: false, Error: err.Error()}
			d.store.SetItemStatus(action.Name, sel.ID, models.ItemActionStatus{
				Loading: false,
				Success: models.BoolPtr(false),
				Error:   err.Error(),
			})

			continue
		}

		itemResults[sel.ID] = models.ItemResult{Success: true}
		d.store.SetItemStatus(action.Name, sel.ID, models.ItemActionStatus{
			Loading: false,
			Success: models.BoolPtr(true),
		})
	}

	d.store.SetActionStatus(action.Name, models.ActionStatus{
		Loading: false,
		Success: models.BoolPtr(true),
	})

	return models.ExecutionResult{Success: true, ItemResults: itemResults}
}

// executeWebhookBatch issues a single rate-limited request covering the
// whole selection.
func (d *Dispatcher) executeWebhookBatch(ctx context.Context, action models.Action, selection models.SelectionSet, opts ExecuteOptions) models.ExecutionResult {
	d.store.SetActionStatus(action.Name, models.ActionStatus{Loading: true})

	items := selection.Items()

	urlResult := interpolate.SelectionBatch(action.URL, items, opts.Variables)
	d.logSoftErrors(ctx, action, urlResult.Errors)

	var body string

	if actionHasBody(action) {
		payload, softErrs := BuildBulkPayload(items, action, opts.Variables)
		d.logSoftErrors(ctx, action, softErrs)
		body = opts.applyFallback(payload)
	}

	err := d.doRequest(ctx, action, opts.applyFallback(urlResult.Text), body)
	if err != nil {
		d.store.SetActionStatus(action.Name, models.ActionStatus{
			Loading: false,
			Success: models.BoolPtr(false),
			Error:   err.Error(),
		})

		return models.ExecutionResult{Success: false, Error: err.Error()}
	}

	d.store.SetActionStatus(action.Name, models.ActionStatus{
		Loading: false,
		Success: models.BoolPtr(true),
	})

	return models.ExecutionResult{Success: true}
}

// executeWebhookIndividual issues one request per row. Requests are all in
// flight together; the rate limiter is the only serialization point. Each
// row's status is written only from its own request, so concurrent
// completion cannot corrupt a neighbour's state.
func (d *Dispatcher) executeWebhookIndividual(ctx context.Context, action models.Action, selection models.SelectionSet, opts ExecuteOptions) models.ExecutionResult {
	count := len(selection)

	d.store.SetActionStatus(action.Name, models.ActionStatus{Loading: true})

	for _, id := range selection.IDs() {
		d.store.SetItemStatus(action.Name, id, models.ItemActionStatus{Loading: true})
	}

	results := make([]models.ItemResult, count)

	var wg sync.WaitGroup

	for index, sel := range selection {
		wg.Add(1)

		go func(index int, sel models.SelectedItem) {
			defer wg.Done()

			results[index] = d.dispatchItemRequest(ctx, action, sel, index, count, opts)
		}(index, sel)
	}

	wg.Wait()

	itemResults := make(map[string]models.ItemResult, count)
	allSucceeded := true

	for index, sel := range selection {
		itemResults[sel.ID] = results[index]

		if !results[index].Success {
			allSucceeded = false
		}
	}

	if !allSucceeded {
		d.store.SetActionStatus(action.Name, models.ActionStatus{
			Loading: false,
			Success: models.BoolPtr(false),
			Error:   someRequestsFailed,
		})

		return models.ExecutionResult{
			Success:     false,
			Error:       someRequestsFailed,
			ItemResults: itemResults,
		}
	}

	d.store.SetActionStatus(action.Name, models.ActionStatus{
		Loading: false,
		Success: models.BoolPtr(true),
	})

	return models.ExecutionResult{Success: true, ItemResults: itemResults}
}

func (d *Dispatcher) dispatchItemRequest(ctx context.Context, action models.Action, sel models.SelectedItem, index, count int, opts ExecuteOptions) models.ItemResult {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatcher.item_request",
		attribute.String(otelhelper.ActionNameKey, action.Name),
		attribute.String(otelhelper.ItemIDKey, sel.ID),
	)
	defer span.End()

	urlResult := interpolate.SelectionIndividual(action.URL, sel.Item, index, count, opts.Variables)
	d.logSoftErrors(ctx, action, urlResult.Errors)

	var body string

	if actionHasBody(action) {
		payload, softErrs := BuildPayload(sel, index, count, action, opts.Variables)
		d.logSoftErrors(ctx, action, softErrs)
		body = opts.applyFallback(payload)
	}

	err := d.doRequest(ctx, action, opts.applyFallback(urlResult.Text), body)
	if err != nil {
		otelhelper.SetError(span, err)
		d.store.SetItemStatus(action.Name, sel.ID, models.ItemActionStatus{
			Loading: false,
			Success: models.BoolPtr(false),
			Error:   err.Error(),
		})

		return models.ItemResult{Success: false, Error: err.Error()}
	}

	d.store.SetItemStatus(action.Name, sel.ID, models.ItemActionStatus{
		Loading: false,
		Success: models.BoolPtr(true),
	})

	return models.ItemResult{Success: true}
}

// doRequest performs one rate-limited request and folds transport errors
// and non-2xx statuses into a single error value.
func (d *Dispatcher) doRequest(ctx context.Context, action models.Action, url, body string) error {
	if err := d.limiter.Acquire(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	defer d.limiter.Release()

	method := action.EffectiveMethod()

	var reader io.Reader
	if body != "" && models.MethodSupportsBody(method) {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	for name, value := range action.Headers {
		req.Header.Set(name, value)
	}

	if contentType := derivedContentType(action, body); contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			d.logger.WarnContext(ctx, "Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return nil
}

func (d *Dispatcher) publishTriggered(ctx context.Context, action models.Action, payload, itemID string) error {
	if d.bus == nil {
		return nil
	}

	return d.bus.Publish(ctx, events.ActionTriggered{
		BaseEvent: d.baseEvent(events.ActionTriggeredEvent, action),
		EventName: action.EventName,
		Payload:   payload,
		ItemID:    itemID,
	})
}

func (d *Dispatcher) logSoftErrors(ctx context.Context, action models.Action, softErrs []string) {
	for _, softErr := range softErrs {
		d.logger.WarnContext(ctx, "Interpolation issue", "action", action.Name, "detail", softErr)
	}
}

// derivedContentType maps the action's body shaping to the header value.
// The header is never user-set.
func derivedContentType(action models.Action, body string) string {
	if body == "" || !models.MethodSupportsBody(action.EffectiveMethod()) {
		return ""
	}

	switch action.EffectiveContentType() {
	case models.ContentTypeJSON:
		return "application/json"
	case models.ContentTypeText:
		return "text/plain; charset=utf-8"
	default:
		return ""
	}
}

func actionHasBody(action models.Action) bool {
	return models.MethodSupportsBody(action.EffectiveMethod()) &&
		action.EffectiveContentType() != models.ContentTypeNone
}
