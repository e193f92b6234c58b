package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	cli "github.com/urfave/cli/v3"

	"github.com/dukex/rowactions/pkg/config"
	"github.com/dukex/rowactions/pkg/dispatcher"
	"github.com/dukex/rowactions/pkg/events"
	"github.com/dukex/rowactions/pkg/models"
	"github.com/dukex/rowactions/pkg/otelhelper"
	"github.com/dukex/rowactions/pkg/ratelimit"
	"github.com/dukex/rowactions/pkg/status"
)

func runServe(ctx context.Context, logger *slog.Logger, command *cli.Command) error {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return err
	}

	if command.Bool("tracing") {
		if _, err := otelhelper.NewTracer(ctx, "rowactions"); err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
	}

	bus := events.NewLocalBus(watermill.NewSlogLogger(logger))
	defer func() {
		if err := bus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	bus.Handle(events.ActionTriggeredEvent, func(ctx context.Context, event events.Event) error {
		triggered, ok := event.(events.ActionTriggered)
		if !ok {
			return nil
		}

		logger.InfoContext(ctx, "Action event dispatched",
			"action", triggered.ActionName,
			"event", triggered.EventName,
			"item_id", triggered.ItemID,
		)

		return nil
	})

	if err := bus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to action events: %w", err)
	}

	store := status.NewMemoryStore()
	limiter := ratelimit.New(cfg.RateLimiter)
	d := dispatcher.New(logger, nil, bus, store, limiter)

	api := NewAPI(logger, d, store, cfg.Actions)

	logger.InfoContext(ctx, "Starting API server",
		"port", command.Int("port"),
		"actions", len(cfg.Actions),
	)

	return api.Start(command.Int("port"))
}

func runOnce(ctx context.Context, logger *slog.Logger, command *cli.Command) error {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return err
	}

	selection, err := loadSelection(command.String("items"))
	if err != nil {
		return err
	}

	bus := events.NewLocalBus(watermill.NewSlogLogger(logger))
	defer func() {
		if err := bus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	store := status.NewMemoryStore()
	limiter := ratelimit.New(cfg.RateLimiter)
	d := dispatcher.New(logger, nil, bus, store, limiter)

	actions := cfg.Actions
	if name := command.String("action"); name != "" {
		actions = nil

		for _, action := range cfg.Actions {
			if action.Name == name {
				actions = append(actions, action)
			}
		}

		if len(actions) == 0 {
			return fmt.Errorf("action %q not found in %s", name, command.String("config"))
		}
	} else {
		actions = dispatcher.GetVisibleActions(actions, selection.Items())
	}

	results := make(map[string]models.ExecutionResult, len(actions))
	for _, action := range actions {
		results[action.Name] = d.ExecuteSelectionAction(ctx, action, selection, dispatcher.ExecuteOptions{})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(results)
}

// loadSelection reads a JSON array of rows; identifiers default to the row
// index when the file does not carry {"id": ..., "item": ...} pairs.
func loadSelection(path string) (models.SelectionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read items file %s: %w", path, err)
	}

	var selected []models.SelectedItem
	if err := json.Unmarshal(data, &selected); err == nil && allIdentified(selected) {
		return models.SelectionSet(selected), nil
	}

	var items []models.DataItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse items file %s: %w", path, err)
	}

	selection := make(models.SelectionSet, len(items))
	for i, item := range items {
		selection[i] = models.SelectedItem{ID: strconv.Itoa(i), Item: item}
	}

	return selection, nil
}

func allIdentified(selected []models.SelectedItem) bool {
	if len(selected) == 0 {
		return false
	}

	for _, sel := range selected {
		if sel.ID == "" || sel.Item == nil {
			return false
		}
	}

	return true
}
