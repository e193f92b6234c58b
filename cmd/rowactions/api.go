package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/dukex/rowactions/pkg/dispatcher"
	"github.com/dukex/rowactions/pkg/interpolate"
	"github.com/dukex/rowactions/pkg/models"
	"github.com/dukex/rowactions/pkg/status"
)

type API struct {
	logger     *slog.Logger
	dispatcher *dispatcher.Dispatcher
	store      status.Store
	actions    []models.Action
	validate   *validator.Validate
}

func NewAPI(logger *slog.Logger, d *dispatcher.Dispatcher, store status.Store, actions []models.Action) *API {
	return &API{
		logger:     logger,
		dispatcher: d,
		store:      store,
		actions:    actions,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

type executeRequest struct {
	Action           string                          `json:"action"    validate:"required"`
	Selection        models.SelectionSet             `json:"selection" validate:"required,min=1,dive"`
	Variables        map[string]interpolate.Variable `json:"variables,omitempty"`
	VariableFallback *string                         `json:"variable_fallback,omitempty"`
}

type visibleRequest struct {
	Items []models.DataItem `json:"items" validate:"required"`
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Rowactions API")
	})

	actions := app.Group("/actions")
	actions.Get("/", a.ListActions)
	actions.Post("/visible", a.VisibleActions)
	actions.Post("/execute", a.ExecuteAction)
	actions.Get("/:name/status", a.ActionStatus)
	actions.Delete("/:name/status", a.ClearActionStatus)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}

func (a *API) ListActions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"actions": a.actions})
}

// VisibleActions filters the configured actions down to the ones whose
// condition matches the posted rows.
func (a *API) VisibleActions(c fiber.Ctx) error {
	var req visibleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := a.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	visible := dispatcher.GetVisibleActions(a.actions, req.Items)

	return c.JSON(fiber.Map{"actions": visible})
}

// ExecuteAction dispatches one configured action over the posted selection.
// Failures are part of the result body, not HTTP errors: the dispatch
// itself ran.
func (a *API) ExecuteAction(c fiber.Ctx) error {
	var req executeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := a.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	action, found := a.findAction(req.Action)
	if !found {
		return notFound(c, "action "+req.Action+" not found")
	}

	result := a.dispatcher.ExecuteSelectionAction(c.Context(), action, req.Selection, dispatcher.ExecuteOptions{
		Variables:        req.Variables,
		VariableFallback: req.VariableFallback,
	})

	return c.JSON(result)
}

func (a *API) ActionStatus(c fiber.Ctx) error {
	actionStatus, ok := a.store.GetActionStatus(c.Params("name"))
	if !ok {
		return notFound(c, "no status for action "+c.Params("name"))
	}

	return c.JSON(actionStatus)
}

func (a *API) ClearActionStatus(c fiber.Ctx) error {
	a.store.ClearActionStatus(c.Params("name"))

	return c.SendStatus(fiber.StatusNoContent)
}

func (a *API) findAction(name string) (models.Action, bool) {
	for _, action := range a.actions {
		if action.Name == name {
			return action, true
		}
	}

	return models.Action{}, false
}
