package models_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/rowactions/pkg/models"
)

func TestAction_StructValidation(t *testing.T) {
	t.Parallel()

	validate := validator.New(validator.WithRequiredStructEnabled())

	action := models.Action{
		Name:      "notify",
		Kind:      models.ActionKindWebhook,
		URL:       "https://api.example.com/notify",
		BatchMode: models.BatchModeIndividual,
	}
	assert.NoError(t, validate.Struct(&action))

	missingName := models.Action{Kind: models.ActionKindEvent, EventName: "row-selected"}
	assert.Error(t, validate.Struct(&missingName))

	badKind := models.Action{Name: "x", Kind: "teleport"}
	assert.Error(t, validate.Struct(&badKind))
}

func TestAction_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		action  models.Action
		wantErr error
	}{
		{
			name:   "valid event action",
			action: models.Action{Name: "a", Kind: models.ActionKindEvent, EventName: "e"},
		},
		{
			name:   "valid webhook action",
			action: models.Action{Name: "a", Kind: models.ActionKindWebhook, URL: "https://x"},
		},
		{
			name:    "event without event name",
			action:  models.Action{Name: "a", Kind: models.ActionKindEvent},
			wantErr: models.ErrEventNameMissing,
		},
		{
			name:    "webhook without url",
			action:  models.Action{Name: "a", Kind: models.ActionKindWebhook},
			wantErr: models.ErrWebhookURLMissing,
		},
		{
			name:    "unknown kind",
			action:  models.Action{Name: "a", Kind: "bogus"},
			wantErr: models.ErrActionKindInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.action.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAction_Defaults(t *testing.T) {
	t.Parallel()

	action := models.Action{Name: "a", Kind: models.ActionKindWebhook, URL: "https://x"}

	assert.Equal(t, models.BatchModeBatch, action.EffectiveBatchMode())
	assert.Equal(t, "POST", action.EffectiveMethod())
	assert.Equal(t, models.ContentTypeJSON, action.EffectiveContentType())
}

func TestSelectionSet_Order(t *testing.T) {
	t.Parallel()

	selection := models.SelectionSet{
		{ID: "b", Item: models.DataItem{"n": float64(2)}},
		{ID: "a", Item: models.DataItem{"n": float64(1)}},
	}

	require.Equal(t, []string{"b", "a"}, selection.IDs())

	items := selection.Items()
	require.Len(t, items, 2)
	assert.Equal(t, float64(2), items[0]["n"])
}

func TestValueString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "42", models.ValueString(float64(42)))
	assert.Equal(t, "42.5", models.ValueString(42.5))
	assert.Equal(t, "true", models.ValueString(true))
	assert.Equal(t, "", models.ValueString(nil))
	assert.Equal(t, "text", models.ValueString("text"))
	assert.Equal(t, `["a"]`, models.ValueString([]any{"a"}))
}
