package dispatcher

import "github.com/dukex/rowactions/pkg/models"

// GetVisibleActions keeps actions without a condition, plus those whose
// condition matches at least one of the rows. Matching is OR across rows
// and OR across fields within a row.
func GetVisibleActions(actions []models.Action, items []models.DataItem) []models.Action {
	visible := make([]models.Action, 0, len(actions))

	for _, action := range actions {
		if action.Condition == nil {
			visible = append(visible, action)

			continue
		}

		for _, item := range items {
			if action.Condition.Matches(item) {
				visible = append(visible, action)

				break
			}
		}
	}

	return visible
}
