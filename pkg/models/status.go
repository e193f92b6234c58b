package models

// ItemActionStatus tracks one row's progress through a dispatch. Success is
// a pointer so "not finished yet" is distinguishable from "failed".
type ItemActionStatus struct {
	Loading bool   `json:"loading"`
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ActionStatus tracks a whole dispatch. Action-level state and the per-item
// map are independent: item updates never clear action-level state and the
// other way around.
type ActionStatus struct {
	Loading      bool                        `json:"loading"`
	Success      *bool                       `json:"success,omitempty"`
	Error        string                      `json:"error,omitempty"`
	ItemStatuses map[string]ItemActionStatus `json:"item_statuses,omitempty"`
}

// ItemResult is one row's outcome in an ExecutionResult.
type ItemResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ExecutionResult is the one-shot return value of a dispatch. It is not
// retained by the engine.
type ExecutionResult struct {
	Success     bool                  `json:"success"`
	Error       string                `json:"error,omitempty"`
	ItemResults map[string]ItemResult `json:"item_results,omitempty"`
}

// BoolPtr is a convenience for filling the Success pointers.
func BoolPtr(b bool) *bool {
	return &b
}
