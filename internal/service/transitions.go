package service

import (
	"fmt"

	"github.com/labconnect/medtest-booking/internal/model"
)

// Transition modes.
const (
	ModePermissive = "permissive"
	ModeStrict     = "strict"
)

// TransitionPolicy decides which status changes the pipeline accepts.  A
// nil table accepts any whitelisted status.
type TransitionPolicy struct {
	mode  string
	table map[model.ItemStatus][]model.ItemStatus
}

// PermissiveTransitions accepts any whitelisted target from any state.
func PermissiveTransitions() TransitionPolicy {
	return TransitionPolicy{mode: ModePermissive}
}

// StrictTransitions only accepts the next stage of the fulfillment order,
// or Cancelled from any stage.  Cancelled is terminal.
func StrictTransitions() TransitionPolicy {
	order := model.FulfillmentOrder
	table := make(map[model.ItemStatus][]model.ItemStatus, len(order)+1)
	for _, st := range model.AllItemStatuses() {
		r := st.Rank()
		if r < 0 {
			table[st] = nil
			continue
		}
		var next []model.ItemStatus
		if r+1 < len(order) {
			next = append(next, order[r+1])
		}
		table[st] = append(next, model.StatusCancelled)
	}
	return TransitionPolicy{mode: ModeStrict, table: table}
}

// TransitionPolicyFor returns the policy named by mode.
func TransitionPolicyFor(mode string) (TransitionPolicy, error) {
	switch mode {
	case "", ModePermissive:
		return PermissiveTransitions(), nil
	case ModeStrict:
		return StrictTransitions(), nil
	}
	return TransitionPolicy{}, fmt.Errorf("unknown transition mode %q", mode)
}

// Mode returns the policy name.
func (p TransitionPolicy) Mode() string {
	if p.mode == "" {
		return ModePermissive
	}
	return p.mode
}

// Allows reports whether an item in from may move to to.
func (p TransitionPolicy) Allows(from, to model.ItemStatus) bool {
	if p.table == nil {
		return true
	}
	for _, st := range p.table[from] {
		if st == to {
			return true
		}
	}
	return false
}
