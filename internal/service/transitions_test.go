package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labconnect/medtest-booking/internal/model"
)

func TestStrictTransitions(t *testing.T) {
	p := StrictTransitions()

	assert.True(t, p.Allows(model.StatusCollectionDue, model.StatusCollected))
	assert.True(t, p.Allows(model.StatusReportReady, model.StatusReportDelivery))
	assert.False(t, p.Allows(model.StatusCollected, model.StatusCollectionDue))
	assert.False(t, p.Allows(model.StatusCollected, model.StatusCollected))

	for _, st := range model.FulfillmentOrder {
		assert.True(t, p.Allows(st, model.StatusCancelled), st)
	}
	for _, st := range model.AllItemStatuses() {
		assert.False(t, p.Allows(model.StatusCancelled, st), st)
	}
}

func TestStrictTransitions_OnlyNextStage(t *testing.T) {
	p := StrictTransitions()
	for _, from := range model.FulfillmentOrder {
		for _, to := range model.FulfillmentOrder {
			assert.Equal(t, to.Rank() == from.Rank()+1, p.Allows(from, to), "%s -> %s", from, to)
		}
	}
}

func TestPermissiveTransitions(t *testing.T) {
	p := PermissiveTransitions()
	assert.True(t, p.Allows(model.StatusCancelled, model.StatusCollected))
	assert.True(t, p.Allows(model.StatusCollectionDue, model.StatusReportDelivery))
}

func TestTransitionPolicyFor(t *testing.T) {
	p, err := TransitionPolicyFor("")
	require.NoError(t, err)
	assert.Equal(t, ModePermissive, p.Mode())

	p, err = TransitionPolicyFor("strict")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, p.Mode())

	_, err = TransitionPolicyFor("loose")
	assert.Error(t, err)
}
