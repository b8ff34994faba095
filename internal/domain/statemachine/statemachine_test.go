package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mojster_trust/internal/domain/entities"
)

func TestAssertTransition_AllowedEdges(t *testing.T) {
	cases := []struct {
		et      EntityType
		current string
		target  string
	}{
		{EntityInquiry, "pending", "offer_received"},
		{EntityInquiry, "pending", "closed"},
		{EntityInquiry, "offer_received", "accepted"},
		{EntityInquiry, "offer_received", "pending"},
		{EntityInquiry, "accepted", "completed"},
		{EntityInquiry, "accepted", "closed"},
		{EntityOffer, "poslana", "sprejeta"},
		{EntityOffer, "poslana", "zavrnjena"},
		{EntityEscrow, "pending", "paid"},
		{EntityEscrow, "pending", "failed"},
		{EntityEscrow, "paid", "released"},
		{EntityEscrow, "paid", "disputed"},
		{EntityEscrow, "paid", "refunded"},
		{EntityEscrow, "disputed", "refunded"},
		{EntityEscrow, "disputed", "paid"},
	}
	for _, c := range cases {
		assert.NoError(t, AssertTransition(c.et, "e-1", c.current, c.target), "%s %s -> %s", c.et, c.current, c.target)
	}
}

// Every (current, target) pair not present in an entity's table must be
// rejected, and leaving a terminal state must be a TerminalStateError
// regardless of the target.
func TestAssertTransition_ExhaustiveRejection(t *testing.T) {
	for _, et := range []EntityType{EntityInquiry, EntityOffer, EntityEscrow} {
		statuses := Statuses(et)
		require.NotEmpty(t, statuses)

		targets := append(append([]string{}, statuses...), "nonexistent")
		for _, current := range statuses {
			for _, target := range targets {
				err := AssertTransition(et, "e-1", current, target)
				if err == nil {
					assert.Contains(t, tables[et][current], target)
					continue
				}
				if IsTerminal(et, current) {
					var terminal *TerminalStateError
					assert.ErrorAs(t, err, &terminal, "%s %s -> %s", et, current, target)
				} else {
					var invalid *InvalidTransitionError
					assert.ErrorAs(t, err, &invalid, "%s %s -> %s", et, current, target)
				}
			}
		}
	}
}

func TestAssertTransition_UnknownStatusIsTerminal(t *testing.T) {
	err := AssertTransition(EntityInquiry, "inq-1", "garbage", string(entities.InquiryStatusClosed))
	var terminal *TerminalStateError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, "inq-1", terminal.EntityID)
	assert.Equal(t, "garbage", terminal.Current)
}

func TestAssertTransition_UnknownEntityType(t *testing.T) {
	err := AssertTransition(EntityType("booking"), "b-1", "pending", "accepted")
	require.ErrorIs(t, err, ErrUnknownEntityType)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(EntityInquiry, string(entities.InquiryStatusCompleted)))
	assert.True(t, IsTerminal(EntityInquiry, string(entities.InquiryStatusClosed)))
	assert.True(t, IsTerminal(EntityOffer, string(entities.OfferStatusSprejeta)))
	assert.True(t, IsTerminal(EntityEscrow, string(entities.EscrowStatusReleased)))
	assert.True(t, IsTerminal(EntityEscrow, string(entities.EscrowStatusRefunded)))
	assert.True(t, IsTerminal(EntityEscrow, string(entities.EscrowStatusFailed)))
	assert.False(t, IsTerminal(EntityEscrow, string(entities.EscrowStatusDisputed)))
	assert.False(t, IsTerminal(EntityInquiry, string(entities.InquiryStatusPending)))
}
