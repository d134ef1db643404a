package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangpal/hangpal/pkg/model"
)

func cancelledFee(id uint, feeCents int64, daysAgo int) *model.Invite {
	return &model.Invite{
		ID:                   id,
		UID:                  "inv",
		Status:               model.StatusCancelled,
		CancellationFeeCents: feeCents,
		CancelledAt:          ts(daysAgo),
	}
}

func TestSettlementOldestFirstFullCoverageOnly(t *testing.T) {
	fees := []*model.Invite{
		cancelledFee(2, 3000, 1), // newer, $30
		cancelledFee(1, 2000, 5), // older, $20
	}

	// $25 settles exactly the older $20 fee, $30 stays unpaid
	ids := SettlementPlan(fees, 2500)

	require.Len(t, ids, 1)
	assert.EqualValues(t, 1, ids[0])
}

func TestSettlementExhaustsInOrder(t *testing.T) {
	fees := []*model.Invite{
		cancelledFee(1, 2000, 5),
		cancelledFee(2, 3000, 3),
		cancelledFee(3, 1000, 1),
	}

	assert.Equal(t, []uint{1, 2, 3}, SettlementPlan(fees, 6000))
	assert.Equal(t, []uint{1, 2}, SettlementPlan(fees, 5000))
	assert.Equal(t, []uint{1}, SettlementPlan(fees, 2999))
	assert.Empty(t, SettlementPlan(fees, 1999))
}

func TestSettlementSkipsPaidAndForeign(t *testing.T) {
	paid := cancelledFee(1, 1000, 5)
	paid.CancellationFeePaid = true

	notCancelled := &model.Invite{ID: 2, Status: model.StatusFinished, CancellationFeeCents: 1000}

	fees := []*model.Invite{paid, notCancelled, cancelledFee(3, 1000, 1), nil}

	assert.Equal(t, []uint{3}, SettlementPlan(fees, 10000))
}

func TestSettlementNoAmount(t *testing.T) {
	assert.Empty(t, SettlementPlan([]*model.Invite{cancelledFee(1, 100, 1)}, 0))
	assert.Empty(t, SettlementPlan(nil, 1000))
}
