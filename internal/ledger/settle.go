package ledger

import (
	"sort"

	"github.com/hangpal/hangpal/pkg/model"
)

// SettlementPlan picks which unpaid cancellation fees a settled amount covers.
// Fees are taken oldest first, stopping at the first fee the remaining amount
// cannot cover in full. Partial settlement of a single fee is not supported.
func SettlementPlan(fees []*model.Invite, amountCents int64) []uint {
	if amountCents <= 0 || len(fees) == 0 {
		return nil
	}

	pending := make([]*model.Invite, 0, len(fees))

	for _, inv := range fees {
		if inv == nil {
			continue
		}

		inv.Normalize()

		if inv.Status == model.StatusCancelled && inv.CancellationFeeCents > 0 && !inv.CancellationFeePaid {
			pending = append(pending, inv)
		}
	}

	sort.SliceStable(pending, func(a, b int) bool {
		return pending[a].EffectiveDate().Before(pending[b].EffectiveDate())
	})

	var ids []uint

	left := amountCents

	for _, inv := range pending {
		if inv.CancellationFeeCents > left {
			break
		}

		left -= inv.CancellationFeeCents
		ids = append(ids, inv.ID)
	}

	return ids
}

// PlatformSettlementPlan is the same oldest-first full-coverage selection for
// the user's own platform fee debts on received invites, applied with
// whatever amount is left after cancellation fees.
func PlatformSettlementPlan(received []*model.Invite, amountCents int64) []uint {
	if amountCents <= 0 || len(received) == 0 {
		return nil
	}

	pending := make([]*model.Invite, 0, len(received))

	for _, inv := range received {
		if inv == nil {
			continue
		}

		inv.Normalize()

		if inv.PlatformFeePaid {
			continue
		}

		confirmed := inv.Status == model.StatusCompleted && inv.PaymentConfirmed
		compensated := inv.Status == model.StatusCancelled && inv.PalCompensationCents > 0

		if (confirmed || compensated) && platformFeeFor(inv) > 0 {
			pending = append(pending, inv)
		}
	}

	sort.SliceStable(pending, func(a, b int) bool {
		return pending[a].EffectiveDate().Before(pending[b].EffectiveDate())
	})

	var ids []uint

	left := amountCents

	for _, inv := range pending {
		fee := platformFeeFor(inv)

		if fee > left {
			break
		}

		left -= fee
		ids = append(ids, inv.ID)
	}

	return ids
}

// FeeOf returns the settleable fee amount an invite carries for settlement
// accounting: the cancellation fee for sent records, the platform fee for
// received ones.
func FeeOf(inv *model.Invite, typ string) int64 {
	if inv == nil {
		return 0
	}

	switch typ {
	case model.PaymentTypeCancellationFee:
		return inv.CancellationFeeCents
	case model.PaymentTypePlatformFee:
		return platformFeeFor(inv)
	}

	return 0
}
