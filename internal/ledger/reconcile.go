package ledger

import (
	"fmt"
	"sort"

	"github.com/hangpal/hangpal/pkg/model"
)

// Summary is the single "what do I owe" answer. Every surface (profile page,
// pre-invite warning, pre-payment breakdown) uses the same computation, so
// they can never disagree.
type Summary struct {
	IncentiveOwedCents    int64                   `json:"incentive_owed_cents"`
	CancellationOwedCents int64                   `json:"cancellation_owed_cents"`
	PlatformOwedCents     int64                   `json:"platform_owed_cents"`
	TotalOwedCents        int64                   `json:"total_owed_cents"`
	PendingPayments       []*model.PendingPayment `json:"pending_payments"`
	Degraded              bool                    `json:"degraded,omitempty"`
}

// Reconcile derives the owed amounts and the pending payment line items from
// a user's full invite history. Pure function: given the same history it
// always yields the same summary, items ordered most recent first with a
// stable tiebreak.
func Reconcile(sent, received []*model.Invite, public bool) *Summary {
	s := &Summary{}

	items := make([]*model.PendingPayment, 0)

	for _, inv := range sent {
		if inv == nil {
			continue
		}

		inv.Normalize()

		switch inv.Status {
		case model.StatusFinished, model.StatusPaymentDone, model.StatusCompleted:
			s.IncentiveOwedCents += inv.PriceCents

			if inv.Status == model.StatusCompleted && inv.PaymentConfirmed {
				s.IncentiveOwedCents -= inv.PriceCents
			} else if inv.Status != model.StatusCompleted {
				items = append(items, &model.PendingPayment{
					ID:          inv.UID + "/incentive",
					Type:        model.PaymentTypeIncentive,
					AmountCents: inv.PriceCents,
					Description: fmt.Sprintf("Incentive for %q to %s", inv.Title, inv.ToUser),
					Date:        inv.EffectiveDate(),
					InviteUID:   inv.UID,
					Status:      inv.Status,
				})
			}
		case model.StatusCancelled:
			if inv.CancellationFeeCents > 0 && !inv.CancellationFeePaid {
				s.CancellationOwedCents += inv.CancellationFeeCents

				items = append(items, &model.PendingPayment{
					ID:          inv.UID + "/cancellation",
					Type:        model.PaymentTypeCancellationFee,
					AmountCents: inv.CancellationFeeCents,
					Description: fmt.Sprintf("Cancellation fee for %q", inv.Title),
					Date:        inv.EffectiveDate(),
					InviteUID:   inv.UID,
				})
			}
		}
	}

	if public {
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

			if !confirmed && !compensated {
				continue
			}

			fee := platformFeeFor(inv)
			if fee == 0 {
				continue
			}

			s.PlatformOwedCents += fee

			items = append(items, &model.PendingPayment{
				ID:          inv.UID + "/platform",
				Type:        model.PaymentTypePlatformFee,
				AmountCents: fee,
				Description: fmt.Sprintf("Platform fee for %q", inv.Title),
				Date:        inv.EffectiveDate(),
				InviteUID:   inv.UID,
			})
		}
	}

	if s.PlatformOwedCents == 0 {
		items = withoutType(items, model.PaymentTypePlatformFee)
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Date.After(items[b].Date)
	})

	s.PendingPayments = items
	s.TotalOwedCents = s.IncentiveOwedCents + s.CancellationOwedCents + s.PlatformOwedCents

	return s
}

// Fallback is the degraded summary used when the invite history cannot be
// read: the cached balance with a zeroed breakdown, never an error.
func Fallback(cachedBalanceCents int64) *Summary {
	if cachedBalanceCents < 0 {
		cachedBalanceCents = 0
	}

	return &Summary{
		TotalOwedCents:  cachedBalanceCents,
		PendingPayments: []*model.PendingPayment{},
		Degraded:        true,
	}
}

// Earnings derives a pal's lifetime net earnings from the received invite
// history: confirmed payments net of the platform fee, plus cancellation
// compensations net of the platform's cut.
func Earnings(received []*model.Invite) int64 {
	var total int64

	for _, inv := range received {
		if inv == nil {
			continue
		}

		inv.Normalize()

		switch {
		case inv.Status == model.StatusCompleted && inv.PaymentConfirmed:
			if inv.NetToPalCents > 0 {
				total += inv.NetToPalCents
			} else {
				total += NetToPal(inv.IncentiveCents)
			}
		case inv.Status == model.StatusCancelled && inv.PalCompensationCents > 0:
			total += inv.PalCompensationCents - PlatformFee(inv.PalCompensationCents)
		}
	}

	return total
}

func withoutType(items []*model.PendingPayment, typ string) []*model.PendingPayment {
	res := items[:0]

	for _, it := range items {
		if it.Type != typ {
			res = append(res, it)
		}
	}

	return res
}
