package ledger

import "github.com/hangpal/hangpal/pkg/model"

// Platform-wide fee rates, percent. Single source of truth for both the
// invite lifecycle side effects and the reconciliation math.
const (
	PlatformFeePct     = 5
	CancellationFeePct = 50
	PalCompensationPct = 30
)

// pct returns p percent of amount in cents, rounded half up.
func pct(amount int64, p int64) int64 {
	if amount <= 0 {
		return 0
	}

	return (amount*p + 50) / 100
}

func PlatformFee(amount int64) int64 {
	return pct(amount, PlatformFeePct)
}

func CancellationFee(price int64) int64 {
	return pct(price, CancellationFeePct)
}

func PalCompensation(price int64) int64 {
	return pct(price, PalCompensationPct)
}

func NetToPal(incentive int64) int64 {
	return incentive - PlatformFee(incentive)
}

// platformFeeFor returns the platform fee a received invite contributes,
// falling back to the flat rate when the record predates the explicit field.
// For cancelled invites the fee base is the pal compensation, not the
// incentive: the platform takes its cut of what the pal actually got.
func platformFeeFor(inv *model.Invite) int64 {
	if inv.PlatformFeeCents > 0 {
		return inv.PlatformFeeCents
	}

	if inv.Status == model.StatusCancelled && inv.PalCompensationCents > 0 {
		return PlatformFee(inv.PalCompensationCents)
	}

	for _, base := range []int64{inv.IncentiveCents, inv.PalCompensationCents, inv.PriceCents} {
		if base > 0 {
			return PlatformFee(base)
		}
	}

	return 0
}
