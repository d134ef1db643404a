package invites

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hangpal/hangpal/internal/database"
	"github.com/hangpal/hangpal/internal/ledger"
	"github.com/hangpal/hangpal/pkg/model"
)

// balance caches may drift from the derived values by this much before a
// refresh rewrites them
const driftToleranceCents = 1

type Manager struct {
	dbm    *database.DatabaseManager
	logger *slog.Logger
}

func New(dbm *database.DatabaseManager) *Manager {
	return &Manager{
		dbm:    dbm,
		logger: slog.Default().With("logger", "invites"),
	}
}

func (m *Manager) Get(uid string) *model.Invite {
	if m == nil || uid == "" {
		return nil
	}

	return m.dbm.InviteQuery().UID(uid).One()
}

func (m *Manager) ForUser(login string) (sent, received []*model.Invite) {
	return m.dbm.InviteQuery().From(login).Get(), m.dbm.InviteQuery().To(login).Get()
}

func validate(d *model.InvitePostDTO) error {
	if d == nil {
		return fmt.Errorf("%w: empty request", ErrValidation)
	}

	switch {
	case d.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case d.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case d.Location == "":
		return fmt.Errorf("%w: location is required", ErrValidation)
	case d.StartAt.IsZero() || d.EndAt.IsZero():
		return fmt.Errorf("%w: start and end time are required", ErrValidation)
	case !d.EndAt.After(d.StartAt):
		return fmt.Errorf("%w: end time must be after start time", ErrValidation)
	case d.PriceCents <= 0:
		return fmt.Errorf("%w: price is required", ErrValidation)
	}

	return nil
}

// Create makes a new pending invite from sender to d.ToUser. All validation
// happens before any write.
func (m *Manager) Create(sender string, d *model.InvitePostDTO) (*model.Invite, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	if d.ToUser == sender {
		return nil, fmt.Errorf("%w: cannot invite yourself", ErrValidation)
	}

	pal := m.dbm.UserQuery().Login(d.ToUser).One()

	if pal == nil || pal.Disabled {
		return nil, fmt.Errorf("%w: unknown pal %q", ErrValidation, d.ToUser)
	}

	inv := &model.Invite{
		UID:            uuid.NewString(),
		FromUser:       sender,
		ToUser:         d.ToUser,
		Title:          d.Title,
		Description:    d.Description,
		Location:       d.Location,
		StartAt:        d.StartAt,
		EndAt:          d.EndAt,
		TimeNote:       d.TimeNote,
		PriceCents:     d.PriceCents,
		IncentiveCents: d.PriceCents,
		Status:         model.StatusPending,
	}

	if err := m.dbm.Create(inv); err != nil {
		return nil, err
	}

	m.logger.Info("invite created",
		slog.String("uid", inv.UID),
		slog.String("from", sender),
		slog.String("to", d.ToUser),
		slog.Int64("price", d.PriceCents))

	return inv, nil
}

// Edit replaces the descriptive and price fields. Only the sender may edit,
// and only while the invite is still pending.
func (m *Manager) Edit(actor, uid string, d *model.InvitePostDTO) (*model.Invite, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	inv := m.Get(uid)

	if inv == nil {
		return nil, ErrNotFound
	}

	if roleOf(inv, actor) != RoleSender {
		return nil, ErrNotParticipant
	}

	if inv.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: edit in status %s", ErrWrongStatus, inv.Status)
	}

	n, err := m.dbm.InviteQuery().UID(uid).Status(model.StatusPending).UpdateRows(map[string]any{
		"title":           d.Title,
		"description":     d.Description,
		"location":        d.Location,
		"start_at":        d.StartAt,
		"end_at":          d.EndAt,
		"time_note":       d.TimeNote,
		"price_cents":     d.PriceCents,
		"incentive_cents": d.PriceCents,
	})

	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, ErrConflict
	}

	return m.Get(uid), nil
}

// Apply handles the transitions without money side effects: accept, decline,
// start, finish. The status guard in the update makes retries harmless.
func (m *Manager) Apply(actor, uid string, action Action) (*model.Invite, error) {
	switch action {
	case ActionAccept, ActionDecline, ActionStart, ActionFinish:
	default:
		return nil, fmt.Errorf("%w: %s has side effects, use its own method", ErrValidation, action)
	}

	inv := m.Get(uid)

	if inv == nil {
		return nil, ErrNotFound
	}

	to, err := Check(inv, actor, action)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]any{"status": to}

	switch action {
	case ActionAccept:
		updates["responded_at"] = now
		updates["accepted_at"] = now
	case ActionDecline:
		updates["responded_at"] = now
		updates["declined_at"] = now
	case ActionStart:
		updates["started_at"] = now
	case ActionFinish:
		updates["finished_at"] = now
	}

	n, err := m.dbm.InviteQuery().UID(uid).Statuses(AllowedFrom(action)...).UpdateRows(updates)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, ErrConflict
	}

	m.logger.Info("invite transition",
		slog.String("uid", uid),
		slog.String("action", string(action)),
		slog.String("actor", actor),
		slog.String("to", to))

	return m.Get(uid), nil
}

// Cancel cancels a pending or accepted invite. Cancelling an accepted invite
// charges the sender a cancellation fee and credits the pal a compensation;
// cancelling a pending one costs nothing.
func (m *Manager) Cancel(actor, uid string) (*model.Invite, error) {
	inv := m.Get(uid)

	if inv == nil {
		return nil, ErrNotFound
	}

	if _, err := Check(inv, actor, ActionCancel); err != nil {
		return nil, err
	}

	now := time.Now()
	wasAccepted := inv.Status == model.StatusAccepted

	updates := map[string]any{
		"status":       model.StatusCancelled,
		"cancelled_at": now,
	}

	var fee, comp int64

	if wasAccepted {
		fee = ledger.CancellationFee(inv.PriceCents)
		comp = ledger.PalCompensation(inv.PriceCents)
		updates["cancellation_fee_cents"] = fee
		updates["pal_compensation_cents"] = comp
	}

	pal := m.dbm.UserQuery().Login(inv.ToUser).One()

	err := m.dbm.Tx(func(tx *database.DatabaseManager) error {
		n, err := tx.InviteQuery().UID(uid).Status(inv.Status).UpdateRows(updates)
		if err != nil {
			return err
		}

		if n == 0 {
			return ErrConflict
		}

		if !wasAccepted {
			return nil
		}

		if err := tx.AddPendingBalance(inv.FromUser, fee); err != nil {
			return err
		}

		cut := ledger.PlatformFee(comp)

		if err := tx.AddEarnings(inv.ToUser, comp-cut); err != nil {
			return err
		}

		// only public pals owe the platform its cut of the compensation
		if pal.IsPublic() {
			return tx.AddPendingBalance(inv.ToUser, cut)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	m.logger.Info("invite cancelled",
		slog.String("uid", uid),
		slog.Bool("was_accepted", wasAccepted),
		slog.Int64("fee", fee),
		slog.Int64("compensation", comp))

	return m.Get(uid), nil
}

// MarkPaymentDone is the sender self-reporting that the cash changed hands.
// The platform fee and pal net are computed from the incentive snapshot, the
// sender's whole outstanding fee debt is folded into the payment, and the
// oldest fully covered fee records are flagged paid. The status guard makes
// a retried call a no-op instead of a double settlement.
func (m *Manager) MarkPaymentDone(actor, uid string) (*model.Invite, error) {
	inv := m.Get(uid)

	if inv == nil {
		return nil, ErrNotFound
	}

	if _, err := Check(inv, actor, ActionPaymentDone); err != nil {
		return nil, err
	}

	sender := m.dbm.UserQuery().Login(actor).One()
	sent, received := m.ForUser(actor)
	summary := ledger.Reconcile(sent, received, sender.IsPublic())

	pendingFees := summary.CancellationOwedCents + summary.PlatformOwedCents
	platformFee := ledger.PlatformFee(inv.IncentiveCents)
	netToPal := inv.IncentiveCents - platformFee

	now := time.Now()

	err := m.dbm.Tx(func(tx *database.DatabaseManager) error {
		n, err := tx.InviteQuery().UID(uid).Status(model.StatusFinished).UpdateRows(map[string]any{
			"status":             model.StatusPaymentDone,
			"payment_done_at":    now,
			"platform_fee_cents": platformFee,
			"net_to_pal_cents":   netToPal,
			"pending_fees_cents": pendingFees,
			"total_paid_cents":   inv.IncentiveCents + pendingFees,
		})
		if err != nil {
			return err
		}

		if n == 0 {
			return ErrConflict
		}

		return m.settleFees(tx, actor, uid, sent, received, pendingFees)
	})

	if err != nil {
		return nil, err
	}

	m.logger.Info("payment marked done",
		slog.String("uid", uid),
		slog.Int64("incentive", inv.IncentiveCents),
		slog.Int64("pending_fees", pendingFees))

	return m.Get(uid), nil
}

// settleFees flags the oldest fully covered fee records as paid by this
// payment and reduces the sender's cached debt, flooring at zero.
// Cancellation fees settle first, then the pal's own platform fee debts with
// whatever amount is left.
func (m *Manager) settleFees(tx *database.DatabaseManager, login, paidInUID string, sent, received []*model.Invite, amount int64) error {
	if amount <= 0 {
		return nil
	}

	now := time.Now()
	left := amount

	for _, id := range ledger.SettlementPlan(sent, amount) {
		if err := tx.InviteQuery().Id(id).Update(map[string]any{
			"cancellation_fee_paid":    true,
			"cancellation_fee_paid_at": now,
			"cancellation_fee_paid_in": paidInUID,
		}); err != nil {
			return err
		}

		left -= feeByID(sent, id, model.PaymentTypeCancellationFee)
	}

	for _, id := range ledger.PlatformSettlementPlan(received, left) {
		if err := tx.InviteQuery().Id(id).Update(map[string]any{
			"platform_fee_paid":        true,
			"platform_fee_paid_by_pal": true,
		}); err != nil {
			return err
		}
	}

	return tx.SettleBalance(login, amount)
}

func feeByID(invs []*model.Invite, id uint, typ string) int64 {
	for _, inv := range invs {
		if inv != nil && inv.ID == id {
			return ledger.FeeOf(inv, typ)
		}
	}

	return 0
}

// ConfirmPayment is the recipient acknowledging the cash arrived. Allowed
// from finished too, for pals who confirm before the sender taps "done"; the
// fee fields are computed here in that case.
func (m *Manager) ConfirmPayment(actor, uid string) (*model.Invite, error) {
	inv := m.Get(uid)

	if inv == nil {
		return nil, ErrNotFound
	}

	if _, err := Check(inv, actor, ActionConfirm); err != nil {
		return nil, err
	}

	platformFee := inv.PlatformFeeCents
	netToPal := inv.NetToPalCents

	if platformFee == 0 && netToPal == 0 {
		platformFee = ledger.PlatformFee(inv.IncentiveCents)
		netToPal = inv.IncentiveCents - platformFee
	}

	pal := m.dbm.UserQuery().Login(inv.ToUser).One()
	now := time.Now()

	err := m.dbm.Tx(func(tx *database.DatabaseManager) error {
		n, err := tx.InviteQuery().UID(uid).Statuses(AllowedFrom(ActionConfirm)...).UpdateRows(map[string]any{
			"status":              model.StatusCompleted,
			"payment_received_at": now,
			"completed_at":        now,
			"payment_confirmed":   true,
			"platform_fee_cents":  platformFee,
			"net_to_pal_cents":    netToPal,
		})
		if err != nil {
			return err
		}

		if n == 0 {
			return ErrConflict
		}

		if err := tx.AddEarnings(inv.ToUser, netToPal); err != nil {
			return err
		}

		if pal.IsPublic() {
			return tx.AddPendingBalance(inv.ToUser, platformFee)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	m.logger.Info("payment confirmed",
		slog.String("uid", uid),
		slog.Int64("net_to_pal", netToPal),
		slog.Int64("platform_fee", platformFee))

	return m.Get(uid), nil
}

// Summary computes the shared "what do I owe" answer for a user. When the
// user record cannot be read the caller gets the degraded fallback instead
// of an error.
func (m *Manager) Summary(login string) *ledger.Summary {
	user := m.dbm.UserQuery().Login(login).One()

	if user == nil {
		return ledger.Fallback(0)
	}

	sent, received := m.ForUser(login)

	if sent == nil && received == nil && m.dbm.InviteQuery().Party(login).Count() > 0 {
		// history read failed, fall back to the cached balance
		return ledger.Fallback(user.PendingBalanceCents)
	}

	return ledger.Reconcile(sent, received, user.IsPublic())
}

// RefreshBalance recomputes the cached balance fields from the authoritative
// invite history and rewrites them only when they drift by more than a cent.
func (m *Manager) RefreshBalance(login string) {
	user := m.dbm.UserQuery().Login(login).One()

	if user == nil {
		return
	}

	sent, received := m.ForUser(login)
	summary := ledger.Reconcile(sent, received, user.IsPublic())

	pending := summary.CancellationOwedCents + summary.PlatformOwedCents
	earnings := ledger.Earnings(received)

	updates := make(map[string]any)

	if diff(pending, user.PendingBalanceCents) > driftToleranceCents {
		updates["pending_balance_cents"] = pending
	}

	if diff(earnings, user.TotalEarningsCents) > driftToleranceCents {
		updates["total_earnings_cents"] = earnings
	}

	if len(updates) == 0 {
		return
	}

	m.logger.Info("balance cache drifted, rewriting",
		slog.String("user", login),
		slog.Int64("pending", pending),
		slog.Int64("earnings", earnings))

	if err := m.dbm.UserQuery().Login(login).Update(updates); err != nil {
		m.logger.Error("error updating balance cache", slog.Any("error", err))
	}
}

func diff(a, b int64) int64 {
	if a > b {
		return a - b
	}

	return b - a
}
