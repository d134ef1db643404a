package invites

import (
	"errors"
	"fmt"

	"github.com/hangpal/hangpal/pkg/model"
)

type Action string

const (
	ActionAccept      Action = "accept"
	ActionDecline     Action = "decline"
	ActionCancel      Action = "cancel"
	ActionStart       Action = "start"
	ActionFinish      Action = "finish"
	ActionPaymentDone Action = "payment_done"
	ActionConfirm     Action = "confirm"
)

type Role int

const (
	RoleNone Role = iota
	RoleSender
	RoleRecipient
	RoleEither
)

var (
	ErrNotParticipant = errors.New("not a party of this invite")
	ErrWrongRole      = errors.New("action not allowed for this role")
	ErrWrongStatus    = errors.New("action not allowed in current status")
	ErrConflict       = errors.New("invite changed concurrently, retry")
	ErrValidation     = errors.New("invalid invite data")
	ErrNotFound       = errors.New("invite not found")
)

type transition struct {
	from []string
	role Role
	to   string
}

// The whole lifecycle in one table. Anything not listed here is rejected,
// including in_progress -> cancelled which the clients never offer.
var transitions = map[Action]transition{
	ActionAccept:      {from: []string{model.StatusPending}, role: RoleRecipient, to: model.StatusAccepted},
	ActionDecline:     {from: []string{model.StatusPending}, role: RoleRecipient, to: model.StatusDeclined},
	ActionCancel:      {from: []string{model.StatusPending, model.StatusAccepted}, role: RoleSender, to: model.StatusCancelled},
	ActionStart:       {from: []string{model.StatusAccepted}, role: RoleEither, to: model.StatusInProgress},
	ActionFinish:      {from: []string{model.StatusInProgress}, role: RoleEither, to: model.StatusFinished},
	ActionPaymentDone: {from: []string{model.StatusFinished}, role: RoleSender, to: model.StatusPaymentDone},
	ActionConfirm:     {from: []string{model.StatusFinished, model.StatusPaymentDone}, role: RoleRecipient, to: model.StatusCompleted},
}

func roleOf(inv *model.Invite, login string) Role {
	switch {
	case inv == nil || login == "":
		return RoleNone
	case inv.FromUser == login:
		return RoleSender
	case inv.ToUser == login:
		return RoleRecipient
	default:
		return RoleNone
	}
}

// Check validates that login may apply action to the invite in its current
// status and returns the target status.
func Check(inv *model.Invite, login string, action Action) (string, error) {
	t, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}

	role := roleOf(inv, login)

	if role == RoleNone {
		return "", ErrNotParticipant
	}

	if t.role != RoleEither && t.role != role {
		return "", fmt.Errorf("%w: %s may not %s", ErrWrongRole, login, action)
	}

	for _, s := range t.from {
		if inv.Status == s {
			return t.to, nil
		}
	}

	return "", fmt.Errorf("%w: %s in status %s", ErrWrongStatus, action, inv.Status)
}

// AllowedFrom lists the statuses action may be applied in.
func AllowedFrom(action Action) []string {
	return transitions[action].from
}
