package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hangpal/hangpal/internal/invites"
	"github.com/hangpal/hangpal/internal/wshandler"
	"github.com/hangpal/hangpal/pkg/model"
)

func addInviteApi(app *App, f fiber.Router) {
	g := f.Group("/api/invite")

	g.Get("/", getInvitesHandler(app))
	g.Post("/", getInviteCreateHandler(app))
	g.Get("/:uid", getInviteHandler(app))
	g.Put("/:uid", getInviteEditHandler(app))

	g.Post("/:uid/accept", getTransitionHandler(app, invites.ActionAccept))
	g.Post("/:uid/decline", getTransitionHandler(app, invites.ActionDecline))
	g.Post("/:uid/start", getTransitionHandler(app, invites.ActionStart))
	g.Post("/:uid/finish", getFinishHandler(app))
	g.Post("/:uid/cancel", getCancelHandler(app))
	g.Post("/:uid/payment_done", getPaymentDoneHandler(app))
	g.Post("/:uid/confirm", getConfirmHandler(app))
}

func getInvitesHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sent, received := app.invites.ForUser(Username(ctx))

		return ctx.JSON(fiber.Map{
			"sent":     dtos(sent),
			"received": dtos(received),
		})
	}
}

func getInviteHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		inv := app.invites.Get(ctx.Params("uid"))

		if inv == nil || !inv.IsParty(Username(ctx)) {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		return ctx.JSON(inv.DTO())
	}
}

// getInviteCreateHandler also returns the sender's current debt summary so
// the client can warn about outstanding fees before the invite goes out.
func getInviteCreateHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		login := Username(ctx)
		d := new(model.InvitePostDTO)

		if err := ctx.BodyParser(d); err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		inv, err := app.invites.Create(login, d)
		if err != nil {
			return apiError(ctx, err)
		}

		app.notify(d.ToUser, &wshandler.WebMessage{Typ: "invite", UID: inv.UID, Invite: inv.DTO()})

		return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
			"invite":  inv.DTO(),
			"summary": app.invites.Summary(login),
		})
	}
}

func getInviteEditHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		d := new(model.InvitePostDTO)

		if err := ctx.BodyParser(d); err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		inv, err := app.invites.Edit(Username(ctx), ctx.Params("uid"), d)
		if err != nil {
			return apiError(ctx, err)
		}

		app.notifyParties(inv)

		return ctx.JSON(inv.DTO())
	}
}

func getTransitionHandler(app *App, action invites.Action) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		inv, err := app.invites.Apply(Username(ctx), ctx.Params("uid"), action)

		countTransition(string(action), err)

		if err != nil {
			return apiError(ctx, err)
		}

		app.notifyParties(inv)

		return ctx.JSON(inv.DTO())
	}
}

// getFinishHandler requires an explicit confirmation flag in the body. The
// clients show a dialog for it, a bare POST is treated as a mistake.
func getFinishHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		body := new(struct {
			Confirm bool `json:"confirm"`
		})

		if err := ctx.BodyParser(body); err != nil || !body.Confirm {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "confirm flag is required"})
		}

		inv, err := app.invites.Apply(Username(ctx), ctx.Params("uid"), invites.ActionFinish)

		countTransition(string(invites.ActionFinish), err)

		if err != nil {
			return apiError(ctx, err)
		}

		app.notifyParties(inv)

		return ctx.JSON(inv.DTO())
	}
}

func getCancelHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		inv, err := app.invites.Cancel(Username(ctx), ctx.Params("uid"))

		countTransition(string(invites.ActionCancel), err)

		if err != nil {
			return apiError(ctx, err)
		}

		app.users.Invalidate(inv.FromUser)
		app.users.Invalidate(inv.ToUser)
		app.notifyParties(inv)

		return ctx.JSON(inv.DTO())
	}
}

// getPaymentDoneHandler returns the full payment breakdown: what was paid
// for this invite and which outstanding fees got folded in.
func getPaymentDoneHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		login := Username(ctx)

		inv, err := app.invites.MarkPaymentDone(login, ctx.Params("uid"))

		countTransition(string(invites.ActionPaymentDone), err)

		if err != nil {
			return apiError(ctx, err)
		}

		if inv.PendingFeesCents > 0 {
			settledFeesMetric.With(prometheus.Labels{"type": "rolled_forward"}).Add(float64(inv.PendingFeesCents))
		}

		app.users.Invalidate(login)
		app.notifyParties(inv)

		return ctx.JSON(fiber.Map{
			"invite":  inv.DTO(),
			"summary": app.invites.Summary(login),
		})
	}
}

func getConfirmHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		inv, err := app.invites.ConfirmPayment(Username(ctx), ctx.Params("uid"))

		countTransition(string(invites.ActionConfirm), err)

		if err != nil {
			return apiError(ctx, err)
		}

		app.users.Invalidate(inv.ToUser)
		app.notifyParties(inv)

		return ctx.JSON(inv.DTO())
	}
}

func (app *App) notifyParties(inv *model.Invite) {
	msg := &wshandler.WebMessage{Typ: "invite", UID: inv.UID, Invite: inv.DTO()}

	app.notify(inv.FromUser, msg)
	app.notify(inv.ToUser, msg)
}

func dtos(invs []*model.Invite) []*model.InviteDTO {
	result := make([]*model.InviteDTO, len(invs))

	for i, inv := range invs {
		result[i] = inv.DTO()
	}

	return result
}
