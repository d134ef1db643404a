package main

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/hangpal/hangpal/internal/wshandler"
	"github.com/hangpal/hangpal/pkg/model"
)

func addChatApi(app *App, f fiber.Router) {
	f.Get("/api/invite/:uid/chat", getMessagesHandler(app))
	f.Post("/api/invite/:uid/chat", getMessagePostHandler(app))
	f.Get("/ws", getWsHandler(app))
}

func getMessagesHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		inv := app.invites.Get(ctx.Params("uid"))

		if inv == nil || !inv.IsParty(Username(ctx)) {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		msgs := app.dbm.MessageQuery().Invite(inv.ID).Get()

		result := make([]*model.ChatMessageDTO, len(msgs))

		for i, m := range msgs {
			result[i] = m.DTO(inv.UID)
		}

		return ctx.JSON(result)
	}
}

// getMessagePostHandler stores a message and pushes it to both parties.
// Closed conversations stay readable but reject new messages.
func getMessagePostHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		login := Username(ctx)
		inv := app.invites.Get(ctx.Params("uid"))

		if inv == nil || !inv.IsParty(login) {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		if inv.IsTerminal() {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conversation is closed"})
		}

		d := new(struct {
			Text string `json:"text"`
		})

		if err := ctx.BodyParser(d); err != nil || d.Text == "" {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty message"})
		}

		msg := &model.ChatMessage{
			InviteID: inv.ID,
			From:     login,
			Text:     d.Text,
		}

		if err := app.dbm.Create(msg); err != nil {
			return err
		}

		push := &wshandler.WebMessage{Typ: "chat", UID: inv.UID, ChatMessage: msg.DTO(inv.UID)}

		app.notify(inv.FromUser, push)
		app.notify(inv.ToUser, push)

		return ctx.Status(fiber.StatusCreated).JSON(msg.DTO(inv.UID))
	}
}

// getWsHandler streams chat messages and invite updates for the signed in
// user. The subscription removes itself once the connection goes away.
func getWsHandler(app *App) fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		login, _ := ws.Locals(UsernameKey).(string)

		if login == "" {
			ws.Close()

			return
		}

		h := wshandler.NewHandler(app.logger, login, ws)

		wsClientsMetric.Inc()

		app.logger.Debug("ws listener connected")

		app.events.On("user:"+login, func(data any) bool {
			msg, ok := data.(*wshandler.WebMessage)
			if !ok {
				return true
			}

			switch msg.Typ {
			case "chat":
				return h.NewChatMessage(msg.ChatMessage)
			case "invite":
				return h.InviteChanged(msg.Invite)
			default:
				return h.Send(msg)
			}
		})

		h.Listen()

		wsClientsMetric.Dec()
		app.logger.Debug("ws listener disconnected")
	})
}
