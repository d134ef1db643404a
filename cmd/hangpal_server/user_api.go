package main

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hangpal/hangpal/internal/invites"
	"github.com/hangpal/hangpal/pkg/log"
)

type UserAPI struct {
	f    *fiber.App
	addr string
}

func (srv *HttpServer) NewUserAPI(app *App, addr string) *UserAPI {
	api := &UserAPI{addr: addr}

	api.f = fiber.New(fiber.Config{
		EnablePrintRoutes:     false,
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024,
	})

	api.f.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "user_api", UserGetter: Username, DoMetrics: true}))
	api.f.Use(getTokenAuth(srv, false))

	api.f.Post("/token", getTokenHandler(srv, false))
	api.f.Post("/api/auth/register", getRegisterHandler(app))

	api.f.Get("/api/config", getConfigHandler(app))

	api.f.Get("/api/profile", getProfileHandler(app))
	api.f.Put("/api/profile", getProfilePutHandler(app))
	api.f.Post("/api/profile/avatar", getAvatarPostHandler(app))

	api.f.Get("/api/pals", getPalsHandler(app))
	api.f.Get("/api/pals/:login", getPalHandler(app))

	api.f.Get("/api/balance", getBalanceHandler(app))

	api.f.Get("/api/posts", getFeedHandler(app))
	api.f.Post("/api/posts", getPostCreateHandler(app))
	api.f.Post("/api/media", getMediaPostHandler(app))
	api.f.Get("/api/media/:hash", getMediaHandler(app))

	addInviteApi(app, api.f)
	addChatApi(app, api.f)

	return api
}

func (api *UserAPI) Address() string {
	return api.addr
}

func (api *UserAPI) Listen() error {
	return api.f.Listen(api.addr)
}

func (api *UserAPI) Shutdown() error {
	return api.f.Shutdown()
}

func getConfigHandler(app *App) fiber.Handler {
	m := make(map[string]any, 0)
	m["version"] = getVersion()
	m["welcome_msg"] = app.config.WelcomeMsg()

	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(m)
	}
}

// apiError maps lifecycle errors to http statuses.
func apiError(ctx *fiber.Ctx, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, invites.ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, invites.ErrNotParticipant), errors.Is(err, invites.ErrWrongRole):
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, invites.ErrWrongStatus), errors.Is(err, invites.ErrConflict):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, invites.ErrValidation):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return err
	}
}

func getVersion() string {
	return gitRevision + ":" + gitBranch
}
