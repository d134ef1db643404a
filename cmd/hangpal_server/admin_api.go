package main

import (
	"embed"
	"net/http"
	"runtime/pprof"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hangpal/hangpal/pkg/log"
	"github.com/hangpal/hangpal/pkg/model"
)

//go:embed templates
var templates embed.FS

type AdminAPI struct {
	f    *fiber.App
	addr string
}

func (srv *HttpServer) NewAdminAPI(app *App, addr string) *AdminAPI {
	api := &AdminAPI{addr: addr}

	engine := html.NewFileSystem(http.FS(templates), ".html")

	engine.Delims("[[", "]]")

	api.f = fiber.New(fiber.Config{EnablePrintRoutes: false, DisableStartupMessage: true, Views: engine})

	api.f.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "admin_api", UserGetter: Username, DoMetrics: true, LogErrorsOnly: true}))
	api.f.Use(getTokenAuth(srv, true))
	api.f.Use(adminOnly(srv))

	api.f.Post("/token", getTokenHandler(srv, true))
	api.f.Get("/login", getLoginPageHandler())

	api.f.Get("/", getIndexHandler())
	api.f.Get("/users", getUsersPageHandler())
	api.f.Get("/invites", getInvitesPageHandler())

	api.f.Get("/api/user", getAllUsersHandler(app))
	api.f.Put("/api/user/:login", getUserPutHandler(app))
	api.f.Get("/api/invite", getAllInvitesHandler(app))
	api.f.Get("/api/stats", getStatsHandler(app))

	api.f.Get("/stack", getStackHandler())
	api.f.Get("/metrics", getMetricsHandler())

	return api
}

func (api *AdminAPI) Address() string {
	return api.addr
}

func (api *AdminAPI) Listen() error {
	return api.f.Listen(api.addr)
}

func (api *AdminAPI) Shutdown() error {
	return api.f.Shutdown()
}

func getIndexHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		data := map[string]any{
			"page": "dash",
		}

		return ctx.Render("templates/index", data, "templates/menu", "templates/header")
	}
}

func getLoginPageHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.Render("templates/login", map[string]any{}, "templates/header")
	}
}

func getUsersPageHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		data := map[string]any{
			"page": "users",
		}

		return ctx.Render("templates/users", data, "templates/menu", "templates/header")
	}
}

func getInvitesPageHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		data := map[string]any{
			"page": "invites",
		}

		return ctx.Render("templates/invites", data, "templates/menu", "templates/header")
	}
}

func getAllUsersHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		users := app.dbm.UserQuery().Get()

		result := make([]*model.UserDTO, len(users))

		for i, u := range users {
			result[i] = u.DTO()
		}

		return ctx.JSON(result)
	}
}

// getUserPutHandler lets an admin disable an account or grant admin rights.
func getUserPutHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		login := ctx.Params("login")

		if app.dbm.UserQuery().Login(login).One() == nil {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		d := new(struct {
			Disabled *bool `json:"disabled"`
			Admin    *bool `json:"admin"`
		})

		if err := ctx.BodyParser(d); err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		updates := make(map[string]any)

		if d.Disabled != nil {
			updates["disabled"] = *d.Disabled
		}

		if d.Admin != nil {
			updates["admin"] = *d.Admin
		}

		if len(updates) > 0 {
			if err := app.dbm.UserQuery().Login(login).Update(updates); err != nil {
				return err
			}

			app.users.Invalidate(login)
		}

		return ctx.JSON(app.dbm.UserQuery().Login(login).One().DTO())
	}
}

func getAllInvitesHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		q := app.dbm.InviteQuery()

		if s := ctx.Query("status"); s != "" {
			q = q.Status(s)
		}

		return ctx.JSON(dtos(q.Get()))
	}
}

func getStatsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"users":   app.dbm.UserQuery().Count(),
			"invites": app.dbm.InviteQuery().Count(),
			"pending": app.dbm.InviteQuery().Status(model.StatusPending).Count(),
			"version": getVersion(),
		})
	}
}

func getStackHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return pprof.Lookup("goroutine").WriteTo(ctx.Response().BodyWriter(), 1)
	}
}

func getMetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{DisableCompression: true},
	))
}
