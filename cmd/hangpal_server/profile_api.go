package main

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hangpal/hangpal/pkg/model"
)

func getRegisterHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		d := new(model.UserPostDTO)

		if err := ctx.BodyParser(d); err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		if d.Login == "" || d.Password == "" {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "login and password are required"})
		}

		if app.dbm.UserQuery().Login(d.Login).One() != nil {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "login is taken"})
		}

		user := &model.User{
			Login:       d.Login,
			UID:         uuid.NewString(),
			Name:        d.Name,
			Bio:         d.Bio,
			City:        d.City,
			ProfileType: model.ProfilePrivate,
		}

		if d.ProfileType == model.ProfilePublic {
			user.ProfileType = model.ProfilePublic
		}

		if err := user.SetPassword(d.Password); err != nil {
			return err
		}

		if err := app.dbm.Create(user); err != nil {
			return err
		}

		app.logger.Info("user registered", slog.String("login", d.Login))

		return ctx.Status(fiber.StatusCreated).JSON(user.DTO())
	}
}

func getProfileHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user := app.users.Get(Username(ctx))

		if user == nil {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		return ctx.JSON(user.DTO())
	}
}

func getProfilePutHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		login := Username(ctx)
		d := new(model.UserPutDTO)

		if err := ctx.BodyParser(d); err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		updates := make(map[string]any)

		if d.Name != "" {
			updates["name"] = d.Name
		}

		if d.Bio != "" {
			updates["bio"] = d.Bio
		}

		if d.City != "" {
			updates["city"] = d.City
		}

		switch d.ProfileType {
		case "":
		case model.ProfilePublic, model.ProfilePrivate:
			updates["profile_type"] = d.ProfileType
		default:
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad profile_type"})
		}

		if d.Password != "" {
			u := new(model.User)
			if err := u.SetPassword(d.Password); err != nil {
				return err
			}

			updates["password"] = u.Password
		}

		if len(updates) > 0 {
			if err := app.dbm.UserQuery().Login(login).Update(updates); err != nil {
				return err
			}

			app.users.Invalidate(login)
		}

		return ctx.JSON(app.users.Get(login).DTO())
	}
}

func getAvatarPostHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		login := Username(ctx)

		fh, err := ctx.FormFile("file")
		if err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		f, err := fh.Open()
		if err != nil {
			return err
		}

		defer f.Close()

		hash, _, err := app.blobs.PutFile("", f)
		if err != nil {
			return err
		}

		if err := app.dbm.UserQuery().Login(login).Update(map[string]any{"avatar_hash": hash}); err != nil {
			return err
		}

		app.users.Invalidate(login)

		return ctx.JSON(fiber.Map{"hash": hash})
	}
}

func getPalsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		users := app.dbm.UserQuery().Public().Get()

		result := make([]*model.PalDTO, 0, len(users))

		for _, u := range users {
			if u.Login == Username(ctx) {
				continue
			}

			result = append(result, u.Pal())
		}

		return ctx.JSON(result)
	}
}

// getPalHandler shows a pal card. Private profiles are only visible to
// themselves.
func getPalHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user := app.dbm.UserQuery().Login(ctx.Params("login")).One()

		if user == nil || user.Disabled {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		if !user.IsPublic() && user.Login != Username(ctx) {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		return ctx.JSON(user.Pal())
	}
}

// getBalanceHandler is the single money answer for the signed in user. The
// breakdown is always derived from the invite history, with the cached
// balance as a degraded fallback.
func getBalanceHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		login := Username(ctx)

		app.invites.RefreshBalance(login)

		return ctx.JSON(app.invites.Summary(login))
	}
}
