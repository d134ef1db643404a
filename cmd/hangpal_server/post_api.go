package main

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/hangpal/hangpal/pkg/model"
)

// getFeedHandler returns posts from public pals, newest first. With the
// author query param it narrows to one visible author.
func getFeedHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		login := Username(ctx)

		if author := ctx.Query("author"); author != "" {
			u := app.dbm.UserQuery().Login(author).One()

			if u == nil || (!u.IsPublic() && u.Login != login) {
				return ctx.SendStatus(fiber.StatusNotFound)
			}

			return ctx.JSON(postDtos(app.dbm.PostQuery().Author(author).Get()))
		}

		authors := []string{login}

		for _, u := range app.dbm.UserQuery().Public().Get() {
			if u.Login != login {
				authors = append(authors, u.Login)
			}
		}

		return ctx.JSON(postDtos(app.dbm.PostQuery().Authors(authors).Get()))
	}
}

func getPostCreateHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		d := new(struct {
			Text      string `json:"text"`
			MediaHash string `json:"media_hash"`
		})

		if err := ctx.BodyParser(d); err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		if d.Text == "" && d.MediaHash == "" {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty post"})
		}

		if d.MediaHash != "" {
			if _, err := app.blobs.GetFileStat(d.MediaHash); err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown media hash"})
			}
		}

		post := &model.Post{
			Author:    Username(ctx),
			Text:      d.Text,
			MediaHash: d.MediaHash,
		}

		if err := app.dbm.Create(post); err != nil {
			return err
		}

		return ctx.Status(fiber.StatusCreated).JSON(post.DTO())
	}
}

func getMediaPostHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		fh, err := ctx.FormFile("file")
		if err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		f, err := fh.Open()
		if err != nil {
			return err
		}

		defer f.Close()

		hash, size, err := app.blobs.PutFile(ctx.Query("hash"), f)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		return ctx.JSON(fiber.Map{"hash": hash, "size": size})
	}
}

func getMediaHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		hash := ctx.Params("hash")

		f, err := app.blobs.GetFile(hash)
		if err != nil {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		defer f.Close()

		if st, err := app.blobs.GetFileStat(hash); err == nil {
			ctx.Set("Last-Modified", st.ModTime().UTC().Format(http.TimeFormat))
			ctx.Set("Content-Length", strconv.FormatInt(st.Size(), 10))
		}

		_, err = io.Copy(ctx, f)

		return err
	}
}

func postDtos(posts []*model.Post) []*model.PostDTO {
	result := make([]*model.PostDTO, len(posts))

	for i, p := range posts {
		result[i] = p.DTO()
	}

	return result
}
