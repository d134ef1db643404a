package main

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const UsernameKey = "username"

// getTokenAuth checks the bearer token on every request except the paths in
// noAuth. Browser requests without a token get redirected to the login page,
// API requests get a plain 401.
func getTokenAuth(srv *HttpServer, redirect bool) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		for _, p := range srv.noAuth {
			if ctx.Path() == p {
				return ctx.Next()
			}
		}

		token := tokenFromRequest(ctx)

		if login := srv.checkToken(token); login != "" && srv.userManager.IsValid(login) {
			ctx.Locals(UsernameKey, login)

			return ctx.Next()
		}

		if redirect && ctx.Path() != srv.loginUrl {
			return ctx.Redirect(srv.loginUrl, fiber.StatusFound)
		}

		if redirect {
			return ctx.Next()
		}

		return ctx.SendStatus(fiber.StatusUnauthorized)
	}
}

func tokenFromRequest(ctx *fiber.Ctx) string {
	auth := ctx.Get(fiber.HeaderAuthorization)

	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	// websocket clients cannot set headers
	return ctx.Query("token")
}

func Username(c *fiber.Ctx) string {
	u := c.Locals(UsernameKey)

	if u == nil {
		return ""
	}

	return u.(string)
}

// adminOnly guards admin pages for authenticated non-admin users.
func adminOnly(srv *HttpServer) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if u := Username(ctx); u != "" && srv.userManager.Get(u).IsAdmin() {
			return ctx.Next()
		}

		if ctx.Path() == srv.loginUrl || contains(srv.noAuth, ctx.Path()) {
			return ctx.Next()
		}

		return ctx.SendStatus(fiber.StatusForbidden)
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}

	return false
}
