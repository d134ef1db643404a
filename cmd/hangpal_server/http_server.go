package main

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hangpal/hangpal/internal/repository"
)

type Api interface {
	Address() string
	Listen() error
	Shutdown() error
}

// HttpServer holds the state shared by the user and admin fiber apps, token
// signing key included so that both accept the same bearer tokens.
type HttpServer struct {
	log         *slog.Logger
	userManager repository.AccountRepository
	tokenKey    []byte
	tokenMaxAge time.Duration
	loginUrl    string
	noAuth      []string
}

func NewHttpServer(app *App) *HttpServer {
	key := app.config.JwtKey()

	if key == "" {
		key = uuid.NewString()
		app.logger.Warn("no jwt.key in config, tokens will not survive a restart")
	}

	return &HttpServer{
		log:         app.logger.With("logger", "http"),
		userManager: app.users,
		tokenKey:    []byte(key),
		tokenMaxAge: time.Hour * time.Duration(app.config.JwtTTLHours()),
		loginUrl:    "/login",
		noAuth:      []string{"/token", "/api/auth/register", "/metrics", "/stack"},
	}
}

type claims struct {
	jwt.RegisteredClaims
	Login string `json:"login"`
}

func (srv *HttpServer) makeToken(login string) (string, error) {
	c := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(srv.tokenMaxAge)),
		},
		Login: login,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(srv.tokenKey)
}

func (srv *HttpServer) checkToken(token string) string {
	c := new(claims)

	t, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return srv.tokenKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil || !t.Valid {
		return ""
	}

	return c.Login
}

func getTokenHandler(srv *HttpServer, adminOnly bool) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		creds := new(struct {
			Login    string `json:"login"`
			Password string `json:"password"`
		})

		if err := ctx.BodyParser(creds); err != nil {
			return ctx.SendStatus(fiber.StatusBadRequest)
		}

		if !srv.userManager.CheckAuth(creds.Login, creds.Password) {
			return ctx.SendStatus(fiber.StatusUnauthorized)
		}

		if adminOnly && !srv.userManager.Get(creds.Login).IsAdmin() {
			return ctx.SendStatus(fiber.StatusUnauthorized)
		}

		token, err := srv.makeToken(creds.Login)
		if err != nil {
			srv.log.Error("token error", slog.Any("error", err))

			return ctx.SendStatus(fiber.StatusInternalServerError)
		}

		srv.userManager.SaveSignInfo(creds.Login)

		return ctx.JSON(fiber.Map{"token": token})
	}
}
