package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hangpal/hangpal/internal/callbacks"
	"github.com/hangpal/hangpal/internal/config"
	"github.com/hangpal/hangpal/internal/database"
	"github.com/hangpal/hangpal/internal/invites"
	"github.com/hangpal/hangpal/internal/media"
	"github.com/hangpal/hangpal/internal/repository"
	"github.com/hangpal/hangpal/internal/wshandler"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

type App struct {
	logger *slog.Logger
	config *config.AppConfig
	uid    string

	dbm     *database.DatabaseManager
	users   repository.AccountRepository
	invites *invites.Manager
	blobs   *media.BlobManager
	events  *callbacks.Events
}

func NewApp(cfg *config.AppConfig) *App {
	app := &App{
		logger: slog.Default(),
		config: cfg,
		uid:    uuid.NewString(),
		events: callbacks.NewEvents(),
	}

	db, err := gorm.Open(sqlite.Open(cfg.DB()), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		panic(err)
	}

	app.dbm = database.New(db)

	if err := app.dbm.Migrate(); err != nil {
		panic(err)
	}

	app.users = repository.NewUserDbRepository(cfg.UsersFile(), app.dbm)
	app.invites = invites.New(app.dbm)
	app.blobs = media.NewBlobManager(filepath.Join(cfg.DataDir(), "blobs"))

	// account changes (admin edits, file seed reloads) reach connected clients
	app.users.ChangeCallback().AddCallback("ws_push", func(login string) bool {
		app.notify(login, &wshandler.WebMessage{Typ: "profile", UID: login})

		return true
	})

	return app
}

func (app *App) Run(ctx context.Context) {
	if err := app.users.Start(); err != nil {
		app.logger.Error("error starting user repository", slog.Any("error", err))
		os.Exit(1)
	}

	defer app.users.Stop()

	srv := NewHttpServer(app)

	userAPI := srv.NewUserAPI(app, app.config.ApiAddr())
	adminAPI := srv.NewAdminAPI(app, app.config.AdminAddr())

	go func() {
		if err := userAPI.Listen(); err != nil {
			app.logger.Error("user api error", slog.Any("error", err))
		}
	}()

	go func() {
		if err := adminAPI.Listen(); err != nil {
			app.logger.Error("admin api error", slog.Any("error", err))
		}
	}()

	<-ctx.Done()

	app.logger.Info("exiting")

	_ = userAPI.Shutdown()
	_ = adminAPI.Shutdown()
}

// notify pushes a web message to every active subscriber of a user.
func (app *App) notify(login string, msg any) {
	app.events.Add("user:"+login, msg)
}

func main() {
	fmt.Printf("version %s %s\n", gitRevision, gitBranch)

	var debug = flag.Bool("debug", false, "debug logging")

	var conf = flag.String("config", "hangpal_server.yml", "name of config file")

	flag.Parse()

	cfg := config.NewAppConfig()

	if !cfg.Load(*conf) {
		fmt.Println("no config file, using defaults")
	}

	if err := cfg.LoadEnv("HANGPAL_"); err != nil {
		panic(err)
	}

	var h slog.Handler

	if *debug {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	slog.SetDefault(slog.New(h))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	NewApp(cfg).Run(ctx)
}
