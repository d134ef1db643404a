package repository

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/hangpal/hangpal/internal/database"
	"github.com/hangpal/hangpal/pkg/model"
)

// UserFileWatcher seeds accounts from a YAML file into the database and
// keeps them in sync while the process runs. Operators edit the file to
// provision admin and test accounts without touching the database.
type UserFileWatcher struct {
	usersFile  string
	logger     *slog.Logger
	dbm        *database.DatabaseManager
	invalidate func(login string)

	watcher *fsnotify.Watcher

	mx sync.Mutex
}

func NewUserFileWatcher(usersFile string, dbm *database.DatabaseManager, invalidate func(login string)) *UserFileWatcher {
	return &UserFileWatcher{
		logger:     slog.Default().With("logger", "users_file"),
		usersFile:  usersFile,
		dbm:        dbm,
		invalidate: invalidate,
	}
}

// Seed upserts every user from the file. Plaintext passwords in the file are
// hashed on load, already hashed values pass through unchanged.
func (w *UserFileWatcher) Seed() error {
	w.mx.Lock()
	defer w.mx.Unlock()

	if _, err := os.Lstat(w.usersFile); os.IsNotExist(err) {
		f, err := os.Create(w.usersFile)
		if err != nil {
			return err
		}

		return f.Close()
	}

	dat, err := os.ReadFile(w.usersFile)
	if err != nil {
		return err
	}

	users := make([]*model.User, 0)

	if err := yaml.Unmarshal(dat, &users); err != nil {
		return err
	}

	for _, user := range users {
		if user.Login == "" {
			continue
		}

		if !isBcrypt(user.Password) {
			if err := user.SetPassword(user.Password); err != nil {
				return err
			}
		}

		if err := w.dbm.Save(user); err != nil {
			return err
		}

		if w.invalidate != nil {
			w.invalidate(user.Login)
		}
	}

	w.logger.Info(fmt.Sprintf("seeded %d users from %s", len(users), w.usersFile))

	return nil
}

func (w *UserFileWatcher) Start() error {
	var err error
	w.watcher, err = fsnotify.NewWatcher()

	if err != nil {
		return err
	}

	if err := w.watcher.Add(w.usersFile); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}

				w.logger.Debug(fmt.Sprintf("event: %v", event))

				if event.Has(fsnotify.Write) && event.Name == w.usersFile {
					w.logger.Info("users file is modified, reloading")

					if err := w.Seed(); err != nil {
						w.logger.Error("error", slog.Any("error", err))
					}
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}

				w.logger.Error("error", slog.Any("error", err))
			}
		}
	}()

	return nil
}

func (w *UserFileWatcher) Stop() {
	if w.watcher != nil {
		_ = w.watcher.Close()
	}
}

func isBcrypt(s string) bool {
	return len(s) == 60 && (s[:4] == "$2a$" || s[:4] == "$2b$" || s[:4] == "$2y$")
}
