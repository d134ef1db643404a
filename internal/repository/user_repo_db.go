package repository

import (
	"log/slog"
	"time"

	"github.com/hangpal/hangpal/internal/cache"
	"github.com/hangpal/hangpal/internal/callbacks"
	"github.com/hangpal/hangpal/internal/database"
	"github.com/hangpal/hangpal/pkg/model"
)

var _ AccountRepository = &UserDbRepository{}

// UserDbRepository serves account lookups from the database through a short
// TTL cache. Writes that change a user must call Invalidate so the next read
// sees fresh data. Subscribers of ChangeCallback get the login of every
// changed account.
type UserDbRepository struct {
	logger   *slog.Logger
	cache    *cache.Cache[*model.User]
	dbm      *database.DatabaseManager
	watcher  *UserFileWatcher
	changeCb *callbacks.Callback[string]
}

func NewUserDbRepository(usersFile string, dbm *database.DatabaseManager) *UserDbRepository {
	u := &UserDbRepository{
		logger:   slog.With(slog.String("logger", "user_repo")),
		dbm:      dbm,
		changeCb: callbacks.New[string](),
	}

	u.cache = cache.NewWithTTL[*model.User](time.Second*10, u.loadUser)

	if usersFile != "" {
		u.watcher = NewUserFileWatcher(usersFile, dbm, u.Invalidate)
	}

	return u
}

func (u *UserDbRepository) ChangeCallback() *callbacks.Callback[string] {
	return u.changeCb
}

func (u *UserDbRepository) loadUser(login string) *model.User {
	return u.dbm.UserQuery().Login(login).One()
}

func (u *UserDbRepository) Start() error {
	if u.watcher == nil {
		return nil
	}

	if err := u.watcher.Seed(); err != nil {
		return err
	}

	return u.watcher.Start()
}

func (u *UserDbRepository) Stop() {
	if u.watcher != nil {
		u.watcher.Stop()
	}
}

func (u *UserDbRepository) CheckAuth(login, password string) bool {
	user := u.cache.Load(login)

	if user == nil || user.Disabled {
		return false
	}

	return user.CheckPassword(password)
}

func (u *UserDbRepository) IsValid(login string) bool {
	user := u.cache.Load(login)

	return user != nil && !user.Disabled
}

func (u *UserDbRepository) Get(login string) *model.User {
	return u.cache.Load(login)
}

func (u *UserDbRepository) Invalidate(login string) {
	u.cache.Invalidate(login)
	u.changeCb.AddMessage(login)
}

func (u *UserDbRepository) SaveSignInfo(login string) {
	if err := u.dbm.UserQuery().Login(login).Update(map[string]any{"last_sign": time.Now()}); err != nil {
		u.logger.Error("error saving sign info", slog.Any("error", err))
	}

	u.cache.Invalidate(login)
}
