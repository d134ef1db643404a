package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hangpal/hangpal/internal/database"
	"github.com/hangpal/hangpal/pkg/model"
)

func getTestDb(t *testing.T) *database.DatabaseManager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	require.NoError(t, err)

	m := database.New(db)
	require.NoError(t, m.Migrate())

	return m
}

func TestSeedFromFile(t *testing.T) {
	dbm := getTestDb(t)

	name := filepath.Join(t.TempDir(), "users.yml")
	data := `
- user: admin
  password: secret
  admin: true
- user: pal1
  password: "123"
  profile_type: public
`
	require.NoError(t, os.WriteFile(name, []byte(data), 0o644))

	repo := NewUserDbRepository(name, dbm)
	require.NoError(t, repo.Start())

	defer repo.Stop()

	assert.True(t, repo.CheckAuth("admin", "secret"))
	assert.False(t, repo.CheckAuth("admin", "wrong"))
	assert.True(t, repo.Get("admin").IsAdmin())
	assert.True(t, repo.Get("pal1").IsPublic())
	assert.False(t, repo.IsValid("nobody"))
}

func TestCacheInvalidation(t *testing.T) {
	dbm := getTestDb(t)

	u := &model.User{Login: "alice"}
	require.NoError(t, u.SetPassword("pw"))
	require.NoError(t, dbm.Save(u))

	repo := NewUserDbRepository("", dbm)
	require.NoError(t, repo.Start())

	assert.True(t, repo.CheckAuth("alice", "pw"))

	require.NoError(t, dbm.UserQuery().Login("alice").Update(map[string]any{"disabled": true}))

	// the cached copy still answers until invalidated
	assert.True(t, repo.IsValid("alice"))

	repo.Invalidate("alice")
	assert.False(t, repo.IsValid("alice"))
}

func TestDisabledUser(t *testing.T) {
	dbm := getTestDb(t)

	u := &model.User{Login: "off", Disabled: true}
	require.NoError(t, u.SetPassword("pw"))
	require.NoError(t, dbm.Save(u))

	repo := NewUserDbRepository("", dbm)

	assert.False(t, repo.CheckAuth("off", "pw"))
	assert.False(t, repo.IsValid("off"))
}
