package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hangpal/hangpal/pkg/model"
)

func getTestDatabase() *DatabaseManager {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		panic("failed to connect database")
	}

	m := New(db)

	if err := m.Migrate(); err != nil {
		panic(err)
	}

	return m
}

func TestUserQuery(t *testing.T) {
	m := getTestDatabase()

	require.NoError(t, m.Save(&model.User{Login: "alice", ProfileType: model.ProfilePublic}))
	require.NoError(t, m.Save(&model.User{Login: "bob", ProfileType: model.ProfilePrivate}))
	require.NoError(t, m.Save(&model.User{Login: "carol", ProfileType: model.ProfilePublic, Disabled: true}))

	assert.EqualValues(t, 3, m.UserQuery().Count())
	assert.Len(t, m.UserQuery().Public().Get(), 1)
	assert.Equal(t, "alice", m.UserQuery().Public().One().Login)
	assert.Nil(t, m.UserQuery().Login("nobody").One())
}

func TestInviteQuery(t *testing.T) {
	m := getTestDatabase()

	require.NoError(t, m.Save(&model.Invite{UID: "i1", FromUser: "alice", ToUser: "bob", Status: model.StatusPending, PriceCents: 5000}))
	require.NoError(t, m.Save(&model.Invite{UID: "i2", FromUser: "alice", ToUser: "carol", Status: model.StatusFinished, PriceCents: 3000}))
	require.NoError(t, m.Save(&model.Invite{UID: "i3", FromUser: "bob", ToUser: "alice", Status: model.StatusFinished, PriceCents: 1000}))

	assert.Len(t, m.InviteQuery().From("alice").Get(), 2)
	assert.Len(t, m.InviteQuery().Party("alice").Get(), 3)
	assert.Len(t, m.InviteQuery().To("alice").Get(), 1)
	assert.Len(t, m.InviteQuery().Statuses(model.StatusFinished, model.StatusPending).Get(), 3)
	assert.EqualValues(t, 1, m.InviteQuery().Status(model.StatusPending).Count())

	// incentive defaults to price on read
	inv := m.InviteQuery().UID("i1").One()
	require.NotNil(t, inv)
	assert.EqualValues(t, 5000, inv.IncentiveCents)
}

func TestInviteStatusGuardedUpdate(t *testing.T) {
	m := getTestDatabase()

	require.NoError(t, m.Save(&model.Invite{UID: "i1", FromUser: "a", ToUser: "b", Status: model.StatusPending}))

	n, err := m.InviteQuery().UID("i1").Status(model.StatusPending).UpdateRows(map[string]any{"status": model.StatusAccepted})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// second run loses the status guard race
	n, err = m.InviteQuery().UID("i1").Status(model.StatusPending).UpdateRows(map[string]any{"status": model.StatusAccepted})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBalanceIncrements(t *testing.T) {
	m := getTestDatabase()

	require.NoError(t, m.Save(&model.User{Login: "alice"}))

	require.NoError(t, m.AddPendingBalance("alice", 1500))
	require.NoError(t, m.AddPendingBalance("alice", 500))
	require.NoError(t, m.AddEarnings("alice", 4750))

	u := m.UserQuery().Login("alice").One()
	require.NotNil(t, u)
	assert.EqualValues(t, 2000, u.PendingBalanceCents)
	assert.EqualValues(t, 4750, u.TotalEarningsCents)

	// settle floors at zero
	require.NoError(t, m.SettleBalance("alice", 5000))
	assert.Zero(t, m.UserQuery().Login("alice").One().PendingBalanceCents)
}

func TestMessageQuery(t *testing.T) {
	m := getTestDatabase()

	require.NoError(t, m.Save(&model.ChatMessage{InviteID: 1, From: "alice", Text: "hi"}))
	require.NoError(t, m.Save(&model.ChatMessage{InviteID: 1, From: "bob", Text: "hey"}))
	require.NoError(t, m.Save(&model.ChatMessage{InviteID: 2, From: "alice", Text: "other"}))

	assert.Len(t, m.MessageQuery().Invite(1).Get(), 2)
	require.NoError(t, m.MessageQuery().Invite(2).Delete())
	assert.Empty(t, m.MessageQuery().Invite(2).Get())
}
