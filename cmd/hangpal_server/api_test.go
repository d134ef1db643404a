package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangpal/hangpal/internal/config"
	"github.com/hangpal/hangpal/pkg/model"
)

type TestApp struct {
	*App
	api   *UserAPI
	admin *AdminAPI
}

func User(login, pass, profileType string, admin, disabled bool) *model.User {
	u := new(model.User)
	u.Login = login
	u.ProfileType = profileType

	if err := u.SetPassword(pass); err != nil {
		panic(err)
	}

	u.Disabled = disabled
	u.Admin = admin

	return u
}

func NewTestApp() *TestApp {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg := config.NewAppConfig()
	cfg.Set("db", ":memory:")
	cfg.Set("users_file", "")
	cfg.Set("data_dir", os.TempDir())

	app := &TestApp{
		App: NewApp(cfg),
	}

	if err := app.users.Start(); err != nil {
		panic(err)
	}

	app.dbm.Save(User("adm1", "111", model.ProfilePrivate, true, false))
	app.dbm.Save(User("alice", "1", model.ProfilePrivate, false, false))
	app.dbm.Save(User("bob", "2", model.ProfilePublic, false, false))
	app.dbm.Save(User("off1", "3", model.ProfilePublic, false, true))

	srv := &HttpServer{
		log:         app.logger.With("logger", "http"),
		userManager: app.users,
		tokenKey:    []byte("111"),
		tokenMaxAge: time.Hour,
		loginUrl:    "/login",
		noAuth:      []string{"/token", "/api/auth/register", "/metrics", "/stack"},
	}

	app.api = srv.NewUserAPI(app.App, "localhost:1234")
	app.admin = srv.NewAdminAPI(app.App, "localhost:1235")

	return app
}

func (app *TestApp) Req(f *fiber.App, method, url, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, url, body)

	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Add("Authorization", "Bearer "+token)
	}

	return f.Test(req, 3000)
}

func (app *TestApp) JSON(f *fiber.App, method, url, token string, obj any) (*http.Response, error) {
	var body io.Reader

	if obj != nil {
		d, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}

		body = bytes.NewReader(d)
	}

	req, err := http.NewRequest(method, url, body)

	if err != nil {
		return nil, err
	}

	req.Header.Add(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Add(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	if token != "" {
		req.Header.Add("Authorization", "Bearer "+token)
	}

	return f.Test(req, 3000)
}

func (app *TestApp) token(t *testing.T, login, password string) string {
	t.Helper()

	resp, err := app.JSON(app.api.f, "POST", "/token", "", fiber.Map{"login": login, "password": password})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	m := make(map[string]string)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	require.NotEmpty(t, m["token"])

	return m["token"]
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func TestLogin(t *testing.T) {
	app := NewTestApp()

	for _, d := range []struct {
		login string
		psw   string
		ok    bool
	}{
		{"adm1", "111", true},
		{"adm1", "1111", false},
		{"alice", "1", true},
		{"off1", "3", false},
		{"nobody", "1", false},
	} {
		t.Run("login_as_"+d.login, func(t *testing.T) {
			resp, err := app.JSON(app.api.f, "POST", "/token", "", fiber.Map{"login": d.login, "password": d.psw})
			require.NoError(t, err)

			if d.ok {
				require.Equal(t, fiber.StatusOK, resp.StatusCode)
			} else {
				require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	app := NewTestApp()

	resp, err := app.JSON(app.api.f, "POST", "/api/auth/register", "", fiber.Map{"login": "carol", "password": "pw", "profile_type": "public"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// duplicate login
	resp, err = app.JSON(app.api.f, "POST", "/api/auth/register", "", fiber.Map{"login": "carol", "password": "pw"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	token := app.token(t, "carol", "pw")

	resp, err = app.Req(app.api.f, "GET", "/api/profile", token, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	u := decode[model.UserDTO](t, resp)
	assert.Equal(t, "carol", u.Login)
	assert.Equal(t, model.ProfilePublic, u.ProfileType)
}

func TestAuthRequired(t *testing.T) {
	app := NewTestApp()

	resp, err := app.Req(app.api.f, "GET", "/api/profile", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Req(app.api.f, "GET", "/api/profile", "garbage", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminLogin(t *testing.T) {
	app := NewTestApp()

	resp, err := app.Req(app.admin.f, "GET", "/", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	// regular users get no admin token
	resp, err = app.JSON(app.admin.f, "POST", "/token", "", fiber.Map{"login": "alice", "password": "1"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.JSON(app.admin.f, "POST", "/token", "", fiber.Map{"login": "adm1", "password": "111"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	m := make(map[string]string)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	token := m["token"]
	require.NotEmpty(t, token)

	resp, err = app.Req(app.admin.f, "GET", "/", token, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Req(app.admin.f, "GET", "/api/user", token, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	users := decode[[]*model.UserDTO](t, resp)
	assert.Len(t, users, 4)
}

func TestPalsVisibility(t *testing.T) {
	app := NewTestApp()

	token := app.token(t, "alice", "1")

	resp, err := app.Req(app.api.f, "GET", "/api/pals", token, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	pals := decode[[]*model.PalDTO](t, resp)
	require.Len(t, pals, 1)
	assert.Equal(t, "bob", pals[0].Login)

	// private profiles are not shown to others
	resp, err = app.Req(app.api.f, "GET", "/api/pals/alice", app.token(t, "bob", "2"), nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func inviteBody(to string, price int64) fiber.Map {
	start := time.Now().Add(24 * time.Hour)

	return fiber.Map{
		"to_user":     to,
		"title":       "Museum visit",
		"description": "Modern art",
		"location":    "City museum",
		"start_at":    start,
		"end_at":      start.Add(2 * time.Hour),
		"price_cents": price,
	}
}

func TestInviteLifecycleOverApi(t *testing.T) {
	app := NewTestApp()

	alice := app.token(t, "alice", "1")
	bob := app.token(t, "bob", "2")

	resp, err := app.JSON(app.api.f, "POST", "/api/invite/", alice, inviteBody("bob", 5000))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	created := decode[map[string]json.RawMessage](t, resp)

	inv := new(model.InviteDTO)
	require.NoError(t, json.Unmarshal(created["invite"], inv))
	require.NotEmpty(t, inv.UID)

	base := "/api/invite/" + inv.UID

	// only the recipient may accept
	resp, err = app.JSON(app.api.f, "POST", base+"/accept", alice, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.JSON(app.api.f, "POST", base+"/accept", bob, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.JSON(app.api.f, "POST", base+"/start", alice, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// finishing needs the explicit confirm flag
	resp, err = app.JSON(app.api.f, "POST", base+"/finish", alice, fiber.Map{})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.JSON(app.api.f, "POST", base+"/finish", alice, fiber.Map{"confirm": true})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.JSON(app.api.f, "POST", base+"/payment_done", alice, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	done := decode[map[string]json.RawMessage](t, resp)
	paid := new(model.InviteDTO)
	require.NoError(t, json.Unmarshal(done["invite"], paid))
	assert.EqualValues(t, 250, paid.PlatformFeeCents)
	assert.EqualValues(t, 4750, paid.NetToPalCents)
	assert.EqualValues(t, 5000, paid.TotalPaidCents)

	// a second payment_done is a conflict
	resp, err = app.JSON(app.api.f, "POST", base+"/payment_done", alice, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, err = app.JSON(app.api.f, "POST", base+"/confirm", bob, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Req(app.api.f, "GET", "/api/profile", bob, nil)
	require.NoError(t, err)

	u := decode[model.UserDTO](t, resp)
	assert.EqualValues(t, 4750, u.TotalEarningsCents)
	assert.EqualValues(t, 250, u.PendingBalanceCents)
}

func TestBalanceEndpoint(t *testing.T) {
	app := NewTestApp()

	alice := app.token(t, "alice", "1")
	bob := app.token(t, "bob", "2")

	resp, err := app.JSON(app.api.f, "POST", "/api/invite/", alice, inviteBody("bob", 10000))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	created := decode[map[string]json.RawMessage](t, resp)
	inv := new(model.InviteDTO)
	require.NoError(t, json.Unmarshal(created["invite"], inv))

	base := "/api/invite/" + inv.UID

	resp, err = app.JSON(app.api.f, "POST", base+"/accept", bob, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.JSON(app.api.f, "POST", base+"/cancel", alice, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	cancelled := decode[model.InviteDTO](t, resp)
	assert.EqualValues(t, 5000, cancelled.CancellationFeeCents)
	assert.EqualValues(t, 3000, cancelled.PalCompensationCents)

	resp, err = app.Req(app.api.f, "GET", "/api/balance", alice, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var s struct {
		CancellationOwedCents int64 `json:"cancellation_owed_cents"`
		TotalOwedCents        int64 `json:"total_owed_cents"`
		Degraded              bool  `json:"degraded"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.False(t, s.Degraded)
	assert.EqualValues(t, 5000, s.CancellationOwedCents)
	assert.EqualValues(t, 5000, s.TotalOwedCents)
}

func TestChatOverApi(t *testing.T) {
	app := NewTestApp()

	alice := app.token(t, "alice", "1")
	bob := app.token(t, "bob", "2")

	resp, err := app.JSON(app.api.f, "POST", "/api/invite/", alice, inviteBody("bob", 2000))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	created := decode[map[string]json.RawMessage](t, resp)
	inv := new(model.InviteDTO)
	require.NoError(t, json.Unmarshal(created["invite"], inv))

	chat := "/api/invite/" + inv.UID + "/chat"

	resp, err = app.JSON(app.api.f, "POST", chat, alice, fiber.Map{"text": "see you there"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.JSON(app.api.f, "POST", chat, bob, fiber.Map{"text": "sure"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Req(app.api.f, "GET", chat, alice, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	msgs := decode[[]*model.ChatMessageDTO](t, resp)
	require.Len(t, msgs, 2)
	assert.Equal(t, "see you there", msgs[0].Text)

	// outsiders see nothing
	carol := func() string {
		resp, err := app.JSON(app.api.f, "POST", "/api/auth/register", "", fiber.Map{"login": "carol", "password": "pw"})
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		return app.token(t, "carol", "pw")
	}()

	resp, err = app.Req(app.api.f, "GET", chat, carol, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// closed conversations reject new messages
	resp, err = app.JSON(app.api.f, "POST", "/api/invite/"+inv.UID+"/decline", bob, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.JSON(app.api.f, "POST", chat, alice, fiber.Map{"text": "too late"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestPostsAndMedia(t *testing.T) {
	app := NewTestApp()

	bob := app.token(t, "bob", "2")
	alice := app.token(t, "alice", "1")

	resp, err := app.JSON(app.api.f, "POST", "/api/posts", bob, fiber.Map{"text": "free this weekend"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// alice is private, her posts stay out of bob's feed
	resp, err = app.JSON(app.api.f, "POST", "/api/posts", alice, fiber.Map{"text": "private note"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Req(app.api.f, "GET", "/api/posts", bob, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	feed := decode[[]*model.PostDTO](t, resp)
	require.Len(t, feed, 1)
	assert.Equal(t, "bob", feed[0].Author)

	// alice sees her own post plus bob's
	resp, err = app.Req(app.api.f, "GET", "/api/posts", alice, nil)
	require.NoError(t, err)

	feed = decode[[]*model.PostDTO](t, resp)
	assert.Len(t, feed, 2)

	resp, err = app.JSON(app.api.f, "POST", "/api/posts", bob, fiber.Map{"media_hash": "bogus"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
