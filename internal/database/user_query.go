package database

import (
	"gorm.io/gorm"

	"github.com/hangpal/hangpal/pkg/model"
)

type UserQuery struct {
	Query[model.User]
	login  string
	uid    string
	public bool
}

func NewUserQuery(db *gorm.DB) *UserQuery {
	return &UserQuery{
		Query: Query[model.User]{
			db:     db,
			limit:  100,
			offset: 0,
			order:  "login",
		},
	}
}

func (q *UserQuery) Order(s string) *UserQuery {
	q.order = s
	return q
}

func (q *UserQuery) Limit(n int) *UserQuery {
	q.limit = n
	return q
}

func (q *UserQuery) Offset(n int) *UserQuery {
	q.offset = n
	return q
}

func (q *UserQuery) Login(login string) *UserQuery {
	q.login = login
	return q
}

func (q *UserQuery) UID(uid string) *UserQuery {
	q.uid = uid
	return q
}

// Public limits the query to enabled public profiles (pal discovery).
func (q *UserQuery) Public() *UserQuery {
	q.public = true
	return q
}

func (q *UserQuery) where() *gorm.DB {
	tx := q.db

	if q.login != "" {
		tx = tx.Where("login = ?", q.login)
	}

	if q.uid != "" {
		tx = tx.Where("uid = ?", q.uid)
	}

	if q.public {
		tx = tx.Where("profile_type = ? and not disabled", model.ProfilePublic)
	}

	return tx
}

func (q *UserQuery) Get() []*model.User {
	return q.get(q.where().Model(&model.User{}))
}

func (q *UserQuery) One() *model.User {
	return q.one(q.where().Model(&model.User{}))
}

func (q *UserQuery) Count() int64 {
	return q.count(q.where().Model(&model.User{}))
}

func (q *UserQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.User{}), updates)
}

func (q *UserQuery) Delete(login string) error {
	return q.db.Where("login = ?", login).Delete(&model.User{}).Error
}
