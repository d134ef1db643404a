package database

import (
	"gorm.io/gorm"

	"github.com/hangpal/hangpal/pkg/model"
)

type InviteQuery struct {
	Query[model.Invite]
	id       uint
	uid      string
	from     string
	to       string
	party    string
	status   string
	statuses []string
}

func NewInviteQuery(db *gorm.DB) *InviteQuery {
	return &InviteQuery{
		Query: Query[model.Invite]{
			db:     db,
			limit:  0,
			offset: 0,
			order:  "invites.created_at DESC",
		},
	}
}

func (q *InviteQuery) Order(s string) *InviteQuery {
	q.order = s
	return q
}

func (q *InviteQuery) Limit(n int) *InviteQuery {
	q.limit = n
	return q
}

func (q *InviteQuery) Offset(n int) *InviteQuery {
	q.offset = n
	return q
}

func (q *InviteQuery) Id(id uint) *InviteQuery {
	q.id = id
	return q
}

func (q *InviteQuery) UID(uid string) *InviteQuery {
	q.uid = uid
	return q
}

func (q *InviteQuery) From(login string) *InviteQuery {
	q.from = login
	return q
}

func (q *InviteQuery) To(login string) *InviteQuery {
	q.to = login
	return q
}

// Party matches invites where login is sender or recipient.
func (q *InviteQuery) Party(login string) *InviteQuery {
	q.party = login
	return q
}

func (q *InviteQuery) Status(s string) *InviteQuery {
	q.status = s
	return q
}

func (q *InviteQuery) Statuses(s ...string) *InviteQuery {
	q.statuses = s
	return q
}

func (q *InviteQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.uid != "" {
		tx = tx.Where("uid = ?", q.uid)
	}

	if q.from != "" {
		tx = tx.Where("from_user = ?", q.from)
	}

	if q.to != "" {
		tx = tx.Where("to_user = ?", q.to)
	}

	if q.party != "" {
		tx = tx.Where("from_user = ? or to_user = ?", q.party, q.party)
	}

	if q.status != "" {
		tx = tx.Where("status = ?", q.status)
	}

	if len(q.statuses) > 0 {
		tx = tx.Where("status in ?", q.statuses)
	}

	return tx
}

func (q *InviteQuery) Get() []*model.Invite {
	res := q.get(q.where().Model(&model.Invite{}))

	for _, inv := range res {
		inv.Normalize()
	}

	return res
}

func (q *InviteQuery) One() *model.Invite {
	return q.one(q.where().Model(&model.Invite{})).Normalize()
}

func (q *InviteQuery) Count() int64 {
	return q.count(q.where().Model(&model.Invite{}))
}

func (q *InviteQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Invite{}), updates)
}

// UpdateRows is Update without the not-found error, returning the number of
// touched rows. Status-guarded transitions use it to detect lost races.
func (q *InviteQuery) UpdateRows(updates map[string]any) (int64, error) {
	return q.update(q.where().Model(&model.Invite{}), updates)
}
