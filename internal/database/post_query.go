package database

import (
	"gorm.io/gorm"

	"github.com/hangpal/hangpal/pkg/model"
)

type PostQuery struct {
	Query[model.Post]
	id      uint
	author  string
	authors []string
}

func NewPostQuery(db *gorm.DB) *PostQuery {
	return &PostQuery{
		Query: Query[model.Post]{
			db:     db,
			limit:  100,
			offset: 0,
			order:  "posts.created_at DESC",
		},
	}
}

func (q *PostQuery) Limit(n int) *PostQuery {
	q.limit = n
	return q
}

func (q *PostQuery) Offset(n int) *PostQuery {
	q.offset = n
	return q
}

func (q *PostQuery) Id(id uint) *PostQuery {
	q.id = id
	return q
}

func (q *PostQuery) Author(login string) *PostQuery {
	q.author = login
	return q
}

func (q *PostQuery) Authors(logins []string) *PostQuery {
	q.authors = logins
	return q
}

func (q *PostQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.author != "" {
		tx = tx.Where("author = ?", q.author)
	}

	if len(q.authors) > 0 {
		tx = tx.Where("author in ?", q.authors)
	}

	return tx
}

func (q *PostQuery) Get() []*model.Post {
	return q.get(q.where().Model(&model.Post{}))
}

func (q *PostQuery) One() *model.Post {
	return q.one(q.where().Model(&model.Post{}))
}

func (q *PostQuery) Delete() error {
	return q.where().Delete(&model.Post{}).Error
}
