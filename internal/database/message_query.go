package database

import (
	"gorm.io/gorm"

	"github.com/hangpal/hangpal/pkg/model"
)

type MessageQuery struct {
	Query[model.ChatMessage]
	inviteID uint
}

func NewMessageQuery(db *gorm.DB) *MessageQuery {
	return &MessageQuery{
		Query: Query[model.ChatMessage]{
			db:     db,
			limit:  200,
			offset: 0,
			order:  "chat_messages.created_at",
		},
	}
}

func (q *MessageQuery) Limit(n int) *MessageQuery {
	q.limit = n
	return q
}

func (q *MessageQuery) Invite(id uint) *MessageQuery {
	q.inviteID = id
	return q
}

func (q *MessageQuery) where() *gorm.DB {
	tx := q.db

	if q.inviteID != 0 {
		tx = tx.Where("invite_id = ?", q.inviteID)
	}

	return tx
}

func (q *MessageQuery) Get() []*model.ChatMessage {
	return q.get(q.where().Model(&model.ChatMessage{}))
}

func (q *MessageQuery) Delete() error {
	return q.where().Delete(&model.ChatMessage{}).Error
}
