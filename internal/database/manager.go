package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/hangpal/hangpal/pkg/model"
)

type DatabaseManager struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB) *DatabaseManager {
	m := &DatabaseManager{
		db:     db,
		logger: slog.With("logger", "dbm"),
	}

	return m
}

func (mm *DatabaseManager) Create(s any) error {
	if mm == nil || mm.db == nil {
		return nil
	}

	err := mm.db.Create(s).Error

	if err != nil {
		mm.logger.Error("error create object", slog.Any("error", err))
	}

	return err
}

func (mm *DatabaseManager) Save(s any) error {
	if mm == nil || mm.db == nil {
		return nil
	}

	err := mm.db.Save(s).Error

	if err != nil {
		mm.logger.Error("error saving object", slog.Any("error", err))
	}

	return err
}

// Tx runs f with a manager bound to a transaction. Compound updates
// (invite + both parties' balance caches) must go through here.
func (mm *DatabaseManager) Tx(f func(tx *DatabaseManager) error) error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	return mm.db.Transaction(func(tx *gorm.DB) error {
		return f(&DatabaseManager{db: tx, logger: mm.logger})
	})
}

func (mm *DatabaseManager) UserQuery() *UserQuery {
	return NewUserQuery(mm.db)
}

func (mm *DatabaseManager) InviteQuery() *InviteQuery {
	return NewInviteQuery(mm.db)
}

func (mm *DatabaseManager) PostQuery() *PostQuery {
	return NewPostQuery(mm.db)
}

func (mm *DatabaseManager) MessageQuery() *MessageQuery {
	return NewMessageQuery(mm.db)
}

func (mm *DatabaseManager) Migrate() error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	if err := mm.db.AutoMigrate(
		&model.User{},
		&model.Invite{},
		&model.Post{},
		&model.ChatMessage{},
	); err != nil {
		return err
	}

	return nil
}

// AddPendingBalance changes a user's cached platform debt with an atomic
// in-database increment, never read-modify-write.
func (mm *DatabaseManager) AddPendingBalance(login string, deltaCents int64) error {
	return mm.UserQuery().Login(login).Update(map[string]any{
		"pending_balance_cents": gorm.Expr("pending_balance_cents + ?", deltaCents),
	})
}

func (mm *DatabaseManager) AddEarnings(login string, deltaCents int64) error {
	return mm.UserQuery().Login(login).Update(map[string]any{
		"total_earnings_cents": gorm.Expr("total_earnings_cents + ?", deltaCents),
	})
}

// SettleBalance reduces a user's cached platform debt by the settled amount,
// flooring at zero.
func (mm *DatabaseManager) SettleBalance(login string, amountCents int64) error {
	return mm.UserQuery().Login(login).Update(map[string]any{
		"pending_balance_cents": gorm.Expr("max(pending_balance_cents - ?, 0)", amountCents),
	})
}
