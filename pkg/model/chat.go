package model

import "time"

type ChatMessage struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	InviteID  uint   `gorm:"index;not null"`
	From      string `gorm:"not null"`
	Text      string `gorm:"not null"`
}

type ChatMessageDTO struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	InviteUID string    `json:"invite_uid,omitempty"`
	From      string    `json:"from"`
	Text      string    `json:"text"`
}

func (m *ChatMessage) DTO(inviteUID string) *ChatMessageDTO {
	if m == nil {
		return nil
	}

	return &ChatMessageDTO{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		InviteUID: inviteUID,
		From:      m.From,
		Text:      m.Text,
	}
}
