package model

import "time"

type Post struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	Author    string `gorm:"index;not null"`
	Text      string `gorm:"not null;default:''"`
	MediaHash string `gorm:"not null;default:''"`
}

type PostDTO struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author"`
	Text      string    `json:"text,omitempty"`
	MediaHash string    `json:"media_hash,omitempty"`
}

func (p *Post) DTO() *PostDTO {
	if p == nil {
		return nil
	}

	return &PostDTO{
		ID:        p.ID,
		CreatedAt: p.CreatedAt,
		Author:    p.Author,
		Text:      p.Text,
		MediaHash: p.MediaHash,
	}
}
