package model

import (
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 14

const (
	ProfilePublic  = "public"
	ProfilePrivate = "private"
)

type User struct {
	Login       string `gorm:"primaryKey" yaml:"user"`
	UID         string `gorm:"index;not null;default:''" yaml:"uid,omitempty"`
	Name        string `gorm:"not null;default:''" yaml:"name,omitempty"`
	Bio         string `gorm:"not null;default:''" yaml:"bio,omitempty"`
	City        string `gorm:"not null;default:''" yaml:"city,omitempty"`
	AvatarHash  string `gorm:"not null;default:''" yaml:"-"`
	Password    string `gorm:"not null" yaml:"password"`
	ProfileType string `gorm:"not null;default:'private'" yaml:"profile_type,omitempty"`
	Disabled    bool   `gorm:"not null;default:false" yaml:"disabled,omitempty"`
	Admin       bool   `gorm:"not null;default:false" yaml:"admin,omitempty"`

	// denormalized caches, cents. Authoritative values are always derived
	// from the invite history (see internal/ledger).
	PendingBalanceCents int64 `gorm:"not null;default:0" yaml:"-"`
	TotalEarningsCents  int64 `gorm:"not null;default:0" yaml:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
	LastSign  *time.Time
}

type UserDTO struct {
	Login               string     `json:"login"`
	UID                 string     `json:"uid,omitempty"`
	Name                string     `json:"name,omitempty"`
	Bio                 string     `json:"bio,omitempty"`
	City                string     `json:"city,omitempty"`
	AvatarHash          string     `json:"avatar_hash,omitempty"`
	ProfileType         string     `json:"profile_type"`
	Disabled            bool       `json:"disabled"`
	Admin               bool       `json:"admin,omitempty"`
	PendingBalanceCents int64      `json:"pending_balance_cents"`
	TotalEarningsCents  int64      `json:"total_earnings_cents"`
	LastSign            *time.Time `json:"last_sign,omitempty"`
}

// PalDTO is the public card shown in pal discovery. No money fields.
type PalDTO struct {
	Login      string `json:"login"`
	Name       string `json:"name,omitempty"`
	Bio        string `json:"bio,omitempty"`
	City       string `json:"city,omitempty"`
	AvatarHash string `json:"avatar_hash,omitempty"`
}

type UserPutDTO struct {
	Name        string `json:"name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	City        string `json:"city,omitempty"`
	Password    string `json:"password,omitempty"`
	ProfileType string `json:"profile_type,omitempty"`
}

type UserPostDTO struct {
	Login string `json:"login"`
	UserPutDTO
}

func (u *User) GetLogin() string {
	if u == nil {
		return ""
	}

	return u.Login
}

func (u *User) IsPublic() bool {
	return u != nil && u.ProfileType == ProfilePublic
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Admin
}

func (u *User) CheckPassword(password string) bool {
	if u == nil {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	if err != nil {
		slog.Debug("password check failed", slog.Any("error", err))
		return false
	}

	return true
}

func (u *User) SetPassword(password string) error {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	u.Password = string(b)

	return nil
}

func (u *User) DTO() *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		Login:               u.Login,
		UID:                 u.UID,
		Name:                u.Name,
		Bio:                 u.Bio,
		City:                u.City,
		AvatarHash:          u.AvatarHash,
		ProfileType:         u.ProfileType,
		Disabled:            u.Disabled,
		Admin:               u.Admin,
		PendingBalanceCents: u.PendingBalanceCents,
		TotalEarningsCents:  u.TotalEarningsCents,
		LastSign:            u.LastSign,
	}
}

func (u *User) Pal() *PalDTO {
	if u == nil {
		return nil
	}

	return &PalDTO{
		Login:      u.Login,
		Name:       u.Name,
		Bio:        u.Bio,
		City:       u.City,
		AvatarHash: u.AvatarHash,
	}
}
