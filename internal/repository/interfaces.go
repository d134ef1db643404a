package repository

import (
	"github.com/hangpal/hangpal/internal/callbacks"
	"github.com/hangpal/hangpal/pkg/model"
)

type AccountRepository interface {
	Start() error
	Stop()
	CheckAuth(login, password string) bool
	IsValid(login string) bool
	Get(login string) *model.User
	Invalidate(login string)
	SaveSignInfo(login string)
	ChangeCallback() *callbacks.Callback[string]
}
