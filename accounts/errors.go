package accounts

import (
	"errors"
	"fmt"
	"time"

	"github.com/shoppingapp/usersapi/utils"
)

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountLocked          = errors.New("account locked")
	ErrUserInactive           = errors.New("user inactive")
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired reset token")
	ErrPasswordReused         = errors.New("password used recently")
	ErrEmailAlreadyExists     = errors.New("email already exists")
	ErrDuplicateResource      = errors.New("duplicate resource")
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailNotFound          = errors.New("email not found")
	ErrInvalidCurrentPassword = errors.New("invalid current password")
	ErrRoleNotAllowed         = errors.New("role not allowed")
	ErrInvalidToken           = utils.ErrInvalidToken
)

// AccountLockedError is returned while the lock window is open. It matches
// ErrAccountLocked with errors.Is.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
