package models

import (
	"errors"
	"fmt"
)

// ErrNotFound общий предок ошибок отсутствия сущности.
var ErrNotFound = errors.New("not found")

var (
	ErrLotNotFound          = fmt.Errorf("lot %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrSubscriptionNotFound = fmt.Errorf("subscription %w", ErrNotFound)
	ErrReferralCodeTaken    = errors.New("referral code already taken")
	ErrAlreadySubscribed    = errors.New("subscription already active")
	ErrAlreadyReferred      = errors.New("referral code already applied")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrForbidden            = errors.New("access denied")
	ErrManagerHasLot        = errors.New("manager already bound to a lot")
	ErrPasswordRequired     = errors.New("password is required for managers")
	ErrUserExists           = errors.New("user already registered")
)

// StorageError сбой хранилища, который вызывающий код не может исправить.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError сообщает, что в цепочке ошибок есть StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
