package identity

import (
	"context"
	"fmt"
	"time"
)

// Gateway is the only door the pages go through to touch identity state:
// existence checks during validation, account creation, credential
// verification and session issuance.
type Gateway interface {
	Exists(ctx context.Context, kind Kind, value string) (bool, error)
	CreateAccount(ctx context.Context, username, password, email string) (ID, error)
	SignIn(ctx context.Context, identifier, password string, remember bool) (*Session, error)
	AssignDefaultRole(ctx context.Context, id ID) error
}

type Repository interface {
	FindByID(ctx context.Context, id ID) (*Account, error)
	FindByName(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Store(ctx context.Context, acc *Account) error
	Update(ctx context.Context, acc *Account) error
}

type service struct {
	accounts Repository
}

func NewService(accounts Repository) Gateway {
	return &service{accounts: accounts}
}

func (svc *service) Exists(ctx context.Context, kind Kind, value string) (bool, error) {
	var err error
	switch kind {
	case Email:
		_, err = svc.accounts.FindByEmail(ctx, value)
	default:
		_, err = svc.accounts.FindByName(ctx, value)
	}

	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (svc *service) CreateAccount(ctx context.Context, username, password, email string) (ID, error) {
	acc, err := NewAccount(username, email)
	if err != nil {
		return "", err
	}

	if len(password) < 8 {
		return "", ErrInvalidPassword
	}

	if err := svc.verifyNotInUse(ctx, username, email); err != nil {
		return "", err
	}

	// Hashing must succeed before anything is stored; bcrypt rejects
	// over-long passwords and a half-created account would be unusable.
	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}

	acc.ID = NewID()
	acc.Password = hash

	acc.CreatedAt = time.Now().UTC()
	if err = svc.accounts.Store(ctx, acc); err != nil {
		return "", fmt.Errorf("error saving account: %w", err)
	}

	return acc.ID, nil
}

// SignIn resolves the identifier as a username first and falls back to
// email, so the login form can accept either.
func (svc *service) SignIn(ctx context.Context, identifier, password string, remember bool) (*Session, error) {
	acc, err := svc.accounts.FindByName(ctx, identifier)
	if err == ErrNotFound {
		acc, err = svc.accounts.FindByEmail(ctx, identifier)
	}
	if err == ErrNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !hashMatchesPassword(acc.Password, password) {
		return nil, ErrInvalidCredentials
	}

	return newSession(acc, remember), nil
}

func (svc *service) AssignDefaultRole(ctx context.Context, id ID) error {
	acc, err := svc.accounts.FindByID(ctx, id)
	if err != nil {
		return err
	}

	acc.Role = DefaultRole
	return svc.accounts.Update(ctx, acc)
}

func (svc *service) verifyNotInUse(ctx context.Context, username string, email string) error {
	if u, err := svc.accounts.FindByName(ctx, username); u != nil && err == nil {
		return ErrExistingUsername
	}

	if u, err := svc.accounts.FindByEmail(ctx, email); u != nil && err == nil {
		return ErrExistingEmail
	}

	return nil
}
