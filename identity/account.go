package identity

import (
	"errors"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rs/xid"
)

// Account is a user record as stored by the platform. Password always
// holds a bcrypt hash, never the cleartext.
type Account struct {
	ID        ID
	Username  string
	Email     string
	Password  string
	Role      string
	CreatedAt time.Time
}

type ID string

// Kind selects which unique identity attribute an existence query runs
// against.
type Kind int

const (
	Username Kind = iota
	Email
)

// DefaultRole is assigned to every account right after creation.
const DefaultRole = "subscriber"

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrExistingUsername   = errors.New("username in use")
	ErrExistingEmail      = errors.New("email in use")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

var usernameRegexp = regexp.MustCompile(`^\w{1,24}$`)

//NewAccount validates username and email and returns a new Account if
// arguments are valid
func NewAccount(username string, email string) (*Account, error) {
	if !usernameRegexp.MatchString(username) {
		return nil, ErrInvalidUsername
	}

	r := regexp.MustCompile(`^\S+@\S+\.\S+$`)
	if !r.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	return &Account{Username: username, Email: email}, nil
}

func NewID() ID {
	return ID(xid.New().String())
}

func isValidID(id string) bool {
	if _, err := xid.FromString(id); err != nil {
		return false
	}
	return true
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", errors.New("error hashing password")
	}
	return string(hash), nil
}

func hashMatchesPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
