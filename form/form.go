// Package form holds the per-field validation rules for the login and
// registration forms. Validation is pure apart from the two existence
// queries, which go through the Existence interface so tests can run
// without a store.
package form

import (
	"context"
	"regexp"
	"strings"

	"github.com/rtandjobs/courseportal/identity"
)

// Form field names as they appear on the wire.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

// User-facing messages. The register ones are load-bearing: templates and
// tests key off the exact strings.
const (
	MsgRequired         = "This field is required."
	MsgUsernameTaken    = "This username is already taken."
	MsgEmailInvalid     = "Please enter a valid email address."
	MsgEmailRegistered  = "This email is already registered."
	MsgPasswordTooShort = "Password must be at least 8 characters long."
	MsgPasswordMismatch = "Passwords do not match."
)

const minPasswordLength = 8

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// Existence answers whether a username or email is already registered.
// Implementations decide how to treat lookup failures; the validator only
// sees the final bool.
type Existence interface {
	Exists(ctx context.Context, kind identity.Kind, value string) bool
}

// Result is the outcome of validating one submission. Normalized carries
// the cleaned value of every field that passed its rules; Errors maps each
// failing field to its message. Empty Errors means the submission may
// proceed to the identity gateway.
type Result struct {
	Normalized map[string]string
	Errors     map[string]string
}

func (r Result) OK() bool {
	return len(r.Errors) == 0
}

func newResult() Result {
	return Result{Normalized: map[string]string{}, Errors: map[string]string{}}
}

// ValidateLogin applies the login rules: both fields required, nothing
// more. The username is trimmed; the password is opaque and passed
// through untouched, spaces and all.
func ValidateLogin(username, password string) Result {
	res := newResult()

	u := strings.TrimSpace(username)
	if u == "" {
		res.Errors[FieldUsername] = MsgRequired
	} else {
		res.Normalized[FieldUsername] = u
	}

	if password == "" {
		res.Errors[FieldPassword] = MsgRequired
	} else {
		res.Normalized[FieldPassword] = password
	}

	return res
}

// ValidateRegister applies the registration rules. Every field is checked
// regardless of earlier failures so the user sees all problems at once,
// with two deliberate exceptions: the email existence query is skipped
// when the syntax check fails, and the confirm-password comparison is
// skipped when the password is too short.
func ValidateRegister(ctx context.Context, existing Existence, username, email, password, confirm string) Result {
	res := newResult()

	u := strings.TrimSpace(username)
	if u == "" {
		res.Errors[FieldUsername] = MsgRequired
	} else if existing.Exists(ctx, identity.Username, u) {
		res.Errors[FieldUsername] = MsgUsernameTaken
	} else {
		res.Normalized[FieldUsername] = u
	}

	e := strings.TrimSpace(email)
	if e == "" {
		res.Errors[FieldEmail] = MsgRequired
	} else if !emailRegexp.MatchString(e) {
		res.Errors[FieldEmail] = MsgEmailInvalid
	} else if existing.Exists(ctx, identity.Email, e) {
		res.Errors[FieldEmail] = MsgEmailRegistered
	} else {
		res.Normalized[FieldEmail] = e
	}

	if password == "" {
		res.Errors[FieldPassword] = MsgRequired
	} else if len(password) < minPasswordLength {
		res.Errors[FieldPassword] = MsgPasswordTooShort
	} else if password != confirm {
		res.Normalized[FieldPassword] = password
		res.Errors[FieldConfirmPassword] = MsgPasswordMismatch
	} else {
		res.Normalized[FieldPassword] = password
		res.Normalized[FieldConfirmPassword] = confirm
	}

	return res
}
