// Package courseportal renders the three pages of the course portal and
// owns the credential-submission workflow behind the login and
// registration forms: CSRF check, field validation, the identity gateway
// calls and the decision of where the request ends up.
package courseportal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rtandjobs/courseportal/catalog"
	"github.com/rtandjobs/courseportal/csrf"
	"github.com/rtandjobs/courseportal/form"
	"github.com/rtandjobs/courseportal/identity"
)

// Redirect targets and token scopes.
const (
	DashboardPath = "/dashboard"
	LoginPath     = "/login"
	RegisterPath  = "/register"

	loginAction    = "login_action"
	registerAction = "register_action"
)

const (
	msgSecurityFailed = "Security verification failed. Please try again."
	msgGatewayFailed  = "Something went wrong. Please try again."

	msgNoCoursesHeading = "No courses available"
	msgNoCoursesDetail  = "There are currently no courses available. Please check back later."
	msgFetchHeading     = "Error fetching courses"
	msgParseHeading     = "Error parsing course data"
	msgParseDetail      = "The API returned invalid data. Please try again later."
)

// LoginSubmission is a login form POST after presence-checking its keys.
// Nil means the request was not a submission at all.
type LoginSubmission struct {
	Username string
	Password string
	Token    string
	Remember bool
}

// RegisterSubmission is a registration form POST.
type RegisterSubmission struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Token           string
}

// Outcome is what one request resolves to. A non-empty RedirectTo wins
// and nothing is rendered; otherwise exactly one view is set. StartSession
// asks the HTTP layer to issue the session cookie before finishing.
type Outcome struct {
	RedirectTo   string
	StartSession *identity.Session
	Login        *LoginView
	Register     *RegisterView
	Dashboard    *DashboardView
}

func redirect(path string) Outcome {
	return Outcome{RedirectTo: path}
}

// CourseSource is the slice of the catalog client the dashboard needs.
type CourseSource interface {
	Fetch(ctx context.Context) ([]catalog.Course, error)
}

// Flow is the per-request orchestrator for all three pages. It holds no
// request state; every method takes the caller's session explicitly.
type Flow struct {
	gateway identity.Gateway
	tokens  *csrf.Authority
	courses CourseSource
	log     *zap.Logger
}

func NewFlow(gateway identity.Gateway, tokens *csrf.Authority, courses CourseSource, log *zap.Logger) *Flow {
	return &Flow{gateway: gateway, tokens: tokens, courses: courses, log: log}
}

// Login resolves one request against the login page. Authenticated
// callers are bounced to the dashboard before anything else; a nil
// submission renders the empty form.
func (f *Flow) Login(ctx context.Context, current *identity.Session, sub *LoginSubmission) Outcome {
	if current != nil {
		return redirect(DashboardPath)
	}

	view := &LoginView{
		Title:       "Login to Your Account",
		CSRFToken:   f.tokens.Mint(loginAction),
		FieldErrors: map[string]string{},
	}

	if sub == nil {
		return Outcome{Login: view}
	}

	if !f.tokens.Verify(loginAction, sub.Token) {
		f.log.Warn("login token verification failed")
		view.Error = msgSecurityFailed
		return Outcome{Login: view}
	}

	res := form.ValidateLogin(sub.Username, sub.Password)
	if !res.OK() {
		view.FieldErrors = res.Errors
		return Outcome{Login: view}
	}

	sess, err := f.gateway.SignIn(ctx, res.Normalized[form.FieldUsername], res.Normalized[form.FieldPassword], sub.Remember)
	if err != nil {
		f.log.Warn("sign-in rejected", zap.Error(err))
		view.Error = reasonText(err)
		return Outcome{Login: view}
	}

	f.log.Info("session issued", zap.String("user_id", string(sess.UserID)))
	return Outcome{RedirectTo: DashboardPath, StartSession: sess}
}

// Register resolves one request against the registration page. On a valid
// submission the account is created, given the default role and signed in
// before redirecting.
func (f *Flow) Register(ctx context.Context, current *identity.Session, sub *RegisterSubmission) Outcome {
	if current != nil {
		return redirect(DashboardPath)
	}

	view := &RegisterView{
		Title:       "Create an Account",
		CSRFToken:   f.tokens.Mint(registerAction),
		FieldErrors: map[string]string{},
	}

	if sub == nil {
		return Outcome{Register: view}
	}

	if !f.tokens.Verify(registerAction, sub.Token) {
		f.log.Warn("register token verification failed")
		view.Error = msgSecurityFailed
		return Outcome{Register: view}
	}

	res := form.ValidateRegister(ctx, f.existence(), sub.Username, sub.Email, sub.Password, sub.ConfirmPassword)
	if !res.OK() {
		view.FieldErrors = res.Errors
		view.Username = echoValue(res, form.FieldUsername, sub.Username)
		view.Email = echoValue(res, form.FieldEmail, sub.Email)
		return Outcome{Register: view}
	}

	username := res.Normalized[form.FieldUsername]
	id, err := f.gateway.CreateAccount(ctx, username, res.Normalized[form.FieldPassword], res.Normalized[form.FieldEmail])
	if err != nil {
		f.log.Warn("account creation rejected", zap.Error(err))
		view.Error = reasonText(err)
		view.Username = sub.Username
		view.Email = sub.Email
		return Outcome{Register: view}
	}

	if err := f.gateway.AssignDefaultRole(ctx, id); err != nil {
		// The account exists and can sign in; the role can be fixed up
		// out of band.
		f.log.Error("default role assignment failed", zap.String("user_id", string(id)), zap.Error(err))
	}

	sess, err := f.gateway.SignIn(ctx, username, res.Normalized[form.FieldPassword], false)
	if err != nil {
		f.log.Error("auto sign-in after registration failed", zap.String("user_id", string(id)), zap.Error(err))
		view.Error = reasonText(err)
		return Outcome{Register: view}
	}

	f.log.Info("account created", zap.String("user_id", string(id)), zap.String("username", username))
	return Outcome{RedirectTo: DashboardPath, StartSession: sess}
}

// Dashboard renders the course grid for an authenticated caller, or
// bounces anonymous ones to the login page. Catalog trouble never fails
// the page; each failure mode becomes its own inline notice.
func (f *Flow) Dashboard(ctx context.Context, current *identity.Session) Outcome {
	if current == nil {
		return redirect(LoginPath)
	}

	view := &DashboardView{Title: "Course Dashboard", Name: current.Name}

	courses, err := f.courses.Fetch(ctx)
	switch err := err.(type) {
	case nil:
	case *catalog.ParseError:
		f.log.Error("course catalog returned invalid data", zap.Error(err))
		view.Notice = &Notice{Heading: msgParseHeading, Detail: msgParseDetail}
		return Outcome{Dashboard: view}
	default:
		f.log.Error("course catalog fetch failed", zap.Error(err))
		view.Notice = &Notice{Heading: msgFetchHeading, Detail: err.Error()}
		return Outcome{Dashboard: view}
	}

	if len(courses) == 0 {
		view.Notice = &Notice{Heading: msgNoCoursesHeading, Detail: msgNoCoursesDetail}
		return Outcome{Dashboard: view}
	}

	for _, c := range courses {
		view.Courses = append(view.Courses, courseCard(c))
	}
	return Outcome{Dashboard: view}
}

func courseCard(c catalog.Course) CourseCard {
	card := CourseCard{Title: c.Name}
	if card.Title == "" {
		card.Title = "Untitled Course"
	}
	if c.Description != "" {
		card.Description = trimWords(c.Description, descriptionWordLimit, "...")
	}
	if c.Duration > 0 {
		card.Duration = fmt.Sprintf("%d minutes", c.Duration)
	}
	if c.RRP > 0 {
		card.Price = fmt.Sprintf("£%.2f", c.RRP)
	}
	return card
}

// existence adapts the gateway for the validator: lookup failures count
// as "not taken" here, with creation's own uniqueness check as the
// backstop.
func (f *Flow) existence() form.Existence {
	return existenceFunc(func(ctx context.Context, kind identity.Kind, value string) bool {
		exists, err := f.gateway.Exists(ctx, kind, value)
		if err != nil {
			f.log.Error("existence query failed", zap.Int("kind", int(kind)), zap.Error(err))
			return false
		}
		return exists
	})
}

type existenceFunc func(ctx context.Context, kind identity.Kind, value string) bool

func (fn existenceFunc) Exists(ctx context.Context, kind identity.Kind, value string) bool {
	return fn(ctx, kind, value)
}

// echoValue prefers the normalized value and falls back to what was
// submitted, so the register form re-fills even for fields that failed.
func echoValue(res form.Result, field, raw string) string {
	if v, ok := res.Normalized[field]; ok {
		return v
	}
	return raw
}

// reasonText maps gateway errors to the top-level message shown on the
// form.
func reasonText(err error) string {
	switch err {
	case identity.ErrInvalidCredentials:
		return "Invalid username or password."
	case identity.ErrExistingUsername:
		return form.MsgUsernameTaken
	case identity.ErrExistingEmail:
		return form.MsgEmailRegistered
	case identity.ErrInvalidUsername:
		return "Please enter a valid username."
	case identity.ErrInvalidEmail:
		return form.MsgEmailInvalid
	case identity.ErrInvalidPassword:
		return form.MsgPasswordTooShort
	default:
		return msgGatewayFailed
	}
}
