package courseportal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rtandjobs/courseportal/catalog"
	"github.com/rtandjobs/courseportal/csrf"
	"github.com/rtandjobs/courseportal/form"
	"github.com/rtandjobs/courseportal/identity"
)

// gatewaySpy records every call so the tests can assert which gateway
// operations a flow did (and did not) reach.
type gatewaySpy struct {
	takenUsernames map[string]bool
	takenEmails    map[string]bool
	signInErr      error
	createErr      error

	existsCalls  int
	createCalls  int
	signInCalls  int
	roleCalls    int
	lastRemember bool
	lastOrder    []string
}

func (g *gatewaySpy) Exists(ctx context.Context, kind identity.Kind, value string) (bool, error) {
	g.existsCalls++
	if kind == identity.Email {
		return g.takenEmails[value], nil
	}
	return g.takenUsernames[value], nil
}

func (g *gatewaySpy) CreateAccount(ctx context.Context, username, password, email string) (identity.ID, error) {
	g.createCalls++
	g.lastOrder = append(g.lastOrder, "create")
	if g.createErr != nil {
		return "", g.createErr
	}
	return "id-1", nil
}

func (g *gatewaySpy) SignIn(ctx context.Context, identifier, password string, remember bool) (*identity.Session, error) {
	g.signInCalls++
	g.lastOrder = append(g.lastOrder, "signIn")
	g.lastRemember = remember
	if g.signInErr != nil {
		return nil, g.signInErr
	}
	return &identity.Session{UserID: "id-1", Name: identifier, Remember: remember}, nil
}

func (g *gatewaySpy) AssignDefaultRole(ctx context.Context, id identity.ID) error {
	g.roleCalls++
	g.lastOrder = append(g.lastOrder, "role")
	return nil
}

type courseStub struct {
	courses []catalog.Course
	err     error
}

func (c *courseStub) Fetch(ctx context.Context) ([]catalog.Course, error) {
	return c.courses, c.err
}

func newTestFlow(gw *gatewaySpy, courses CourseSource) (*Flow, *csrf.Authority) {
	tokens := csrf.NewAuthority([]byte("csrf-key"), time.Hour)
	if courses == nil {
		courses = &courseStub{}
	}
	return NewFlow(gw, tokens, courses, zap.NewNop()), tokens
}

func TestLoginRedirectsAuthenticatedCaller(t *testing.T) {
	gw := &gatewaySpy{}
	flow, tokens := newTestFlow(gw, nil)
	current := &identity.Session{UserID: "id-1"}

	out := flow.Login(context.Background(), current, &LoginSubmission{
		Username: "alice",
		Password: "Secret123",
		Token:    tokens.Mint("login_action"),
	})

	assert.Equal(t, DashboardPath, out.RedirectTo)
	assert.Zero(t, gw.existsCalls+gw.createCalls+gw.signInCalls+gw.roleCalls,
		"authenticated short-circuit must not reach the gateway")
}

func TestLoginRendersEmptyFormWithoutSubmission(t *testing.T) {
	flow, _ := newTestFlow(&gatewaySpy{}, nil)

	out := flow.Login(context.Background(), nil, nil)

	require.NotNil(t, out.Login)
	assert.Empty(t, out.RedirectTo)
	assert.Empty(t, out.Login.Error)
	assert.Empty(t, out.Login.FieldErrors)
	assert.NotEmpty(t, out.Login.CSRFToken)
}

func TestLoginRejectsBadToken(t *testing.T) {
	gw := &gatewaySpy{}
	flow, _ := newTestFlow(gw, nil)

	out := flow.Login(context.Background(), nil, &LoginSubmission{
		Username: "alice",
		Password: "Secret123",
		Token:    "forged",
	})

	require.NotNil(t, out.Login)
	assert.Equal(t, "Security verification failed. Please try again.", out.Login.Error)
	assert.Empty(t, out.Login.FieldErrors)
	assert.Zero(t, gw.signInCalls, "no gateway call on CSRF failure")
}

func TestLoginSuccessRedirectsToDashboard(t *testing.T) {
	gw := &gatewaySpy{}
	flow, tokens := newTestFlow(gw, nil)

	out := flow.Login(context.Background(), nil, &LoginSubmission{
		Username: "alice",
		Password: "Secret123",
		Token:    tokens.Mint("login_action"),
		Remember: true,
	})

	assert.Equal(t, DashboardPath, out.RedirectTo)
	require.NotNil(t, out.StartSession)
	assert.True(t, gw.lastRemember)
}

func TestLoginFailureShowsTopLevelReason(t *testing.T) {
	gw := &gatewaySpy{signInErr: identity.ErrInvalidCredentials}
	flow, tokens := newTestFlow(gw, nil)

	out := flow.Login(context.Background(), nil, &LoginSubmission{
		Username: "alice",
		Password: "wrongpass",
		Token:    tokens.Mint("login_action"),
	})

	require.NotNil(t, out.Login)
	assert.Equal(t, "Invalid username or password.", out.Login.Error)
	assert.Empty(t, out.Login.FieldErrors)
}

func TestLoginValidationErrorsSkipGateway(t *testing.T) {
	gw := &gatewaySpy{}
	flow, tokens := newTestFlow(gw, nil)

	out := flow.Login(context.Background(), nil, &LoginSubmission{
		Token: tokens.Mint("login_action"),
	})

	require.NotNil(t, out.Login)
	assert.Equal(t, form.MsgRequired, out.Login.FieldErrors["username"])
	assert.Equal(t, form.MsgRequired, out.Login.FieldErrors["password"])
	assert.Zero(t, gw.signInCalls)
}

func TestRegisterSurfacesCumulativeErrorsWithoutMutation(t *testing.T) {
	gw := &gatewaySpy{takenUsernames: map[string]bool{"alice": true}}
	flow, tokens := newTestFlow(gw, nil)

	out := flow.Register(context.Background(), nil, &RegisterSubmission{
		Username:        "alice",
		Email:           "fresh@example.com",
		Password:        "short",
		ConfirmPassword: "short",
		Token:           tokens.Mint("register_action"),
	})

	require.NotNil(t, out.Register)
	assert.Equal(t, map[string]string{
		"username": form.MsgUsernameTaken,
		"password": form.MsgPasswordTooShort,
	}, out.Register.FieldErrors)
	assert.Zero(t, gw.createCalls, "no mutation on validation failure")
	assert.Zero(t, gw.signInCalls)

	assert.Equal(t, "alice", out.Register.Username)
	assert.Equal(t, "fresh@example.com", out.Register.Email)
}

func TestRegisterSuccessCreatesAssignsRoleThenSignsIn(t *testing.T) {
	gw := &gatewaySpy{}
	flow, tokens := newTestFlow(gw, nil)

	out := flow.Register(context.Background(), nil, &RegisterSubmission{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
		Token:           tokens.Mint("register_action"),
	})

	assert.Equal(t, DashboardPath, out.RedirectTo)
	require.NotNil(t, out.StartSession)
	assert.Equal(t, []string{"create", "role", "signIn"}, gw.lastOrder)
	assert.False(t, gw.lastRemember, "auto sign-in after registration is never remembered")
}

func TestRegisterGatewayConflictIsTopLevel(t *testing.T) {
	gw := &gatewaySpy{createErr: identity.ErrExistingUsername}
	flow, tokens := newTestFlow(gw, nil)

	out := flow.Register(context.Background(), nil, &RegisterSubmission{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
		Token:           tokens.Mint("register_action"),
	})

	require.NotNil(t, out.Register)
	assert.Equal(t, form.MsgUsernameTaken, out.Register.Error)
	assert.Empty(t, out.Register.FieldErrors)
	assert.Zero(t, gw.signInCalls)
}

func TestRegisterRejectsBadToken(t *testing.T) {
	gw := &gatewaySpy{}
	flow, tokens := newTestFlow(gw, nil)

	// A login token must not pass the register guard.
	out := flow.Register(context.Background(), nil, &RegisterSubmission{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
		Token:           tokens.Mint("login_action"),
	})

	require.NotNil(t, out.Register)
	assert.Equal(t, "Security verification failed. Please try again.", out.Register.Error)
	assert.Zero(t, gw.existsCalls+gw.createCalls+gw.signInCalls)
}

func TestDashboardRedirectsAnonymousCaller(t *testing.T) {
	flow, _ := newTestFlow(&gatewaySpy{}, nil)

	out := flow.Dashboard(context.Background(), nil)

	assert.Equal(t, LoginPath, out.RedirectTo)
}

func TestDashboardNotices(t *testing.T) {
	tests := []struct {
		name        string
		source      *courseStub
		wantHeading string
		wantDetail  string
	}{
		{
			name:        "transport failure",
			source:      &courseStub{err: &catalog.FetchError{Err: errors.New("connection refused")}},
			wantHeading: "Error fetching courses",
			wantDetail:  "connection refused",
		},
		{
			name:        "malformed payload",
			source:      &courseStub{err: &catalog.ParseError{Err: errors.New("invalid character '<'")}},
			wantHeading: "Error parsing course data",
			wantDetail:  "The API returned invalid data. Please try again later.",
		},
		{
			name:        "empty catalog",
			source:      &courseStub{},
			wantHeading: "No courses available",
			wantDetail:  "There are currently no courses available. Please check back later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow, _ := newTestFlow(&gatewaySpy{}, tt.source)

			out := flow.Dashboard(context.Background(), &identity.Session{UserID: "id-1", Name: "alice"})

			require.NotNil(t, out.Dashboard)
			require.NotNil(t, out.Dashboard.Notice)
			assert.Equal(t, tt.wantHeading, out.Dashboard.Notice.Heading)
			assert.Equal(t, tt.wantDetail, out.Dashboard.Notice.Detail)
			assert.Empty(t, out.Dashboard.Courses)
		})
	}
}

func TestDashboardCards(t *testing.T) {
	source := &courseStub{courses: []catalog.Course{
		{Name: "Fire Safety", Description: "Stay safe at work", Duration: 45, RRP: 19.99},
		{Description: ""},
	}}
	flow, _ := newTestFlow(&gatewaySpy{}, source)

	out := flow.Dashboard(context.Background(), &identity.Session{UserID: "id-1", Name: "alice"})

	require.NotNil(t, out.Dashboard)
	assert.Nil(t, out.Dashboard.Notice)
	require.Len(t, out.Dashboard.Courses, 2)

	assert.Equal(t, CourseCard{
		Title:       "Fire Safety",
		Description: "Stay safe at work",
		Duration:    "45 minutes",
		Price:       "£19.99",
	}, out.Dashboard.Courses[0])

	assert.Equal(t, CourseCard{Title: "Untitled Course"}, out.Dashboard.Courses[1])
	assert.Equal(t, "alice", out.Dashboard.Name)
}

func TestTrimWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"one two three", "one two three"},
		{"a b c d e f g h i j k l m n o p q r s t extra words here", "a b c d e f g h i j k l m n o p q r s t..."},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, trimWords(tt.in, 20, "..."))
	}
}
