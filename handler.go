package courseportal

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/rtandjobs/courseportal/identity"
)

// Form keys that mark a POST as a real submission. A POST without the
// marker renders the empty form, same as a GET.
const (
	loginSubmitField    = "login_submit"
	registerSubmitField = "register_submit"

	loginNonceField    = "login_nonce"
	registerNonceField = "register_nonce"
)

// NewRouter wires the page handlers onto the three routes.
func NewRouter(flow *Flow, sessions *identity.Sessions, log *zap.Logger) http.Handler {
	router := httprouter.New()

	router.Handler(http.MethodGet, LoginPath, LoginHandler(flow, sessions, log))
	router.Handler(http.MethodPost, LoginPath, LoginHandler(flow, sessions, log))
	router.Handler(http.MethodGet, RegisterPath, RegisterHandler(flow, sessions, log))
	router.Handler(http.MethodPost, RegisterPath, RegisterHandler(flow, sessions, log))
	router.Handler(http.MethodGet, DashboardPath, DashboardHandler(flow, sessions, log))
	router.Handler(http.MethodGet, "/", http.RedirectHandler(DashboardPath, http.StatusFound))

	return router
}

func LoginHandler(flow *Flow, sessions *identity.Sessions, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sub *LoginSubmission
		if r.Method == http.MethodPost && r.PostFormValue(loginSubmitField) != "" {
			sub = &LoginSubmission{
				Username: r.PostFormValue("username"),
				Password: r.PostFormValue("password"),
				Token:    r.PostFormValue(loginNonceField),
				Remember: r.PostFormValue("remember") != "",
			}
		}

		out := flow.Login(r.Context(), sessions.Current(r), sub)
		deliver(w, r, sessions, log, out)
	})
}

func RegisterHandler(flow *Flow, sessions *identity.Sessions, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sub *RegisterSubmission
		if r.Method == http.MethodPost && r.PostFormValue(registerSubmitField) != "" {
			sub = &RegisterSubmission{
				Username:        r.PostFormValue("username"),
				Email:           r.PostFormValue("email"),
				Password:        r.PostFormValue("password"),
				ConfirmPassword: r.PostFormValue("confirm_password"),
				Token:           r.PostFormValue(registerNonceField),
			}
		}

		out := flow.Register(r.Context(), sessions.Current(r), sub)
		deliver(w, r, sessions, log, out)
	})
}

func DashboardHandler(flow *Flow, sessions *identity.Sessions, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := flow.Dashboard(r.Context(), sessions.Current(r))
		deliver(w, r, sessions, log, out)
	})
}

// deliver carries out an Outcome: issue the session cookie if one was
// started, then either redirect and stop, or render the single view the
// outcome holds. Redirects always win; no body is written alongside one.
func deliver(w http.ResponseWriter, r *http.Request, sessions *identity.Sessions, log *zap.Logger, out Outcome) {
	if out.StartSession != nil {
		if err := sessions.Issue(w, out.StartSession); err != nil {
			log.Error("issuing session cookie failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	if out.RedirectTo != "" {
		code := http.StatusFound
		if r.Method == http.MethodPost {
			code = http.StatusSeeOther
		}
		http.Redirect(w, r, out.RedirectTo, code)
		return
	}

	var err error
	switch {
	case out.Login != nil:
		err = renderLogin(w, out.Login)
	case out.Register != nil:
		err = renderRegister(w, out.Register)
	case out.Dashboard != nil:
		err = renderDashboard(w, out.Dashboard)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Error("rendering page failed", zap.Error(err))
	}
}
