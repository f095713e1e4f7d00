package courseportal

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func renderLogin(w http.ResponseWriter, v *LoginView) error {
	return renderPage(w, "login.html", v)
}

func renderRegister(w http.ResponseWriter, v *RegisterView) error {
	return renderPage(w, "register.html", v)
}

func renderDashboard(w http.ResponseWriter, v *DashboardView) error {
	return renderPage(w, "dashboard.html", v)
}

// renderPage executes into a buffer first so a template fault never
// leaves a half-written page behind.
func renderPage(w http.ResponseWriter, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
