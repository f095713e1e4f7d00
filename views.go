package courseportal

import "strings"

// View models for the three pages. Error is the single top-level message
// slot; FieldErrors hang off individual inputs.

type LoginView struct {
	Title       string
	Error       string
	CSRFToken   string
	FieldErrors map[string]string
}

type RegisterView struct {
	Title       string
	Error       string
	CSRFToken   string
	Username    string
	Email       string
	FieldErrors map[string]string
}

type DashboardView struct {
	Title   string
	Name    string
	Notice  *Notice
	Courses []CourseCard
}

// Notice is an inline dashboard message that replaces the course grid:
// fetch failure, parse failure or an empty catalog.
type Notice struct {
	Heading string
	Detail  string
}

// CourseCard is one course prepared for display. Optional fields are
// empty strings when the record did not carry them.
type CourseCard struct {
	Title       string
	Description string
	Duration    string
	Price       string
}

const descriptionWordLimit = 20

// trimWords cuts s down to at most limit words, appending the marker when
// anything was dropped.
func trimWords(s string, limit int, marker string) string {
	words := strings.Fields(s)
	if len(words) <= limit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:limit], " ") + marker
}
