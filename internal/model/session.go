package model

// Session is the per-browser client state shared by all pages.
// UserName is empty while the browser is not authenticated.
type Session struct {
	UserName            string `json:"userName"`
	SelectedBookingDate string `json:"selectedBookingDate"`
}

func (s Session) Authenticated() bool {
	return s.UserName != ""
}

// AuthState is the outcome of the auth gate for one protected page request.
type AuthState int

const (
	AuthPending AuthState = iota
	AuthAuthenticated
	AuthUnauthenticated
)

func (s AuthState) String() string {
	switch s {
	case AuthAuthenticated:
		return "authenticated"
	case AuthUnauthenticated:
		return "unauthenticated"
	default:
		return "pending"
	}
}
