package session

// Access is the answer a guarded view acts on.
type Access int

const (
	// AccessUnknown means hydration has not completed. Render a neutral
	// state and do not redirect.
	AccessUnknown Access = iota
	// AccessAuthenticated means protected content may render.
	AccessAuthenticated
	// AccessUnauthenticated means the caller should send the user to login.
	AccessUnauthenticated
)

func (a Access) String() string {
	switch a {
	case AccessAuthenticated:
		return "authenticated"
	case AccessUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}
