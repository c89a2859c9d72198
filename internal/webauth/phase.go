package webauth

// Phase is a state of the embedded-browser login flow.
type Phase int

const (
	// Idle: the flow has not started.
	Idle Phase = iota
	// AwaitingExternalAuth: the login page is loading or the user is
	// authenticating, possibly with a third-party identity provider.
	AwaitingExternalAuth
	// Harvesting: completion was detected and the cookie harvest script was
	// injected; waiting for its message.
	Harvesting
	// Verifying: the harvested cookie was stored; the profile is being fetched.
	Verifying
	// Done: the session is verified and handed to the auth controller.
	Done
	// Cancelled: the user left the flow before it completed.
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case AwaitingExternalAuth:
		return "awaiting_external_auth"
	case Harvesting:
		return "harvesting"
	case Verifying:
		return "verifying"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Authenticating reports whether the "authenticating" indicator should show.
func (p Phase) Authenticating() bool {
	return p == Harvesting || p == Verifying
}
