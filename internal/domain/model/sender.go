package model

// Sender is the account that originated an inbound message.
// Handle is the public username without the leading "@" and may be empty.
type Sender struct {
	ID     int64
	Handle string
}

func (s Sender) HasHandle() bool { return s.Handle != "" }

// AuthorizationResult is derived fresh for every message and never cached.
type AuthorizationResult struct {
	Privileged bool
	Handle     string
}

// Role is the metrics/log label for the classification.
func (r AuthorizationResult) Role() string {
	if r.Privileged {
		return "privileged"
	}
	return "ordinary"
}
