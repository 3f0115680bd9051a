package model

// Destination is a resolved, live chat that can receive forwards.
type Destination struct {
	Identifier string `json:"identifier"`
	ChatID     int64  `json:"chat_id"`
	Title      string `json:"title,omitempty"`
}

// RecipientSet is the ordered list of configured forward targets.
// Duplicates are allowed.
type RecipientSet []string

// Resolution pairs a configured identifier with its destination or failure.
type Resolution struct {
	Identifier  string
	Destination Destination
	Err         error
}

func (r Resolution) OK() bool { return r.Err == nil }

// DeliveryOutcome is the result of one send or forward.
type DeliveryOutcome struct {
	Target string
	Err    error
}

func (o DeliveryOutcome) OK() bool { return o.Err == nil }

func (o DeliveryOutcome) Status() string {
	if o.OK() {
		return "success"
	}
	return "failed"
}

// RouteResult is the aggregate of one completed routing cycle.
type RouteResult struct {
	Authorization AuthorizationResult
	Reply         DeliveryOutcome
	Forwards      []DeliveryOutcome
}

// Delivered counts successful forwards.
func (r RouteResult) Delivered() int {
	n := 0
	for _, o := range r.Forwards {
		if o.OK() {
			n++
		}
	}
	return n
}
