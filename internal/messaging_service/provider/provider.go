package provider

import "context"

// StatusCallbackEvents is the event subscription requested on every send.
var StatusCallbackEvents = []string{"initiated", "sent", "delivered", "undelivered", "failed", "read"}

// SendRequest is one outbound message for the carrier. AccountSID and
// AuthToken are the credentials resolved for the sending number.
type SendRequest struct {
	AccountSID     string
	AuthToken      string
	From           string
	To             string
	Body           string
	StatusCallback string
	// InternalMessageID is only used for log correlation.
	InternalMessageID string
}

// SendResponse is the carrier's acceptance of a message.
type SendResponse struct {
	TrackingID string
	Status     string
}

// Sender delivers messages to a carrier. Rejections and transport failures
// are returned as *domain.ProviderError.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (*SendResponse, error)
	GetName() string
}
