package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// PhoneNumber is an outbound number configuration: a provisioned sending
// identity with carrier credentials and routing flags. The core only reads it.
type PhoneNumber struct {
	ID                  uuid.UUID `json:"id"`
	Number              string    `json:"number"`
	Channel             Channel   `json:"channel"`
	AccountSID          string    `json:"-"`
	AuthToken           string    `json:"-"`
	IsActive            bool      `json:"is_active"`
	IsPrimary           bool      `json:"is_primary"`
	DisplayName         string    `json:"display_name"`
	CallbackURL         string    `json:"callback_url,omitempty"`
	AutoResponseEnabled bool      `json:"auto_response_enabled"`
	AutoResponseText    string    `json:"auto_response_text,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// HasCredentials reports whether the number carries its own carrier account.
func (p *PhoneNumber) HasCredentials() bool {
	return p.AccountSID != "" && p.AuthToken != ""
}

// ChannelOrDefault is the number's channel, sms when unset.
func (p *PhoneNumber) ChannelOrDefault() Channel {
	if p == nil || p.Channel == "" {
		return ChannelSMS
	}
	return p.Channel
}

// WantsAutoResponse reports whether inbound messages to this number should be
// answered automatically. Replies go out from the same number, so it must be
// active.
func (p *PhoneNumber) WantsAutoResponse() bool {
	return p != nil && p.IsActive && p.AutoResponseEnabled && p.AutoResponseText != ""
}

// SelectDefaultNumber picks the default sending number: active numbers ordered
// by primary flag first, then oldest creation time. Ties on both keep input
// order. Returns ErrNoActiveNumbers when nothing is active.
func SelectDefaultNumber(numbers []*PhoneNumber) (*PhoneNumber, error) {
	active := make([]*PhoneNumber, 0, len(numbers))
	for _, n := range numbers {
		if n != nil && n.IsActive {
			active = append(active, n)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoActiveNumbers
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].IsPrimary != active[j].IsPrimary {
			return active[i].IsPrimary
		}
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active[0], nil
}

// FindByNumber returns the configuration whose number is the same phone as raw.
func FindByNumber(numbers []*PhoneNumber, raw string) *PhoneNumber {
	for _, n := range numbers {
		if n != nil && SamePhone(n.Number, raw) {
			return n
		}
	}
	return nil
}
