package domain

import (
	"database/sql"
	"strings"
	"time"
)

// MapProviderStatus translates a carrier status string into a MessageStatus.
// Unrecognized values pass through lower-cased.
func MapProviderStatus(providerStatus string) MessageStatus {
	s := strings.ToLower(strings.TrimSpace(providerStatus))
	switch s {
	case "queued", "accepted", "sending":
		return MessageStatusSending
	case "sent":
		return MessageStatusSent
	case "delivered":
		return MessageStatusDelivered
	case "undelivered", "failed":
		return MessageStatusFailed
	default:
		return MessageStatus(s)
	}
}

// StatusEvent is a delivery status callback from the carrier.
type StatusEvent struct {
	TrackingID     string
	ProviderStatus string
	ErrorCode      string
	ErrorMessage   string
	To             string
	From           string
}

// BuildStatusUpdate derives the persisted update for ev. DeliveredAt is set
// only for delivered; displayName may be empty.
func BuildStatusUpdate(ev StatusEvent, displayName string, now time.Time) StatusUpdate {
	status := MapProviderStatus(ev.ProviderStatus)
	u := StatusUpdate{
		TrackingID: ev.TrackingID,
		Status:     status,
		Metadata: map[string]string{
			MetaProviderStatus:         ev.ProviderStatus,
			MetaErrorCode:              ev.ErrorCode,
			MetaErrorMessage:           ev.ErrorMessage,
			MetaPhoneNumberDisplayName: displayName,
		},
	}
	if status == MessageStatusDelivered {
		u.DeliveredAt = sql.NullTime{Time: now.UTC(), Valid: true}
	}
	if ev.ErrorCode != "" {
		u.ErrorCode = sql.NullString{String: ev.ErrorCode, Valid: true}
	}
	return u
}
