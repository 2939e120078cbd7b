package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInboundMessage(t *testing.T) {
	cfg := &PhoneNumber{ID: uuid.New(), DisplayName: "Pharmacy Main", Channel: ChannelSMS}

	m := NewInboundMessage("+13472074064", "+12125550100", "refill please", "SM123", cfg)
	assert.Equal(t, DirectionInbound, m.Direction)
	assert.Equal(t, MessageStatusReceived, m.Status)
	assert.Equal(t, ChannelSMS, m.Channel)
	assert.Equal(t, "SM123", m.TrackingID.String)
	assert.Equal(t, cfg.ID, m.PhoneNumberID.UUID)
	assert.Equal(t, "Pharmacy Main", m.Metadata[MetaPhoneNumberDisplayName])
	assert.False(t, m.PatientID.Valid)

	unknown := NewInboundMessage("+13472074064", "+12125550100", "hi", "", nil)
	assert.Equal(t, ChannelSMS, unknown.Channel)
	assert.False(t, unknown.TrackingID.Valid)
	assert.False(t, unknown.PhoneNumberID.Valid)
}

func TestNewInboundPatient(t *testing.T) {
	cfg := &PhoneNumber{ID: uuid.New()}
	p := NewInboundPatient(" +1 (347) 207-4064 ", cfg)
	assert.Equal(t, "SMS +1 (347) 207-4064", p.Name)
	assert.Equal(t, "3472074064", p.Phone.String)
	assert.Equal(t, PatientStatusActive, p.Status)
	assert.Equal(t, ChannelSMS, p.PreferredChannel)
	assert.Equal(t, cfg.ID, p.AssignedPhoneNumberID.UUID)

	noDigits := NewInboundPatient("anonymous", nil)
	assert.False(t, noDigits.Phone.Valid)
	assert.False(t, noDigits.AssignedPhoneNumberID.Valid)
}

func TestMessage_MetadataJSON(t *testing.T) {
	m := &Message{}
	raw, err := m.MetadataJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	m.Metadata = map[string]string{MetaProviderStatus: "sent"}
	raw, err = m.MetadataJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"provider_status":"sent"}`, string(raw))
}

func TestErrors_Classification(t *testing.T) {
	assert.True(t, errors.Is(ErrPhoneNumberNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrMissingCredentials, ErrConfiguration))
	assert.True(t, errors.Is(BadRequestf("to is required"), ErrBadRequest))
	assert.EqualError(t, BadRequestf("%s is required", "to"), "to is required: bad request")

	cause := errors.New("conn reset")
	dsErr := DatastoreError("insert message", cause)
	assert.True(t, errors.Is(dsErr, ErrDatastore))
	assert.True(t, errors.Is(dsErr, cause))

	var pe error = &ProviderError{Message: "invalid To", Code: "21211", StatusCode: 400}
	assert.EqualError(t, pe, "carrier rejected message (status 400, code 21211): invalid To")
	var target *ProviderError
	assert.True(t, errors.As(pe, &target))
	assert.Equal(t, "carrier request failed: timeout", (&ProviderError{Message: "timeout"}).Error())
}
