package http

// SendMessageRequest is the body of POST /api/v1/messages/send.
type SendMessageRequest struct {
	To            string `json:"to" validate:"required"`
	Message       string `json:"message" validate:"required"`
	PatientID     string `json:"patientId,omitempty" validate:"omitempty,uuid"`
	PhoneNumberID string `json:"phoneNumberId,omitempty" validate:"omitempty,uuid"`
	MessageID     string `json:"messageId,omitempty" validate:"omitempty,uuid"`
}

// SendMessageResponse reports an accepted send. MessageID is the carrier
// tracking id; RecordID is the stored message id, null when the send was not
// linked to a message.
type SendMessageResponse struct {
	Success                bool    `json:"success"`
	MessageID              string  `json:"messageId"`
	Status                 string  `json:"status"`
	PhoneNumberUsed        string  `json:"phoneNumberUsed"`
	PhoneNumberDisplayName string  `json:"phoneNumberDisplayName"`
	RecordID               *string `json:"recordId"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// InboundSMSForm is the carrier's form-encoded inbound message webhook.
type InboundSMSForm struct {
	From       string `validate:"required"`
	To         string `validate:"required"`
	Body       string `validate:"required"`
	MessageSid string
}

// StatusCallbackForm is the carrier's form-encoded status callback.
type StatusCallbackForm struct {
	MessageSid    string `validate:"required"`
	MessageStatus string `validate:"required"`
	ErrorCode     string
	ErrorMessage  string
	To            string
	From          string
}
