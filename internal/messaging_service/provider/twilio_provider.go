package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
)

const messagesPath = "/2010-04-01/Accounts/{accountSid}/Messages.json"

// TwilioSMSProvider talks to a Twilio-compatible Messages REST API.
type TwilioSMSProvider struct {
	logger     *slog.Logger
	httpClient *resty.Client
}

// NewTwilioSMSProvider creates a provider against baseURL, for example
// "https://api.twilio.com". No retries are configured: a failed send is
// reported to the caller as is.
func NewTwilioSMSProvider(logger *slog.Logger, baseURL string, timeout time.Duration) *TwilioSMSProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &TwilioSMSProvider{
		logger:     logger.With("provider", "twilio"),
		httpClient: client,
	}
}

// twilioMessageResponse is the subset of the Message resource we read.
type twilioMessageResponse struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

type twilioErrorResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func (p *TwilioSMSProvider) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(p.GetName()))
	defer timer.ObserveDuration()

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Body", req.Body)
	if req.StatusCallback != "" {
		form.Set("StatusCallback", req.StatusCallback)
		for _, ev := range StatusCallbackEvents {
			form.Add("StatusCallbackEvent", ev)
		}
	}

	p.logger.DebugContext(ctx, "Sending message to carrier", "to", req.To, "from", req.From, "internal_message_id", req.InternalMessageID)

	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetBasicAuth(req.AccountSID, req.AuthToken).
		SetPathParam("accountSid", req.AccountSID).
		SetFormDataFromValues(form).
		Post(messagesPath)
	if err != nil {
		providerRequestsCounter.WithLabelValues(p.GetName(), "transport_error").Inc()
		p.logger.ErrorContext(ctx, "Carrier request failed", "error", err, "internal_message_id", req.InternalMessageID)
		return nil, &domain.ProviderError{Message: err.Error(), Err: err}
	}

	body := resp.Body()
	if resp.IsError() {
		providerRequestsCounter.WithLabelValues(p.GetName(), "rejected").Inc()
		perr := &domain.ProviderError{
			Message:    resp.Status(),
			StatusCode: resp.StatusCode(),
			Raw:        string(body),
		}
		var errResp twilioErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil {
			if errResp.Message != "" {
				perr.Message = errResp.Message
			}
			if errResp.Code != 0 {
				perr.Code = strconv.Itoa(errResp.Code)
			}
		} else {
			p.logger.WarnContext(ctx, "Failed to parse carrier error body", "status_code", resp.StatusCode(), "error", jsonErr)
		}
		p.logger.WarnContext(ctx, "Carrier rejected message",
			"status_code", perr.StatusCode,
			"code", perr.Code,
			"message", perr.Message,
			"internal_message_id", req.InternalMessageID,
		)
		return nil, perr
	}

	var msg twilioMessageResponse
	if err := json.Unmarshal(body, &msg); err != nil || msg.Sid == "" {
		providerRequestsCounter.WithLabelValues(p.GetName(), "rejected").Inc()
		p.logger.ErrorContext(ctx, "Carrier response missing message sid", "status_code", resp.StatusCode(), "error", err)
		return nil, &domain.ProviderError{
			Message:    "carrier response did not include a message sid",
			StatusCode: resp.StatusCode(),
			Raw:        string(body),
			Err:        err,
		}
	}

	providerRequestsCounter.WithLabelValues(p.GetName(), "accepted").Inc()
	p.logger.InfoContext(ctx, "Carrier accepted message", "tracking_id", msg.Sid, "status", msg.Status, "internal_message_id", req.InternalMessageID)
	return &SendResponse{TrackingID: msg.Sid, Status: msg.Status}, nil
}

func (p *TwilioSMSProvider) GetName() string {
	return "twilio"
}
