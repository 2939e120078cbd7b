package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTwilioSMSProvider_GetName(t *testing.T) {
	p := NewTwilioSMSProvider(testLogger(), "http://localhost", time.Second)
	assert.Equal(t, "twilio", p.GetName())
}

func TestTwilioSMSProvider_Send_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token-abc", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+13472074064", r.PostForm.Get("To"))
		assert.Equal(t, "+12125550100", r.PostForm.Get("From"))
		assert.Equal(t, "Your prescription is ready", r.PostForm.Get("Body"))
		assert.Equal(t, "https://pharmacy.example/webhooks/sms/status", r.PostForm.Get("StatusCallback"))
		assert.Equal(t, StatusCallbackEvents, r.PostForm["StatusCallbackEvent"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM0123456789","status":"queued","error_code":null}`))
	}))
	defer server.Close()

	p := NewTwilioSMSProvider(testLogger(), server.URL, 5*time.Second)
	resp, err := p.Send(context.Background(), SendRequest{
		AccountSID:     "AC123",
		AuthToken:      "token-abc",
		From:           "+12125550100",
		To:             "+13472074064",
		Body:           "Your prescription is ready",
		StatusCallback: "https://pharmacy.example/webhooks/sms/status",
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "SM0123456789", resp.TrackingID)
	assert.Equal(t, "queued", resp.Status)
}

func TestTwilioSMSProvider_Send_Rejected(t *testing.T) {
	errorBody := `{"code":21211,"message":"The 'To' number +1555 is not a valid phone number.","more_info":"https://www.twilio.com/docs/errors/21211","status":400}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(errorBody))
	}))
	defer server.Close()

	p := NewTwilioSMSProvider(testLogger(), server.URL, 5*time.Second)
	resp, err := p.Send(context.Background(), SendRequest{AccountSID: "AC123", AuthToken: "t", From: "+12125550100", To: "+1555", Body: "hi"})

	assert.Nil(t, resp)
	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadRequest, perr.StatusCode)
	assert.Equal(t, "21211", perr.Code)
	assert.Equal(t, "The 'To' number +1555 is not a valid phone number.", perr.Message)
	assert.Equal(t, errorBody, perr.Raw)
}

func TestTwilioSMSProvider_Send_RejectedWithUnparsableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	p := NewTwilioSMSProvider(testLogger(), server.URL, 5*time.Second)
	_, err := p.Send(context.Background(), SendRequest{AccountSID: "AC123", AuthToken: "t", To: "+1", Body: "x"})

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
	assert.Empty(t, perr.Code)
	assert.Equal(t, "upstream unavailable", perr.Raw)
}

func TestTwilioSMSProvider_Send_MissingSid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"queued"}`))
	}))
	defer server.Close()

	p := NewTwilioSMSProvider(testLogger(), server.URL, 5*time.Second)
	_, err := p.Send(context.Background(), SendRequest{AccountSID: "AC123", AuthToken: "t", To: "+1", Body: "x"})

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusCreated, perr.StatusCode)
}

func TestTwilioSMSProvider_Send_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p := NewTwilioSMSProvider(testLogger(), url, time.Second)
	_, err := p.Send(context.Background(), SendRequest{AccountSID: "AC123", AuthToken: "t", To: "+1", Body: "x"})

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Zero(t, perr.StatusCode)
	assert.NotNil(t, perr.Err)
}

func TestMockSMSProvider_Send(t *testing.T) {
	ok := NewMockSMSProvider(testLogger(), false, 0)
	resp, err := ok.Send(context.Background(), SendRequest{To: "+1", Body: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.TrackingID)
	assert.Equal(t, "mock", ok.GetName())

	failing := NewMockSMSProvider(testLogger(), true, 0)
	_, err = failing.Send(context.Background(), SendRequest{To: "+1", Body: "x"})
	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "MOCK_FAILURE", perr.Code)
}
