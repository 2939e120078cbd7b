package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go/client"

	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
)

// SignatureHeader carries the carrier's request signature on webhooks.
const SignatureHeader = "X-Twilio-Signature"

// SignatureMiddleware rejects webhook requests whose carrier signature does
// not match. publicBaseURL is the externally visible origin the carrier
// signed against; when empty the request's own host is used.
func SignatureMiddleware(authToken, publicBaseURL string, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("middleware", "signature")
	publicBaseURL = strings.TrimRight(publicBaseURL, "/")
	requestValidator := client.NewRequestValidator(authToken)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				writeError(w, r, logger, domain.BadRequestf("invalid form body: %v", err))
				return
			}

			fullURL := requestURL(r, publicBaseURL)
			signature := r.Header.Get(SignatureHeader)
			if signature == "" || !requestValidator.Validate(fullURL, formParams(r.PostForm), signature) {
				logger.WarnContext(r.Context(), "Rejected webhook with invalid signature", "url", fullURL)
				writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "invalid signature"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// formParams flattens a webhook form. Carrier webhooks never repeat a key.
func formParams(form url.Values) map[string]string {
	params := make(map[string]string, len(form))
	for k := range form {
		params[k] = form.Get(k)
	}
	return params
}

func requestURL(r *http.Request, publicBaseURL string) string {
	if publicBaseURL != "" {
		return publicBaseURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
