package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"budgetflow/backend/internal/logging"
)

// expoTokenRe is the shape Expo hands out; anything else is rejected before
// any network call is made.
var expoTokenRe = regexp.MustCompile(`^ExponentPushToken\[[^\[\]]+\]$`)

// ValidExpoToken reports whether the token has the ExponentPushToken[...]
// shape.
func ValidExpoToken(token string) bool {
	return expoTokenRe.MatchString(token)
}

// Pusher delivers a push notification. Send reports delivery success only;
// a missed push is never a business failure, so there is no error return.
type Pusher interface {
	Send(ctx context.Context, token, title, body string, data map[string]interface{}) bool
}

// ExpoPush sends push notifications through the Expo push service.
type ExpoPush struct {
	endpoint    string
	accessToken string
	client      *http.Client
	log         logging.Logger
}

// NewExpoPush creates an Expo push client. The access token is optional.
func NewExpoPush(endpoint, accessToken string, timeout time.Duration, logger logging.Logger) *ExpoPush {
	return &ExpoPush{
		endpoint:    endpoint,
		accessToken: accessToken,
		client:      &http.Client{Timeout: timeout},
		log:         logger,
	}
}

type expoMessage struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Send posts one message to the Expo endpoint. Every failure path logs and
// returns false; push delivery is best-effort by contract.
func (p *ExpoPush) Send(ctx context.Context, token, title, body string, data map[string]interface{}) bool {
	if !ValidExpoToken(token) {
		p.log.Warn("invalid Expo push token, skipping push",
			logging.F("token_prefix", tokenPrefix(token)))
		return false
	}

	payload, err := json.Marshal(expoMessage{To: token, Title: title, Body: body, Data: data})
	if err != nil {
		p.log.WithError(err).Warn("failed to encode push message")
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		p.log.WithError(err).Warn("failed to build push request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	if p.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.accessToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.WithError(err).Warn("push request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.log.Warn("push endpoint returned non-success status",
			logging.F("status", resp.StatusCode))
		return false
	}
	return true
}

// tokenPrefix truncates a token for logging; full tokens never reach logs.
func tokenPrefix(token string) string {
	const max = 12
	if len(token) <= max {
		return token
	}
	return fmt.Sprintf("%s...", token[:max])
}
