// Package middleware holds the HTTP wrappers shared by every trader route.
package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/xueqianLu/ethtrader/internal/errno"
)

// Request headers carrying the HMAC credentials.
const (
	APIKeyHeader    = "X-API-Key"
	SignatureHeader = "X-Signature"
	TimestampHeader = "X-Timestamp"
)

const (
	maxTimeSkew  = 60 * time.Second
	maxBodyBytes = 1 << 16
)

// AuthMiddleware rejects requests that are not signed with the shared API
// secret. A request is accepted when its key matches, its timestamp is within
// a minute of the server clock and its signature covers timestamp and body.
type AuthMiddleware struct {
	apiKey    string
	apiSecret string
	now       func() time.Time
}

// NewAuthMiddleware creates an AuthMiddleware. An empty apiKey rejects every
// request.
func NewAuthMiddleware(apiKey, apiSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
	}
}

// Wrap returns next guarded by signature verification. The request body is
// buffered for verification and handed to next unchanged.
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := m.verify(r)
		if err != nil {
			reject(w, err)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) verify(r *http.Request) ([]byte, error) {
	key := r.Header.Get(APIKeyHeader)
	if m.apiKey == "" || !hmac.Equal([]byte(key), []byte(m.apiKey)) {
		return nil, fmt.Errorf("unknown api key: %w", errno.ErrUnauthorized)
	}

	stamp := r.Header.Get(TimestampHeader)
	ts, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad timestamp %q: %w", stamp, errno.ErrUnauthorized)
	}
	skew := m.now().Sub(time.Unix(ts, 0))
	if skew > maxTimeSkew || skew < -maxTimeSkew {
		return nil, fmt.Errorf("timestamp outside %s window: %w", maxTimeSkew, errno.ErrUnauthorized)
	}

	sig := r.Header.Get(SignatureHeader)
	if sig == "" {
		return nil, fmt.Errorf("missing signature: %w", errno.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %v: %w", err, errno.ErrBadRequest)
	}
	if !hmac.Equal([]byte(sig), []byte(Sign(m.apiSecret, stamp, body))) {
		return nil, fmt.Errorf("signature mismatch: %w", errno.ErrUnauthorized)
	}
	return body, nil
}

func reject(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	if !errors.Is(err, errno.ErrUnauthorized) {
		status = http.StatusBadRequest
	}
	code, msg := errno.Decode(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Code  int    `json:"code"`
		Error string `json:"error"`
	}{code, msg})
}

// Sign computes the request signature: hex(HMAC-SHA256(secret, timestamp || body)).
func Sign(apiSecret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
