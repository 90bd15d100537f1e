package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
)

// DefaultTolerance bounds how old a webhook timestamp may be before the
// signature is rejected, protecting against replayed captures.
const DefaultTolerance = 5 * time.Minute

// eventEnvelope is the wire shape of a provider webhook payload.
type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentIntent string            `json:"payment_intent"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// SignPayload computes the signature header the provider sends: a unix
// timestamp and an HMAC-SHA256 of "<timestamp>.<payload>" under the shared
// secret. Exported for tests and the mock gateway.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// VerifyAndDecode checks the signature header against the payload and shared
// secret, then decodes the event. Any verification failure maps to
// domain.ErrInvalidSignature so callers never act on an unverified payload.
func VerifyAndDecode(payload []byte, signatureHeader, secret string, tolerance time.Duration) (Event, error) {
	ts, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return Event{}, err
	}

	if tolerance > 0 {
		age := time.Since(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return Event{}, domain.ErrInvalidSignature
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	verified := false
	for _, sig := range signatures {
		raw, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			verified = true
			break
		}
	}
	if !verified {
		return Event{}, domain.ErrInvalidSignature
	}

	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, domain.ErrInvalidSignature
	}

	return Event{
		ID:                env.ID,
		Type:              env.Type,
		CheckoutSessionID: env.Data.Object.ID,
		PaymentIntentID:   env.Data.Object.PaymentIntent,
		OrderID:           env.Data.Object.Metadata["order_id"],
	}, nil
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, domain.ErrInvalidSignature
	}

	var ts int64 = -1
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, domain.ErrInvalidSignature
			}
			ts = parsed
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if ts < 0 || len(signatures) == 0 {
		return 0, nil, domain.ErrInvalidSignature
	}
	return ts, signatures, nil
}
