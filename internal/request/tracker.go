package request

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// StartDelay is how long after payment work is expected to begin.
	StartDelay = 2 * time.Hour
	// CompletionWindow is the expected duration of the work itself.
	CompletionWindow = 24 * time.Hour
)

// QueueStatus is the derived, unpersisted view shown on the tracking page.
type QueueStatus struct {
	RequestID           string    `json:"requestId"`
	RequestTime         time.Time `json:"requestTime"`
	PaymentTime         time.Time `json:"paymentTime"`
	EstimatedStart      time.Time `json:"estimatedStart"`
	EstimatedCompletion time.Time `json:"estimatedCompletion"`
}

// NewTrackingID returns "AA-YYYYMMDD-XXXXXX" where the suffix is six random
// upper-case hex characters. Collisions are possible and tolerated.
func NewTrackingID(now time.Time) string {
	u := uuid.New()
	suffix := strings.ToUpper(strings.ReplaceAll(u.String(), "-", "")[:6])
	return "AA-" + now.Format("20060102") + "-" + suffix
}

// Estimate derives the queue timeline. Zero request or payment times fall
// back to now.
func Estimate(requestID string, requestTime, paymentTime, now time.Time) QueueStatus {
	if requestTime.IsZero() {
		requestTime = now
	}
	if paymentTime.IsZero() {
		paymentTime = now
	}

	start := paymentTime.Add(StartDelay)
	return QueueStatus{
		RequestID:           requestID,
		RequestTime:         requestTime,
		PaymentTime:         paymentTime,
		EstimatedStart:      start,
		EstimatedCompletion: start.Add(CompletionWindow),
	}
}
