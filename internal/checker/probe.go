package checker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"statusping/internal/models"
)

// maxErrorLength bounds the stored description of a failed probe.
const maxErrorLength = 200

// connectTimeout bounds the connection phase separately from the monitor's
// overall request timeout.
const connectTimeout = 10 * time.Second

// Outcome is the classified result of one probe. Every failure mode folds
// into a down outcome with an error message, so the pipeline downstream only
// ever reasons about up/down plus metadata.
type Outcome struct {
	Status         models.Status
	StatusCode     *int
	ResponseTimeMS *int
	ErrorMessage   *string
}

// Prober performs single HTTP checks against monitor URLs.
type Prober struct{}

// NewProber creates a new Prober
func NewProber() *Prober {
	return &Prober{}
}

// Probe issues exactly one HTTP request for the monitor, following redirects
// with certificate verification enabled, bounded by the monitor's timeout.
// It never returns an error: all failures classify as a down outcome.
func (p *Prober) Probe(ctx context.Context, m *models.Monitor) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = downOutcome(fmt.Sprintf("Unexpected error: %s", truncate(fmt.Sprint(r))))
		}
	}()

	client := &http.Client{
		Timeout: time.Duration(m.Timeout) * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: connectTimeout,
			}).DialContext,
		},
	}

	req, err := http.NewRequestWithContext(ctx, m.Method, m.URL, nil)
	if err != nil {
		return downOutcome(fmt.Sprintf("Unexpected error: %s", truncate(err.Error())))
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return classifyRequestError(err, m.Timeout)
	}
	defer resp.Body.Close()

	elapsed := int(time.Since(start).Milliseconds())
	code := resp.StatusCode

	out = Outcome{
		Status:         models.StatusUp,
		StatusCode:     &code,
		ResponseTimeMS: &elapsed,
	}

	if code != m.ExpectedStatusCode {
		out.Status = models.StatusDown
		msg := fmt.Sprintf("Expected status %d, got %d", m.ExpectedStatusCode, code)
		out.ErrorMessage = &msg
	}

	return out
}

// classifyRequestError maps a transport error onto the closed outcome enum.
func classifyRequestError(err error, timeoutSeconds int) Outcome {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return downOutcome(fmt.Sprintf("Request timed out after %ds", timeoutSeconds))
	}
	if isConnectionError(err) {
		return downOutcome(fmt.Sprintf("Connection failed: %s", truncate(err.Error())))
	}
	return downOutcome(fmt.Sprintf("Request error: %s", truncate(err.Error())))
}

// isConnectionError reports whether err is a transport-level failure (DNS,
// refused connection, TLS) as opposed to any other request error.
func isConnectionError(err error) bool {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	return errors.As(err, &dnsErr) ||
		errors.As(err, &opErr) ||
		errors.As(err, &certErr) ||
		errors.As(err, &recordErr)
}

func downOutcome(message string) Outcome {
	return Outcome{
		Status:       models.StatusDown,
		ErrorMessage: &message,
	}
}

func truncate(s string) string {
	if len(s) > maxErrorLength {
		return s[:maxErrorLength]
	}
	return s
}
