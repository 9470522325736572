package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/alejandrodnm/riskgate/internal/ports"
)

const (
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Webhook posts alerts as JSON to an HTTP endpoint (Slack-style incoming
// webhook or an internal paging relay). Disabled when the URL is empty.
type Webhook struct {
	http     *http.Client
	url      string
	limiter  *rate.Limiter
	baseWait time.Duration
}

// NewWebhook crea un notificador HTTP. ratePerSec <= 0 no limita.
func NewWebhook(url string, ratePerSec float64, burst int) *Webhook {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Webhook{
		http:     &http.Client{Timeout: 10 * time.Second},
		url:      url,
		limiter:  rate.NewLimiter(limit, burst),
		baseWait: baseRetryWait,
	}
}

// Enabled reports whether the webhook has a destination.
func (w *Webhook) Enabled() bool { return w.url != "" }

type webhookPayload struct {
	Text     string `json:"text"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
	SentAt   string `json:"sent_at"`
}

// NotifyAlert envía la alerta con rate limiting y retries.
func (w *Webhook) NotifyAlert(ctx context.Context, a domain.Alert) error {
	if !w.Enabled() {
		return nil
	}
	body, err := json.Marshal(webhookPayload{
		Text:     fmt.Sprintf("[%s] %s: %s", a.Severity, a.Title, a.Message),
		Title:    a.Title,
		Severity: string(a.Severity),
		SentAt:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("notify.Webhook: marshal: %w", err)
	}
	if err := w.deliver(ctx, body); err != nil {
		return fmt.Errorf("notify.Webhook: %w", err)
	}
	return nil
}

// deliver reintenta errores de red, 429 y 5xx. Un Retry-After del servidor
// manda sobre el backoff exponencial; 4xx no se reintenta.
func (w *Webhook) deliver(ctx context.Context, body []byte) error {
	var last error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := w.backoff(attempt-1, last)
			slog.Warn("webhook retry",
				"attempt", attempt+1,
				"wait", wait,
				"error", last,
			)
			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("retry aborted: %w (last: %v)", ctx.Err(), last)
			}
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		err := w.post(ctx, body)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrRejected) {
			return err
		}
		last = err
	}
	if errors.Is(last, ErrRateLimited) {
		return fmt.Errorf("rate limited after %d retries: %w", maxRetries, last)
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, last)
}

// post hace un único intento y clasifica la respuesta.
func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests:
		return &throttled{after: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())}
	case code >= 500:
		return fmt.Errorf("server error %d", code)
	case code >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("%w: client error %d: %s", ErrRejected, code, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// backoff devuelve la espera antes del reintento n (0-based).
func (w *Webhook) backoff(n int, last error) time.Duration {
	var t *throttled
	if errors.As(last, &t) && t.after > 0 {
		return t.after
	}
	return w.baseWait << n
}

var (
	// ErrRateLimited is wrapped when the endpoint answered 429.
	ErrRateLimited = errors.New("rate limited by endpoint")

	// ErrRejected is wrapped for failures a retry cannot fix.
	ErrRejected = errors.New("rejected by endpoint")
)

const maxRetryAfter = 30 * time.Second

type throttled struct{ after time.Duration }

func (t *throttled) Error() string {
	if t.after > 0 {
		return fmt.Sprintf("%s (retry after %s)", ErrRateLimited, t.after)
	}
	return ErrRateLimited.Error()
}

func (t *throttled) Unwrap() error { return ErrRateLimited }

// parseRetryAfter acepta segundos o fecha HTTP; 0 si falta o no parsea.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = at.Sub(now)
	}
	return min(max(d, 0), maxRetryAfter)
}

// Multi fans an alert out to several notifiers. All are tried; the first
// error is returned.
type Multi []ports.AlertNotifier

func (m Multi) NotifyAlert(ctx context.Context, a domain.Alert) error {
	var first error
	for _, n := range m {
		if err := n.NotifyAlert(ctx, a); err != nil && first == nil {
			first = err
		}
	}
	return first
}
