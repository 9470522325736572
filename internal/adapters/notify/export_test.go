package notify

import "time"

// SetRetryWait acorta el backoff en tests.
func SetRetryWait(w *Webhook, d time.Duration) { w.baseWait = d }

var ParseRetryAfter = parseRetryAfter
