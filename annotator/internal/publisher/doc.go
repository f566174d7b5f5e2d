// Package publisher reports finished annotation runs to holecheck-server
// (POST /api/v1/runs).
//
// Publish retries transient failures (connection errors, 5xx, 429) with
// truncated exponential backoff (1s to 30s, ±25% jitter) up to the
// configured number of attempts. Other 4xx responses are permanent and
// returned at once. The API key, when configured, is added to every
// request by an http.RoundTripper.
package publisher
