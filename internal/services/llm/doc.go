// Package llm provides a chat completion client for OpenAI-compatible APIs.
//
// The translation stage uses CompleteText to translate one subtitle segment
// per request. CompleteJSON, DecodeJSON and HealthCheck back the readiness checks.
//
// # Configuration
//
// Requires api_key and model, optionally base_url and timeout_seconds. A client
// without a key reports Configured() == false and every request fails with
// services.ErrUpstreamUnavailable so callers can degrade instead of failing.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty content and network
// timeouts with exponential backoff (base 1s, max 10s). Retry-After headers are
// honoured. Context cancellation aborts retries immediately.
package llm
