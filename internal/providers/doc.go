// Package providers implements the Generator interface for each supported
// LLM provider.
//
// Supported providers: Anthropic (Claude), OpenAI (GPT), Google (Gemini), and
// Ollama / LMStudio for local models.
//
// Providers classify failures into exported error types so callers can
// distinguish rate limiting (RateLimitError) from credential problems
// (AuthError) and backend outages (ServerError). Rate-limit errors are never
// retried here — the request pipeline owns the cooldown policy. Transient 5xx
// responses are retried locally with exponential back-off.
//
// Use [New] to obtain a Generator by provider name and model string.
package providers
