// Package event ingests the CI push-event payload that triggers a reword
// run.
//
// The hosting platform exposes the event through environment variables:
// GITHUB_EVENT_NAME names the event type, GITHUB_EVENT_PATH points at the
// JSON payload on disk, GITHUB_ACTOR identifies who pushed, and
// GITHUB_SERVER_URL locates the host. Commits in a push payload are
// oldest-first by the platform's contract, which is exactly the order the
// rewrite protocol needs.
package event
