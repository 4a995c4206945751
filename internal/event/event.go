package event

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Commit is one commit from a push payload.
type Commit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// PushEvent is the subset of a push payload the reword run consumes.
type PushEvent struct {
	Ref     string   `json:"ref"`
	Before  string   `json:"before"`
	After   string   `json:"after"`
	Commits []Commit `json:"commits"`
}

// Branch returns the short branch name from the event ref.
func (e *PushEvent) Branch() string {
	return strings.TrimPrefix(e.Ref, "refs/heads/")
}

// Load reads the push event from the CI environment. It fails when the
// triggering event is not a push or the payload is missing or malformed.
func Load() (*PushEvent, error) {
	name := os.Getenv("GITHUB_EVENT_NAME")
	if name != "push" {
		return nil, fmt.Errorf("unsupported event type %q: only push events carry a commit list", name)
	}
	path := os.Getenv("GITHUB_EVENT_PATH")
	if path == "" {
		return nil, fmt.Errorf("GITHUB_EVENT_PATH environment variable is not set")
	}
	return LoadFile(path)
}

// LoadFile parses a push payload from disk.
func LoadFile(path string) (*PushEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading event payload: %w", err)
	}
	var ev PushEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("parsing event payload: %w", err)
	}
	return &ev, nil
}

// Identity is the synthetic committer identity derived from the actor who
// pushed: "<actor>@users.noreply.<host>".
type Identity struct {
	Name  string
	Email string
}

// ActorIdentity derives the committer identity from GITHUB_ACTOR and
// GITHUB_SERVER_URL (host defaults to github.com).
func ActorIdentity() (Identity, error) {
	actor := os.Getenv("GITHUB_ACTOR")
	if actor == "" {
		return Identity{}, fmt.Errorf("GITHUB_ACTOR environment variable is not set")
	}
	return DeriveIdentity(actor, os.Getenv("GITHUB_SERVER_URL")), nil
}

// DeriveIdentity builds the noreply identity for an actor on a host URL.
func DeriveIdentity(actor, serverURL string) Identity {
	host := "github.com"
	if serverURL != "" {
		if u, err := url.Parse(serverURL); err == nil && u.Host != "" {
			host = u.Host
		}
	}
	return Identity{
		Name:  actor,
		Email: fmt.Sprintf("%s@users.noreply.%s", actor, host),
	}
}
