// Package source supplies the ordered list of commits whose messages a run
// will improve. Commits are always oldest-first: the rewrite protocol maps
// replay index i to the i-th commit, so ordering is load-bearing.
package source

import (
	"context"
	"fmt"

	"github.com/dshills/reword/internal/event"
	"github.com/dshills/reword/internal/gitrepo"
)

// Commit is one candidate for rewording, with its id and original message.
type Commit struct {
	ID      string
	Message string
}

// Source lists the commits to improve, oldest first. An empty list is the
// "no new commits" terminal path, not an error.
type Source interface {
	List(ctx context.Context) ([]Commit, error)
}

// EventSource lists the commits carried by a push event payload, which the
// platform orders oldest-first.
type EventSource struct {
	Event *event.PushEvent
}

func (s EventSource) List(ctx context.Context) ([]Commit, error) {
	commits := make([]Commit, 0, len(s.Event.Commits))
	for _, c := range s.Event.Commits {
		commits = append(commits, Commit{ID: c.ID, Message: c.Message})
	}
	return commits, nil
}

// RangeSource lists the commits of a local revision range, resolving each
// commit's full message body.
type RangeSource struct {
	Range string
}

func (s RangeSource) List(ctx context.Context) ([]Commit, error) {
	listed, err := gitrepo.ListCommits(s.Range)
	if err != nil {
		return nil, err
	}
	commits := make([]Commit, 0, len(listed))
	for _, c := range listed {
		msg, err := gitrepo.CommitMessage(c.SHA)
		if err != nil {
			return nil, fmt.Errorf("resolving message for %s: %w", c.SHA, err)
		}
		commits = append(commits, Commit{ID: c.SHA, Message: msg})
	}
	return commits, nil
}
