package reword

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root"`
	Head   string `json:"head"`
	Branch string `json:"branch"`
}

// Entry records the outcome for a single commit.
type Entry struct {
	ID       string `json:"id"`
	Original string `json:"original"`
	Improved string `json:"improved"`
	Changed  bool   `json:"changed"`
}

// Summary provides an overview of the run.
type Summary struct {
	Total   int `json:"total"`
	Changed int `json:"changed"`
	Cached  int `json:"cached"`
}

// Timing contains performance metrics.
type Timing struct {
	GitMs   int64 `json:"gitMs"`
	LLMMs   int64 `json:"llmMs"`
	TotalMs int64 `json:"totalMs"`
}

// Report is the top-level output structure of a run.
type Report struct {
	Tool    string   `json:"tool"`
	Version string   `json:"version"`
	RunID   string   `json:"runId"`
	Repo    RepoInfo `json:"repo"`
	Anchor  string   `json:"anchor,omitempty"`
	Entries []Entry  `json:"entries"`
	Summary Summary  `json:"summary"`
	Timing  Timing   `json:"timing"`
	Applied bool     `json:"applied"`
	Pushed  bool     `json:"pushed"`
}

// ComputeSummary calculates the summary from entries.
func ComputeSummary(entries []Entry, cached int) Summary {
	s := Summary{Total: len(entries), Cached: cached}
	for _, e := range entries {
		if e.Changed {
			s.Changed++
		}
	}
	return s
}
