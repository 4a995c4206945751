package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/dshills/reword/internal/providers"
)

// sleepRecorder collects requested sleep durations without sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
	return nil
}

func testRecords(n int) []DiffRecord {
	recs := make([]DiffRecord, n)
	for i := range recs {
		recs[i] = DiffRecord{ID: fmt.Sprintf("sha%03d", i), Diff: fmt.Sprintf("diff %d", i)}
	}
	return recs
}

func echoGenerate(ctx context.Context, rec DiffRecord) (string, error) {
	return "msg for " + rec.ID, nil
}

func TestDefaultSizePolicy(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{1, 3}, {2, 4}, {3, 3}, {4, 4}, {7, 3}, {10, 4}, {101, 3},
	}
	for _, tt := range tests {
		if got := DefaultSizePolicy(tt.total); got != tt.want {
			t.Errorf("DefaultSizePolicy(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestPartition_NoGapsNoOverlaps(t *testing.T) {
	for n := 1; n <= 20; n++ {
		recs := testRecords(n)
		chunks := partition(recs, DefaultSizePolicy(n))
		var total int
		var prev string
		for _, c := range chunks {
			if len(c) == 0 {
				t.Fatalf("n=%d: empty chunk", n)
			}
			for _, rec := range c {
				if prev != "" && rec.ID <= prev {
					t.Fatalf("n=%d: out of order or duplicated: %s after %s", n, rec.ID, prev)
				}
				prev = rec.ID
				total++
			}
		}
		if total != n {
			t.Errorf("n=%d: chunks cover %d records", n, total)
		}
	}
}

func TestImprove_PreservesOrder(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 8, 9, 16, 17} {
		recs := testRecords(n)
		sr := &sleepRecorder{}
		p := &Pipeline{
			Generate: func(ctx context.Context, rec DiffRecord) (string, error) {
				// Scramble completion order inside a chunk.
				time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
				return "msg for " + rec.ID, nil
			},
			Sleep: sr.sleep,
		}

		out, err := p.Improve(context.Background(), recs)
		if err != nil {
			t.Fatalf("n=%d: Improve error: %v", n, err)
		}
		if len(out) != n {
			t.Fatalf("n=%d: got %d results, want %d", n, len(out), n)
		}
		for i, res := range out {
			if res.ID != recs[i].ID {
				t.Errorf("n=%d: out[%d].ID = %s, want %s", n, i, res.ID, recs[i].ID)
			}
			if res.Message != "msg for "+recs[i].ID {
				t.Errorf("n=%d: out[%d].Message = %q", n, i, res.Message)
			}
		}
	}
}

func TestImprove_EmptyInput(t *testing.T) {
	p := &Pipeline{Generate: echoGenerate}
	out, err := p.Improve(context.Background(), nil)
	if err != nil {
		t.Fatalf("Improve error: %v", err)
	}
	if out != nil {
		t.Errorf("got %v, want nil for empty input", out)
	}
}

func TestImprove_ChunkFanOutIsConcurrent(t *testing.T) {
	recs := testRecords(4) // even -> one chunk of 4
	var mu sync.Mutex
	inFlight, peak := 0, 0

	p := &Pipeline{
		Generate: func(ctx context.Context, rec DiffRecord) (string, error) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			inFlight--
			mu.Unlock()
			return "m", nil
		},
		Sleep: (&sleepRecorder{}).sleep,
	}
	if _, err := p.Improve(context.Background(), recs); err != nil {
		t.Fatal(err)
	}
	if peak != 4 {
		t.Errorf("peak in-flight requests = %d, want 4 (whole chunk concurrent)", peak)
	}
}

func TestImprove_InterChunkDelayBounds(t *testing.T) {
	recs := testRecords(8) // even -> chunks of 4 -> one inter-chunk sleep
	sr := &sleepRecorder{}
	p := &Pipeline{Generate: echoGenerate, Sleep: sr.sleep, Rand: rand.New(rand.NewSource(1))}

	if _, err := p.Improve(context.Background(), recs); err != nil {
		t.Fatal(err)
	}
	if len(sr.slept) != 1 {
		t.Fatalf("got %d sleeps, want 1", len(sr.slept))
	}
	d := sr.slept[0]
	// 1000*U(1,5) + 100*U(1,5) ms
	min := 1100 * time.Millisecond
	max := 5500 * time.Millisecond
	if d < min || d > max {
		t.Errorf("inter-chunk delay = %v, want within [%v, %v]", d, min, max)
	}
}

func TestImprove_NoSleepForSingleChunk(t *testing.T) {
	recs := testRecords(3) // odd -> one chunk of 3
	sr := &sleepRecorder{}
	p := &Pipeline{Generate: echoGenerate, Sleep: sr.sleep}

	if _, err := p.Improve(context.Background(), recs); err != nil {
		t.Fatal(err)
	}
	if len(sr.slept) != 0 {
		t.Errorf("got %d sleeps for a single successful chunk, want 0", len(sr.slept))
	}
}

func TestImprove_RateLimitRetriesSameChunk(t *testing.T) {
	recs := testRecords(5) // odd -> chunks [0:3] [3:5]
	sr := &sleepRecorder{}

	var mu sync.Mutex
	calls := make(map[string]int)
	failFirst := true

	p := &Pipeline{
		Generate: func(ctx context.Context, rec DiffRecord) (string, error) {
			mu.Lock()
			calls[rec.ID]++
			mu.Unlock()
			if rec.ID == "sha001" {
				mu.Lock()
				fail := failFirst
				failFirst = false
				mu.Unlock()
				if fail {
					return "", &providers.RateLimitError{Provider: "test"}
				}
			}
			return "msg for " + rec.ID, nil
		},
		Sleep: sr.sleep,
	}

	out, err := p.Improve(context.Background(), recs)
	if err != nil {
		t.Fatalf("Improve error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("got %d results, want 5", len(out))
	}
	for i, res := range out {
		if res.ID != recs[i].ID {
			t.Errorf("out[%d].ID = %s, want %s", i, res.ID, recs[i].ID)
		}
	}

	// The whole first chunk is re-issued, not just the failing record.
	for _, id := range []string{"sha000", "sha001", "sha002"} {
		if calls[id] != 2 {
			t.Errorf("calls[%s] = %d, want 2", id, calls[id])
		}
	}
	for _, id := range []string{"sha003", "sha004"} {
		if calls[id] != 1 {
			t.Errorf("calls[%s] = %d, want 1", id, calls[id])
		}
	}

	// One cooldown sleep (>= 61s), then one inter-chunk jitter sleep.
	if len(sr.slept) != 2 {
		t.Fatalf("got %d sleeps, want 2: %v", len(sr.slept), sr.slept)
	}
	if sr.slept[0] < 61*time.Second || sr.slept[0] > 65*time.Second {
		t.Errorf("cooldown = %v, want within [61s, 65s]", sr.slept[0])
	}
	if sr.slept[1] > 6*time.Second {
		t.Errorf("second sleep = %v, should be the short inter-chunk jitter", sr.slept[1])
	}
}

func TestImprove_SingleCommitRateLimitThenSuccess(t *testing.T) {
	recs := testRecords(1)
	sr := &sleepRecorder{}

	attempt := 0
	p := &Pipeline{
		Generate: func(ctx context.Context, rec DiffRecord) (string, error) {
			attempt++
			if attempt == 1 {
				return "", &providers.RateLimitError{}
			}
			return "better message", nil
		},
		Sleep: sr.sleep,
	}

	out, err := p.Improve(context.Background(), recs)
	if err != nil {
		t.Fatalf("Improve error: %v", err)
	}
	if len(out) != 1 || out[0].ID != "sha000" || out[0].Message != "better message" {
		t.Errorf("out = %+v", out)
	}
	// Exactly one long-cooldown sleep for the single failing chunk.
	if len(sr.slept) != 1 {
		t.Fatalf("got %d sleeps, want 1", len(sr.slept))
	}
	if sr.slept[0] < 61*time.Second {
		t.Errorf("sleep = %v, want long cooldown", sr.slept[0])
	}
}

func TestImprove_AuthErrorIsFatal(t *testing.T) {
	recs := testRecords(4)
	sr := &sleepRecorder{}
	p := &Pipeline{
		Generate: func(ctx context.Context, rec DiffRecord) (string, error) {
			return "", &providers.AuthError{Message: "bad key"}
		},
		Sleep: sr.sleep,
	}

	_, err := p.Improve(context.Background(), recs)
	if !providers.IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if len(sr.slept) != 0 {
		t.Errorf("auth errors must not trigger cooldown sleeps, got %v", sr.slept)
	}
}

func TestImprove_BoundedRetriesExhausted(t *testing.T) {
	recs := testRecords(2)
	sr := &sleepRecorder{}
	attempts := 0
	p := &Pipeline{
		Generate: func(ctx context.Context, rec DiffRecord) (string, error) {
			attempts++
			return "", &providers.RateLimitError{}
		},
		Sleep:           sr.sleep,
		MaxChunkRetries: 2,
	}

	_, err := p.Improve(context.Background(), recs)
	if err == nil {
		t.Fatal("expected error after retry limit exhausted")
	}
	if !providers.IsRateLimit(err) {
		t.Errorf("exhaustion error should wrap the rate-limit cause: %v", err)
	}
	// Initial attempt + 2 retries, 2 records per attempt.
	if attempts != 6 {
		t.Errorf("attempts = %d, want 6", attempts)
	}
	if len(sr.slept) != 2 {
		t.Errorf("got %d cooldown sleeps, want 2", len(sr.slept))
	}
}

func TestImprove_GenericErrorTriggersCooldown(t *testing.T) {
	recs := testRecords(2)
	sr := &sleepRecorder{}
	attempt := 0
	p := &Pipeline{
		Generate: func(ctx context.Context, rec DiffRecord) (string, error) {
			attempt++
			if attempt <= 2 {
				return "", errors.New("connection reset")
			}
			return "ok", nil
		},
		Sleep: sr.sleep,
	}

	out, err := p.Improve(context.Background(), recs)
	if err != nil {
		t.Fatalf("Improve error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d results, want 2", len(out))
	}
	if len(sr.slept) != 1 {
		t.Errorf("generic failures should back off like rate limits, got %d sleeps", len(sr.slept))
	}
}

func TestImprove_NotifierReportsProgress(t *testing.T) {
	recs := testRecords(8) // two chunks of 4
	var progress []Progress
	p := &Pipeline{
		Generate: echoGenerate,
		Sleep:    (&sleepRecorder{}).sleep,
		Notify:   func(pr Progress) { progress = append(progress, pr) },
	}

	if _, err := p.Improve(context.Background(), recs); err != nil {
		t.Fatal(err)
	}
	if len(progress) != 2 {
		t.Fatalf("got %d notifications, want 2", len(progress))
	}
	if progress[0].Completed != 4 || progress[0].Total != 8 {
		t.Errorf("first notification = %+v", progress[0])
	}
	if progress[0].Sleep == 0 {
		t.Error("first notification should carry the inter-chunk delay")
	}
	if progress[1].Completed != 8 || progress[1].Sleep != 0 {
		t.Errorf("final notification = %+v", progress[1])
	}
}

func TestImprove_ContextCanceledDuringSleep(t *testing.T) {
	recs := testRecords(8)
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		Generate: echoGenerate,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	_, err := p.Improve(ctx, recs)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
