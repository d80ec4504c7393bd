package jobs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubReleaser struct {
	before time.Time
	n      int64
	err    error
	calls  int
}

func (s *stubReleaser) ReleaseExpired(_ context.Context, before time.Time) (int64, error) {
	s.calls++
	s.before = before
	return s.n, s.err
}

func TestReleaseSlots_PassesToday(t *testing.T) {
	r := &stubReleaser{n: 3}
	var buf bytes.Buffer
	s := NewScheduler(r, zerolog.New(&buf))
	fixed := time.Date(2026, 3, 11, 0, 5, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.ReleaseSlots(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 || !r.before.Equal(fixed) {
		t.Errorf("expected 3 released before %v, got %d before %v", fixed, n, r.before)
	}
	if !strings.Contains(buf.String(), `"released":3`) {
		t.Errorf("expected release count in log, got %s", buf.String())
	}
}

func TestRunSlotRelease_LogsFailure(t *testing.T) {
	r := &stubReleaser{err: errors.New("db down")}
	var buf bytes.Buffer
	s := NewScheduler(r, zerolog.New(&buf))

	s.runSlotRelease()
	if r.calls != 1 {
		t.Fatalf("expected one call, got %d", r.calls)
	}
	if !strings.Contains(buf.String(), "slot release failed") {
		t.Errorf("expected failure log, got %s", buf.String())
	}
}

func TestSchedule(t *testing.T) {
	s := NewScheduler(&stubReleaser{}, zerolog.Nop())
	if err := s.Schedule("not a cron"); err == nil {
		t.Error("expected error for invalid spec")
	}
	if err := s.Schedule(""); err != nil {
		t.Errorf("empty spec should disable the job: %v", err)
	}
	if err := s.Schedule("5 0 * * *"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("expected 1 entry, got %d", got)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
