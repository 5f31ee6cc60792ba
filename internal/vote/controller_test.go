package vote

import (
	"context"
	"testing"
	"time"

	"rollcube/client/logging"
	"rollcube/client/logging/consensus"
	"rollcube/client/logging/sinks"
)

func TestCountdownDecreasesMonotonicallyWithoutLocalResolution(t *testing.T) {
	ctx := context.Background()
	c := NewController("me", nil)
	start := time.Unix(5000, 0)

	c.Resume(ctx, []string{OptionRestart, OptionContinue}, 4000*time.Millisecond,
		map[string]int{OptionRestart: 1}, map[string]string{"p2": OptionRestart}, start, 1)

	prev := c.Remaining(start)
	if prev != 4*time.Second {
		t.Fatalf("initial remaining = %v, want 4s", prev)
	}
	for i := 1; i <= 10; i++ {
		now := start.Add(time.Duration(i) * 500 * time.Millisecond)
		remaining := c.Remaining(now)
		if remaining > prev {
			t.Fatalf("remaining increased: %v -> %v", prev, remaining)
		}
		if remaining < 0 {
			t.Fatalf("remaining went negative: %v", remaining)
		}
		prev = remaining
	}
	if prev != 0 {
		t.Fatalf("remaining should clamp to 0, got %v", prev)
	}
	// Deadline passed, but the vote stays open until the authority ends it.
	if !c.Active() {
		t.Fatal("client must never resolve a vote on its own")
	}
	if c.LastOutcome() != nil {
		t.Fatal("client must not assert a winner")
	}
}

func TestSingleLocalBallot(t *testing.T) {
	ctx := context.Background()
	sink := sinks.NewMemorySink()
	c := NewController("me", logging.SinkPublisher(sink))
	now := time.Unix(5000, 0)
	c.Begin(ctx, []string{OptionRestart, OptionContinue}, 10*time.Second, now, "p1", 1)

	opt, ok := c.CastLocal(ctx, OptionRestart, now.Add(time.Second), 2)
	if !ok || opt != OptionRestart {
		t.Fatalf("first cast = (%q, %v)", opt, ok)
	}
	if _, ok := c.CastLocal(ctx, OptionContinue, now.Add(2*time.Second), 3); ok {
		t.Fatal("second cast must be a no-op")
	}
	if c.LocalBallot() != OptionRestart {
		t.Fatalf("local ballot = %q", c.LocalBallot())
	}
	if len(sink.EventsOfType(consensus.EventBallotCast)) != 1 {
		t.Fatal("exactly one ballot event expected")
	}
}

func TestCastRejectedAfterDeadlineAndForUnknownOption(t *testing.T) {
	ctx := context.Background()
	c := NewController("me", nil)
	now := time.Unix(5000, 0)
	c.Begin(ctx, []string{OptionRestart, OptionContinue}, 3*time.Second, now, "p1", 1)

	if _, ok := c.CastLocal(ctx, "skip", now, 2); ok {
		t.Fatal("unknown option must be rejected")
	}
	if _, ok := c.CastLocal(ctx, OptionRestart, now.Add(3*time.Second), 3); ok {
		t.Fatal("cast at the deadline must be rejected")
	}
	if c.LocalBallot() != "" {
		t.Fatal("no ballot should be recorded")
	}
}

func TestTallyIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	c := NewController("me", nil)
	now := time.Unix(5000, 0)
	c.Begin(ctx, []string{OptionRestart, OptionContinue}, 10*time.Second, now, "p1", 1)

	c.ApplyUpdate(map[string]int{OptionRestart: 2, OptionContinue: 1},
		map[string]string{"p1": OptionRestart, "p2": OptionRestart, "p3": OptionContinue})
	tally := c.Tally()
	if tally[OptionRestart] != 2 || tally[OptionContinue] != 1 {
		t.Fatalf("tally = %v", tally)
	}
	if c.BallotCount() != 3 {
		t.Fatalf("ballots = %d", c.BallotCount())
	}
	if !c.TallyConsistent(3) {
		t.Fatal("a full 3-player tally is consistent")
	}
	if c.TallyConsistent(2) {
		t.Fatal("3 ballots cannot come from 2 players")
	}
}

func TestResolveAppliesAuthorityVerbatim(t *testing.T) {
	ctx := context.Background()
	sink := sinks.NewMemorySink()
	c := NewController("me", logging.SinkPublisher(sink))
	now := time.Unix(5000, 0)
	c.Begin(ctx, []string{OptionRestart, OptionContinue}, 10*time.Second, now, "p1", 1)
	c.CastLocal(ctx, OptionContinue, now, 2)

	outcome := c.Resolve(ctx, OptionRestart, "p2", 3)
	if outcome.Winner != OptionRestart || outcome.CompletedBy != "p2" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if c.Active() {
		t.Fatal("resolution must deactivate the vote")
	}
	if c.LocalBallot() != "" {
		t.Fatal("resolution must clear the local ballot")
	}
	if len(sink.EventsOfType(consensus.EventVoteResolved)) != 1 {
		t.Fatal("vote-resolved event missing")
	}
}

func TestResumeRestoresOwnBallot(t *testing.T) {
	ctx := context.Background()
	c := NewController("me", nil)
	now := time.Unix(5000, 0)

	c.Resume(ctx, []string{OptionRestart, OptionContinue}, 6*time.Second,
		map[string]int{OptionContinue: 1},
		map[string]string{"me": OptionContinue}, now, 1)

	if c.LocalBallot() != OptionContinue {
		t.Fatalf("resumed ballot = %q", c.LocalBallot())
	}
	if _, ok := c.CastLocal(ctx, OptionRestart, now, 2); ok {
		t.Fatal("a resumed ballot blocks further casts")
	}
}
