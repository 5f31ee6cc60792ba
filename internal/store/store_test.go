package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)
	var v Settings
	ok, err := s.Get(context.Background(), "settings", &v)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("missing key must report false")
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.SaveSettings(ctx, Settings{PlayerID: "u1", PlayerName: "alpha"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveSettings(ctx, Settings{PlayerID: "u1", PlayerName: "beta", Color: "#fff"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.LoadSettings(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if v.PlayerName != "beta" || v.Color != "#fff" {
		t.Fatalf("settings = %+v", v)
	}
}

func TestProgressRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	want := Progress{HighestLevel: 4, BestScore: 370, CompletedLevels: []int{1, 2, 3}}
	if err := s.SaveProgress(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.LoadProgress(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.HighestLevel != want.HighestLevel || got.BestScore != want.BestScore {
		t.Fatalf("progress = %+v", got)
	}
	if len(got.CompletedLevels) != 3 {
		t.Fatalf("completed levels = %v", got.CompletedLevels)
	}
}

func TestStatisticsAccumulate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	stats, _, err := s.LoadStatistics(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	stats.SessionsPlayed++
	stats.GravityShifts += 7
	if err := s.SaveStatistics(ctx, stats); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.LoadStatistics(ctx)
	if err != nil || !ok {
		t.Fatalf("reload: ok=%v err=%v", ok, err)
	}
	if got.SessionsPlayed != 1 || got.GravityShifts != 7 {
		t.Fatalf("statistics = %+v", got)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Put(ctx, "scratch", map[string]int{"a": 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(ctx, "scratch"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var out map[string]int
	ok, err := s.Get(ctx, "scratch", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("deleted key must be gone")
	}
}
