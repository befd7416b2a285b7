package session

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"bigtwo/internal/app"
	"bigtwo/internal/bot"
	"bigtwo/internal/config"
	"bigtwo/internal/domain"
	"bigtwo/internal/multiplayer"
	"bigtwo/internal/store"
)

func quietEngine(t *testing.T) *app.Engine {
	t.Helper()
	cfg := config.Defaults()
	cfg.AutoPass.GraceMS = 600000 // keep timers out of snapshot tests
	engine := app.NewEngine(cfg, [domain.Seats]bot.Brain{}, rand.New(rand.NewSource(21)), nil)
	t.Cleanup(engine.Close)
	engine.Start()
	return engine
}

func TestLocalSnapshotLeader(t *testing.T) {
	engine := quietEngine(t)
	leader := engine.CurrentTurn()
	game := NewLocal(engine, leader)

	snap := game.Snapshot()

	if snap.Mode != ModeLocal || snap.Phase != string(domain.PhasePlaying) {
		t.Fatalf("mode/phase = %s/%s", snap.Mode, snap.Phase)
	}
	if len(snap.Hand) != domain.HandSize {
		t.Errorf("own hand has %d cards, want %d", len(snap.Hand), domain.HandSize)
	}
	for seat, n := range snap.Counts {
		if n != domain.HandSize {
			t.Errorf("seat %d count = %d, want %d", seat, n, domain.HandSize)
		}
	}
	if snap.LastPlay != nil {
		t.Error("fresh trick must have no last play")
	}
	if snap.CanPass {
		t.Error("leader cannot pass")
	}
	if len(snap.LegalPlays) == 0 {
		t.Fatal("leader must have legal plays")
	}
	for _, play := range snap.LegalPlays {
		found := false
		for _, c := range play {
			if c == domain.LowestCard {
				found = true
			}
		}
		if !found {
			t.Fatalf("opening play %v lacks the three of diamonds", play)
		}
	}
}

func TestLocalSnapshotOffTurnHasNoLegalPlays(t *testing.T) {
	engine := quietEngine(t)
	leader := engine.CurrentTurn()
	game := NewLocal(engine, (leader+1)%domain.Seats)

	snap := game.Snapshot()
	if snap.LegalPlays != nil {
		t.Errorf("off-turn seat has legal plays: %v", snap.LegalPlays)
	}
	if snap.CanPass {
		t.Error("off-turn seat cannot pass")
	}
}

func TestLocalPlayRoundTrip(t *testing.T) {
	engine := quietEngine(t)
	leader := engine.CurrentTurn()
	game := NewLocal(engine, leader)

	if res := game.Pass(context.Background()); res.OK || res.Reason == "" {
		t.Errorf("leader pass must fail with a reason, got %+v", res)
	}

	hint := game.Hint()
	if hint.Pass {
		t.Fatal("leader hint must be a play")
	}
	res := game.Play(context.Background(), domain.CardIDs(hint.Cards))
	if !res.OK {
		t.Fatalf("play rejected: %s", res.Reason)
	}

	snap := game.Snapshot()
	if len(snap.Hand) != domain.HandSize-len(hint.Cards) {
		t.Errorf("hand size = %d after playing %d cards", len(snap.Hand), len(hint.Cards))
	}
	if snap.LastPlay == nil || snap.LastPlay.Seat != leader {
		t.Errorf("last play not recorded: %+v", snap.LastPlay)
	}
}

func TestLocalPlayRejectsUnknownIDs(t *testing.T) {
	engine := quietEngine(t)
	game := NewLocal(engine, engine.CurrentTurn())

	if res := game.Play(context.Background(), []int{99}); res.OK || res.Reason == "" {
		t.Errorf("expected rejection for unknown card id, got %+v", res)
	}
}

func TestRemoteSnapshotFromRow(t *testing.T) {
	game := NewRemote(nil, 2)

	// Before any row arrives the snapshot is an empty dealing state.
	if snap := game.Snapshot(); snap.Phase != string(domain.PhaseDealing) || snap.Hand != nil {
		t.Errorf("pre-row snapshot = %+v", snap)
	}

	game.Apply(&store.RoomRow{
		RoomID:      "K7PQ",
		CurrentTurn: 2,
		Hands:       map[string][]int{"0": {1, 2, 3}, "1": {5}, "2": {20, 24}, "3": {30, 31}},
		LastPlay:    &store.LastPlayRecord{Seat: 1, Cards: []int{16}},
		GamePhase:   string(domain.PhasePlaying),
		MatchNumber: 2,
		RoundNumber: 4,
		Timer:       &store.TimerRecord{Active: true, Seat: 2, RemainingMS: 7300},
		Scores:      map[string]int{"0": 5, "1": 0, "2": 12, "3": 9},
	})

	snap := game.Snapshot()
	if len(snap.Hand) != 2 {
		t.Fatalf("own hand = %v", snap.Hand)
	}
	if snap.Counts != [domain.Seats]int{3, 1, 2, 2} {
		t.Errorf("counts = %v", snap.Counts)
	}
	if snap.Scores != [domain.Seats]int{5, 0, 12, 9} {
		t.Errorf("scores = %v", snap.Scores)
	}
	if snap.CountdownMS != 7300 {
		t.Errorf("countdown = %d", snap.CountdownMS)
	}
	if !snap.CanPass {
		t.Error("responding seat can pass")
	}
	// 20=8D, 24=9D both beat 16=7D.
	if len(snap.LegalPlays) != 2 {
		t.Errorf("legal plays = %v", snap.LegalPlays)
	}
}

func TestRemoteHintHonorsOpener(t *testing.T) {
	// Full first deal: seat 0 holds the pair of threes plus a loose 7H the
	// hint would otherwise prefer.
	seat0 := []int{0, 1, 18, 22, 26, 30, 34, 38, 42, 46, 50, 5, 9}
	held := make(map[int]bool, len(seat0))
	for _, id := range seat0 {
		held[id] = true
	}
	rest := make([]int, 0, 3*domain.HandSize)
	for id := 0; id < 52; id++ {
		if !held[id] {
			rest = append(rest, id)
		}
	}

	game := NewRemote(nil, 0)
	game.Apply(&store.RoomRow{
		RoomID:      "K7PQ",
		CurrentTurn: 0,
		Hands: map[string][]int{
			"0": seat0,
			"1": rest[:domain.HandSize],
			"2": rest[domain.HandSize : 2*domain.HandSize],
			"3": rest[2*domain.HandSize:],
		},
		GamePhase:   string(domain.PhasePlaying),
		MatchNumber: 1,
		RoundNumber: 1,
	})

	hint := game.Hint()
	if hint.Pass {
		t.Fatal("opener hint must be a play")
	}
	found := false
	for _, c := range hint.Cards {
		if c == domain.LowestCard {
			found = true
		}
	}
	if !found {
		t.Fatalf("opening hint %v lacks the three of diamonds", hint.Cards)
	}
}

func TestRemoteResultReasons(t *testing.T) {
	tests := []struct {
		name string
		err  error
		ok   bool
	}{
		{"success", nil, true},
		{"in flight", multiplayer.ErrCommandInFlight, false},
		{"not your turn", store.ErrNotYourTurn, false},
		{"stale turn", store.ErrStaleTurn, false},
		{"room gone", store.ErrRoomGone, false},
		{"validation", &store.ValidationError{Detail: "cards not in hand"}, false},
		{"transport", errors.New("dial tcp: timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := remoteResult(tt.err)
			if res.OK != tt.ok {
				t.Errorf("OK = %v, want %v", res.OK, tt.ok)
			}
			if !tt.ok && res.Reason == "" {
				t.Error("failures must carry a human-readable reason")
			}
		})
	}
}
