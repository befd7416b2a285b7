package store

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const rowFixture = `{
	"host_id": "client-a",
	"current_turn": 2,
	"last_play": {"seat": 1, "cards": [16, 18]},
	"hands": {"0": [0, 5, 9], "1": [12], "2": [3, 7], "3": [40, 44, 51]},
	"pass_count": 1,
	"game_phase": "playing",
	"match_number": 3,
	"round_number": 7,
	"auto_pass_timer": {"active": true, "seat": 2, "remaining_ms": 8200},
	"scores": {"0": 12, "1": 0, "2": 31, "3": 8},
	"bot_seats": [3]
}`

func TestDecodeRowFixture(t *testing.T) {
	row, err := DecodeRow([]byte(rowFixture))
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}

	if row.CurrentTurn != 2 || row.GamePhase != "playing" {
		t.Errorf("unexpected turn/phase: %d %s", row.CurrentTurn, row.GamePhase)
	}
	if row.LastPlay == nil || row.LastPlay.Seat != 1 || len(row.LastPlay.Cards) != 2 {
		t.Errorf("unexpected last play: %+v", row.LastPlay)
	}
	if got := row.Hand(3); len(got) != 3 || got[2] != 51 {
		t.Errorf("unexpected hand for seat 3: %v", got)
	}
	if row.Hand(9) != nil {
		t.Errorf("unknown seat should have nil hand")
	}
	if row.Score(2) != 31 {
		t.Errorf("score(2) = %d, want 31", row.Score(2))
	}
	if !row.IsBotSeat(3) || row.IsBotSeat(0) {
		t.Error("bot seat detection wrong")
	}
	if row.Timer == nil || !row.Timer.Active || row.Timer.RemainingMS != 8200 {
		t.Errorf("unexpected timer: %+v", row.Timer)
	}
}

func TestEncodeDecodePreservesAbsentFields(t *testing.T) {
	row := &RoomRow{
		RoomID:      "K7PQ",
		CurrentTurn: 0,
		Hands:       map[string][]int{"0": {1, 2}},
		GamePhase:   "dealing",
		MatchNumber: 1,
		RoundNumber: 1,
	}

	data, err := EncodeRow(row)
	if err != nil {
		t.Fatalf("EncodeRow: %v", err)
	}
	back, err := DecodeRow(data)
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}

	if back.LastPlay != nil {
		t.Errorf("fresh trick must round-trip as nil last play, got %+v", back.LastPlay)
	}
	if back.Timer != nil {
		t.Errorf("inactive timer must round-trip as nil, got %+v", back.Timer)
	}
}

func TestDecodeRowRejectsGarbage(t *testing.T) {
	if _, err := DecodeRow([]byte(`{"current_turn": "later"}`)); err == nil {
		t.Error("expected decode error for mistyped field")
	}
}

func TestMapSubmitStatus(t *testing.T) {
	tests := []struct {
		status string
		want   error
	}{
		{"ok", nil},
		{"room_gone", ErrRoomGone},
		{"not_your_turn", ErrNotYourTurn},
		{"stale_turn", ErrStaleTurn},
	}
	for _, tt := range tests {
		if got := mapSubmitStatus(tt.status); !errors.Is(got, tt.want) {
			t.Errorf("mapSubmitStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}

	var vErr *ValidationError
	err := mapSubmitStatus("invalid: cards not in hand")
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Detail != "cards not in hand" {
		t.Errorf("detail = %q", vErr.Detail)
	}

	if err := mapSubmitStatus("???"); err == nil {
		t.Error("unexpected status must surface as error")
	}
}

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "player-1",
		ExpiresAt: jwt.NewNumericDate(expiry),
	})
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTokenExpiry(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	got, err := TokenExpiry(signedToken(t, expiry))
	if err != nil {
		t.Fatalf("TokenExpiry: %v", err)
	}
	if !got.Equal(expiry) {
		t.Errorf("expiry = %v, want %v", got, expiry)
	}

	if _, err := TokenExpiry("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestTokenExpiryMissingClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "player-1"})
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := TokenExpiry(s); !errors.Is(err, ErrNoExpiry) {
		t.Errorf("expected ErrNoExpiry, got %v", err)
	}
}

func TestRefreshIn(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))

	wait, err := RefreshIn(token, 10*time.Minute)
	if err != nil {
		t.Fatalf("RefreshIn: %v", err)
	}
	if wait <= 49*time.Minute || wait > 50*time.Minute {
		t.Errorf("wait = %v, want just under 50m", wait)
	}

	expired := signedToken(t, time.Now().Add(-time.Minute))
	wait, err = RefreshIn(expired, 10*time.Minute)
	if err != nil {
		t.Fatalf("RefreshIn expired: %v", err)
	}
	if wait != 0 {
		t.Errorf("expired token should refresh immediately, got %v", wait)
	}
}
