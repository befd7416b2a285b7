package multiplayer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bigtwo/internal/config"
	"bigtwo/internal/store"
)

type submitRecord struct {
	action  Action
	seat    int
	cardIDs []int
}

type fakeSub struct {
	ch   chan struct{}
	once sync.Once
}

func (s *fakeSub) Notifications() <-chan struct{} { return s.ch }

func (s *fakeSub) Close() error {
	s.once.Do(func() { close(s.ch) })
	return nil
}

// fakeStore is an in-memory RoomStore driving the projection tests.
type fakeStore struct {
	mu         sync.Mutex
	row        *store.RoomRow
	fetchErrs  []error // consumed before successful fetches
	submitErr  error
	submitGate chan struct{} // when set, submits block until it closes
	submits    []submitRecord
	subs       []*fakeSub
}

func newFakeStore(row *store.RoomRow) *fakeStore {
	return &fakeStore{row: row}
}

func (f *fakeStore) FetchRoom(ctx context.Context, roomID string) (*store.RoomRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		return nil, err
	}
	if f.row == nil {
		return nil, store.ErrRoomGone
	}
	cp := *f.row
	return &cp, nil
}

func (f *fakeStore) Subscribe(ctx context.Context, roomID string) (store.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSub{ch: make(chan struct{}, 4)}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeStore) SubmitPlay(ctx context.Context, roomID string, seat int, cardIDs []int) error {
	return f.submit(ctx, submitRecord{action: ActionPlay, seat: seat, cardIDs: cardIDs})
}

func (f *fakeStore) SubmitPass(ctx context.Context, roomID string, seat int) error {
	return f.submit(ctx, submitRecord{action: ActionPass, seat: seat})
}

func (f *fakeStore) submit(ctx context.Context, rec submitRecord) error {
	f.mu.Lock()
	gate := f.submitGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, rec)
	return f.submitErr
}

func (f *fakeStore) signal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) > 0 {
		f.subs[len(f.subs)-1].ch <- struct{}{}
	}
}

func (f *fakeStore) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeStore) submitted() []submitRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]submitRecord{}, f.submits...)
}

func syncConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Sync.RetryBackoffMS = 1
	cfg.Sync.FetchRetries = 3
	cfg.Sync.CommandTimeoutMS = 200
	return cfg
}

func testRow() *store.RoomRow {
	return &store.RoomRow{
		RoomID:      "K7PQ",
		HostID:      "client-a",
		CurrentTurn: 0,
		Hands:       map[string][]int{"0": {0, 4}, "1": {8}, "2": {12}, "3": {16}},
		GamePhase:   "playing",
		MatchNumber: 1,
		RoundNumber: 2,
	}
}

func recvRow(t *testing.T, updates <-chan *store.RoomRow) *store.RoomRow {
	t.Helper()
	select {
	case row, ok := <-updates:
		if !ok {
			t.Fatal("updates channel closed")
		}
		return row
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for row update")
	}
	return nil
}

func TestClientPublishesRowOnSignal(t *testing.T) {
	fs := newFakeStore(testRow())
	client := NewClient(fs, syncConfig(), "K7PQ", 0, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(ctx) }()

	first := recvRow(t, client.Updates())
	if first.CurrentTurn != 0 {
		t.Errorf("initial row turn = %d, want 0", first.CurrentTurn)
	}

	fs.mu.Lock()
	fs.row.CurrentTurn = 1
	fs.mu.Unlock()
	fs.signal()

	next := recvRow(t, client.Updates())
	if next.CurrentTurn != 1 {
		t.Errorf("refetched row turn = %d, want 1", next.CurrentTurn)
	}

	cancel()
	if err := <-runErr; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestClientRetriesTransientFetchFailures(t *testing.T) {
	fs := newFakeStore(testRow())
	fs.fetchErrs = []error{errors.New("timeout"), errors.New("timeout")}
	client := NewClient(fs, syncConfig(), "K7PQ", 0, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	if row := recvRow(t, client.Updates()); row == nil {
		t.Fatal("expected row after retries")
	}
}

func TestClientSurfacesRoomGone(t *testing.T) {
	fs := newFakeStore(nil)
	client := NewClient(fs, syncConfig(), "K7PQ", 0, nil, nil)

	err := client.Run(context.Background())
	if !errors.Is(err, store.ErrRoomGone) {
		t.Errorf("Run returned %v, want ErrRoomGone", err)
	}
	if _, ok := <-client.Updates(); ok {
		t.Error("updates channel should be closed")
	}
}

func TestClientResubscribesWhenFeedDies(t *testing.T) {
	fs := newFakeStore(testRow())
	client := NewClient(fs, syncConfig(), "K7PQ", 0, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	recvRow(t, client.Updates())

	// Kill the feed; the client must resubscribe and refetch.
	fs.mu.Lock()
	dead := fs.subs[0]
	fs.mu.Unlock()
	dead.Close()

	recvRow(t, client.Updates())
	deadline := time.Now().Add(2 * time.Second)
	for fs.subscribeCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("client never resubscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The new subscription is live.
	fs.signal()
	recvRow(t, client.Updates())
}

func TestClientBlocksDoubleTapSubmits(t *testing.T) {
	fs := newFakeStore(testRow())
	gate := make(chan struct{})
	fs.submitGate = gate
	client := NewClient(fs, syncConfig(), "K7PQ", 0, nil, nil)

	firstDone := make(chan error, 1)
	go func() { firstDone <- client.Play(context.Background(), []int{0}) }()

	// Wait until the first submit is parked on the gate.
	time.Sleep(20 * time.Millisecond)
	if err := client.Play(context.Background(), []int{0}); !errors.Is(err, ErrCommandInFlight) {
		t.Errorf("second play returned %v, want ErrCommandInFlight", err)
	}
	// A pass uses its own slot and is not blocked by the play.
	passDone := make(chan error, 1)
	go func() { passDone <- client.Pass(context.Background()) }()

	close(gate)
	if err := <-firstDone; err != nil {
		t.Errorf("first play: %v", err)
	}
	if err := <-passDone; err != nil {
		t.Errorf("pass: %v", err)
	}

	// Slot free again after acknowledgment.
	if err := client.Play(context.Background(), []int{4}); err != nil {
		t.Errorf("play after release: %v", err)
	}

	recs := fs.submitted()
	if len(recs) != 3 {
		t.Fatalf("expected 3 accepted submits, got %d", len(recs))
	}
}

func TestClientCloseBeforeRunReturns(t *testing.T) {
	c := NewClient(newFakeStore(testRow()), syncConfig(), "K7PQ", 0, nil, nil)

	start := time.Now()
	c.Close()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Close before Run blocked for %v", elapsed)
	}
}
