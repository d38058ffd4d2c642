package geofence

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/reminders"
	"github.com/njoerd114/locationreminders/internal/reminders/reminderstest"
)

var testLogger = slog.Default()

var fastBackoff = Backoff{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func itemAt(title string, lat, lng float64) model.ReminderItem {
	return model.NewReminderItem(model.Ptr(title), nil, model.Ptr("somewhere"), model.Ptr(lat), model.Ptr(lng))
}

// fakeSource is a queue of pending items that counts acknowledgements.
type fakeSource struct {
	mu    sync.Mutex
	items []model.ReminderItem
	acks  int
}

func (s *fakeSource) NextGeofenceRequest(ctx context.Context) (model.ReminderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return model.ReminderItem{}, context.Canceled
	}
	it := s.items[0]
	s.items = s.items[1:]
	return it, nil
}

func (s *fakeSource) OnGeofenceSaved() {
	s.mu.Lock()
	s.acks++
	s.mu.Unlock()
}

func (s *fakeSource) Acks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acks
}

// flakyRegistrar fails the first failures calls.
type flakyRegistrar struct {
	mu       sync.Mutex
	failures int
	calls    int
	added    []Fence
}

func (r *flakyRegistrar) AddGeofence(_ context.Context, f Fence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls <= r.failures {
		return errors.New("not available")
	}
	r.added = append(r.added, f)
	return nil
}

func TestNewFence(t *testing.T) {
	item := itemAt("x", 10, 20)

	f, err := NewFence(item, 0)
	if err != nil {
		t.Fatalf("NewFence: %v", err)
	}
	if f.RequestID != item.ID {
		t.Errorf("RequestID = %q, want %q", f.RequestID, item.ID)
	}
	if f.Latitude != 10 || f.Longitude != 20 {
		t.Errorf("center = (%v, %v), want (10, 20)", f.Latitude, f.Longitude)
	}
	if f.RadiusMeters != DefaultRadiusMeters {
		t.Errorf("RadiusMeters = %v, want %v", f.RadiusMeters, DefaultRadiusMeters)
	}
	if f.Expiration != NeverExpire || f.Transitions != TransitionEnter {
		t.Errorf("fence = %+v, want never-expiring enter fence", f)
	}

	f, _ = NewFence(item, 250)
	if f.RadiusMeters != 250 {
		t.Errorf("RadiusMeters = %v, want 250", f.RadiusMeters)
	}
}

func TestNewFence_NoCoordinates(t *testing.T) {
	item := model.NewReminderItem(model.Ptr("x"), nil, model.Ptr("l"), nil, nil)
	if _, err := NewFence(item, 100); !errors.Is(err, ErrNoCoordinates) {
		t.Errorf("err = %v, want ErrNoCoordinates", err)
	}
}

func TestErrorMessage(t *testing.T) {
	seen := map[string]bool{}
	for _, code := range []int{CodeNotAvailable, CodeTooManyGeofences, CodeTooManyPendingIntents, 42} {
		msg := ErrorMessage(code)
		if msg == "" {
			t.Errorf("ErrorMessage(%d) is empty", code)
		}
		seen[msg] = true
	}
	if len(seen) != 4 {
		t.Errorf("got %d distinct messages, want 4", len(seen))
	}
	if !strings.HasPrefix(ErrorMessage(7), "Unknown error") {
		t.Errorf("ErrorMessage(7) = %q, want unknown error", ErrorMessage(7))
	}
}

func TestBackoff_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fastBackoff.retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("called %d times, want 3", calls)
	}
}

func TestBackoff_WrapsLastError(t *testing.T) {
	sentinel := errors.New("persistent")
	err := fastBackoff.retry(context.Background(), func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("error chain does not contain sentinel: %v", err)
	}
}

func TestBackoff_CancelledBeforeAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastBackoff.retry(ctx, func() error { calls++; return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("called %d times, want 0", calls)
	}
}

func TestBackoff_DelayIsCapped(t *testing.T) {
	b := Backoff{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	for attempt := range 6 {
		d := b.delay(attempt)
		if d < 0 || d > b.MaxDelay {
			t.Errorf("delay(%d) = %v, want within [0, %v]", attempt, d, b.MaxDelay)
		}
	}
}

func TestHandoff_RegistersThenAcknowledges(t *testing.T) {
	item := itemAt("milk", 1, 2)
	src := &fakeSource{items: []model.ReminderItem{item}}
	reg := &flakyRegistrar{failures: 1}
	h := NewHandoff(src, reg, 100, fastBackoff, testLogger)

	if err := h.Run(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled once drained", err)
	}
	if len(reg.added) != 1 || reg.added[0].RequestID != item.ID {
		t.Fatalf("added = %+v, want fence for %s", reg.added, item.ID)
	}
	if src.Acks() != 1 {
		t.Errorf("acks = %d, want 1", src.Acks())
	}
}

func TestHandoff_NoAckOnFailure(t *testing.T) {
	src := &fakeSource{}
	reg := &flakyRegistrar{failures: 10}
	h := NewHandoff(src, reg, 100, fastBackoff, testLogger)

	if err := h.Register(context.Background(), itemAt("x", 1, 2)); err == nil {
		t.Fatal("Register: expected error")
	}
	if src.Acks() != 0 {
		t.Errorf("acks = %d after failed registration, want 0", src.Acks())
	}
	if reg.calls != fastBackoff.Attempts {
		t.Errorf("registrar called %d times, want %d", reg.calls, fastBackoff.Attempts)
	}

	noCoords := model.NewReminderItem(model.Ptr("x"), nil, model.Ptr("l"), nil, nil)
	if err := h.Register(context.Background(), noCoords); !errors.Is(err, ErrNoCoordinates) {
		t.Errorf("Register without coordinates = %v, want ErrNoCoordinates", err)
	}
}

func TestLogRegistrar_RemembersFences(t *testing.T) {
	reg := NewLogRegistrar(testLogger)
	f, _ := NewFence(itemAt("a", 1, 1), 50)
	if err := reg.AddGeofence(context.Background(), f); err != nil {
		t.Fatalf("AddGeofence: %v", err)
	}
	if got := reg.Fences(); len(got) != 1 || got[0] != f {
		t.Errorf("Fences = %+v, want [%+v]", got, f)
	}
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []model.ReminderItem
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, item model.ReminderItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.items = append(n.items, item)
	return nil
}

func TestReceiver_EnterNotifiesKnownReminders(t *testing.T) {
	known := itemAt("milk", 1, 2).ToReminder()
	repo := reminders.NewRepository(reminderstest.NewFakeDataSource(known), testLogger)
	notifier := &recordingNotifier{}
	r := NewReceiver(repo, notifier, testLogger)

	err := r.Handle(context.Background(), Event{
		Transition: TransitionEnter,
		RequestIDs: []string{known.ID, "missing"},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(notifier.items) != 1 || notifier.items[0].ID != known.ID {
		t.Errorf("notified %+v, want only %s", notifier.items, known.ID)
	}
}

func TestReceiver_IgnoresOtherTransitionsAndErrors(t *testing.T) {
	known := itemAt("milk", 1, 2).ToReminder()
	notifier := &recordingNotifier{}
	r := NewReceiver(reminderstest.NewFakeDataSource(known), notifier, testLogger)
	ctx := context.Background()

	for _, ev := range []Event{
		{Transition: TransitionExit, RequestIDs: []string{known.ID}},
		{Transition: TransitionDwell, RequestIDs: []string{known.ID}},
		{Transition: TransitionEnter, RequestIDs: []string{known.ID}, ErrorCode: CodeNotAvailable},
	} {
		if err := r.Handle(ctx, ev); err != nil {
			t.Errorf("Handle(%+v): %v", ev, err)
		}
	}
	if len(notifier.items) != 0 {
		t.Errorf("notified %d reminders, want 0", len(notifier.items))
	}
}

func TestReceiver_NotifierErrorsAreReturned(t *testing.T) {
	known := itemAt("milk", 1, 2).ToReminder()
	notifier := &recordingNotifier{err: errors.New("no display")}
	r := NewReceiver(reminderstest.NewFakeDataSource(known), notifier, testLogger)

	err := r.Handle(context.Background(), Event{Transition: TransitionEnter, RequestIDs: []string{known.ID}})
	if err == nil || !strings.Contains(err.Error(), "no display") {
		t.Errorf("Handle = %v, want notifier error", err)
	}
}

func TestLogNotifier_WritesLine(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(&buf, testLogger)
	item := itemAt("milk", 1, 2)

	if err := n.Notify(context.Background(), item); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "milk") || !strings.Contains(got, "somewhere") {
		t.Errorf("output = %q, want title and location", got)
	}
}
