package toolserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/njoerd114/locationreminders/internal/geofence"
	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/reminders"
	"github.com/njoerd114/locationreminders/internal/reminders/reminderstest"
	"github.com/njoerd114/locationreminders/internal/viewmodel"
)

var testLogger = slog.Default()

type recordingHandler struct {
	mu     sync.Mutex
	events []geofence.Event
}

func (h *recordingHandler) Handle(_ context.Context, ev geofence.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return nil
}

func newTestServer(t *testing.T, fake *reminderstest.FakeDataSource) (*Server, *recordingHandler) {
	t.Helper()
	repo := reminders.NewRepository(fake, testLogger)
	save := viewmodel.NewSaveReminder(repo, testLogger)
	t.Cleanup(save.Close)
	h := &recordingHandler{}
	return NewServer("test", repo, save, h, testLogger), h
}

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestListReminders(t *testing.T) {
	ctx := context.Background()

	s, _ := newTestServer(t, reminderstest.NewFakeDataSource())
	res, err := s.handleListReminders(ctx, request(nil))
	if err != nil {
		t.Fatalf("handleListReminders: %v", err)
	}
	if got := resultText(t, res); got != "No reminders found." {
		t.Errorf("empty list text = %q", got)
	}

	r := model.NewReminder(model.Ptr("milk"), nil, model.Ptr("shop"), nil, nil)
	s, _ = newTestServer(t, reminderstest.NewFakeDataSource(r))
	res, _ = s.handleListReminders(ctx, request(nil))

	var list []model.Reminder
	if err := json.Unmarshal([]byte(resultText(t, res)), &list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list) != 1 || list[0].ID != r.ID {
		t.Errorf("list = %v, want [%s]", list, r.ID)
	}
}

func TestListReminders_Error(t *testing.T) {
	fake := reminderstest.NewFakeDataSource()
	fake.SetError("Test exception")
	s, _ := newTestServer(t, fake)

	res, _ := s.handleListReminders(context.Background(), request(nil))
	if !res.IsError || !strings.Contains(resultText(t, res), "Test exception") {
		t.Errorf("result = %+v, want error carrying message", res)
	}
}

func TestGetReminder(t *testing.T) {
	r := model.NewReminder(model.Ptr("milk"), nil, model.Ptr("shop"), nil, nil)
	s, _ := newTestServer(t, reminderstest.NewFakeDataSource(r))
	ctx := context.Background()

	res, _ := s.handleGetReminder(ctx, request(map[string]any{"id": r.ID}))
	if res.IsError {
		t.Fatalf("get_reminder failed: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), r.ID) {
		t.Errorf("result does not mention %s", r.ID)
	}

	res, _ = s.handleGetReminder(ctx, request(map[string]any{"id": "nope"}))
	if !res.IsError || resultText(t, res) != reminders.NotFoundMessage {
		t.Errorf("missing id result = %q, want %q", resultText(t, res), reminders.NotFoundMessage)
	}

	res, _ = s.handleGetReminder(ctx, request(nil))
	if !res.IsError {
		t.Error("get_reminder without id succeeded")
	}
}

func TestSaveReminder_Validates(t *testing.T) {
	fake := reminderstest.NewFakeDataSource()
	s, _ := newTestServer(t, fake)

	res, _ := s.handleSaveReminder(context.Background(), request(map[string]any{"location": "shop"}))
	if !res.IsError || resultText(t, res) != viewmodel.ErrEnterTitle.String() {
		t.Errorf("result = %q, want %q", resultText(t, res), viewmodel.ErrEnterTitle.String())
	}
	if fake.Saves() != 0 {
		t.Errorf("Saves = %d, want 0", fake.Saves())
	}
}

func TestSaveReminder_Persists(t *testing.T) {
	fake := reminderstest.NewFakeDataSource()
	s, _ := newTestServer(t, fake)

	res, _ := s.handleSaveReminder(context.Background(), request(map[string]any{
		"title":     "milk",
		"location":  "shop",
		"latitude":  52.5,
		"longitude": 13.4,
	}))
	if res.IsError {
		t.Fatalf("save_reminder failed: %s", resultText(t, res))
	}

	stored := fake.All()
	if len(stored) != 1 {
		t.Fatalf("stored %d reminders, want 1", len(stored))
	}
	if stored[0].Description != nil {
		t.Errorf("Description = %q, want nil", *stored[0].Description)
	}
	if model.Deref(stored[0].Latitude) != 52.5 {
		t.Errorf("Latitude = %v, want 52.5", model.Deref(stored[0].Latitude))
	}
	if s.save.PendingGeofenceRequests() != 1 {
		t.Errorf("pending geofence requests = %d, want 1", s.save.PendingGeofenceRequests())
	}
}

func TestSaveReminder_RejectsNonNumericCoordinate(t *testing.T) {
	fake := reminderstest.NewFakeDataSource()
	s, _ := newTestServer(t, fake)

	res, _ := s.handleSaveReminder(context.Background(), request(map[string]any{
		"title":     "milk",
		"location":  "shop",
		"latitude":  "north",
		"longitude": 13.4,
	}))
	if !res.IsError || !strings.Contains(resultText(t, res), "latitude") {
		t.Errorf("result = %q, want latitude error", resultText(t, res))
	}
	if fake.Saves() != 0 {
		t.Errorf("Saves = %d, want 0", fake.Saves())
	}
	if n := s.save.PendingGeofenceRequests(); n != 0 {
		t.Errorf("pending geofence requests = %d, want 0", n)
	}
}

func TestSaveReminder_AcceptsNumericStringCoordinate(t *testing.T) {
	fake := reminderstest.NewFakeDataSource()
	s, _ := newTestServer(t, fake)

	res, _ := s.handleSaveReminder(context.Background(), request(map[string]any{
		"title":     "milk",
		"location":  "shop",
		"latitude":  "52.5",
		"longitude": 13,
	}))
	if res.IsError {
		t.Fatalf("save_reminder failed: %s", resultText(t, res))
	}
	stored := fake.All()
	if len(stored) != 1 || model.Deref(stored[0].Latitude) != 52.5 || model.Deref(stored[0].Longitude) != 13 {
		t.Errorf("stored = %v, want coordinates (52.5, 13)", stored)
	}
}

func TestSaveReminder_StorageError(t *testing.T) {
	fake := reminderstest.NewFakeDataSource()
	fake.SetError("disk full")
	s, _ := newTestServer(t, fake)

	res, _ := s.handleSaveReminder(context.Background(), request(map[string]any{"title": "t", "location": "l"}))
	if !res.IsError || !strings.Contains(resultText(t, res), "disk full") {
		t.Errorf("result = %q, want storage error", resultText(t, res))
	}
}

func TestDeleteAll(t *testing.T) {
	fake := reminderstest.NewFakeDataSource(model.NewReminder(model.Ptr("a"), nil, model.Ptr("b"), nil, nil))
	s, _ := newTestServer(t, fake)

	res, _ := s.handleDeleteAll(context.Background(), request(nil))
	if res.IsError {
		t.Fatalf("delete_all_reminders failed: %s", resultText(t, res))
	}
	if n := len(fake.All()); n != 0 {
		t.Errorf("%d reminders left, want 0", n)
	}
}

func TestEnterGeofence(t *testing.T) {
	s, h := newTestServer(t, reminderstest.NewFakeDataSource())

	res, _ := s.handleEnterGeofence(context.Background(), request(map[string]any{"ids": " a, b ,,"}))
	if res.IsError {
		t.Fatalf("enter_geofence failed: %s", resultText(t, res))
	}
	if len(h.events) != 1 {
		t.Fatalf("events = %d, want 1", len(h.events))
	}
	ev := h.events[0]
	if ev.Transition != geofence.TransitionEnter || len(ev.RequestIDs) != 2 || ev.RequestIDs[0] != "a" || ev.RequestIDs[1] != "b" {
		t.Errorf("event = %+v, want enter for [a b]", ev)
	}

	res, _ = s.handleEnterGeofence(context.Background(), request(nil))
	if !res.IsError {
		t.Error("enter_geofence without ids succeeded")
	}
}
