package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/reminders/reminderstest"
)

func TestRepository_ForwardsUnchanged(t *testing.T) {
	r1 := newReminder("one")
	fake := reminderstest.NewFakeDataSource(r1)
	repo := NewRepository(fake, testLogger)
	ctx := context.Background()

	list, ok := repo.GetReminders(ctx).Get()
	if !ok || len(list) != 1 || list[0].ID != r1.ID {
		t.Fatalf("GetReminders = %v, want [%s]", list, r1)
	}

	r2 := newReminder("two")
	if err := repo.SaveReminder(ctx, r2); err != nil {
		t.Fatalf("SaveReminder: %v", err)
	}
	if got, ok := repo.GetReminder(ctx, r2.ID).Get(); !ok || got.ID != r2.ID {
		t.Errorf("GetReminder = %v, want %s", got, r2)
	}

	if err := repo.DeleteAllReminders(ctx); err != nil {
		t.Fatalf("DeleteAllReminders: %v", err)
	}
	if n := len(fake.All()); n != 0 {
		t.Errorf("fake has %d reminders after DeleteAllReminders, want 0", n)
	}
}

func TestRepository_ErrorsPassThrough(t *testing.T) {
	fake := reminderstest.NewFakeDataSource()
	fake.SetError("Test exception")
	repo := NewRepository(fake, testLogger)
	ctx := context.Background()

	if msg, _ := repo.GetReminders(ctx).Message(); msg != "Test exception" {
		t.Errorf("GetReminders message = %q, want %q", msg, "Test exception")
	}
	if err := repo.SaveReminder(ctx, newReminder("x")); err == nil {
		t.Error("SaveReminder: expected error, got nil")
	}
	if !repo.IdlingResource().IsIdle() {
		t.Errorf("InFlight = %d after failing calls, want 0", repo.IdlingResource().InFlight())
	}
}

func TestRepository_TracksInFlightWork(t *testing.T) {
	fake := reminderstest.NewFakeDataSource()
	fake.Gate = make(chan struct{})
	repo := NewRepository(fake, testLogger)
	idle := repo.IdlingResource()

	done := make(chan struct{})
	go func() {
		_ = repo.SaveReminder(context.Background(), newReminder("slow"))
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for idle.IsIdle() {
		if time.Now().After(deadline) {
			t.Fatal("repository never reported in-flight work")
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := idle.WaitIdle(ctx); err == nil {
		t.Error("WaitIdle returned before the gated call finished")
	}

	close(fake.Gate)
	<-done

	if err := idle.WaitIdle(context.Background()); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
	if fake.Saves() != 1 {
		t.Errorf("Saves = %d, want 1", fake.Saves())
	}
}

func TestIdlingResource_DecrementBelowZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewIdlingResource(nil).Decrement(context.Background())
}

func TestRepository_OverRealStore(t *testing.T) {
	repo := NewRepository(newTestDataSource(t), testLogger)
	ctx := context.Background()
	r := model.NewReminder(model.Ptr("Dentist"), nil, model.Ptr("Main St"), model.Ptr(1.0), model.Ptr(2.0))

	if err := repo.SaveReminder(ctx, r); err != nil {
		t.Fatalf("SaveReminder: %v", err)
	}
	if _, ok := repo.GetReminder(ctx, r.ID).Get(); !ok {
		t.Error("GetReminder after save returned an error Result")
	}
}
