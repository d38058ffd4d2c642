package model

import "testing"

func TestNewReminder_GeneratesUniqueIDs(t *testing.T) {
	a := NewReminder(Ptr("a"), nil, nil, nil, nil)
	b := NewReminder(Ptr("b"), nil, nil, nil, nil)
	if a.ID == "" || b.ID == "" {
		t.Fatalf("expected generated IDs, got %q and %q", a.ID, b.ID)
	}
	if a.ID == b.ID {
		t.Errorf("IDs collide: %q", a.ID)
	}
}

func TestItemFromReminder_CopiesAllFields(t *testing.T) {
	r := Reminder{
		ID:          "rem-1",
		Title:       Ptr("Buy milk"),
		Description: Ptr("2 litres"),
		Location:    Ptr("Corner shop"),
		Latitude:    Ptr(52.52),
		Longitude:   Ptr(13.405),
	}

	item := ItemFromReminder(r)
	if item.ID != r.ID {
		t.Errorf("ID = %q, want %q", item.ID, r.ID)
	}
	if Deref(item.Title) != "Buy milk" {
		t.Errorf("Title = %q, want %q", Deref(item.Title), "Buy milk")
	}
	if Deref(item.Location) != "Corner shop" {
		t.Errorf("Location = %q, want %q", Deref(item.Location), "Corner shop")
	}
	if !item.HasCoordinates() {
		t.Error("HasCoordinates = false, want true")
	}

	back := item.ToReminder()
	if back.ID != r.ID || Deref(back.Description) != "2 litres" || Deref(back.Longitude) != 13.405 {
		t.Errorf("ToReminder round trip mismatch: %+v", back)
	}
}

func TestToReminder_AssignsMissingID(t *testing.T) {
	item := ReminderItem{Title: Ptr("No id yet")}
	if got := item.ToReminder().ID; got == "" {
		t.Error("ToReminder left ID empty")
	}
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want bool
	}{
		{"nil", nil, true},
		{"empty", Ptr(""), true},
		{"value", Ptr("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBlank(tt.in); got != tt.want {
				t.Errorf("IsBlank = %v, want %v", got, tt.want)
			}
		})
	}
}
