package result

import (
	"errors"
	"testing"
)

func TestOk(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() {
		t.Fatal("IsOk = false, want true")
	}
	v, ok := r.Get()
	if !ok || v != 42 {
		t.Errorf("Get = (%d, %v), want (42, true)", v, ok)
	}
	if _, isErr := r.Message(); isErr {
		t.Error("Message reported an error on a success")
	}
}

func TestErr(t *testing.T) {
	r := Err[int]("Reminder not found!")
	if r.IsOk() {
		t.Fatal("IsOk = true, want false")
	}
	if _, ok := r.Get(); ok {
		t.Error("Get returned ok on an error")
	}
	msg, isErr := r.Message()
	if !isErr || msg != "Reminder not found!" {
		t.Errorf("Message = (%q, %v), want (%q, true)", msg, isErr, "Reminder not found!")
	}
}

func TestZeroValueIsError(t *testing.T) {
	var r Result[string]
	if r.IsOk() {
		t.Error("zero Result must not be a success")
	}
}

func TestFromError(t *testing.T) {
	r := FromError[[]int](errors.New("disk I/O error"))
	if msg, _ := r.Message(); msg != "disk I/O error" {
		t.Errorf("message = %q, want %q", msg, "disk I/O error")
	}
}

func TestMatch_CallsExactlyOneBranch(t *testing.T) {
	var okCalls, errCalls int
	Ok("x").Match(func(string) { okCalls++ }, func(string) { errCalls++ })
	Err[string]("boom").Match(func(string) { okCalls++ }, func(string) { errCalls++ })
	if okCalls != 1 || errCalls != 1 {
		t.Errorf("okCalls=%d errCalls=%d, want 1 and 1", okCalls, errCalls)
	}
}

func TestFoldAndMap(t *testing.T) {
	length := Map(Ok("abc"), func(s string) int { return len(s) })
	if v, _ := length.Get(); v != 3 {
		t.Errorf("Map = %d, want 3", v)
	}

	failed := Map(Err[string]("nope"), func(s string) int { return len(s) })
	if msg, _ := failed.Message(); msg != "nope" {
		t.Errorf("Map error message = %q, want %q", msg, "nope")
	}

	got := Fold(failed, func(int) string { return "ok" }, func(m string) string { return "err:" + m })
	if got != "err:nope" {
		t.Errorf("Fold = %q, want %q", got, "err:nope")
	}
}
