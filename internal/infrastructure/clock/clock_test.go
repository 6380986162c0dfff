package clock

import (
	"testing"
	"time"
)

func TestFake_Advance(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)
	f.Advance(2000 * time.Second)
	if got := f.Now(); !got.Equal(start.Add(2000 * time.Second)) {
		t.Fatalf("Now = %v", got)
	}
	f.Set(start)
	if !f.Now().Equal(start) {
		t.Fatalf("Set did not rewind")
	}
}

func TestSystem_UTC(t *testing.T) {
	if loc := (System{}).Now().Location(); loc != time.UTC {
		t.Fatalf("location = %v, want UTC", loc)
	}
}
