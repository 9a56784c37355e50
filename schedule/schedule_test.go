package schedule

import "testing"

func TestWindowActiveWithinSameDayRange(t *testing.T) {
	w := Window{StartMinute: 8 * 60, EndMinute: 10 * 60}
	if !w.active(8*60 + 30) {
		t.Fatalf("expected 08:30 to be within an 08:00-10:00 window")
	}
	if w.active(10 * 60) {
		t.Fatalf("expected the window end to be exclusive")
	}
	if w.active(7 * 60) {
		t.Fatalf("expected 07:00 to fall outside an 08:00-10:00 window")
	}
}

func TestWindowActiveWrapsPastMidnight(t *testing.T) {
	w := Window{StartMinute: 22 * 60, EndMinute: 4 * 60}
	if !w.active(23 * 60) {
		t.Fatalf("expected 23:00 to be within a 22:00-04:00 wrapped window")
	}
	if !w.active(60) {
		t.Fatalf("expected 01:00 to be within a 22:00-04:00 wrapped window")
	}
	if w.active(12 * 60) {
		t.Fatalf("expected noon to fall outside a 22:00-04:00 wrapped window")
	}
}

func TestSetWindowsReplacesPriorConfiguration(t *testing.T) {
	s := &Scheduler{}
	s.SetWindows([]Window{{ProfileName: "a", StartMinute: 0, EndMinute: 60}})
	s.SetWindows([]Window{{ProfileName: "b", StartMinute: 0, EndMinute: 60}})

	if len(s.windows) != 1 || s.windows[0].ProfileName != "b" {
		t.Fatalf("expected SetWindows to replace rather than append, got %+v", s.windows)
	}
}

func TestActiveProfileReportsNoneInitially(t *testing.T) {
	s := &Scheduler{}
	if _, ok := s.ActiveProfile(); ok {
		t.Fatalf("expected no active profile before any tick activates one")
	}
}
