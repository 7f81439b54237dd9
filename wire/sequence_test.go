package wire

import "testing"

func TestSequenceNumberNewerThan(t *testing.T) {
	if !SequenceNumber(5).NewerThan(3) {
		t.Error("5 should be newer than 3")
	}
	if SequenceNumber(3).NewerThan(5) {
		t.Error("3 should not be newer than 5")
	}
}

func TestSequenceNumberWraparound(t *testing.T) {
	// Just after wraparound, 1 is newer than 65535.
	if !SequenceNumber(1).NewerThan(65535) {
		t.Error("1 should be newer than 65535 across wraparound")
	}
	if SequenceNumber(65535).NewerThan(1) {
		t.Error("65535 should not be newer than 1 across wraparound")
	}
}

func TestSequenceNumberNext(t *testing.T) {
	var s SequenceNumber = 65535
	if s.Next() != 0 {
		t.Errorf("Next() = %d, want 0", s.Next())
	}
}

func TestSequenceNumberDistance(t *testing.T) {
	if d := SequenceNumber(10).Distance(5); d != 5 {
		t.Errorf("Distance() = %d, want 5", d)
	}
}
