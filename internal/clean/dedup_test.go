package clean

import "testing"

func TestDuplicateDetectorFirstSeenReturnsFalse(t *testing.T) {
	d := NewDuplicateDetector[string]()
	if d.SeenOrMark("cat|en") {
		t.Fatal("first occurrence should not be reported as seen")
	}
}

func TestDuplicateDetectorSecondSeenReturnsTrue(t *testing.T) {
	d := NewDuplicateDetector[string]()
	d.SeenOrMark("cat|en")
	if !d.SeenOrMark("cat|en") {
		t.Fatal("repeated key should be reported as seen")
	}
}

func TestDuplicateDetectorDistinctKeysIndependent(t *testing.T) {
	d := NewDuplicateDetector[string]()
	d.SeenOrMark("cat|en")
	if d.SeenOrMark("dog|en") {
		t.Fatal("distinct key should not be reported as seen")
	}
}

func TestDuplicateDetectorLen(t *testing.T) {
	d := NewDuplicateDetector[string]()
	d.SeenOrMark("a")
	d.SeenOrMark("b")
	d.SeenOrMark("a")
	if d.Len() != 2 {
		t.Fatalf("want 2 distinct keys, got %d", d.Len())
	}
}

func TestDuplicateDetectorReset(t *testing.T) {
	d := NewDuplicateDetector[string]()
	d.SeenOrMark("a")
	d.Reset()
	if d.Len() != 0 {
		t.Fatalf("want 0 keys after reset, got %d", d.Len())
	}
	if d.SeenOrMark("a") {
		t.Fatal("key should not be seen after reset")
	}
}
