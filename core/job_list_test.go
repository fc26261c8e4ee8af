package core

import "testing"

// TestJobList_FIFO verifies jobs come out in the order they went in
func TestJobList_FIFO(t *testing.T) {
	l := newJobList[int](4)
	l.EnqueueResult(func() int { return 1 })
	l.Enqueue(func() {})
	l.EnqueueResult(func() int { return 3 })
	l.Enqueue(nil)
	l.EnqueueResult(nil)

	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3 (nil jobs ignored)", l.Len())
	}

	first, _ := l.pop()
	second, _ := l.pop()
	third, _ := l.pop()
	if first.result == nil || first.result() != 1 {
		t.Error("first job is not the first result job")
	}
	if second.run == nil || second.result != nil {
		t.Error("second job is not the plain job")
	}
	if third.result() != 3 {
		t.Error("third job is not the last result job")
	}
	if _, ok := l.pop(); ok {
		t.Error("pop succeeded on an empty list")
	}
}

// TestJobList_Compaction verifies the backing array shrinks after a large burst
// Given: A list with reserve 4 that grew past 1000 jobs
// When: Every job is popped
// Then: The backing array has shrunk below the compaction threshold
func TestJobList_Compaction(t *testing.T) {
	// Arrange
	l := newJobList[int](4)
	for range 1000 {
		l.Enqueue(func() {})
	}

	// Act
	for range 1000 {
		if _, ok := l.pop(); !ok {
			t.Fatal("pop failed before the list was empty")
		}
	}

	// Assert
	if c := cap(l.jobs); c >= compactMinCap {
		t.Errorf("cap after draining = %d, want < %d", c, compactMinCap)
	}
}

func TestJobList_Clear(t *testing.T) {
	l := newJobList[int](2)
	l.Enqueue(func() {})
	l.Enqueue(func() {})

	if n := l.clear(); n != 2 {
		t.Errorf("clear = %d, want 2", n)
	}
	if l.Len() != 0 {
		t.Errorf("Len after clear = %d", l.Len())
	}
}
