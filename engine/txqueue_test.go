package engine

import "testing"

func TestTxQueuePushFailsWhenFull(t *testing.T) {
	q := newTxQueue(2)
	if err := q.Push(1); err != nil {
		t.Fatalf("Push 1: %v", err)
	}
	if err := q.Push(2); err != nil {
		t.Fatalf("Push 2: %v", err)
	}
	if err := q.Push(3); err != ErrQueueFull {
		t.Errorf("Push into full queue = %v, want ErrQueueFull", err)
	}
}

func TestTxQueueNextReturnsInOrderOnceClearToSend(t *testing.T) {
	q := newTxQueue(4)
	q.Push(10)
	q.Push(20)

	got, ok := q.Next()
	if !ok || got != 10 {
		t.Fatalf("Next() = (%v, %v), want (10, true)", got, ok)
	}

	done := make(chan struct{})
	go func() {
		if got, ok := q.Next(); !ok || got != 20 {
			t.Errorf("Next() = (%v, %v), want (20, true)", got, ok)
		}
		close(done)
	}()
	q.SetClearToSend()
	<-done
}

func TestTxQueueCloseUnblocksNext(t *testing.T) {
	q := newTxQueue(1)
	done := make(chan struct{})
	go func() {
		if _, ok := q.Next(); ok {
			t.Error("Next() after Close should report ok=false")
		}
		close(done)
	}()
	q.Close()
	<-done
}
