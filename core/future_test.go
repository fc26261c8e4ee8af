package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFuture_CompletesOnce(t *testing.T) {
	f := newFuture[int]()
	if _, ok, _ := f.TryResult(); ok {
		t.Fatal("TryResult ok before completion")
	}

	f.complete(1, nil)
	f.complete(2, ErrPoolShutdown)

	v, ok, err := f.TryResult()
	if !ok || v != 1 || err != nil {
		t.Errorf("TryResult = (%d, %v, %v), want (1, true, nil)", v, ok, err)
	}
	select {
	case <-f.Done():
	default:
		t.Error("Done not closed after completion")
	}
}

func TestFuture_WaitHonoursContext(t *testing.T) {
	f := newFuture[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait err = %v, want DeadlineExceeded", err)
	}

	go f.complete("late", nil)
	if v, err := f.Wait(context.Background()); v != "late" || err != nil {
		t.Errorf("Wait = (%q, %v)", v, err)
	}
}
