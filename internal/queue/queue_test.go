package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFIFO(t *testing.T) {
	q := New[int]()
	for i := 1; i <= 3; i++ {
		pos, err := q.Put(i)
		if err != nil || pos != i {
			t.Fatalf("Put(%d) = %d, %v", i, pos, err)
		}
	}
	for want := 1; want <= 3; want++ {
		got, err := q.Get(context.Background(), nil)
		if err != nil || got != want {
			t.Fatalf("Get = %d, %v; want %d", got, err, want)
		}
	}
	if n := q.Len(); n != 0 {
		t.Fatalf("Len = %d", n)
	}
}

func TestGetBlocksUntilPut(t *testing.T) {
	q := New[string]()
	got := make(chan string, 1)
	go func() {
		v, err := q.Get(context.Background(), nil)
		if err != nil {
			t.Errorf("Get: %v", err)
		}
		got <- v
	}()

	select {
	case v := <-got:
		t.Fatalf("Get returned %q before Put", v)
	case <-time.After(20 * time.Millisecond):
	}
	if _, err := q.Put("x"); err != nil {
		t.Fatal(err)
	}
	select {
	case v := <-got:
		if v != "x" {
			t.Fatalf("got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Get did not unblock")
	}
}

func TestGetWake(t *testing.T) {
	q := New[int]()
	wake := make(chan struct{})
	close(wake)
	if _, err := q.Get(context.Background(), wake); !errors.Is(err, ErrWoken) {
		t.Fatalf("err = %v, want ErrWoken", err)
	}

	// An available item wins over a fired wake channel.
	q.Put(7)
	if v, err := q.Get(context.Background(), wake); err != nil || v != 7 {
		t.Fatalf("Get = %d, %v", v, err)
	}
}

func TestGetContext(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := q.Get(ctx, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestCloseIfEmpty(t *testing.T) {
	q := New[int]()
	q.Put(1)
	if q.CloseIfEmpty() {
		t.Fatal("closed a non-empty queue")
	}
	q.Get(context.Background(), nil)
	if !q.CloseIfEmpty() {
		t.Fatal("refused to close an empty queue")
	}
	if _, err := q.Put(2); !errors.Is(err, ErrClosed) {
		t.Fatalf("Put after close: %v", err)
	}
	if _, err := q.Get(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after close: %v", err)
	}
}

func TestCloseKeepsQueuedItems(t *testing.T) {
	q := New[string]()
	if _, err := q.Put("a"); err != nil {
		t.Fatal(err)
	}
	q.Close()
	if _, err := q.Put("b"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Put after Close = %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("len = %d", q.Len())
	}
	ctx := context.Background()
	if v, err := q.Get(ctx, nil); err != nil || v != "a" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if _, err := q.Get(ctx, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get on drained closed queue = %v", err)
	}
}

func TestConcurrentPut(t *testing.T) {
	q := New[int]()
	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Put(i)
		}(i)
	}
	seen := make(map[int]bool)
	for len(seen) < n {
		v, err := q.Get(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if seen[v] {
			t.Fatalf("duplicate %d", v)
		}
		seen[v] = true
	}
	wg.Wait()
}
