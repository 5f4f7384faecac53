package pending

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestStoreSetGetClear(t *testing.T) {
	s := NewStore(time.Minute, nil)

	if _, ok := s.Get("5491100000001"); ok {
		t.Fatalf("expected empty store")
	}

	s.Set("5491100000001", "upload")
	v, ok := s.Get("5491100000001")
	if !ok || v != "upload" {
		t.Fatalf("got %v, %v; want upload, true", v, ok)
	}

	// Other phones are independent.
	if _, ok := s.Get("5491100000002"); ok {
		t.Fatalf("unexpected state for other phone")
	}

	s.Clear("5491100000001")
	if _, ok := s.Get("5491100000001"); ok {
		t.Fatalf("expected cleared state")
	}
}

func TestStoreReplaceKeepsLatest(t *testing.T) {
	s := NewStore(time.Minute, nil)
	s.Set("p", "first")
	s.Set("p", "second")

	v, ok := s.Get("p")
	if !ok || v != "second" {
		t.Fatalf("got %v, %v; want second, true", v, ok)
	}
}

func TestStoreExpiryNotifies(t *testing.T) {
	expired := make(chan string, 1)
	s := NewStore(10*time.Millisecond, func(phone string, _ any) {
		expired <- phone
	})

	s.Set("p", "upload")

	select {
	case phone := <-expired:
		if phone != "p" {
			t.Fatalf("expired phone = %q", phone)
		}
	case <-time.After(time.Second):
		t.Fatalf("expiry callback never fired")
	}

	if _, ok := s.Get("p"); ok {
		t.Fatalf("expected state cleared after expiry")
	}
}

func TestStoreClearDisarmsExpiry(t *testing.T) {
	expired := make(chan string, 1)
	s := NewStore(20*time.Millisecond, func(phone string, _ any) {
		expired <- phone
	})

	s.Set("p", "upload")
	s.Clear("p")

	select {
	case <-expired:
		t.Fatalf("expiry fired after Clear")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestLocksSerializePerPhone(t *testing.T) {
	locks := NewLocks()
	ctx := context.Background()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(ctx, "same-phone")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxActive)
	}
}

func TestLocksIndependentPhones(t *testing.T) {
	locks := NewLocks()
	ctx := context.Background()

	releaseA, err := locks.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer releaseA()

	// A held lock on another phone must not block.
	done := make(chan struct{})
	go func() {
		releaseB, err := locks.Acquire(ctx, "b")
		if err == nil {
			releaseB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on phone b blocked behind phone a")
	}
}

func TestLocksAcquireHonorsContext(t *testing.T) {
	locks := NewLocks()

	release, err := locks.Acquire(context.Background(), "p")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := locks.Acquire(ctx, "p"); err == nil {
		t.Fatalf("expected context error while lock held")
	}

	release()
}

func TestTogglesLeadMode(t *testing.T) {
	toggles := NewToggles()

	if toggles.LeadMode("p") {
		t.Fatalf("fresh phone should not be in lead mode")
	}

	toggles.SetLeadMode("p", true)
	if !toggles.LeadMode("p") {
		t.Fatalf("expected lead mode on")
	}

	toggles.SetLeadMode("p", false)
	if toggles.LeadMode("p") {
		t.Fatalf("expected lead mode off")
	}
}
