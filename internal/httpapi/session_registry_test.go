package httpapi

import (
	"sync"
	"testing"
)

func TestSessionRegistryAddDone(t *testing.T) {
	sr := NewSessionRegistry(nil, nil)

	if !sr.Add("s1", "127.0.0.1:1") {
		t.Fatal("Add returned false on fresh registry")
	}
	if got := sr.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount = %d, want 1", got)
	}

	sr.Done("s1")
	if got := sr.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount = %d, want 0", got)
	}
}

func TestSessionRegistryRejectsWhileDraining(t *testing.T) {
	sr := NewSessionRegistry(nil, nil)

	sr.StartDraining()
	if sr.Add("s1", "127.0.0.1:1") {
		t.Error("Add returned true while draining")
	}
	if !sr.IsDraining() {
		t.Error("IsDraining = false after StartDraining")
	}
}

func TestSessionRegistryWaitBlocksUntilDone(t *testing.T) {
	sr := NewSessionRegistry(nil, nil)

	if !sr.Add("s1", "127.0.0.1:1") {
		t.Fatal("Add failed")
	}
	sr.StartDraining()

	done := make(chan struct{})
	go func() {
		sr.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned with a session still active")
	default:
	}

	sr.Done("s1")
	<-done
}

func TestSessionRegistryConcurrentAdds(t *testing.T) {
	sr := NewSessionRegistry(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sr.Add("s", "addr") {
				sr.Done("s")
			}
		}()
	}
	wg.Wait()

	if got := sr.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount = %d, want 0", got)
	}
}
