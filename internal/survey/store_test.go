package survey

import (
	"sync"
	"testing"
)

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()

	if store.Get(1) != nil {
		t.Fatal("Get on empty store returned a session")
	}
	if store.InProgress(1) {
		t.Fatal("InProgress on empty store")
	}

	store.Put(&Session{Identity: 1, State: StateAwaitingName})
	if !store.InProgress(1) || store.Len() != 1 {
		t.Fatal("session not stored")
	}
	if got := store.Get(1); got == nil || got.State != StateAwaitingName {
		t.Fatalf("Get = %+v", got)
	}

	if !store.Remove(1) {
		t.Fatal("Remove reported no session")
	}
	if store.Remove(1) {
		t.Fatal("second Remove reported a session")
	}
	if store.InProgress(1) {
		t.Fatal("session survived Remove")
	}
}

func TestStoreSerializesPerIdentity(t *testing.T) {
	store := NewStore()
	store.Put(&Session{Identity: 1, State: StateAwaitingAnswer, Answers: make([]string, 1)})

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.Lock(1)
			defer unlock()
			sess := store.Get(1)
			sess.QuestionIndex++
		}()
	}
	wg.Wait()

	if got := store.Get(1).QuestionIndex; got != workers {
		t.Fatalf("QuestionIndex = %d, want %d; transitions interleaved", got, workers)
	}
}

func TestStoreLocksAreIndependent(t *testing.T) {
	store := NewStore()

	unlock := store.Lock(1)
	done := make(chan struct{})
	go func() {
		u := store.Lock(2)
		u()
		close(done)
	}()
	<-done
	unlock()
}
