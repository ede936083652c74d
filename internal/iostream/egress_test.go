package iostream

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"
)

type recordingWriter struct {
	mu     sync.Mutex
	writes [][]byte
	inUse  int
	maxIn  int
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.inUse++
	if w.inUse > w.maxIn {
		w.maxIn = w.inUse
	}
	w.mu.Unlock()

	time.Sleep(2 * time.Millisecond) // simulate a slow transport write

	cp := make([]byte, len(p))
	copy(cp, p)

	w.mu.Lock()
	w.writes = append(w.writes, cp)
	w.inUse--
	w.mu.Unlock()
	return len(p), nil
}

func TestEgress_AtMostOneWriteInFlight(t *testing.T) {
	w := &recordingWriter{}
	e := NewEgress(w, Hooks{})
	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)

	for i := 0; i < 20; i++ {
		e.SendFrameLine([]byte{byte(i)})
	}
	time.Sleep(100 * time.Millisecond)
	cancel()
	e.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.maxIn > 1 {
		t.Fatalf("observed %d concurrent writes, want at most 1", w.maxIn)
	}
}

func TestEgress_ResponsesNotDropped(t *testing.T) {
	w := &recordingWriter{}
	e := NewEgress(w, Hooks{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	for i := 0; i < defaultRespQueueLen+5; i++ {
		e.SendResponse(context.Background(), []byte{'\r'})
	}
	deadline := time.After(2 * time.Second)
	for {
		w.mu.Lock()
		n := len(w.writes)
		w.mu.Unlock()
		if n == defaultRespQueueLen+5 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("not all responses were written: got %d", n)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEgress_FrameLinesDroppedOnOverflow(t *testing.T) {
	w := &recordingWriter{}
	var drops int
	var mu sync.Mutex
	e := NewEgress(w, Hooks{OnFrameDrop: func() {
		mu.Lock()
		drops++
		mu.Unlock()
	}})
	// Don't run the worker, so the queue fills up.
	for i := 0; i < defaultFrameQueueLen+10; i++ {
		e.SendFrameLine([]byte{byte(i)})
	}
	mu.Lock()
	defer mu.Unlock()
	if drops != 10 {
		t.Fatalf("got %d drops, want 10", drops)
	}
}

func TestEgress_WriteErrorHook(t *testing.T) {
	errW := writerFunc(func(p []byte) (int, error) { return 0, bytes.ErrTooLarge })
	var gotErr error
	var mu sync.Mutex
	e := NewEgress(errW, Hooks{OnWriteError: func(err error) {
		mu.Lock()
		gotErr = err
		mu.Unlock()
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)
	e.SendResponse(context.Background(), []byte{'\r'})
	deadline := time.After(time.Second)
	for {
		mu.Lock()
		err := gotErr
		mu.Unlock()
		if err != nil {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("write error hook never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEgress_WriteReleasesBuffer(t *testing.T) {
	w := &recordingWriter{}
	e := NewEgress(w, Hooks{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	released := make(chan struct{}, 1)
	buf := NewBuffer([]byte("hi"), func([]byte) { released <- struct{}{} })
	e.respCh <- buf

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatalf("buffer was never released after write")
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
