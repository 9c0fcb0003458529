package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockMessageHandler records the order of handled messages and can block
// or panic on request.
type mockMessageHandler struct {
	mu           sync.Mutex
	executionLog []string
	blockCh      chan struct{} // close to unblock "BLOCK"
	waitCh       chan struct{} // closed when "BLOCK" starts
}

func newMockMessageHandler() *mockMessageHandler {
	return &mockMessageHandler{
		blockCh: make(chan struct{}),
		waitCh:  make(chan struct{}),
	}
}

func (h *mockMessageHandler) HandleWorkerMessage(ctx context.Context, w *ChatWorker, msg WorkerMessage) {
	h.mu.Lock()
	h.executionLog = append(h.executionLog, msg.Type)
	h.mu.Unlock()

	switch msg.Type {
	case "PANIC":
		panic("simulated worker panic")
	case "BLOCK":
		close(h.waitCh)
		<-h.blockCh
	}
}

func (h *mockMessageHandler) getLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]string, len(h.executionLog))
	copy(result, h.executionLog)
	return result
}

func createTestWorker(chatID int64) (*ChatWorker, *mockMessageHandler) {
	handler := newMockMessageHandler()
	close(handler.blockCh)
	w := newChatWorker(chatID, handler)
	w.Start()
	return w, handler
}

func TestWorker_SequentialProcessing(t *testing.T) {
	w, handler := createTestWorker(123)
	defer w.Stop()

	for _, typ := range []string{"msg1", "msg2", "msg3"} {
		w.Send(WorkerMessage{Type: typ})
	}
	w.SendSync(WorkerMessage{Type: "barrier"})

	assert.Equal(t, []string{"msg1", "msg2", "msg3", "barrier"}, handler.getLog())
}

func TestWorker_PanicRecovery(t *testing.T) {
	w, handler := createTestWorker(123)
	defer w.Stop()

	w.SendSync(WorkerMessage{Type: "PANIC"})
	w.SendSync(WorkerMessage{Type: "recovery"})

	assert.Equal(t, []string{"PANIC", "recovery"}, handler.getLog())
}

func TestWorker_ChatsDoNotBlockEachOther(t *testing.T) {
	handlerA := newMockMessageHandler()
	workerA := newChatWorker(1, handlerA)
	workerA.Start()
	defer workerA.Stop()

	workerB, handlerB := createTestWorker(2)
	defer workerB.Stop()

	go workerA.SendSync(WorkerMessage{Type: "BLOCK"})

	select {
	case <-handlerA.waitCh:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("worker A did not start processing")
	}

	workerB.SendSync(WorkerMessage{Type: "fast"})

	assert.Equal(t, []string{"fast"}, handlerB.getLog())
	assert.Equal(t, []string{"BLOCK"}, handlerA.getLog())

	close(handlerA.blockCh)
}

func TestWorker_StopDrainsQueueWithoutDeadlock(t *testing.T) {
	handler := newMockMessageHandler()
	w := newChatWorker(999, handler)

	// Queued before the worker runs, as if SendSync callers were waiting.
	dones := make([]chan struct{}, 5)
	for i := range dones {
		dones[i] = make(chan struct{})
		w.inbox <- WorkerMessage{Type: "pending", Done: dones[i]}
	}
	w.cancel()
	w.Start()

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out, potential deadlock")
	}
	for _, done := range dones {
		select {
		case <-done:
		default:
			t.Fatal("pending message was not released")
		}
	}
}

func TestWorker_SendSync_WaitsForCompletion(t *testing.T) {
	handler := newMockMessageHandler()
	w := newChatWorker(123, handler)
	w.Start()
	defer w.Stop()

	sendDone := make(chan struct{})
	go func() {
		w.SendSync(WorkerMessage{Type: "BLOCK"})
		close(sendDone)
	}()

	select {
	case <-handler.waitCh:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("handler did not start")
	}

	select {
	case <-sendDone:
		t.Fatal("SendSync returned before handler completed")
	case <-time.After(50 * time.Millisecond):
	}

	close(handler.blockCh)

	select {
	case <-sendDone:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("SendSync did not return after handler completed")
	}
}

func TestBotState_ShutdownStopsWorkers(t *testing.T) {
	handler := newMockMessageHandler()
	close(handler.blockCh)
	bs := NewBotState(handler)

	w := bs.getWorker(7)
	assert.Same(t, w, bs.getWorker(7))
	w.SendSync(WorkerMessage{Type: "one"})

	bs.Shutdown()
	assert.Nil(t, bs.getWorker(7), "no workers are started after shutdown")

	// Sending to a stopped worker must not hang.
	w.SendSync(WorkerMessage{Type: "late"})
	assert.Equal(t, []string{"one"}, handler.getLog())
}
