package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversToSubscribersOfType(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var got []*Event
	bus.Subscribe(WorkflowStarted, func(e *Event) { got = append(got, e) })

	bus.Emit(WorkflowStarted, "workflow", map[string]interface{}{"workflow_id": "wf-1"})
	bus.Emit(WorkflowCompleted, "workflow", nil)

	require.Len(t, got, 1)
	assert.Equal(t, WorkflowStarted, got[0].Type)
	assert.Equal(t, "workflow", got[0].Module)
	assert.Equal(t, "wf-1", got[0].WorkflowID())
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	count := 0
	unsubscribe := bus.Subscribe(WorkflowProgress, func(*Event) { count++ })
	other := bus.Subscribe(WorkflowProgress, func(*Event) {})
	assert.Equal(t, 2, bus.SubscriberCount(WorkflowProgress))

	bus.Emit(WorkflowProgress, "workflow", nil)
	unsubscribe()
	unsubscribe()
	bus.Emit(WorkflowProgress, "workflow", nil)

	assert.Equal(t, 1, count)
	assert.Equal(t, 1, bus.SubscriberCount(WorkflowProgress))

	other()
	assert.Equal(t, 0, bus.SubscriberCount(WorkflowProgress))
}

func TestBus_HandlerPanicDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	delivered := false
	bus.Subscribe(ErrorOccurred, func(*Event) { panic("bad handler") })
	bus.Subscribe(ErrorOccurred, func(*Event) { delivered = true })

	assert.NotPanics(t, func() { bus.Emit(ErrorOccurred, "test", nil) })
	assert.True(t, delivered)
}

func TestBus_ConcurrentEmitAndSubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var mu sync.Mutex
	received := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(WorkflowProgress, func(*Event) {
				mu.Lock()
				received++
				mu.Unlock()
			})
			defer unsub()
		}()
		go func() {
			defer wg.Done()
			bus.Emit(WorkflowProgress, "workflow", nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, bus.SubscriberCount(WorkflowProgress))
}

func TestManager_EmitTyped(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	manager := NewManager(bus, zerolog.Nop())
	assert.Same(t, bus, manager.Bus())

	var got *Event
	bus.Subscribe(SnapshotSaved, func(e *Event) { got = e })

	manager.EmitTyped("snapshots", &SnapshotSavedData{WorkflowID: "wf-2", SnapshotID: "s-9"})

	require.NotNil(t, got)
	assert.Equal(t, "snapshots", got.Module)
	assert.Equal(t, "s-9", got.Data["snapshot_id"])
	assert.Equal(t, "wf-2", got.WorkflowID())

	assert.NotPanics(t, func() { manager.EmitTyped("snapshots", nil) })
}

func TestManager_EmitError(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	manager := NewManager(bus, zerolog.Nop())

	var got *Event
	bus.Subscribe(ErrorOccurred, func(e *Event) { got = e })

	manager.EmitError("signals", errors.New("upstream down"), map[string]interface{}{"class": "Bond"})

	require.NotNil(t, got)
	data, ok := got.GetTypedData().(*ErrorEventData)
	require.True(t, ok)
	assert.Equal(t, "upstream down", data.Error)
	assert.Equal(t, "Bond", data.Context["class"])
}

func TestManager_Emit(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	manager := NewManager(bus, zerolog.Nop())

	var got *Event
	bus.Subscribe(WorkflowStarted, func(e *Event) { got = e })
	manager.Emit(WorkflowStarted, "workflow", map[string]interface{}{"workflow_id": "wf-3"})

	require.NotNil(t, got)
	assert.Equal(t, "wf-3", got.WorkflowID())
}
