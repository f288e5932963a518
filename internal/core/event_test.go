package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sliink/extloader/internal/model"
)

func TestNewEvent(t *testing.T) {
	sourceID := "plugin_loader"
	eventType := model.EventPreloadStarted
	data := model.BatchStarted{BatchID: "b1", PluginIDs: []string{"app-a"}}

	event := NewEvent(eventType, sourceID, data)

	assert.Equal(t, eventType, event.Type)
	assert.Equal(t, sourceID, event.SourceID)
	assert.Equal(t, data, event.Data)
	assert.NotZero(t, event.Timestamp)
	assert.True(t, time.Since(event.Timestamp) < time.Second)
}

func TestNewEventBus(t *testing.T) {
	eventBus := NewEventBus()

	assert.NotNil(t, eventBus)
	assert.NotNil(t, eventBus.subscribers)
	assert.Equal(t, "event_bus", eventBus.ID())
	assert.Equal(t, "Event Bus", eventBus.Name())
}

func TestEventBusLifecycle(t *testing.T) {
	eventBus := NewEventBus()

	t.Run("Initialize sets correct status", func(t *testing.T) {
		success := eventBus.Initialize()
		assert.True(t, success)
		assert.Equal(t, model.StatusInitialized, eventBus.GetStatus())
	})

	t.Run("Start sets correct status", func(t *testing.T) {
		success := eventBus.Start()
		assert.True(t, success)
		assert.Equal(t, model.StatusRunning, eventBus.GetStatus())
	})

	t.Run("Stop sets correct status", func(t *testing.T) {
		success := eventBus.Stop()
		assert.True(t, success)
		assert.Equal(t, model.StatusStopped, eventBus.GetStatus())
	})
}

func TestEventBusSubscribeAndPublish(t *testing.T) {
	eventBus := NewEventBus()
	eventBus.Initialize()
	eventBus.Start()

	eventType := model.EventPluginPreloaded
	sourceID := "preloader"
	data := model.PluginPreloadResult{PluginID: "app-a", Registered: 2}

	var receivedEvent Event

	t.Run("Subscribe adds callback to correct eventType", func(t *testing.T) {
		eventBus.Subscribe(eventType, "test_listener", func(event Event) {
			receivedEvent = event
		})

		assert.Len(t, eventBus.subscribers[eventType], 1)
	})

	t.Run("Publish delivers event synchronously", func(t *testing.T) {
		eventBus.Publish(NewEvent(eventType, sourceID, data))

		assert.Equal(t, eventType, receivedEvent.Type)
		assert.Equal(t, sourceID, receivedEvent.SourceID)
		assert.Equal(t, data, receivedEvent.Data)
	})

	t.Run("Unsubscribe removes callback", func(t *testing.T) {
		eventBus.Unsubscribe(eventType, "test_listener")
		assert.Empty(t, eventBus.subscribers[eventType])
	})

	t.Run("Publish with no subscribers does nothing", func(t *testing.T) {
		assert.NotPanics(t, func() {
			eventBus.Publish(NewEvent(model.EventError, "source", "data"))
		})
	})

	t.Run("Publish when stopped does nothing", func(t *testing.T) {
		eventBus.Stop()

		var called bool
		eventBus.subscribers[eventType] = map[string]EventCallback{
			"test": func(event Event) { called = true },
		}

		eventBus.Publish(NewEvent(eventType, sourceID, data))
		assert.False(t, called)
	})
}

func TestMultipleSubscribers(t *testing.T) {
	eventBus := NewEventBus()
	eventBus.Initialize()
	eventBus.Start()

	eventType := model.EventPreloadSettled
	var order []string

	eventBus.Subscribe(eventType, "listener2", func(e Event) {
		order = append(order, "listener2")
	})
	eventBus.Subscribe(eventType, "listener1", func(e Event) {
		order = append(order, "listener1")
	})

	eventBus.Publish(NewEvent(eventType, "source", nil))

	assert.Equal(t, []string{"listener1", "listener2"}, order)
}

func TestSubscriberCanPublishFromCallback(t *testing.T) {
	eventBus := NewEventBus()
	eventBus.Initialize()
	eventBus.Start()

	var nested bool
	eventBus.Subscribe(model.EventPreloadStarted, "outer", func(e Event) {
		eventBus.Publish(NewEvent(model.EventPreloadSettled, "outer", nil))
	})
	eventBus.Subscribe(model.EventPreloadSettled, "inner", func(e Event) {
		nested = true
	})

	done := make(chan struct{})
	go func() {
		eventBus.Publish(NewEvent(model.EventPreloadStarted, "source", nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish deadlocked when a callback published")
	}
	assert.True(t, nested)
}
