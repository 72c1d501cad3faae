package notifications

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewNotification(t *testing.T) {
	n := New(EventCreated, "hello")
	_, err := uuid.Parse(n.ID)
	require.NoError(t, err)
	assert.Equal(t, EventCreated, n.Event)
	assert.Equal(t, "hello", n.Message)
	assert.False(t, n.Timestamp.IsZero())

	other := New(EventCreated, "hello")
	assert.NotEqual(t, n.ID, other.ID)
}

func TestForDocument(t *testing.T) {
	n := ForDocument(EventDeleted, "petstore")
	assert.Equal(t, "petstore", n.DocumentID)
	assert.Equal(t, `api spec "petstore" was deleted`, n.Message)
}

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub(10, zaptest.NewLogger(t))

	ch, unsubscribe := hub.Subscribe(4)
	defer unsubscribe()

	n := ForDocument(EventUpdated, "petstore")
	hub.Publish(n)

	got := <-ch
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, 1, hub.Metrics().Subscribers)
	assert.Equal(t, int64(1), hub.Metrics().Published)
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	hub := NewHub(10, zaptest.NewLogger(t))

	_, unsubscribe := hub.Subscribe(1)
	defer unsubscribe()

	hub.Publish(New(EventCreated, "one"))
	hub.Publish(New(EventCreated, "two"))

	assert.Equal(t, int64(2), hub.Metrics().Published)
	assert.Equal(t, int64(1), hub.Metrics().Dropped)
}

func TestHubHistoryIsBounded(t *testing.T) {
	hub := NewHub(2, zaptest.NewLogger(t))

	hub.Publish(New(EventCreated, "a"))
	hub.Publish(New(EventUpdated, "b"))
	hub.Publish(New(EventDeleted, "c"))

	recent := hub.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Message)
	assert.Equal(t, "c", recent[1].Message)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(0, zaptest.NewLogger(t))

	ch, unsubscribe := hub.Subscribe(1)
	unsubscribe()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.Metrics().Subscribers)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(0, zaptest.NewLogger(t))
	ch, unsubscribe := hub.Subscribe(1)

	hub.Close()
	_, open := <-ch
	assert.False(t, open)

	unsubscribe()
	hub.Publish(New(EventCreated, "ignored"))
	assert.Empty(t, hub.Recent())

	late, _ := hub.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}
