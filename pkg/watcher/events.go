package watcher

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventStatsUpdated EventType = "stats_updated"
	EventFetchFailed  EventType = "fetch_failed"
)

// Event carries the snapshot produced by a poll cycle.
type Event struct {
	Type EventType
	Data interface{}
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
