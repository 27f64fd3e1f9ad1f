package notifications

import "time"

// MessageType identifies a pushed event or a client request
type MessageType string

const (
	// Server events
	EventPlanGenerated      MessageType = "plan.generated"
	EventPlanSimulated      MessageType = "plan.simulated"
	EventHotspotsRefreshed  MessageType = "hotspots.refreshed"
	EventSummariesRefreshed MessageType = "summaries.refreshed"
	EventRecordIngested     MessageType = "emission.ingested"

	// Client requests and replies
	WSMessageTypeSubscribe MessageType = "subscribe"
	WSMessageTypeStatus    MessageType = "status"
)

// Message is the envelope exchanged over the event stream.
// Target is a site name; an empty Target reaches every client.
type Message struct {
	Type      MessageType    `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Target    string         `json:"target,omitempty"`

	// Recipient restricts delivery to one connection ID
	Recipient string `json:"-"`
}

// Publisher delivers events to interested clients
type Publisher interface {
	Publish(msg Message)
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(Message) {}
