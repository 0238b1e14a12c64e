package handler

import (
	"encoding/json"

	"fleet-console/internal/hub"
	"fleet-console/internal/notify"
	"fleet-console/internal/rtdb"
)

// Broadcaster bridges store subscriptions and notifications onto the
// websocket hub so connected consoles refresh without polling.
type Broadcaster struct {
	Hub    *hub.Hub
	Client rtdb.Client

	unsubscribers []func()
}

// Start subscribes to the store paths the dashboard renders. Each change is
// pushed as an "update" message naming the path; clients re-fetch through the
// HTTP API.
func (b *Broadcaster) Start() error {
	for _, path := range []string{"machines", "logs", "settings", "release"} {
		path := path
		unsubscribe, err := b.Client.Subscribe(path, func(rtdb.Snapshot) {
			b.publish(serverMessage{Type: "update", Event: path})
		})
		if err != nil {
			b.Stop()
			return err
		}
		b.unsubscribers = append(b.unsubscribers, unsubscribe)
	}
	return nil
}

// NotificationSink adapts the hub into a notification fan-out target.
// Notifications carry their own message type so clients can tell them apart
// from store updates.
func (b *Broadcaster) NotificationSink() notify.Sink {
	return func(n notify.Notification) {
		b.publish(serverMessage{Type: "notification", Body: n})
	}
}

func (b *Broadcaster) publish(msg serverMessage) {
	out, err := json.Marshal(msg)
	if err != nil {
		return
	}
	b.Hub.Broadcast(out)
}

func (b *Broadcaster) Stop() {
	for _, unsubscribe := range b.unsubscribers {
		unsubscribe()
	}
	b.unsubscribers = nil
}
