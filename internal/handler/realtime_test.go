package handler

import (
	"encoding/json"
	"testing"

	"fleet-console/internal/hub"
	"fleet-console/internal/notify"
	"fleet-console/internal/rtdb"
)

type captureWriter struct {
	messages [][]byte
}

func (w *captureWriter) Write(message []byte) error {
	w.messages = append(w.messages, append([]byte(nil), message...))
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestBroadcasterMessageTypes(t *testing.T) {
	client := rtdb.NewMemory()
	h := hub.New()
	writer := &captureWriter{}
	h.Register(&hub.Connection{Writer: writer})

	b := &Broadcaster{Hub: h, Client: client}
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop()

	// Drop the initial subscription deliveries.
	writer.messages = nil

	err := client.Write("machines/machine-001/status", map[string]any{"last_heartbeat": "2025-03-10T12:00:00Z"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	b.NotificationSink()(notify.Notification{ID: "n1", Level: notify.Info, Message: "templates cleared"})

	if len(writer.messages) != 2 {
		t.Fatalf("broadcast %d messages, want 2", len(writer.messages))
	}

	var update serverMessage
	if err := json.Unmarshal(writer.messages[0], &update); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if update.Type != "update" {
		t.Fatalf("store change type = %q, want update", update.Type)
	}
	if update.Event != "machines" {
		t.Fatalf("store change event = %q, want machines", update.Event)
	}

	var notification serverMessage
	if err := json.Unmarshal(writer.messages[1], &notification); err != nil {
		t.Fatalf("unmarshal notification: %v", err)
	}
	if notification.Type != "notification" {
		t.Fatalf("notification type = %q, want notification", notification.Type)
	}
	body, ok := notification.Body.(map[string]any)
	if !ok {
		t.Fatalf("notification body = %T, want object", notification.Body)
	}
	if body["message"] != "templates cleared" {
		t.Fatalf("notification message = %v", body["message"])
	}
}
