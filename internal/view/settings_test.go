package view

import (
	"encoding/json"
	"testing"
	"time"

	"fleet-console/internal/model"
	"fleet-console/internal/notify"
)

func TestSettingsLoadDefaultsWhenAbsent(t *testing.T) {
	client := newTestClient(t)
	v := NewSettingsView(client, notify.NewCenter(), fixedNow)

	s, err := v.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s != model.DefaultSettings() {
		t.Fatalf("got %+v, want defaults", s)
	}
}

func TestSettingsSaveRoundTrip(t *testing.T) {
	client := newTestClient(t)
	v := NewSettingsView(client, notify.NewCenter(), fixedNow)

	saved, err := v.Save(model.Settings{HeartbeatInterval: 600, DashboardRefresh: 10})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.LastUpdated != testNow.Format(time.RFC3339) {
		t.Fatalf("lastUpdated = %q", saved.LastUpdated)
	}

	loaded, err := v.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != saved {
		t.Fatalf("round trip mismatch: %+v vs %+v", loaded, saved)
	}
}

func TestSettingsSaveRejectsOutOfRange(t *testing.T) {
	client := newTestClient(t)
	v := NewSettingsView(client, notify.NewCenter(), fixedNow)

	cases := []model.Settings{
		{HeartbeatInterval: 59, DashboardRefresh: 5},
		{HeartbeatInterval: 3601, DashboardRefresh: 5},
		{HeartbeatInterval: 300, DashboardRefresh: 0},
		{HeartbeatInterval: 300, DashboardRefresh: 61},
	}
	for _, s := range cases {
		if _, err := v.Save(s); err == nil {
			t.Fatalf("save accepted invalid settings %+v", s)
		}
	}

	// Nothing was written.
	snap, err := client.ReadOnce("settings")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Exists() {
		t.Fatal("invalid settings reached the store")
	}
}

func TestSettingsDeleteOldLogs(t *testing.T) {
	client := newTestClient(t)
	old := testNow.AddDate(0, 0, -40).UTC().Format(time.RFC3339)
	fresh := testNow.AddDate(0, 0, -2).UTC().Format(time.RFC3339)
	writeLog(t, client, "machine-a", old, "FAKE FILE DETECTED")
	writeLog(t, client, "machine-a", fresh, "FAKE FILE DETECTED")
	writeLog(t, client, "machine-b", old, "agent heartbeat")

	v := NewSettingsView(client, notify.NewCenter(), fixedNow)
	deleted, err := v.DeleteOldLogs(30)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted %d entries, want 2", deleted)
	}

	snap, err := client.ReadOnce("logs")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	remaining := model.LogsFromNode(snap.Val())
	if len(remaining) != 1 || remaining[0].Timestamp != fresh {
		t.Fatalf("remaining = %+v, want only the fresh entry", remaining)
	}
}

func TestSettingsDeleteOldLogsBounds(t *testing.T) {
	client := newTestClient(t)
	v := NewSettingsView(client, notify.NewCenter(), fixedNow)

	for _, days := range []int{0, -1, 366} {
		if _, err := v.DeleteOldLogs(days); err == nil {
			t.Fatalf("accepted retention of %d days", days)
		}
	}
}

func TestSettingsUsageEstimates(t *testing.T) {
	client := newTestClient(t)
	seedMachines(t, client, 3)
	seedLogs(t, client, "machine-000", 40)

	v := NewSettingsView(client, notify.NewCenter(), fixedNow)
	usage, err := v.Usage()
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if usage.TotalMachines != 3 || usage.TotalLogs != 40 {
		t.Fatalf("counts = %d machines / %d logs, want 3/40", usage.TotalMachines, usage.TotalLogs)
	}
	if usage.StorageKB != 20 || usage.BandwidthKB != 2 {
		t.Fatalf("estimates = %dKB storage / %dKB bandwidth, want 20/2", usage.StorageKB, usage.BandwidthKB)
	}
}

func TestSettingsExportAll(t *testing.T) {
	client := newTestClient(t)
	seedMachines(t, client, 2)
	writeLog(t, client, "machine-000", testNow.Format(time.RFC3339), "FAKE FILE DETECTED")

	v := NewSettingsView(client, notify.NewCenter(), fixedNow)
	if _, err := v.Save(model.Settings{HeartbeatInterval: 120, DashboardRefresh: 5}); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := v.ExportAll()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var report map[string]any
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	for _, key := range []string{"export_time", "machines", "logs", "settings"} {
		if report[key] == nil {
			t.Fatalf("export missing %q", key)
		}
	}
}
