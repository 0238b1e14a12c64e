package view

import (
	"testing"
	"time"

	"fleet-console/internal/notify"
	"fleet-console/internal/rtdb"
)

func TestDashboardSummary(t *testing.T) {
	client := newTestClient(t)
	seedMachines(t, client, 15) // heartbeats 0..14 minutes old, 10 online

	today := testNow.UTC().Format(time.RFC3339)
	yesterday := testNow.Add(-25 * time.Hour).UTC().Format(time.RFC3339)
	writeLog(t, client, "machine-000", today, "FAKE FILE DETECTED")
	writeLog(t, client, "machine-001", yesterday, "FAKE FILE DETECTED")
	writeLog(t, client, "machine-002", today, "agent heartbeat")

	v := NewDashboardView(client, notify.NewCenter(), fixedNow)
	defer v.Dispose()
	if err := v.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	s := v.Summary()
	if s.TotalMachines != 15 || s.OnlineMachines != 10 || s.OfflineMachines != 5 {
		t.Fatalf("machine counts = %d/%d/%d, want 15/10/5", s.TotalMachines, s.OnlineMachines, s.OfflineMachines)
	}
	if s.TotalDetections != 2 || s.DetectionsToday != 1 {
		t.Fatalf("detections = %d total / %d today, want 2/1", s.TotalDetections, s.DetectionsToday)
	}
	// seedMachines gives machine i files_today=i, files_processed=i*10.
	if s.FilesToday != 105 || s.TotalFiles != 1050 {
		t.Fatalf("files = %d today / %d total, want 105/1050", s.FilesToday, s.TotalFiles)
	}
}

func writeLog(t *testing.T, client *rtdb.Memory, machineID, ts, event string) {
	t.Helper()
	if err := client.Write("logs/"+machineID+"/"+ts, map[string]any{"event": event}); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestDashboardDetectionSeries(t *testing.T) {
	client := newTestClient(t)
	for daysAgo, count := range map[int]int{0: 3, 2: 1, 6: 2, 8: 5} {
		for i := 0; i < count; i++ {
			ts := testNow.AddDate(0, 0, -daysAgo).Add(time.Duration(i) * time.Second).UTC().Format(time.RFC3339)
			writeLog(t, client, "machine-000", ts, "FAKE FILE DETECTED")
		}
	}

	v := NewDashboardView(client, notify.NewCenter(), fixedNow)
	defer v.Dispose()
	if err := v.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	series := v.DetectionSeries(7)
	if len(series) != 7 {
		t.Fatalf("series has %d points, want 7", len(series))
	}
	if series[6].Count != 3 {
		t.Fatalf("today count = %d, want 3", series[6].Count)
	}
	if series[4].Count != 1 {
		t.Fatalf("two-days-ago count = %d, want 1", series[4].Count)
	}
	if series[0].Count != 2 {
		t.Fatalf("six-days-ago count = %d, want 2", series[0].Count)
	}
	// Entries outside the window do not appear anywhere.
	total := 0
	for _, p := range series {
		total += p.Count
	}
	if total != 6 {
		t.Fatalf("window total = %d, want 6", total)
	}
	for i := 1; i < len(series); i++ {
		if series[i-1].Date >= series[i].Date {
			t.Fatalf("series dates out of order: %s then %s", series[i-1].Date, series[i].Date)
		}
	}
}

func TestDashboardRecentSlices(t *testing.T) {
	client := newTestClient(t)
	seedMachines(t, client, 8)
	seedLogs(t, client, "machine-000", 12)

	v := NewDashboardView(client, notify.NewCenter(), fixedNow)
	defer v.Dispose()
	if err := v.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	recent := v.RecentMachines(5)
	if len(recent) != 5 {
		t.Fatalf("recent machines = %d, want 5", len(recent))
	}
	// seedMachines makes machine-000 have the freshest heartbeat.
	if recent[0].ID != "machine-000" {
		t.Fatalf("freshest machine = %s, want machine-000", recent[0].ID)
	}

	logs := v.RecentLogs(5)
	if len(logs) != 5 {
		t.Fatalf("recent logs = %d, want 5", len(logs))
	}
	for i := 1; i < len(logs); i++ {
		if logs[i-1].Timestamp < logs[i].Timestamp {
			t.Fatal("recent logs not newest first")
		}
	}
}

func TestDashboardAutoRefresh(t *testing.T) {
	client := newTestClient(t)
	v := NewDashboardView(client, notify.NewCenter(), fixedNow)

	if err := v.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	v.StartAutoRefresh(10 * time.Millisecond)

	seedMachines(t, client, 2)
	deadline := time.After(2 * time.Second)
	for v.Summary().TotalMachines != 2 {
		select {
		case <-deadline:
			t.Fatal("auto refresh never picked up new machines")
		case <-time.After(5 * time.Millisecond):
		}
	}

	v.Dispose()
}
