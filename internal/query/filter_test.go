package query

import (
	"testing"
	"time"

	"fleet-console/internal/model"
)

func machineAt(id, hostname string, heartbeat time.Time) model.Machine {
	return model.Machine{
		ID:       id,
		Hostname: hostname,
		Status:   model.MachineStatus{LastHeartbeat: heartbeat.Format(time.RFC3339)},
	}
}

func TestMachineCriteria_SearchMatchesHostnameAndID(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	machines := []model.Machine{
		machineAt("pc-accounting-01", "ACC-DESK", now),
		machineAt("pc-warehouse-02", "WH-DESK", now),
	}

	got := Machines(machines, MachineCriteria{Search: "acc"}, now)
	if len(got) != 1 || got[0].ID != "pc-accounting-01" {
		t.Fatalf("expected hostname match, got %v", got)
	}

	got = Machines(machines, MachineCriteria{Search: "WAREHOUSE"}, now)
	if len(got) != 1 || got[0].ID != "pc-warehouse-02" {
		t.Fatalf("expected case-insensitive ID match, got %v", got)
	}
}

func TestMachineCriteria_StatusFilter(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	machines := []model.Machine{
		machineAt("m-online", "", now.Add(-time.Minute)),
		machineAt("m-offline", "", now.Add(-time.Hour)),
	}

	online := Machines(machines, MachineCriteria{Status: StatusOnline}, now)
	if len(online) != 1 || online[0].ID != "m-online" {
		t.Fatalf("unexpected online set: %v", online)
	}
	offline := Machines(machines, MachineCriteria{Status: StatusOffline}, now)
	if len(offline) != 1 || offline[0].ID != "m-offline" {
		t.Fatalf("unexpected offline set: %v", offline)
	}
	all := Machines(machines, MachineCriteria{Status: StatusAll}, now)
	if len(all) != 2 {
		t.Fatalf("expected both machines, got %d", len(all))
	}
}

func TestMachineCriteria_OrderPreservingAndDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	machines := []model.Machine{
		machineAt("m3", "", now),
		machineAt("m1", "", now),
		machineAt("m2", "", now),
	}

	first := Machines(machines, MachineCriteria{}, now)
	second := Machines(machines, MachineCriteria{}, now)
	for i := range first {
		if first[i].ID != machines[i].ID || second[i].ID != machines[i].ID {
			t.Fatalf("filter must preserve input order")
		}
	}
}

func TestLogCriteria_MachineExactMatch(t *testing.T) {
	logs := []model.LogEntry{
		{MachineID: "m1", Timestamp: "2026-08-30T10:00:00Z", Event: "heartbeat"},
		{MachineID: "m10", Timestamp: "2026-08-30T11:00:00Z", Event: "heartbeat"},
	}

	got := Logs(logs, LogCriteria{MachineID: "m1"})
	if len(got) != 1 || got[0].MachineID != "m1" {
		t.Fatalf("machine filter must match exactly, got %v", got)
	}
}

func TestLogCriteria_EventSubstringCaseInsensitive(t *testing.T) {
	logs := []model.LogEntry{
		{MachineID: "m1", Timestamp: "2026-08-30T10:00:00Z", Event: "FAKE FILE DETECTED: report.xml"},
		{MachineID: "m1", Timestamp: "2026-08-30T11:00:00Z", Event: "agent startup"},
	}

	got := Logs(logs, LogCriteria{Event: "fake file"})
	if len(got) != 1 || got[0].Event != "FAKE FILE DETECTED: report.xml" {
		t.Fatalf("expected case-insensitive substring match, got %v", got)
	}
}

func TestLogCriteria_DateRangeInclusive(t *testing.T) {
	logs := []model.LogEntry{
		{MachineID: "m1", Timestamp: "2026-08-28T23:59:00Z", Event: "a"},
		{MachineID: "m1", Timestamp: "2026-08-29T00:00:00Z", Event: "b"},
		{MachineID: "m1", Timestamp: "2026-08-30T12:00:00Z", Event: "c"},
		{MachineID: "m1", Timestamp: "2026-08-31T00:00:01Z", Event: "d"},
	}

	got := Logs(logs, LogCriteria{DateFrom: "2026-08-29", DateTo: "2026-08-30"})
	if len(got) != 2 || got[0].Event != "b" || got[1].Event != "c" {
		t.Fatalf("expected inclusive calendar-day bounds, got %v", got)
	}
}

func TestSortLogsNewestFirst(t *testing.T) {
	logs := []model.LogEntry{
		{MachineID: "m2", Timestamp: "2026-08-29T00:00:00Z"},
		{MachineID: "m1", Timestamp: "2026-08-31T00:00:00Z"},
		{MachineID: "m3", Timestamp: "2026-08-30T00:00:00Z"},
	}
	SortLogsNewestFirst(logs)
	if logs[0].MachineID != "m1" || logs[1].MachineID != "m3" || logs[2].MachineID != "m2" {
		t.Fatalf("unexpected order: %v", logs)
	}
}
