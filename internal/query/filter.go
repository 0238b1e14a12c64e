package query

import (
	"sort"
	"strings"
	"time"

	"fleet-console/internal/model"
)

type StatusFilter string

const (
	StatusAll     StatusFilter = "all"
	StatusOnline  StatusFilter = "online"
	StatusOffline StatusFilter = "offline"
)

// MachineCriteria filters the machines collection. Zero value passes
// everything.
type MachineCriteria struct {
	Search string       `json:"search"`
	Status StatusFilter `json:"status"`
}

func (c MachineCriteria) Match(m model.Machine, now time.Time) bool {
	if c.Search != "" {
		needle := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(m.Hostname), needle) &&
			!strings.Contains(strings.ToLower(m.ID), needle) {
			return false
		}
	}

	switch c.Status {
	case StatusOnline:
		return IsOnline(m.Status.LastHeartbeat, now)
	case StatusOffline:
		return !IsOnline(m.Status.LastHeartbeat, now)
	}
	return true
}

// Machines returns the entries matching c, preserving input order.
func Machines(items []model.Machine, c MachineCriteria, now time.Time) []model.Machine {
	result := make([]model.Machine, 0, len(items))
	for _, m := range items {
		if c.Match(m, now) {
			result = append(result, m)
		}
	}
	return result
}

// LogCriteria filters the logs collection. Dates are calendar days
// ("2006-01-02"), inclusive on both ends.
type LogCriteria struct {
	MachineID string `json:"machineId"`
	Event     string `json:"event"`
	DateFrom  string `json:"dateFrom"`
	DateTo    string `json:"dateTo"`
}

func (c LogCriteria) Match(e model.LogEntry) bool {
	if c.MachineID != "" && e.MachineID != c.MachineID {
		return false
	}
	// Event matching is uniformly case-insensitive, on the cold-load and the
	// live path alike.
	if c.Event != "" && !containsFold(e.Event, c.Event) {
		return false
	}

	if c.DateFrom != "" || c.DateTo != "" {
		day := DateOnly(e.Timestamp)
		if day == "" {
			return false
		}
		if c.DateFrom != "" && day < c.DateFrom {
			return false
		}
		if c.DateTo != "" && day > c.DateTo {
			return false
		}
	}
	return true
}

// Logs returns the entries matching c, preserving input order.
func Logs(items []model.LogEntry, c LogCriteria) []model.LogEntry {
	result := make([]model.LogEntry, 0, len(items))
	for _, e := range items {
		if c.Match(e) {
			result = append(result, e)
		}
	}
	return result
}

// SortLogsNewestFirst re-imposes reverse-chronological order. The store's key
// order is not chronological across machines, so this runs after every merge.
func SortLogsNewestFirst(items []model.LogEntry) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp > items[j].Timestamp })
}

// SortMachinesByHeartbeat orders machines most-recent heartbeat first.
func SortMachinesByHeartbeat(items []model.Machine) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Status.LastHeartbeat > items[j].Status.LastHeartbeat
	})
}
