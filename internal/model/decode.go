package model

import "sort"

// The store hands subtrees back as nested map[string]any. The helpers below
// convert between those nodes and the typed models. Missing or malformed
// fields fall back to zero values, never errors.

func node(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func strField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func MachineFromNode(id string, v any) Machine {
	n := node(v)
	info := node(n["info"])
	status := node(n["status"])
	stats := node(n["stats"])
	return Machine{
		ID:          id,
		Hostname:    strField(info, "hostname"),
		InstallDate: strField(info, "install_date"),
		Status:      MachineStatus{LastHeartbeat: strField(status, "last_heartbeat")},
		Stats: MachineStats{
			FilesProcessed: intField(stats, "files_processed"),
			FilesToday:     intField(stats, "files_today"),
			FilesWeek:      intField(stats, "files_week"),
			FilesMonth:     intField(stats, "files_month"),
		},
	}
}

// MachinesFromNode flattens the machines subtree into a list ordered by ID so
// repeated reads of the same snapshot paginate identically.
func MachinesFromNode(v any) []Machine {
	n := node(v)
	ids := make([]string, 0, len(n))
	for id := range n {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]Machine, 0, len(ids))
	for _, id := range ids {
		result = append(result, MachineFromNode(id, n[id]))
	}
	return result
}

func LogFromNode(machineID, timestamp string, v any) LogEntry {
	n := node(v)
	entry := LogEntry{
		MachineID: machineID,
		Timestamp: timestamp,
		Event:     strField(n, "event"),
		Path:      strField(n, "path"),
	}
	if fp := node(n["fingerprint"]); fp != nil {
		entry.Fingerprint = &Fingerprint{
			TaxID:    strField(fp, "mst"),
			FormCode: strField(fp, "maTKhai"),
			Period:   strField(fp, "kyKKhai"),
			Revision: strField(fp, "soLan"),
		}
	}
	return entry
}

// LogsFromNode flattens logs/{machineId}/{timestamp} into a flat list. No
// ordering is imposed here; callers re-sort newest-first after every merge.
func LogsFromNode(v any) []LogEntry {
	n := node(v)
	var result []LogEntry
	for machineID, perMachine := range n {
		for timestamp, entry := range node(perMachine) {
			result = append(result, LogFromNode(machineID, timestamp, entry))
		}
	}
	return result
}

func SettingsFromNode(v any) Settings {
	s := DefaultSettings()
	n := node(v)
	if n == nil {
		return s
	}
	if hb := intField(n, "heartbeatInterval"); hb != 0 {
		s.HeartbeatInterval = hb
	}
	if refresh := intField(n, "dashboardRefresh"); refresh != 0 {
		s.DashboardRefresh = refresh
	}
	s.LastUpdated = strField(n, "lastUpdated")
	return s
}

func ReleaseFromNode(v any) (Release, bool) {
	n := node(v)
	if n == nil {
		return Release{}, false
	}
	r := Release{
		Version:   strField(n, "version"),
		URL:       strField(n, "url"),
		UpdatedAt: strField(n, "updated_at"),
		SizeBytes: int64(intField(n, "size_bytes")),
	}
	return r, r.URL != ""
}

func (s Settings) Node() map[string]any {
	return map[string]any{
		"heartbeatInterval": s.HeartbeatInterval,
		"dashboardRefresh":  s.DashboardRefresh,
		"lastUpdated":       s.LastUpdated,
	}
}

func (c Command) Node() map[string]any {
	return map[string]any{
		"type":      c.Type,
		"timestamp": c.Timestamp,
		"executed":  c.Executed,
		"params":    map[string]any{"reason": c.Reason},
	}
}

func (e LogEntry) Node() map[string]any {
	n := map[string]any{"event": e.Event}
	if e.Path != "" {
		n["path"] = e.Path
	}
	if e.Fingerprint != nil {
		n["fingerprint"] = map[string]any{
			"mst":     e.Fingerprint.TaxID,
			"maTKhai": e.Fingerprint.FormCode,
			"kyKKhai": e.Fingerprint.Period,
			"soLan":   e.Fingerprint.Revision,
		}
	}
	return n
}
