package view

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fleet-console/internal/model"
	"fleet-console/internal/notify"
	"fleet-console/internal/rtdb"
)

// Validation bounds for agent configuration.
const (
	MinHeartbeatSeconds = 60
	MaxHeartbeatSeconds = 3600
	MinRefreshSeconds   = 1
	MaxRefreshSeconds   = 60
	MinRetentionDays    = 1
	MaxRetentionDays    = 365
)

// SettingsView manages the shared agent configuration node and the
// maintenance operations (retention cleanup, full export).
type SettingsView struct {
	client   rtdb.Client
	notifier *notify.Center
	now      func() time.Time

	mu       sync.Mutex
	settings model.Settings
}

func NewSettingsView(client rtdb.Client, notifier *notify.Center, now func() time.Time) *SettingsView {
	if now == nil {
		now = time.Now
	}
	return &SettingsView{
		client:   client,
		notifier: notifier,
		now:      now,
		settings: model.DefaultSettings(),
	}
}

// Load reads the settings node, falling back to defaults when absent.
func (v *SettingsView) Load() (model.Settings, error) {
	snap, err := v.client.ReadOnce("settings")
	if err != nil {
		v.notifier.Notify(notify.Error, "failed to load settings: "+err.Error())
		return model.Settings{}, err
	}

	s := model.DefaultSettings()
	if snap.Exists() {
		s = model.SettingsFromNode(snap.Val())
	}

	v.mu.Lock()
	v.settings = s
	v.mu.Unlock()
	return s, nil
}

func (v *SettingsView) Current() model.Settings {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.settings
}

func validateSettings(s model.Settings) error {
	if s.HeartbeatInterval < MinHeartbeatSeconds || s.HeartbeatInterval > MaxHeartbeatSeconds {
		return fmt.Errorf("heartbeat interval must be between %d and %d seconds", MinHeartbeatSeconds, MaxHeartbeatSeconds)
	}
	if s.DashboardRefresh < MinRefreshSeconds || s.DashboardRefresh > MaxRefreshSeconds {
		return fmt.Errorf("dashboard refresh must be between %d and %d seconds", MinRefreshSeconds, MaxRefreshSeconds)
	}
	return nil
}

// Save validates and persists the settings, stamping lastUpdated.
func (v *SettingsView) Save(s model.Settings) (model.Settings, error) {
	if err := validateSettings(s); err != nil {
		v.notifier.Notify(notify.Warning, err.Error())
		return model.Settings{}, err
	}

	s.LastUpdated = v.now().UTC().Format(time.RFC3339)
	if err := v.client.Write("settings", s.Node()); err != nil {
		v.notifier.Notify(notify.Error, "failed to save settings: "+err.Error())
		return model.Settings{}, err
	}

	v.mu.Lock()
	v.settings = s
	v.mu.Unlock()

	v.notifier.Notify(notify.Success, "settings saved")
	return s, nil
}

// Usage estimates store consumption from collection sizes. The multipliers
// are rough heuristics, not billing figures.
func (v *SettingsView) Usage() (model.UsageStats, error) {
	machinesSnap, err := v.client.ReadOnce("machines")
	if err != nil {
		return model.UsageStats{}, err
	}
	logsSnap, err := v.client.ReadOnce("logs")
	if err != nil {
		return model.UsageStats{}, err
	}

	stats := model.UsageStats{}
	if machinesSnap.Exists() {
		stats.TotalMachines = len(model.MachinesFromNode(machinesSnap.Val()))
	}
	if logsSnap.Exists() {
		stats.TotalLogs = len(model.LogsFromNode(logsSnap.Val()))
	}

	stats.StorageKB = stats.TotalLogs / 2
	stats.BandwidthKB = stats.StorageKB / 10
	return stats, nil
}

// DeleteOldLogs removes entries older than the retention window and returns
// how many were deleted. Timestamps are compared lexically against the
// cutoff, which is sound for RFC 3339 strings.
func (v *SettingsView) DeleteOldLogs(days int) (int, error) {
	if days < MinRetentionDays || days > MaxRetentionDays {
		err := fmt.Errorf("retention days must be between %d and %d", MinRetentionDays, MaxRetentionDays)
		v.notifier.Notify(notify.Warning, err.Error())
		return 0, err
	}

	snap, err := v.client.ReadOnce("logs")
	if err != nil {
		v.notifier.Notify(notify.Error, "failed to read logs for cleanup: "+err.Error())
		return 0, err
	}
	if !snap.Exists() {
		return 0, nil
	}

	cutoff := v.now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	deleted := 0
	for _, e := range model.LogsFromNode(snap.Val()) {
		if e.Timestamp >= cutoff {
			continue
		}
		if err := v.client.Remove("logs/" + e.MachineID + "/" + e.Timestamp); err != nil {
			v.notifier.Notify(notify.Error, "log cleanup aborted: "+err.Error())
			return deleted, err
		}
		deleted++
	}

	if deleted > 0 {
		v.notifier.Notify(notify.Success, fmt.Sprintf("deleted %d log entries older than %d days", deleted, days))
	}
	return deleted, nil
}

type fullExport struct {
	ExportTime string `json:"export_time"`
	Machines   any    `json:"machines"`
	Logs       any    `json:"logs"`
	Settings   any    `json:"settings"`
}

// ExportAll serializes the raw machines, logs and settings trees.
func (v *SettingsView) ExportAll() ([]byte, error) {
	report := fullExport{ExportTime: v.now().UTC().Format(time.RFC3339)}

	for _, part := range []struct {
		path string
		dst  *any
	}{
		{"machines", &report.Machines},
		{"logs", &report.Logs},
		{"settings", &report.Settings},
	} {
		snap, err := v.client.ReadOnce(part.path)
		if err != nil {
			return nil, err
		}
		if snap.Exists() {
			*part.dst = snap.Val()
		}
	}
	return json.MarshalIndent(report, "", "  ")
}
