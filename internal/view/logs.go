package view

import (
	"encoding/json"
	"sync"
	"time"

	"fleet-console/internal/model"
	"fleet-console/internal/notify"
	"fleet-console/internal/paginate"
	"fleet-console/internal/query"
	"fleet-console/internal/rtdb"
)

const logsPageLimit = 100

// LogsView accumulates pages of detection log entries and applies the active
// filter to the accumulated set, newest first.
type LogsView struct {
	client   rtdb.Client
	notifier *notify.Center

	cursor *paginate.Cursor

	mu          sync.Mutex
	logs        []model.LogEntry
	criteria    query.LogCriteria
	unsubscribe func()
	stopRefresh chan struct{}
	disposed    bool
}

func NewLogsView(client rtdb.Client, notifier *notify.Center) *LogsView {
	return &LogsView{
		client:   client,
		notifier: notifier,
		cursor:   paginate.NewCursor(logsPageLimit),
	}
}

func (v *LogsView) Init() error {
	if err := v.Load(true); err != nil {
		return err
	}

	unsubscribe, err := v.client.Subscribe("logs", v.applySnapshot)
	if err != nil {
		return err
	}

	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		unsubscribe()
		return nil
	}
	v.unsubscribe = unsubscribe
	v.mu.Unlock()
	return nil
}

func (v *LogsView) Load(reset bool) error {
	if !v.cursor.Begin() {
		return nil
	}
	defer v.cursor.End()

	if reset {
		v.cursor.Reset()
		v.mu.Lock()
		v.logs = nil
		v.mu.Unlock()
	}

	snap, err := v.client.ReadOnce("logs")
	if err != nil {
		v.notifier.Notify(notify.Error, "failed to load logs: "+err.Error())
		return err
	}
	if !snap.Exists() {
		paginate.Page([]model.LogEntry(nil), v.cursor)
		return nil
	}

	all := model.LogsFromNode(snap.Val())
	query.SortLogsNewestFirst(all)

	v.mu.Lock()
	criteria := v.criteria
	v.mu.Unlock()

	filtered := query.Logs(all, criteria)
	page := paginate.Page(filtered, v.cursor)

	v.mu.Lock()
	held := make(map[string]struct{}, len(v.logs))
	for _, e := range v.logs {
		held[e.MachineID+"/"+e.Timestamp] = struct{}{}
	}
	for _, e := range page {
		if _, dup := held[e.MachineID+"/"+e.Timestamp]; dup {
			continue
		}
		v.logs = append(v.logs, e)
	}
	v.mu.Unlock()
	return nil
}

func (v *LogsView) LoadMore() error {
	if !v.cursor.State().HasMore {
		return nil
	}
	return v.Load(false)
}

// ApplyFilter sets the criteria and reloads from the start so pagination and
// filtering stay consistent.
func (v *LogsView) ApplyFilter(c query.LogCriteria) error {
	v.mu.Lock()
	v.criteria = c
	v.mu.Unlock()
	return v.Load(true)
}

func (v *LogsView) Criteria() query.LogCriteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.criteria
}

func (v *LogsView) applySnapshot(snap rtdb.Snapshot) {
	if !snap.Exists() {
		return
	}
	all := model.LogsFromNode(snap.Val())
	query.SortLogsNewestFirst(all)

	v.mu.Lock()
	criteria := v.criteria
	v.mu.Unlock()

	// Each delivery carries the complete set, so replace wholesale and mark
	// the cursor materialized through it; LoadMore has nothing left to fetch
	// until the next reset.
	filtered := query.Logs(all, criteria)
	v.cursor.Complete(len(filtered))

	v.mu.Lock()
	v.logs = filtered
	v.mu.Unlock()
}

// StartAutoRefresh re-fetches the filtered set from the start on the given
// interval until Dispose.
func (v *LogsView) StartAutoRefresh(interval time.Duration) {
	v.mu.Lock()
	if v.disposed || v.stopRefresh != nil {
		v.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	v.stopRefresh = stop
	v.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = v.Load(true)
			case <-stop:
				return
			}
		}
	}()
}

func (v *LogsView) List() []model.LogEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]model.LogEntry, len(v.logs))
	copy(out, v.logs)
	return out
}

func (v *LogsView) Pagination() paginate.State {
	return v.cursor.State()
}

type logExport struct {
	ExportTime string            `json:"export_time"`
	TotalLogs  int               `json:"total_logs"`
	Filters    query.LogCriteria `json:"filters"`
	Logs       []model.LogEntry  `json:"logs"`
}

// Export serializes the currently loaded, filtered entries as a JSON report.
func (v *LogsView) Export(now time.Time) ([]byte, error) {
	v.mu.Lock()
	entries := make([]model.LogEntry, len(v.logs))
	copy(entries, v.logs)
	criteria := v.criteria
	v.mu.Unlock()

	report := logExport{
		ExportTime: now.UTC().Format(time.RFC3339),
		TotalLogs:  len(entries),
		Filters:    criteria,
		Logs:       entries,
	}
	return json.MarshalIndent(report, "", "  ")
}

func (v *LogsView) Dispose() {
	v.mu.Lock()
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	if v.stopRefresh != nil {
		close(v.stopRefresh)
		v.stopRefresh = nil
	}
	v.disposed = true
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
