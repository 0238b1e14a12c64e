package view

import (
	"sync"
	"time"

	"fleet-console/internal/model"
	"fleet-console/internal/notify"
	"fleet-console/internal/query"
	"fleet-console/internal/rtdb"
)

// DashboardView aggregates the fleet into summary figures and recent-activity
// slices. It holds the complete snapshot of both collections; pagination is
// the concern of the dedicated views.
type DashboardView struct {
	client   rtdb.Client
	notifier *notify.Center
	now      func() time.Time

	mu            sync.Mutex
	machines      map[string]model.Machine
	logs          []model.LogEntry
	unsubscribers []func()
	stopRefresh   chan struct{}
	disposed      bool
}

func NewDashboardView(client rtdb.Client, notifier *notify.Center, now func() time.Time) *DashboardView {
	if now == nil {
		now = time.Now
	}
	return &DashboardView{
		client:   client,
		notifier: notifier,
		now:      now,
		machines: make(map[string]model.Machine),
	}
}

func (v *DashboardView) Init() error {
	if err := v.Refresh(); err != nil {
		return err
	}

	unsubMachines, err := v.client.Subscribe("machines", v.applyMachines)
	if err != nil {
		return err
	}
	unsubLogs, err := v.client.Subscribe("logs", v.applyLogs)
	if err != nil {
		unsubMachines()
		return err
	}

	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		unsubMachines()
		unsubLogs()
		return nil
	}
	v.unsubscribers = append(v.unsubscribers, unsubMachines, unsubLogs)
	v.mu.Unlock()
	return nil
}

// Refresh re-reads both collections in one pass.
func (v *DashboardView) Refresh() error {
	machinesSnap, err := v.client.ReadOnce("machines")
	if err != nil {
		v.notifier.Notify(notify.Error, "dashboard refresh failed: "+err.Error())
		return err
	}
	logsSnap, err := v.client.ReadOnce("logs")
	if err != nil {
		v.notifier.Notify(notify.Error, "dashboard refresh failed: "+err.Error())
		return err
	}

	v.applyMachines(machinesSnap)
	v.applyLogs(logsSnap)
	return nil
}

// StartAutoRefresh polls on the given interval until Dispose. The interval
// comes from settings (dashboardRefresh).
func (v *DashboardView) StartAutoRefresh(interval time.Duration) {
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
				_ = v.Refresh()
			case <-stop:
				return
			}
		}
	}()
}

func (v *DashboardView) applyMachines(snap rtdb.Snapshot) {
	if !snap.Exists() {
		return
	}
	all := model.MachinesFromNode(snap.Val())

	v.mu.Lock()
	v.machines = make(map[string]model.Machine, len(all))
	for _, m := range all {
		v.machines[m.ID] = m
	}
	v.mu.Unlock()
}

func (v *DashboardView) applyLogs(snap rtdb.Snapshot) {
	if !snap.Exists() {
		return
	}
	all := model.LogsFromNode(snap.Val())
	query.SortLogsNewestFirst(all)

	v.mu.Lock()
	v.logs = all
	v.mu.Unlock()
}

// Summary is the headline card row.
type Summary struct {
	TotalMachines   int `json:"totalMachines"`
	OnlineMachines  int `json:"onlineMachines"`
	OfflineMachines int `json:"offlineMachines"`
	FilesToday      int `json:"filesToday"`
	TotalFiles      int `json:"totalFiles"`
	DetectionsToday int `json:"detectionsToday"`
	TotalDetections int `json:"totalDetections"`
}

func (v *DashboardView) Summary() Summary {
	now := v.now()
	today := now.UTC().Format("2006-01-02")

	v.mu.Lock()
	defer v.mu.Unlock()

	s := Summary{TotalMachines: len(v.machines)}
	for _, m := range v.machines {
		if query.IsOnline(m.Status.LastHeartbeat, now) {
			s.OnlineMachines++
		}
		s.FilesToday += m.Stats.FilesToday
		s.TotalFiles += m.Stats.FilesProcessed
	}
	s.OfflineMachines = s.TotalMachines - s.OnlineMachines

	for _, e := range v.logs {
		if !query.IsDetection(e.Event) {
			continue
		}
		s.TotalDetections++
		if query.DateOnly(e.Timestamp) == today {
			s.DetectionsToday++
		}
	}
	return s
}

// SeriesPoint is one day of the detections chart.
type SeriesPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DetectionSeries returns per-day detection counts for the trailing N days,
// oldest first, zero-filled.
func (v *DashboardView) DetectionSeries(days int) []SeriesPoint {
	if days <= 0 {
		days = 7
	}
	now := v.now().UTC()

	counts := make(map[string]int, days)
	points := make([]SeriesPoint, days)
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, i-days+1).Format("2006-01-02")
		points[i] = SeriesPoint{Date: day}
		counts[day] = i
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, e := range v.logs {
		if !query.IsDetection(e.Event) {
			continue
		}
		if idx, ok := counts[query.DateOnly(e.Timestamp)]; ok {
			points[idx].Count++
		}
	}
	return points
}

// RecentMachines returns up to n machines ordered by most recent heartbeat.
func (v *DashboardView) RecentMachines(n int) []model.Machine {
	v.mu.Lock()
	items := make([]model.Machine, 0, len(v.machines))
	for _, m := range v.machines {
		items = append(items, m)
	}
	v.mu.Unlock()

	query.SortMachinesByHeartbeat(items)
	if len(items) > n {
		items = items[:n]
	}
	return items
}

// RecentLogs returns up to n newest entries.
func (v *DashboardView) RecentLogs(n int) []model.LogEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n > len(v.logs) {
		n = len(v.logs)
	}
	out := make([]model.LogEntry, n)
	copy(out, v.logs[:n])
	return out
}

func (v *DashboardView) Dispose() {
	v.mu.Lock()
	unsubs := v.unsubscribers
	v.unsubscribers = nil
	stop := v.stopRefresh
	v.stopRefresh = nil
	v.disposed = true
	v.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if stop != nil {
		close(stop)
	}
}
