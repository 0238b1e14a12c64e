package view

import (
	"sync"
	"time"

	"fleet-console/internal/model"
	"fleet-console/internal/notify"
	"fleet-console/internal/paginate"
	"fleet-console/internal/query"
	"fleet-console/internal/rtdb"
)

const machinesPageLimit = 50

// MachinesView owns the machines collection: cold loads paginate the filtered
// snapshot, realtime updates replace the collection wholesale.
type MachinesView struct {
	client   rtdb.Client
	notifier *notify.Center
	now      func() time.Time

	cursor *paginate.Cursor

	mu          sync.Mutex
	machines    map[string]model.Machine
	criteria    query.MachineCriteria
	unsubscribe func()
	disposed    bool
}

func NewMachinesView(client rtdb.Client, notifier *notify.Center, now func() time.Time) *MachinesView {
	if now == nil {
		now = time.Now
	}
	return &MachinesView{
		client:   client,
		notifier: notifier,
		now:      now,
		cursor:   paginate.NewCursor(machinesPageLimit),
		machines: make(map[string]model.Machine),
	}
}

// Init performs the cold load and attaches the realtime listener.
func (v *MachinesView) Init() error {
	if err := v.Load(true); err != nil {
		return err
	}

	unsubscribe, err := v.client.Subscribe("machines", v.applySnapshot)
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

// Load fetches the full snapshot, filters it, and merges the next page. A
// second call while one is in flight is a no-op.
func (v *MachinesView) Load(reset bool) error {
	if !v.cursor.Begin() {
		return nil
	}
	defer v.cursor.End()

	if reset {
		v.cursor.Reset()
		v.mu.Lock()
		v.machines = make(map[string]model.Machine)
		v.mu.Unlock()
	}

	snap, err := v.client.ReadOnce("machines")
	if err != nil {
		v.notifier.Notify(notify.Error, "failed to load machines: "+err.Error())
		return err
	}
	if !snap.Exists() {
		paginate.Page([]model.Machine(nil), v.cursor)
		return nil
	}

	all := model.MachinesFromNode(snap.Val())

	v.mu.Lock()
	criteria := v.criteria
	v.mu.Unlock()

	filtered := query.Machines(all, criteria, v.now())
	page := paginate.Page(filtered, v.cursor)

	v.mu.Lock()
	for _, m := range page {
		v.machines[m.ID] = m
	}
	v.mu.Unlock()
	return nil
}

func (v *MachinesView) LoadMore() error {
	if !v.cursor.State().HasMore {
		return nil
	}
	return v.Load(false)
}

// SetCriteria replaces the active filter and reloads from a fresh cursor so
// stale offsets never apply to a changed filtered set.
func (v *MachinesView) SetCriteria(c query.MachineCriteria) error {
	v.mu.Lock()
	v.criteria = c
	v.mu.Unlock()
	return v.Load(true)
}

func (v *MachinesView) Criteria() query.MachineCriteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.criteria
}

// applySnapshot is the realtime merge: wholesale replacement of the in-memory
// collection with the delivered snapshot.
func (v *MachinesView) applySnapshot(snap rtdb.Snapshot) {
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

// List applies the active filter to the collection and orders by most recent
// heartbeat.
func (v *MachinesView) List() []model.Machine {
	v.mu.Lock()
	items := make([]model.Machine, 0, len(v.machines))
	for _, m := range v.machines {
		items = append(items, m)
	}
	criteria := v.criteria
	v.mu.Unlock()

	filtered := query.Machines(items, criteria, v.now())
	query.SortMachinesByHeartbeat(filtered)
	return filtered
}

func (v *MachinesView) Pagination() paginate.State {
	return v.cursor.State()
}

// MachineDetails is the modal payload: the raw machine plus derived fields.
type MachineDetails struct {
	model.Machine
	Online     bool   `json:"online"`
	LastActive string `json:"lastActive"`
	Uptime     string `json:"uptime"`
}

func (v *MachinesView) Details(id string) (MachineDetails, bool) {
	v.mu.Lock()
	m, ok := v.machines[id]
	v.mu.Unlock()
	if !ok {
		return MachineDetails{}, false
	}

	now := v.now()
	return MachineDetails{
		Machine:    m,
		Online:     query.IsOnline(m.Status.LastHeartbeat, now),
		LastActive: query.RelativeTime(m.Status.LastHeartbeat, now),
		Uptime:     query.Uptime(m.InstallDate, now),
	}, true
}

// SendUninstall pushes an advisory uninstall command for the agent to pick
// up. The machine record itself is untouched.
func (v *MachinesView) SendUninstall(machineID, reason string) error {
	if reason == "" {
		reason = "Manual uninstall from dashboard"
	}
	cmd := model.Command{
		Type:      model.CommandUninstall,
		Timestamp: v.now().UTC().Format(time.RFC3339),
		Executed:  false,
		Reason:    reason,
	}

	if _, err := v.client.Push("machines/"+machineID+"/commands", cmd.Node()); err != nil {
		v.notifier.Notify(notify.Error, "failed to send uninstall command: "+err.Error())
		return err
	}
	v.notifier.Notify(notify.Success, "uninstall command sent to "+machineID)
	return nil
}

func (v *MachinesView) Dispose() {
	v.mu.Lock()
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.disposed = true
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
