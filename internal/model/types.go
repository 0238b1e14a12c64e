package model

// Machine is a monitored endpoint agent. The ID is assigned by the agent at
// install time; the dashboard never creates or deletes machines directly.
type Machine struct {
	ID          string        `json:"id"`
	Hostname    string        `json:"hostname,omitempty"`
	InstallDate string        `json:"installDate,omitempty"`
	Status      MachineStatus `json:"status"`
	Stats       MachineStats  `json:"stats"`
}

type MachineStatus struct {
	LastHeartbeat string `json:"lastHeartbeat,omitempty"`
}

type MachineStats struct {
	FilesProcessed int `json:"filesProcessed"`
	FilesToday     int `json:"filesToday"`
	FilesWeek      int `json:"filesWeek"`
	FilesMonth     int `json:"filesMonth"`
}

// LogEntry is immutable once written. Its identity is (MachineID, Timestamp);
// the timestamp doubles as the entry key under logs/{machineId} in the store.
type LogEntry struct {
	MachineID   string       `json:"machineId"`
	Timestamp   string       `json:"timestamp"`
	Event       string       `json:"event"`
	Path        string       `json:"path,omitempty"`
	Fingerprint *Fingerprint `json:"fingerprint,omitempty"`
}

// Fingerprint identifies the tax declaration a detection event refers to.
// Wire keys follow the agent's data format.
type Fingerprint struct {
	TaxID    string `json:"mst,omitempty"`
	FormCode string `json:"maTKhai,omitempty"`
	Period   string `json:"kyKKhai,omitempty"`
	Revision string `json:"soLan,omitempty"`
}

// Command is an advisory instruction pushed under machines/{id}/commands.
// Execution happens out of band on the agent.
type Command struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Executed  bool   `json:"executed"`
	Reason    string `json:"reason,omitempty"`
}

const CommandUninstall = "uninstall"

type Settings struct {
	HeartbeatInterval int    `json:"heartbeatInterval"`
	DashboardRefresh  int    `json:"dashboardRefresh"`
	LastUpdated       string `json:"lastUpdated,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{HeartbeatInterval: 300, DashboardRefresh: 5}
}

// UsageStats aggregates rough quota figures. Storage and bandwidth are
// placeholder estimates, not backend-reported usage.
type UsageStats struct {
	TotalMachines int `json:"totalMachines"`
	TotalLogs     int `json:"totalLogs"`
	StorageKB     int `json:"storageKb"`
	BandwidthKB   int `json:"bandwidthKb"`
}

// Template is an XML reference file hosted in the content backend. SHA is the
// revision token the backend requires for deletion.
type Template struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

type Release struct {
	Version   string `json:"version,omitempty"`
	URL       string `json:"url,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	SizeBytes int64  `json:"sizeBytes,omitempty"`
}
