package view

import (
	"time"

	"fleet-console/internal/rtdb"
)

// Console-originated events land in the same log tree the agents write to,
// under a reserved machine id, keyed by timestamp like agent entries.
const auditMachineID = "dashboard"

func writeAudit(client rtdb.Client, now time.Time, event string, fields map[string]any) error {
	ts := now.UTC().Format(time.RFC3339)
	entry := map[string]any{
		"event":     event,
		"timestamp": ts,
		"source":    "webapp",
	}
	for k, v := range fields {
		entry[k] = v
	}
	return client.Write("logs/"+auditMachineID+"/"+ts, entry)
}
