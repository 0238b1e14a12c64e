package view

import (
	"time"

	"fleet-console/internal/model"
	"fleet-console/internal/notify"
	"fleet-console/internal/rtdb"
)

// DownloadView exposes the current agent installer release. The binary itself
// is hosted elsewhere; the store only carries the pointer.
type DownloadView struct {
	client   rtdb.Client
	notifier *notify.Center
	now      func() time.Time
}

func NewDownloadView(client rtdb.Client, notifier *notify.Center, now func() time.Time) *DownloadView {
	if now == nil {
		now = time.Now
	}
	return &DownloadView{client: client, notifier: notifier, now: now}
}

// Release reads the published release pointer. available is false when no
// release has been published yet; callers fall back to manual install
// instructions.
func (v *DownloadView) Release() (rel model.Release, available bool, err error) {
	snap, err := v.client.ReadOnce("release")
	if err != nil {
		v.notifier.Notify(notify.Error, "failed to read release info: "+err.Error())
		return model.Release{}, false, err
	}
	if !snap.Exists() {
		return model.Release{}, false, nil
	}

	rel, ok := model.ReleaseFromNode(snap.Val())
	if !ok {
		return model.Release{}, false, nil
	}
	return rel, true, nil
}

// RecordDownloadAttempt audits that an installer download was initiated.
func (v *DownloadView) RecordDownloadAttempt(version string) {
	fields := map[string]any{}
	if version != "" {
		fields["version"] = version
	}
	if err := writeAudit(v.client, v.now(), "EXE_DOWNLOAD_ATTEMPT", fields); err != nil {
		v.notifier.Notify(notify.Warning, "failed to record download attempt: "+err.Error())
	}
}
