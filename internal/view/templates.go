package view

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fleet-console/internal/ghcontent"
	"fleet-console/internal/model"
	"fleet-console/internal/notify"
	"fleet-console/internal/rtdb"
)

// MaxTemplateSize caps uploads at 1 MiB. Reference templates are small XML
// documents; anything larger is a mistake.
const MaxTemplateSize = 1 << 20

// ContentStore is the slice of the hosting API the templates view needs.
type ContentStore interface {
	List() ([]model.Template, error)
	Upload(name string, content []byte) (model.Template, error)
	Delete(path, sha string) error
}

var _ ContentStore = (*ghcontent.Client)(nil)

// TemplatesView manages the XML reference templates hosted in the content
// backend. Mutations are audited to the log tree.
type TemplatesView struct {
	store    ContentStore
	client   rtdb.Client
	notifier *notify.Center
	now      func() time.Time

	mu         sync.Mutex
	lastUpload string
}

func NewTemplatesView(store ContentStore, client rtdb.Client, notifier *notify.Center, now func() time.Time) *TemplatesView {
	if now == nil {
		now = time.Now
	}
	return &TemplatesView{
		store:    store,
		client:   client,
		notifier: notifier,
		now:      now,
	}
}

func (v *TemplatesView) List() ([]model.Template, error) {
	templates, err := v.store.List()
	if err != nil {
		v.notifier.Notify(notify.Error, "failed to list templates: "+err.Error())
		return nil, err
	}
	return templates, nil
}

// TemplateStats summarizes the hosted set for the header row.
type TemplateStats struct {
	Count      int    `json:"count"`
	TotalSize  int64  `json:"totalSize"`
	LastUpload string `json:"lastUpload,omitempty"`
}

func (v *TemplatesView) Stats() (TemplateStats, error) {
	templates, err := v.store.List()
	if err != nil {
		return TemplateStats{}, err
	}

	v.mu.Lock()
	lastUpload := v.lastUpload
	v.mu.Unlock()

	// The contents API carries no timestamps; last upload only reflects
	// uploads made through this process.
	stats := TemplateStats{Count: len(templates), LastUpload: lastUpload}
	for _, t := range templates {
		stats.TotalSize += t.Size
	}
	return stats, nil
}

func validateTemplateName(name string) error {
	if name == "" {
		return errors.New("template name is required")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".xml") {
		return errors.New("only .xml templates are accepted")
	}
	if strings.ContainsAny(name, "/\\") {
		return errors.New("template name must not contain path separators")
	}
	return nil
}

// Upload validates the file and pushes it to the backend, overwriting any
// template of the same name.
func (v *TemplatesView) Upload(name string, content []byte) (model.Template, error) {
	if err := validateTemplateName(name); err != nil {
		v.notifier.Notify(notify.Warning, err.Error())
		return model.Template{}, err
	}
	if len(content) == 0 {
		err := errors.New("template file is empty")
		v.notifier.Notify(notify.Warning, err.Error())
		return model.Template{}, err
	}
	if len(content) > MaxTemplateSize {
		err := fmt.Errorf("template exceeds the %d byte limit", MaxTemplateSize)
		v.notifier.Notify(notify.Warning, err.Error())
		return model.Template{}, err
	}

	tpl, err := v.store.Upload(name, content)
	if err != nil {
		v.notifier.Notify(notify.Error, "template upload failed: "+err.Error())
		return model.Template{}, err
	}

	v.mu.Lock()
	v.lastUpload = v.now().UTC().Format(time.RFC3339)
	v.mu.Unlock()

	if err := writeAudit(v.client, v.now(), "TEMPLATE_UPLOADED", map[string]any{
		"template_name": name,
		"file_size":     len(content),
		"storage":       "github",
	}); err != nil {
		v.notifier.Notify(notify.Warning, "template uploaded but audit entry failed: "+err.Error())
	}

	v.notifier.Notify(notify.Success, "template "+name+" uploaded")
	return tpl, nil
}

func (v *TemplatesView) Delete(name string) error {
	templates, err := v.store.List()
	if err != nil {
		v.notifier.Notify(notify.Error, "failed to list templates: "+err.Error())
		return err
	}

	for _, t := range templates {
		if t.Name != name {
			continue
		}
		if err := v.store.Delete(t.Path, t.SHA); err != nil {
			v.notifier.Notify(notify.Error, "template delete failed: "+err.Error())
			return err
		}
		if err := writeAudit(v.client, v.now(), "TEMPLATE_DELETED", map[string]any{
			"template_name": name,
			"storage":       "github",
		}); err != nil {
			v.notifier.Notify(notify.Warning, "template deleted but audit entry failed: "+err.Error())
		}
		v.notifier.Notify(notify.Success, "template "+name+" deleted")
		return nil
	}

	err = errors.New("template not found: " + name)
	v.notifier.Notify(notify.Warning, err.Error())
	return err
}

// ClearAll deletes every hosted template and returns how many were removed.
func (v *TemplatesView) ClearAll() (int, error) {
	templates, err := v.store.List()
	if err != nil {
		v.notifier.Notify(notify.Error, "failed to list templates: "+err.Error())
		return 0, err
	}

	deleted := 0
	for _, t := range templates {
		if err := v.store.Delete(t.Path, t.SHA); err != nil {
			v.notifier.Notify(notify.Error, "clear aborted after "+t.Name+": "+err.Error())
			return deleted, err
		}
		deleted++
	}

	if deleted > 0 {
		if err := writeAudit(v.client, v.now(), "TEMPLATES_CLEARED", map[string]any{
			"deleted_count": deleted,
			"storage":       "github",
		}); err != nil {
			v.notifier.Notify(notify.Warning, "templates cleared but audit entry failed: "+err.Error())
		}
	}
	v.notifier.Notify(notify.Success, fmt.Sprintf("removed %d templates", deleted))
	return deleted, nil
}
