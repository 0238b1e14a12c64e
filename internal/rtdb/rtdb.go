// Package rtdb models the hosted real-time document store the dashboard sits
// on top of: a nested key-value tree addressed by slash-separated paths, with
// one-shot reads and continuous full-subtree push on change.
package rtdb

import "strings"

// Snapshot is the state of a subtree at a point in time. A path that does not
// exist yields a Snapshot with Exists() == false, never an error.
type Snapshot struct {
	value  any
	exists bool
}

func NewSnapshot(value any, exists bool) Snapshot {
	return Snapshot{value: value, exists: exists}
}

func (s Snapshot) Exists() bool { return s.exists }

// Val returns the subtree as nested map[string]any (or a scalar leaf).
func (s Snapshot) Val() any { return s.value }

// Client is the narrow contract surface the dashboard uses. Subscribe fires
// once with the current state and again after every mutation at, above, or
// below the subscribed path; the returned func cancels the subscription.
type Client interface {
	ReadOnce(path string) (Snapshot, error)
	Subscribe(path string, fn func(Snapshot)) (func(), error)
	Write(path string, value any) error
	Update(path string, partial map[string]any) error
	Push(path string, value any) (string, error)
	Remove(path string) error
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// pathsOverlap reports whether a mutation at b is visible from a subscription
// at a (one is an ancestor of the other, or they are equal).
func pathsOverlap(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
