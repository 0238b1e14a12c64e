package rtdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Client backed by a nested map tree. It is the
// store used in tests and single-host deployments; a hosted backend slots in
// behind the same interface.
type Memory struct {
	mu   sync.RWMutex
	root map[string]any

	watchMu  sync.Mutex
	watchers map[int64]*watcher
	watchSeq int64

	stateFile string
	persistMu sync.Mutex

	now func() time.Time
}

type watcher struct {
	path []string
	fn   func(Snapshot)
}

type Options struct {
	// StateFile, when set, persists the whole tree as JSON after every
	// mutation and reloads it on startup.
	StateFile string
	Now       func() time.Time
}

func NewMemory() *Memory {
	return NewMemoryWithOptions(Options{})
}

func NewMemoryWithOptions(opts Options) *Memory {
	m := &Memory{
		root:      make(map[string]any),
		watchers:  make(map[int64]*watcher),
		stateFile: opts.StateFile,
		now:       opts.Now,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.stateFile != "" {
		if err := m.loadFromFile(m.stateFile); err != nil {
			log.Printf("rtdb persistence: load failed (%s): %v", m.stateFile, err)
		}
	}
	return m
}

type persistedTreeFile struct {
	Version int            `json:"version"`
	Tree    map[string]any `json:"tree"`
	SavedAt int64          `json:"savedAt"`
}

func (m *Memory) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var file persistedTreeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	if file.Version != 1 {
		return errors.New("unsupported state version")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if file.Tree != nil {
		m.root = file.Tree
	}
	return nil
}

func (m *Memory) persistSnapshot(tree map[string]any) {
	path := m.stateFile
	if path == "" {
		return
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Printf("rtdb persistence: mkdir failed (%s): %v", dir, err)
		return
	}

	file := persistedTreeFile{Version: 1, Tree: tree, SavedAt: m.now().UnixMilli()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		log.Printf("rtdb persistence: marshal failed: %v", err)
		return
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		log.Printf("rtdb persistence: create temp failed: %v", err)
		return
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		log.Printf("rtdb persistence: chmod temp failed: %v", err)
		return
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		log.Printf("rtdb persistence: write temp failed: %v", err)
		return
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		log.Printf("rtdb persistence: sync temp failed: %v", err)
		return
	}
	if err := tmp.Close(); err != nil {
		log.Printf("rtdb persistence: close temp failed: %v", err)
		return
	}
	if err := os.Rename(tmpName, path); err != nil {
		log.Printf("rtdb persistence: rename failed: %v", err)
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return v
	}
}

// lookupLocked walks the tree; ok is false when any segment is missing.
func (m *Memory) lookupLocked(segments []string) (any, bool) {
	var current any = m.root
	for _, seg := range segments {
		node, isMap := current.(map[string]any)
		if !isMap {
			return nil, false
		}
		child, exists := node[seg]
		if !exists {
			return nil, false
		}
		current = child
	}
	return current, true
}

// ensureParentLocked creates intermediate map nodes down to the parent of the
// final segment and returns (parent, leaf key).
func (m *Memory) ensureParentLocked(segments []string) (map[string]any, string) {
	parent := m.root
	for _, seg := range segments[:len(segments)-1] {
		child, exists := parent[seg].(map[string]any)
		if !exists {
			child = make(map[string]any)
			parent[seg] = child
		}
		parent = child
	}
	return parent, segments[len(segments)-1]
}

func (m *Memory) ReadOnce(path string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.lookupLocked(splitPath(path))
	if !ok {
		return Snapshot{}, nil
	}
	return NewSnapshot(deepCopy(value), true), nil
}

func (m *Memory) Subscribe(path string, fn func(Snapshot)) (func(), error) {
	if fn == nil {
		return nil, errors.New("missing callback")
	}

	segments := splitPath(path)
	m.watchMu.Lock()
	m.watchSeq++
	id := m.watchSeq
	m.watchers[id] = &watcher{path: segments, fn: fn}
	m.watchMu.Unlock()

	// Initial delivery with the current state, like a live listener attach.
	snap, _ := m.ReadOnce(path)
	fn(snap)

	return func() {
		m.watchMu.Lock()
		delete(m.watchers, id)
		m.watchMu.Unlock()
	}, nil
}

func (m *Memory) notify(mutated []string) {
	m.watchMu.Lock()
	targets := make([]*watcher, 0, len(m.watchers))
	for _, w := range m.watchers {
		if pathsOverlap(w.path, mutated) {
			targets = append(targets, w)
		}
	}
	m.watchMu.Unlock()

	for _, w := range targets {
		m.mu.RLock()
		value, ok := m.lookupLocked(w.path)
		var snap Snapshot
		if ok {
			snap = NewSnapshot(deepCopy(value), true)
		}
		m.mu.RUnlock()
		w.fn(snap)
	}
}

func (m *Memory) afterMutation(mutated []string) {
	if m.stateFile != "" {
		m.mu.RLock()
		tree := deepCopy(m.root).(map[string]any)
		m.mu.RUnlock()
		m.persistSnapshot(tree)
	}
	m.notify(mutated)
}

func (m *Memory) Write(path string, value any) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return errors.New("missing path")
	}

	m.mu.Lock()
	parent, key := m.ensureParentLocked(segments)
	parent[key] = deepCopy(value)
	m.mu.Unlock()

	m.afterMutation(segments)
	return nil
}

func (m *Memory) Update(path string, partial map[string]any) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return errors.New("missing path")
	}

	m.mu.Lock()
	parent, key := m.ensureParentLocked(segments)
	node, isMap := parent[key].(map[string]any)
	if !isMap {
		node = make(map[string]any)
		parent[key] = node
	}
	for k, v := range partial {
		node[k] = deepCopy(v)
	}
	m.mu.Unlock()

	m.afterMutation(segments)
	return nil
}

// Push appends value under a generated time-ordered key and returns the key.
func (m *Memory) Push(path string, value any) (string, error) {
	key := fmt.Sprintf("%013d-%s", m.now().UnixMilli(), uuid.NewString()[:8])
	if err := m.Write(path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (m *Memory) Remove(path string) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return errors.New("missing path")
	}

	m.mu.Lock()
	removed := false
	if parentValue, ok := m.lookupLocked(segments[:len(segments)-1]); ok {
		if parent, isMap := parentValue.(map[string]any); isMap {
			if _, exists := parent[segments[len(segments)-1]]; exists {
				delete(parent, segments[len(segments)-1])
				removed = true
			}
		}
	}
	m.mu.Unlock()

	if removed {
		m.afterMutation(segments)
	}
	return nil
}
