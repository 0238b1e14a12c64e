package perf

import "fleet-console/internal/rtdb"

// instrumentedClient decorates an rtdb.Client so that the four measured
// primitives (read/subscribe, write, update, push) pass through the monitor.
// Remove is deliberately untracked; it is not part of the measured surface.
type instrumentedClient struct {
	inner   rtdb.Client
	monitor *Monitor
}

// Instrument wraps client with m. The wrapper preserves results and errors
// exactly; only timing is observed.
func Instrument(client rtdb.Client, m *Monitor) rtdb.Client {
	return &instrumentedClient{inner: client, monitor: m}
}

func (c *instrumentedClient) ReadOnce(path string) (rtdb.Snapshot, error) {
	var snap rtdb.Snapshot
	err := c.monitor.Track(OpRead, func() error {
		var err error
		snap, err = c.inner.ReadOnce(path)
		return err
	})
	return snap, err
}

func (c *instrumentedClient) Subscribe(path string, fn func(rtdb.Snapshot)) (func(), error) {
	var unsubscribe func()
	err := c.monitor.Track(OpRead, func() error {
		var err error
		unsubscribe, err = c.inner.Subscribe(path, fn)
		return err
	})
	return unsubscribe, err
}

func (c *instrumentedClient) Write(path string, value any) error {
	return c.monitor.Track(OpWrite, func() error {
		return c.inner.Write(path, value)
	})
}

func (c *instrumentedClient) Update(path string, partial map[string]any) error {
	return c.monitor.Track(OpUpdate, func() error {
		return c.inner.Update(path, partial)
	})
}

func (c *instrumentedClient) Push(path string, value any) (string, error) {
	var key string
	err := c.monitor.Track(OpPush, func() error {
		var err error
		key, err = c.inner.Push(path, value)
		return err
	})
	return key, err
}

func (c *instrumentedClient) Remove(path string) error {
	return c.inner.Remove(path)
}
