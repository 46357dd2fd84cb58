// Package registry keeps the primaries discovered so far as a single JSON
// document and fans updates out to listeners.
package registry

import (
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type Update struct {
	Name string
	Host string
	Port string
}

type Registry struct {
	mu     sync.Mutex
	values []byte

	updateChans []chan *Update

	// stop will be closed when Close() is called
	stop chan struct{}
}

func New() *Registry {
	return &Registry{
		values:      []byte("{}"),
		stop:        make(chan struct{}),
		updateChans: make([]chan *Update, 0),
	}
}

func (r *Registry) Close() error {
	if r.isRunning() {
		close(r.stop)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, updateChan := range r.updateChans {
		close(updateChan)
	}
	r.updateChans = nil

	return nil
}

// SetPrimary records the endpoint of a named primary and notifies
// listeners.
func (r *Registry) SetPrimary(name, host, port string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values, err = sjson.SetBytes(r.values, name+".host", host)
	if err != nil {
		return err
	}

	r.values, err = sjson.SetBytes(r.values, name+".port", port)
	if err != nil {
		return err
	}

	if r.isRunning() {
		for _, updateChan := range r.updateChans {
			select {
			case updateChan <- &Update{Name: name, Host: host, Port: port}:
			default:
				// A listener that stopped draining does not hold up the rest.
			}
		}
	}

	return nil
}

// Primary looks a named primary up.
func (r *Registry) Primary(name string) (host, port string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := gjson.GetBytes(r.values, name)
	if !result.Exists() {
		return "", "", false
	}

	return result.Get("host").String(), result.Get("port").String(), true
}

// Snapshot returns the whole document.
func (r *Registry) Snapshot() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]byte, len(r.values))
	copy(out, r.values)
	return out
}

func (r *Registry) ListenToUpdates() <-chan *Update {
	r.mu.Lock()
	defer r.mu.Unlock()

	updateChan := make(chan *Update, 255)
	r.updateChans = append(r.updateChans, updateChan)

	return updateChan
}

// isRunning returns true if Close has not been called
func (r *Registry) isRunning() bool {
	select {
	case <-r.stop:
		return false

	default:
		return true
	}
}
