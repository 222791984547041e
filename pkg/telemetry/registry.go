package telemetry

import (
	"errors"
	"fmt"

	"github.com/bft-labs/dronelink/pkg/wire"
)

// ErrDuplicateReader is returned when two readers claim the same identifier.
var ErrDuplicateReader = errors.New("telemetry: duplicate reader")

// Registry maps command identifiers to readers. A Registry is built once and
// then only read, so it needs no locking.
type Registry struct {
	readers map[wire.CommandID]Reader
}

// NewRegistry builds a registry from readers.
func NewRegistry(readers ...Reader) (*Registry, error) {
	r := &Registry{readers: make(map[wire.CommandID]Reader, len(readers))}
	for _, rd := range readers {
		if err := r.Register(rd); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry holds the built-in readers.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(WifiStatusReader{}, LightStrengthReader{})
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds rd. It fails if another reader already handles rd.ID().
func (r *Registry) Register(rd Reader) error {
	id := rd.ID()
	if _, ok := r.readers[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateReader, id)
	}
	r.readers[id] = rd
	return nil
}

// Lookup returns the reader for id.
func (r *Registry) Lookup(id wire.CommandID) (Reader, bool) {
	rd, ok := r.readers[id]
	return rd, ok
}

// Read resolves cmd to an event. It returns false when no reader handles the
// identifier or the reader yields nothing.
func (r *Registry) Read(cmd wire.Command) (Event, bool) {
	rd, ok := r.readers[cmd.ID]
	if !ok {
		return nil, false
	}
	return rd.Read(cmd)
}

// Len returns the number of registered readers.
func (r *Registry) Len() int {
	return len(r.readers)
}
