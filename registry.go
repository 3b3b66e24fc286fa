package evfs

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/evfs-project/evfs/internal/elog"
)

// Registry is a process-wide table of named backends plus a default
// selector. The zero value is an empty registry ready for use, the same
// value NewRegistry returns; the package level Default registry is one,
// mirroring rclone's single global fs.Register /
// fs.Find table (fs.RegInfo / cache.Get) but expressed as an explicit handle
// rather than ambient global state.
type Registry struct {
	mu       sync.Mutex
	backends []Backend
	def      Backend
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default is the package-wide registry used by the top-level Register/Find/
// Get/Unregister convenience functions, for callers happy with ambient
// global state (as rclone itself provides via its package-level fs.Register).
var Default = NewRegistry()

// Register records backend under its own Name(). If a backend with the same
// name is already registered, the new one is not inserted -- only its
// default-ness is applied to the existing entry. The first backend ever
// registered becomes the default automatically; later ones only become
// default when makeDefault is true.
func (r *Registry) Register(b Backend, makeDefault bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := b.Name()
	for _, existing := range r.backends {
		if existing.Name() == name {
			if makeDefault {
				r.def = existing
				elog.Debugf(nil, "registry: %q already registered, promoted to default", name)
			}
			return
		}
	}

	r.backends = append(r.backends, b)
	if r.def == nil || makeDefault {
		r.def = b
	}
	elog.Debugf(nil, "registry: registered backend %q (default=%v)", name, r.def == b)
}

// Find returns the backend registered under name, or nil if none matches.
func (r *Registry) Find(name string) Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(name)
}

// find is Find without locking; callers must hold r.mu.
func (r *Registry) find(name string) Backend {
	for _, b := range r.backends {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// Get returns the backend named by name, or the current default if name is
// empty. It returns ErrNoVfs if name is non-empty and not found, or if name
// is empty and there is no default.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		if r.def == nil {
			elog.Errorf(nil, "registry: no default backend registered")
			return nil, New(KindNoVfs, "get", "")
		}
		return r.def, nil
	}
	b := r.find(name)
	if b == nil {
		elog.Errorf(nil, "registry: no backend named %q", name)
		return nil, New(KindNoVfs, "get", name)
	}
	return b, nil
}

// DefaultBackend returns the current default backend, or nil if none is registered.
func (r *Registry) DefaultBackend() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.def
}

// Unregister removes b from the registry. If b implements Unregisterable,
// its Unregister method is called so it can release resources. If b was the
// default, any other remaining backend is promoted; if none remain, the
// default is left unset.
func (r *Registry) Unregister(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregister(b)
}

func (r *Registry) unregister(b Backend) {
	idx := -1
	for i, existing := range r.backends {
		if existing == b || existing.Name() == b.Name() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	found := r.backends[idx]
	r.backends = append(r.backends[:idx], r.backends[idx+1:]...)
	elog.Debugf(nil, "registry: unregistering backend %q", found.Name())

	if u, ok := found.(Unregisterable); ok {
		u.Unregister()
	}

	if r.def == found {
		if len(r.backends) > 0 {
			r.def = r.backends[0]
		} else {
			r.def = nil
		}
	}
}

// Shutdown unregisters every backend in registration order, the way a
// process teardown hook would on exit. It accumulates every backend's
// Unregister error (if any -- Unregisterable here is treated as best-effort,
// errors are not part of its signature, but a backend embedding a closer may
// panic-recover into one) and returns them joined via multierror, matching
// the teacher's habit of collecting partial failures during bulk teardown
// rather than stopping at the first one.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	backends := append([]Backend(nil), r.backends...)
	r.mu.Unlock()

	elog.Infof(nil, "registry: shutting down %d backend(s)", len(backends))
	var result *multierror.Error
	for _, b := range backends {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					elog.Errorf(b.Name(), "panic during unregister: %v", rec)
					result = multierror.Append(result, New(KindGeneric, "shutdown", b.Name()))
				}
			}()
			r.Unregister(b)
		}()
	}
	return result.ErrorOrNil()
}

// Package-level convenience wrappers over Default, for callers that prefer
// the ambient-global style.

// Register registers b on the Default registry.
func Register(b Backend, makeDefault bool) { Default.Register(b, makeDefault) }

// Find looks up name on the Default registry.
func Find(name string) Backend { return Default.Find(name) }

// Get resolves name (or the default) on the Default registry.
func Get(name string) (Backend, error) { return Default.Get(name) }

// Unregister removes b from the Default registry.
func Unregister(b Backend) { Default.Unregister(b) }
