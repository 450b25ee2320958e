package kv

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/CrestNiraj12/commonswipe/app"
	"github.com/CrestNiraj12/commonswipe/infra/logging"
)

// Resilient forwards to a durable store until it fails once, then serves
// the rest of the session from memory. Values written before the failure
// are mirrored so reads stay consistent after the switch.
type Resilient struct {
	mu       sync.Mutex
	primary  app.KVStore
	mirror   *Memory
	degraded bool
	log      *log.Logger
}

// NewResilient wraps primary. A nil primary starts degraded.
func NewResilient(primary app.KVStore, logger *log.Logger) *Resilient {
	return &Resilient{
		primary:  primary,
		mirror:   NewMemory(),
		degraded: primary == nil,
		log:      logging.OrDiscard(logger),
	}
}

// Degraded reports whether the store fell back to memory.
func (r *Resilient) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

func (r *Resilient) Get(key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.degraded {
		v, ok, err := r.primary.Get(key)
		if err == nil {
			if ok {
				_ = r.mirror.Set(key, v)
			}
			return v, ok, nil
		}
		r.degradeLocked("get", key, err)
	}
	return r.mirror.Get(key)
}

func (r *Resilient) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.mirror.Set(key, value)
	if !r.degraded {
		if err := r.primary.Set(key, value); err != nil {
			r.degradeLocked("set", key, err)
		}
	}
	return nil
}

func (r *Resilient) Remove(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.mirror.Remove(key)
	if !r.degraded {
		if err := r.primary.Remove(key); err != nil {
			r.degradeLocked("remove", key, err)
		}
	}
	return nil
}

func (r *Resilient) degradeLocked(op, key string, err error) {
	r.degraded = true
	r.log.Warn("storage unavailable, keeping state in memory for this session",
		"op", op, "key", key, "err", err)
}
