package catalog

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded la búsqueda fue reemplazada por otra más reciente del mismo origen antes de ejecutarse.
var ErrSuperseded = errors.New("búsqueda reemplazada por una más reciente")

// Debouncer retrasa cada llamada un tiempo fijo. Una llamada nueva con la misma llave cancela la
// que sigue esperando; la llamada que ya se está ejecutando no se interrumpe.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	seq     uint64
	waiting map[string]waiter
}

type waiter struct {
	id     uint64
	cancel context.CancelCauseFunc
}

// NewDebouncer crea un debouncer con el retraso indicado (0 = sin retraso).
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, waiting: make(map[string]waiter)}
}

// Do espera el retraso y ejecuta fn, salvo que ctx se cancele o llegue otra llamada con la misma key.
func (d *Debouncer) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	d.mu.Lock()
	if prev, ok := d.waiting[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	d.seq++
	id := d.seq
	d.waiting[key] = waiter{id: id, cancel: cancel}
	d.mu.Unlock()

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		d.release(key, id)
		return context.Cause(ctx)
	case <-timer.C:
	}
	d.release(key, id)
	return fn(ctx)
}

// release quita la espera solo si sigue siendo la más reciente para la llave.
func (d *Debouncer) release(key string, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.waiting[key]; ok && w.id == id {
		delete(d.waiting, key)
	}
}
