// Package namelock provides keyed mutual exclusion for operations that follow a
// read-then-maybe-write pattern against the control plane, such as ensuring a
// security group or binding a bucket name.
//
// The lock is process-local. Deployments that share one provider account across
// several processes must serialize conflicting operations externally.
package namelock

import (
	"github.com/im7mortal/kmutex"
)

// Locker serializes work per resource name.
type Locker interface {
	Lock(name string)
	Unlock(name string)
}

// Keyed is a Locker backed by a keyed mutex. The zero value is not usable; use New.
type Keyed struct {
	km *kmutex.Kmutex
}

// New returns an in-process keyed Locker.
func New() *Keyed {
	return &Keyed{km: kmutex.New()}
}

// Lock blocks until name is free.
func (k *Keyed) Lock(name string) {
	k.km.Lock(name)
}

// Unlock releases name.
func (k *Keyed) Unlock(name string) {
	k.km.Unlock(name)
}

// Noop is a Locker that never blocks.
type Noop struct{}

func (Noop) Lock(string)   {}
func (Noop) Unlock(string) {}

// With runs fn while holding name. A nil locker runs fn unguarded.
func With(l Locker, name string, fn func() error) error {
	if l == nil {
		return fn()
	}
	l.Lock(name)
	defer l.Unlock(name)
	return fn()
}
