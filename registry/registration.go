// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"sync"
	"sync/atomic"

	"github.com/xmidt-org/svcrt/properties"
)

type regState int32

const (
	regRegistered regState = iota
	regUnregistering
	regUnregistered
)

// registration is the authoritative record behind both ServiceReference and
// ServiceRegistration. It outlives removal from the registry's indices so a
// dead reference still has somewhere to ask "am I alive".
//
// Three independent critical sections, deliberately not unified into one
// lock: propsMu guards the properties/ranking snapshot (read far more often
// than written), mu+cond guards use-count bookkeeping and factory instance
// caching (held across factory calls, but never across the registry's own
// index lock), and state is atomic so liveness checks never block on either.
type registration struct {
	id      ServiceID
	owner   BundleID
	names   []string
	factory ServiceFactory
	handle  any

	state atomic.Int32

	propsMu sync.RWMutex
	props   properties.Properties
	ranking int64

	mu        sync.Mutex
	cond      *sync.Cond
	useCount  map[BundleID]int
	instances map[BundleID]any
	totalUse  int
}

func newRegistration(id ServiceID, owner BundleID, names []string, handleOrFactory any, props properties.Properties, ranking int64) *registration {
	r := &registration{
		id:        id,
		owner:     owner,
		names:     names,
		props:     props,
		ranking:   ranking,
		useCount:  make(map[BundleID]int),
		instances: make(map[BundleID]any),
	}

	if f, ok := handleOrFactory.(ServiceFactory); ok {
		r.factory = f
	} else {
		r.handle = handleOrFactory
	}

	r.cond = sync.NewCond(&r.mu)
	r.state.Store(int32(regRegistered))
	return r
}

func (r *registration) isAlive() bool {
	return regState(r.state.Load()) == regRegistered
}

func (r *registration) currentProps() properties.Properties {
	r.propsMu.RLock()
	defer r.propsMu.RUnlock()
	return r.props
}

func (r *registration) currentRanking() int64 {
	r.propsMu.RLock()
	defer r.propsMu.RUnlock()
	return r.ranking
}

// setProps swaps in new properties/ranking and returns the prior snapshot.
func (r *registration) setProps(props properties.Properties, ranking int64) properties.Properties {
	r.propsMu.Lock()
	defer r.propsMu.Unlock()

	old := r.props
	r.props = props
	r.ranking = ranking
	return old
}

// acquire implements get_service's bookkeeping and, for a factory-backed
// registration, the lazy per-requester instantiation. It holds only this
// registration's own mutex, never the registry's index lock, so a slow or
// blocking factory cannot stall unrelated registrations.
func (r *registration) acquire(requester BundleID) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isAlive() {
		return nil, newError(KindIllegalState, ErrNoSuchService)
	}

	if r.factory == nil {
		r.useCount[requester]++
		r.totalUse++
		return r.handle, nil
	}

	if inst, ok := r.instances[requester]; ok {
		r.useCount[requester]++
		r.totalUse++
		return inst, nil
	}

	inst, err := r.factory.Get(requester, r.currentProps())
	if err != nil {
		return nil, newError(KindBundleException, err)
	}

	r.instances[requester] = inst
	r.useCount[requester] = 1
	r.totalUse++
	return inst, nil
}

// release implements unget_service's bookkeeping, invoking the factory's
// Unget exactly when a requester's count returns to zero. It reports
// whether the registration's total use count is now zero, which is the
// signal an in-progress unregister is waiting on.
func (r *registration) release(requester BundleID) (drained bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.useCount[requester] <= 0 {
		return r.totalUse == 0, newError(KindIllegalState, ErrNoSuchService)
	}

	r.useCount[requester]--
	r.totalUse--

	if r.useCount[requester] == 0 {
		delete(r.useCount, requester)

		if r.factory != nil {
			inst := r.instances[requester]
			delete(r.instances, requester)

			if ungetErr := r.factory.Unget(requester, inst); ungetErr != nil {
				err = newError(KindBundleException, ungetErr)
			}
		}
	}

	if r.totalUse == 0 {
		r.cond.Broadcast()
		drained = true
	}

	return drained, err
}

func (r *registration) usingBundles() []BundleID {
	r.mu.Lock()
	defer r.mu.Unlock()

	bundles := make([]BundleID, 0, len(r.useCount))
	for b, n := range r.useCount {
		if n > 0 {
			bundles = append(bundles, b)
		}
	}

	return bundles
}

// waitDrained blocks until totalUse reaches zero.
func (r *registration) waitDrained() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.totalUse > 0 {
		r.cond.Wait()
	}
}

func (r *registration) outstandingUse() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalUse
}
