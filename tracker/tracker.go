// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/xmidt-org/svcrt/filter"
	"github.com/xmidt-org/svcrt/registry"
)

// ErrClosed is returned by Close when the tracker is not open.
// UseHighestRanked and UseAll do not return it; after Close they simply see
// an empty view.
var ErrClosed = errors.New("tracker: not open")

// ErrAlreadyOpen is returned by Open on a tracker that is already open.
var ErrAlreadyOpen = errors.New("tracker: already open")

// ServiceTracker maintains a rank-ordered view of every service matching a
// (name, filter) pair, invoking Customizer callbacks as services arrive,
// change, and leave. The zero value is not usable; construct with New.
type ServiceTracker struct {
	reg        *registry.ServiceRegistry
	bundle     registry.BundleID
	name       string
	filter     *filter.Filter
	customizer Customizer

	opened     atomic.Bool
	listenerID registry.ListenerID

	mu      sync.Mutex
	tracked []TrackedService
}

// New constructs a tracker. name may be empty to track every service
// matching f regardless of name; f may be nil to match on name alone.
// Either may be supplied, matching spec.md §4.3's "target service name
// (optional), filter (optional)".
func New(reg *registry.ServiceRegistry, bundle registry.BundleID, name string, f *filter.Filter, customizer Customizer) *ServiceTracker {
	return &ServiceTracker{
		reg:        reg,
		bundle:     bundle,
		name:       name,
		filter:     f,
		customizer: customizer,
	}
}

// Open subscribes to the registry, takes a snapshot of currently matching
// services in rank order, and invokes Added for each.
func (t *ServiceTracker) Open() error {
	if !t.opened.CompareAndSwap(false, true) {
		return ErrAlreadyOpen
	}

	id, err := t.reg.AddListener(t.filter, registry.ListenerFunc(t.handleEvent))
	if err != nil {
		t.opened.Store(false)
		return err
	}

	t.listenerID = id

	refs, err := t.reg.GetReferences(t.name, t.filter)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		t.add(ref)
	}

	return nil
}

// Close unsubscribes and, for each tracked entry in reverse rank order,
// calls Removed then releases the tracker's reference. After Close returns,
// the tracker ignores further registry events.
func (t *ServiceTracker) Close() error {
	if !t.opened.CompareAndSwap(true, false) {
		return ErrClosed
	}

	t.reg.RemoveListener(t.listenerID)

	t.mu.Lock()
	entries := t.tracked
	t.tracked = nil
	t.mu.Unlock()

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		t.customizer.Removed(e)
		_ = t.reg.UngetService(t.bundle, e.Reference)
	}

	return nil
}

// Size returns the number of services currently in the tracked view.
func (t *ServiceTracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tracked)
}

// Snapshot returns a copy of the currently tracked view, in rank order. The
// dependency manager uses this to replay every currently matching service
// through a dependency's callback when a component promotes into or demotes
// out of TRACKING_OPTIONAL.
func (t *ServiceTracker) Snapshot() []TrackedService {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TrackedService(nil), t.tracked...)
}

// GetReferences returns a snapshot of the currently tracked references, in
// rank order.
func (t *ServiceTracker) GetReferences() []registry.ServiceReference {
	t.mu.Lock()
	defer t.mu.Unlock()

	refs := make([]registry.ServiceReference, len(t.tracked))
	for i, e := range t.tracked {
		refs[i] = e.Reference
	}

	return refs
}

// UseHighestRanked pins the top-ranked tracked service for the duration of
// fn, guaranteeing the handle stays valid even if unregister races
// concurrently. It reports whether any service was tracked.
func (t *ServiceTracker) UseHighestRanked(fn func(instance any, entry TrackedService)) bool {
	t.mu.Lock()
	if len(t.tracked) == 0 {
		t.mu.Unlock()
		return false
	}

	ref := t.tracked[0].Reference
	t.mu.Unlock()

	return t.pinAndUse(ref, fn)
}

// UseAll iterates the tracked view in rank order, pinning each entry in
// turn for the duration of its call to fn.
func (t *ServiceTracker) UseAll(fn func(instance any, entry TrackedService)) {
	t.mu.Lock()
	refs := make([]registry.ServiceReference, len(t.tracked))
	for i, e := range t.tracked {
		refs[i] = e.Reference
	}
	t.mu.Unlock()

	for _, ref := range refs {
		t.pinAndUse(ref, fn)
	}
}

// pinAndUse takes an independent reference pin (separate from the tracker's
// own standing use_count on ref) so fn's handle remains valid even if the
// tracker concurrently drops ref from its view mid-call.
func (t *ServiceTracker) pinAndUse(ref registry.ServiceReference, fn func(instance any, entry TrackedService)) bool {
	instance, err := t.reg.GetService(t.bundle, ref)
	if err != nil {
		return false
	}

	defer func() { _ = t.reg.UngetService(t.bundle, ref) }()

	fn(instance, TrackedService{Reference: ref, Instance: instance, Properties: ref.Properties()})
	return true
}

func (t *ServiceTracker) handleEvent(e registry.Event) {
	if !t.opened.Load() {
		return
	}

	if !t.matchesName(e.Reference) {
		return
	}

	switch e.Kind {
	case registry.Registered:
		t.add(e.Reference)
	case registry.Modified:
		t.modifyOrAdd(e.Reference)
	case registry.ModifiedEndMatch, registry.Unregistering:
		t.remove(e.Reference)
	}
}

// matchesName applies the tracker's optional name filter; AddListener
// already applied t.filter against properties, so this only needs to check
// objectClass membership, which isn't expressible as a single filter
// comparison against the comma-joined objectClass string.
func (t *ServiceTracker) matchesName(ref registry.ServiceReference) bool {
	if t.name == "" {
		return true
	}

	for _, n := range ref.Names() {
		if n == t.name {
			return true
		}
	}

	return false
}

func (t *ServiceTracker) indexOf(id registry.ServiceID) int {
	for i, e := range t.tracked {
		if e.Reference.ServiceID() == id {
			return i
		}
	}

	return -1
}

func (t *ServiceTracker) add(ref registry.ServiceReference) {
	t.mu.Lock()
	if t.indexOf(ref.ServiceID()) >= 0 {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	instance, err := t.reg.GetService(t.bundle, ref)
	if err != nil {
		return
	}

	entry := TrackedService{Reference: ref, Instance: instance, Properties: ref.Properties()}

	t.mu.Lock()
	if t.indexOf(ref.ServiceID()) >= 0 {
		t.mu.Unlock()
		_ = t.reg.UngetService(t.bundle, ref)
		return
	}

	t.tracked = insertRanked(t.tracked, entry)
	t.mu.Unlock()

	t.customizer.Added(entry)
}

func (t *ServiceTracker) modifyOrAdd(ref registry.ServiceReference) {
	t.mu.Lock()
	idx := t.indexOf(ref.ServiceID())
	t.mu.Unlock()

	if idx < 0 {
		t.add(ref)
		return
	}

	t.mu.Lock()
	idx = t.indexOf(ref.ServiceID())
	if idx < 0 {
		t.mu.Unlock()
		return
	}

	t.tracked[idx].Properties = ref.Properties()
	sort.SliceStable(t.tracked, func(i, j int) bool {
		return t.tracked[i].Reference.Compare(t.tracked[j].Reference) < 0
	})

	idx = t.indexOf(ref.ServiceID())
	entry := t.tracked[idx]
	t.mu.Unlock()

	t.customizer.Modified(entry)
}

func (t *ServiceTracker) remove(ref registry.ServiceReference) {
	t.mu.Lock()
	idx := t.indexOf(ref.ServiceID())
	if idx < 0 {
		t.mu.Unlock()
		return
	}

	entry := t.tracked[idx]
	t.tracked = append(t.tracked[:idx], t.tracked[idx+1:]...)
	t.mu.Unlock()

	t.customizer.Removed(entry)
	_ = t.reg.UngetService(t.bundle, ref)
}

// insertRanked inserts e into a slice sorted per registry.ServiceReference's
// Compare order (ranking DESC, service_id ASC), preserving invariant 4.
func insertRanked(list []TrackedService, e TrackedService) []TrackedService {
	idx := sort.Search(len(list), func(i int) bool { return list[i].Reference.Compare(e.Reference) > 0 })

	list = append(list, TrackedService{})
	copy(list[idx+1:], list[idx:])
	list[idx] = e
	return list
}
