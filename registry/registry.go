// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xmidt-org/svcrt/filter"
	"github.com/xmidt-org/svcrt/properties"
	"github.com/xmidt-org/svcrt/svcrtlog"
)

// ServiceRegistry owns every live service registration in one logical
// runtime. It is safe for concurrent use by any number of goroutines.
//
// Locking discipline follows §5: mu is a reader-writer lock guarding the
// indices (byID, byName) and the listener list; lookups and the "collect a
// dispatch snapshot" step take the read or write lock briefly and release
// it before invoking any user callback, so a listener that reentrantly
// calls back into the registry never deadlocks against its own dispatch.
// Per-registration use-count bookkeeping lives entirely under each
// registration's own lock (registration.go), never under mu.
type ServiceRegistry struct {
	cfg config

	mu             sync.RWMutex
	nextID         int64
	nextListenerID int64
	byID           map[ServiceID]*registration
	byName         map[string][]*registration
	listeners      []*registeredListener
}

type registeredListener struct {
	id       ListenerID
	filter   *filter.Filter
	listener Listener
}

// NewServiceRegistry constructs an empty registry.
func NewServiceRegistry(opts ...RegistryOption) *ServiceRegistry {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &ServiceRegistry{
		cfg:    cfg,
		byID:   make(map[ServiceID]*registration),
		byName: make(map[string][]*registration),
	}
}

// Register assigns identity, merges system properties, inserts the service
// into every index, and broadcasts Registered. handleOrFactory is either a
// direct service instance or a value implementing ServiceFactory.
func (sr *ServiceRegistry) Register(owner BundleID, names []string, handleOrFactory any, props properties.Properties) (*ServiceRegistration, error) {
	cleanNames, err := cleanServiceNames(names)
	if err != nil {
		return nil, err
	}

	if handleOrFactory == nil {
		return nil, newError(KindInvalidArgument, ErrNilHandle)
	}

	sr.mu.Lock()

	sr.nextID++
	id := ServiceID(sr.nextID)
	ranking := extractRanking(props)
	merged := buildSystemProps(id, cleanNames, ranking, props)

	reg := newRegistration(id, owner, cleanNames, handleOrFactory, merged, ranking)
	sr.byID[id] = reg
	for _, n := range cleanNames {
		sr.byName[n] = insertRanked(sr.byName[n], reg)
	}

	snapshot := sr.snapshotListenersLocked()
	sr.mu.Unlock()

	ref := ServiceReference{r: reg}
	sr.dispatchSimple(snapshot, Event{Kind: Registered, Reference: ref, Properties: merged})

	return &ServiceRegistration{r: reg}, nil
}

// Unregister transitions a registration to UNREGISTERING, removes it from
// the indices, broadcasts Unregistering, then blocks until every
// outstanding reference has been released before marking it UNREGISTERED.
func (sr *ServiceRegistry) Unregister(reg *ServiceRegistration) error {
	if reg == nil || reg.r == nil {
		return newError(KindInvalidArgument, ErrNoSuchService)
	}

	r := reg.r
	if !r.state.CompareAndSwap(int32(regRegistered), int32(regUnregistering)) {
		return newError(KindIllegalState, ErrUnregistered)
	}

	sr.mu.Lock()
	delete(sr.byID, r.id)
	for _, n := range r.names {
		sr.byName[n] = removeRegistration(sr.byName[n], r)
	}

	snapshot := sr.snapshotListenersLocked()
	sr.mu.Unlock()

	ref := ServiceReference{r: r}
	sr.dispatchSimple(snapshot, Event{Kind: Unregistering, Reference: ref, Properties: r.currentProps()})

	sr.waitForDrain(r)

	r.state.Store(int32(regUnregistered))
	return nil
}

// waitForDrain blocks until r's total use count is zero, logging once after
// the configured grace period if it hasn't.
func (sr *ServiceRegistry) waitForDrain(r *registration) {
	if r.outstandingUse() == 0 {
		return
	}

	var timer *time.Timer
	if sr.cfg.gracePeriod > 0 {
		timer = time.AfterFunc(sr.cfg.gracePeriod, func() {
			sr.cfg.logger.Warn("unregister still waiting for outstanding references",
				svcrtlog.Int64("service_id", int64(r.id)),
				svcrtlog.Any("owner_bundle", r.owner),
			)
		})
	}

	r.waitDrained()

	if timer != nil {
		timer.Stop()
	}
}

// ModifyProperties replaces a registration's user properties, recomputes
// ranking, re-sorts every by-name index entry for it, and broadcasts
// Modified or ModifiedEndMatch per listener.
func (sr *ServiceRegistry) ModifyProperties(reg *ServiceRegistration, props properties.Properties) error {
	if reg == nil || reg.r == nil {
		return newError(KindInvalidArgument, ErrNoSuchService)
	}

	r := reg.r
	if !r.isAlive() {
		return newError(KindIllegalState, ErrUnregistered)
	}

	sr.mu.Lock()
	if !r.isAlive() {
		sr.mu.Unlock()
		return newError(KindIllegalState, ErrUnregistered)
	}

	ranking := extractRanking(props)
	merged := buildSystemProps(r.id, r.names, ranking, props)
	old := r.setProps(merged, ranking)

	for _, n := range r.names {
		resortRanked(sr.byName[n])
	}

	snapshot := sr.snapshotListenersLocked()
	sr.mu.Unlock()

	ref := ServiceReference{r: r}
	sr.dispatchModified(snapshot, ref, old, merged)

	return nil
}

// GetReferences resolves candidates from the by-name index (or every live
// registration, if name is empty), keeps only those whose properties
// satisfy f, and returns them in rank order. A nil filter matches every
// candidate.
func (sr *ServiceRegistry) GetReferences(name string, f *filter.Filter) ([]ServiceReference, error) {
	sr.mu.RLock()
	var candidates []*registration
	if name == "" {
		candidates = make([]*registration, 0, len(sr.byID))
		for _, r := range sr.byID {
			candidates = append(candidates, r)
		}
	} else {
		candidates = append(candidates, sr.byName[name]...)
	}
	sr.mu.RUnlock()

	matched := make([]*registration, 0, len(candidates))
	for _, r := range candidates {
		if f.Matches(r.currentProps()) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool { return rankBefore(matched[i], matched[j]) })

	refs := make([]ServiceReference, len(matched))
	for i, r := range matched {
		refs[i] = ServiceReference{r: r}
	}

	return refs, nil
}

// GetService resolves a reference to its handle, incrementing requester's
// use count. A dead or UNREGISTERING reference fails with KindIllegalState.
func (sr *ServiceRegistry) GetService(requester BundleID, ref ServiceReference) (any, error) {
	if ref.r == nil {
		return nil, newError(KindIllegalState, ErrNoSuchService)
	}

	handle, err := ref.r.acquire(requester)
	if err != nil {
		if ge, ok := err.(*Error); ok && ge.Kind == KindBundleException {
			sr.cfg.logger.Error("service factory failed",
				svcrtlog.Int64("service_id", int64(ref.r.id)),
				svcrtlog.Any("requester", requester),
				svcrtlog.Error(ge.Cause),
			)
		}

		return nil, err
	}

	return handle, nil
}

// UngetService decrements requester's use count, invoking the backing
// factory's Unget when the count returns to zero.
func (sr *ServiceRegistry) UngetService(requester BundleID, ref ServiceReference) error {
	if ref.r == nil {
		return newError(KindIllegalState, ErrNoSuchService)
	}

	_, err := ref.r.release(requester)
	if err != nil {
		if ge, ok := err.(*Error); ok && ge.Kind == KindBundleException {
			sr.cfg.logger.Error("service factory unget failed",
				svcrtlog.Int64("service_id", int64(ref.r.id)),
				svcrtlog.Any("requester", requester),
				svcrtlog.Error(ge.Cause),
			)

			return nil
		}

		return err
	}

	return nil
}

// GetUsingBundles returns, in stable ascending order, every bundle with a
// positive use count against ref's registration.
func (sr *ServiceRegistry) GetUsingBundles(ref ServiceReference) []BundleID {
	if ref.r == nil {
		return nil
	}

	bundles := ref.r.usingBundles()
	sort.Slice(bundles, func(i, j int) bool { return bundles[i] < bundles[j] })
	return bundles
}

// AddListener registers a callback for every Registered/Modified/
// ModifiedEndMatch/Unregistering event whose relevant properties satisfy f.
// A nil filter matches everything.
func (sr *ServiceRegistry) AddListener(f *filter.Filter, l Listener) (ListenerID, error) {
	if l == nil {
		return 0, newError(KindInvalidArgument, ErrNilListener)
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()

	sr.nextListenerID++
	id := ListenerID(sr.nextListenerID)
	sr.listeners = append(sr.listeners, &registeredListener{id: id, filter: f, listener: l})
	return id, nil
}

// RemoveListener unregisters a listener previously returned by AddListener.
func (sr *ServiceRegistry) RemoveListener(id ListenerID) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	for i, rl := range sr.listeners {
		if rl.id == id {
			sr.listeners = append(sr.listeners[:i], sr.listeners[i+1:]...)
			return
		}
	}
}

func (sr *ServiceRegistry) snapshotListenersLocked() []*registeredListener {
	return append([]*registeredListener(nil), sr.listeners...)
}

func (sr *ServiceRegistry) dispatchSimple(snapshot []*registeredListener, e Event) {
	for _, rl := range snapshot {
		if rl.filter.Matches(e.Properties) {
			sr.invoke(rl, e)
		}
	}
}

// dispatchModified implements the MODIFIED/MODIFIED_ENDMATCH split per
// listener: a listener whose filter still matches the new properties sees
// Modified; one whose filter matched only the old properties sees
// ModifiedEndMatch; one that matches neither sees nothing.
func (sr *ServiceRegistry) dispatchModified(snapshot []*registeredListener, ref ServiceReference, oldProps, newProps properties.Properties) {
	for _, rl := range snapshot {
		newMatch := rl.filter.Matches(newProps)
		oldMatch := rl.filter.Matches(oldProps)

		switch {
		case newMatch:
			sr.invoke(rl, Event{Kind: Modified, Reference: ref, Properties: newProps, OldProperties: oldProps})
		case oldMatch:
			sr.invoke(rl, Event{Kind: ModifiedEndMatch, Reference: ref, Properties: newProps, OldProperties: oldProps})
		}
	}
}

func (sr *ServiceRegistry) invoke(rl *registeredListener, e Event) {
	defer func() {
		if p := recover(); p != nil {
			sr.cfg.logger.Error("listener panicked",
				svcrtlog.Int64("listener_id", int64(rl.id)),
				svcrtlog.Any("panic", p),
			)
		}
	}()

	rl.listener.HandleEvent(e)
}

// RegistrationSnapshot is a read-only introspection record returned by
// Dump, in the spirit of an interactive shell's service list without
// carrying a shell.
type RegistrationSnapshot struct {
	ID         ServiceID
	Names      []string
	Owner      BundleID
	Ranking    int64
	Properties properties.Properties
	UseCount   int
}

// Dump returns a point-in-time snapshot of every live registration, in one
// rank order across all names (ranking descending, then service id
// ascending). A registration published under several names is listed once.
func (sr *ServiceRegistry) Dump() []RegistrationSnapshot {
	sr.mu.RLock()
	regs := make([]*registration, 0, len(sr.byID))
	for _, r := range sr.byID {
		regs = append(regs, r)
	}
	sr.mu.RUnlock()

	sort.SliceStable(regs, func(i, j int) bool { return rankBefore(regs[i], regs[j]) })

	out := make([]RegistrationSnapshot, len(regs))
	for i, r := range regs {
		out[i] = RegistrationSnapshot{
			ID:         r.id,
			Names:      append([]string(nil), r.names...),
			Owner:      r.owner,
			Ranking:    r.currentRanking(),
			Properties: r.currentProps(),
			UseCount:   r.outstandingUse(),
		}
	}

	return out
}

func cleanServiceNames(names []string) ([]string, error) {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}

		cleaned = append(cleaned, n)
	}

	if len(cleaned) == 0 {
		return nil, newError(KindInvalidArgument, ErrEmptyServiceName)
	}

	return cleaned, nil
}

func extractRanking(props properties.Properties) int64 {
	if v, ok := props.GetLong(properties.KeyServiceRanking); ok {
		return v
	}

	return 0
}

// buildSystemProps merges user properties with the always-present,
// user-immutable system keys (§6).
func buildSystemProps(id ServiceID, names []string, ranking int64, userProps properties.Properties) properties.Properties {
	var b properties.Builder
	b.Merge(userProps)
	b.Set(properties.KeyServiceID, strconv.FormatInt(int64(id), 10))
	b.Set(properties.KeyObjectClass, strings.Join(names, ","))
	b.Set(properties.KeyServiceRanking, strconv.FormatInt(ranking, 10))
	return b.Build()
}
