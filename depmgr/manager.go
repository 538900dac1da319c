// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package depmgr

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/xmidt-org/svcrt/registry"
	"github.com/xmidt-org/svcrt/svcrtlog"
	"github.com/xmidt-org/svcrt/tracker"
)

// ErrAlreadyManaged is returned by Add for a component already added to
// this (or another) manager.
var ErrAlreadyManaged = errors.New("depmgr: component already added")

// ErrNotManaged is returned by Remove for a component this manager does
// not own.
var ErrNotManaged = errors.New("depmgr: component not managed")

type config struct {
	logger svcrtlog.Logger
}

// ManagerOption configures a DependencyManager at construction.
type ManagerOption func(*config)

// WithLogger overrides the manager's logger.
func WithLogger(l svcrtlog.Logger) ManagerOption {
	return func(c *config) { c.logger = l }
}

// DependencyManager owns a set of Components, opening a ServiceTracker per
// dependency and driving each component through the state machine in
// spec.md §4.4 as those trackers report changes.
type DependencyManager struct {
	reg *registry.ServiceRegistry
	cfg config

	mu         sync.Mutex
	components []*Component
}

// New constructs a DependencyManager bound to reg.
func New(reg *registry.ServiceRegistry, opts ...ManagerOption) *DependencyManager {
	cfg := config{logger: svcrtlog.Discard()}
	for _, o := range opts {
		o(&cfg)
	}

	return &DependencyManager{reg: reg, cfg: cfg}
}

// Add opens a tracker for each of c's dependencies and evaluates whether c
// can promote immediately. c moves from Inactive to WaitingForRequired as
// its trackers open; if every required dependency is already satisfied,
// it promotes straight through to TrackingOptional before Add returns.
func (m *DependencyManager) Add(c *Component) error {
	c.mu.Lock()
	if c.state != Inactive {
		c.mu.Unlock()
		return ErrAlreadyManaged
	}
	c.state = WaitingForRequired
	c.mu.Unlock()

	for _, d := range c.Deps {
		dep := d
		dep.tr = tracker.New(m.reg, c.Bundle, dep.Name, dep.Filter, tracker.TrackerCustomizerFuncs{
			AddedFunc:    func(ts tracker.TrackedService) { m.onDependencyEvent(c, dep, registry.Registered, ts) },
			ModifiedFunc: func(ts tracker.TrackedService) { m.onDependencyEvent(c, dep, registry.Modified, ts) },
			RemovedFunc:  func(ts tracker.TrackedService) { m.onDependencyEvent(c, dep, registry.Unregistering, ts) },
		})

		if err := dep.tr.Open(); err != nil {
			return fmt.Errorf("depmgr: opening tracker for dependency %q: %w", dep.Name, err)
		}
	}

	m.mu.Lock()
	m.components = append(m.components, c)
	m.mu.Unlock()

	c.mu.Lock()
	if c.state == WaitingForRequired && m.allRequiredSatisfiedLocked(c) {
		m.promote(c)
	}
	c.mu.Unlock()

	return nil
}

// Remove tears c down (demoting it first if it is currently tracking
// optional dependencies) and closes every dependency tracker it opened.
func (m *DependencyManager) Remove(c *Component) error {
	m.mu.Lock()
	idx := -1
	for i, existing := range m.components {
		if existing == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotManaged
	}
	m.components = append(m.components[:idx], m.components[idx+1:]...)
	m.mu.Unlock()

	c.mu.Lock()
	if c.state == TrackingOptional {
		m.demote(c, nil, tracker.TrackedService{})
	}
	c.state = Inactive
	c.mu.Unlock()

	var err error
	for _, d := range c.Deps {
		if d.tr != nil {
			err = multierr.Append(err, d.tr.Close())
		}
	}

	return err
}

// ComponentSnapshot is a read-only view of one managed component's current
// state, returned by Dump for introspection.
type ComponentSnapshot struct {
	Name   string
	Bundle registry.BundleID
	State  ComponentState
}

// Dump reports the current state of every managed component, in the order
// they were added, for introspection.
func (m *DependencyManager) Dump() []ComponentSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ComponentSnapshot, 0, len(m.components))
	for _, c := range m.components {
		out = append(out, ComponentSnapshot{Name: c.Name, Bundle: c.Bundle, State: c.State()})
	}

	return out
}

// onDependencyEvent is the single entry point every dependency tracker
// calls back into, serialized per component via c.mu so that a component's
// state machine is never driven by two goroutines at once even though its
// dependencies' trackers dispatch independently.
func (m *DependencyManager) onDependencyEvent(c *Component, d *ServiceDependency, kind registry.EventKind, ts tracker.TrackedService) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case WaitingForRequired:
		if m.allRequiredSatisfiedLocked(c) {
			m.promote(c)
		}
	case TrackingOptional:
		if d.Required && kind == registry.Unregistering && d.matchCount() == 0 {
			m.demote(c, d, ts)
			return
		}

		if d.Strategy == StrategySuspending {
			m.suspendDeliver(c, d, kind, ts)
			return
		}

		switch kind {
		case registry.Registered, registry.Modified:
			d.deliverAdd(ts)
		case registry.Unregistering, registry.ModifiedEndMatch:
			d.deliverRemove(ts)
		}
	default:
		// Instantiated and Stopping are both transient, held only for the
		// duration of promote/demote, which already run under c.mu; no
		// dependency event can observe the manager in those states.
	}
}

// suspendDeliver implements the per-dependency suspending update strategy
// (spec.md §4.4): c is stopped, the change is applied to d, then c is
// restarted, instead of delivering the change in place as the default
// locking strategy does. Caller must hold c.mu.
func (m *DependencyManager) suspendDeliver(c *Component, d *ServiceDependency, kind registry.EventKind, ts tracker.TrackedService) {
	if c.stopFunc != nil {
		if err := c.stopFunc(); err != nil {
			m.cfg.logger.Error("component stop failed during suspend",
				svcrtlog.String("component", c.Name), svcrtlog.Error(err))
		}
	}

	switch kind {
	case registry.Registered, registry.Modified:
		d.deliverAdd(ts)
	case registry.Unregistering, registry.ModifiedEndMatch:
		d.deliverRemove(ts)
	}

	if c.startFunc != nil {
		if err := c.startFunc(); err != nil {
			m.cfg.logger.Error("component start failed during suspend",
				svcrtlog.String("component", c.Name), svcrtlog.Error(err))
		}
	}
}

// allRequiredSatisfiedLocked reports whether every required dependency of
// c currently has at least one matching service. Caller must hold c.mu.
func (m *DependencyManager) allRequiredSatisfiedLocked(c *Component) bool {
	for _, d := range c.requiredDeps() {
		if d.matchCount() == 0 {
			return false
		}
	}

	return true
}

// promote runs Init then Start, then replays every dependency's current
// snapshot through its Add/Set callback, landing the component in
// TrackingOptional. Caller must hold c.mu.
func (m *DependencyManager) promote(c *Component) {
	c.state = Instantiated

	if c.initFunc != nil {
		if err := c.initFunc(); err != nil {
			m.cfg.logger.Error("component init failed", svcrtlog.String("component", c.Name), svcrtlog.Error(err))
			c.state = WaitingForRequired
			return
		}
	}

	if c.startFunc != nil {
		if err := c.startFunc(); err != nil {
			m.cfg.logger.Error("component start failed", svcrtlog.String("component", c.Name), svcrtlog.Error(err))
			c.state = WaitingForRequired
			return
		}
	}

	c.state = TrackingOptional

	for _, d := range c.Deps {
		if d.tr == nil {
			continue // not opened yet; its tracker delivers matches as it opens
		}

		for _, ts := range d.tr.Snapshot() {
			d.deliverAdd(ts)
		}
	}
}

// demote tears the component down: the triggering dependency's own entry
// (already absent from its tracker's view by the time this is called) is
// delivered as a remove first, then every other dependency's remaining
// tracked entries, then Stop, then Deinit, returning the component to
// WaitingForRequired. Caller must hold c.mu. triggering may be nil when
// demote is invoked from Remove rather than a dependency event.
func (m *DependencyManager) demote(c *Component, triggering *ServiceDependency, triggeringTS tracker.TrackedService) {
	c.state = Stopping

	if triggering != nil {
		triggering.deliverRemove(triggeringTS)
	}

	for _, d := range c.Deps {
		if d == triggering {
			continue
		}

		for _, ts := range d.tr.Snapshot() {
			d.deliverRemove(ts)
		}
	}

	if c.stopFunc != nil {
		if err := c.stopFunc(); err != nil {
			m.cfg.logger.Error("component stop failed", svcrtlog.String("component", c.Name), svcrtlog.Error(err))
		}
	}

	if c.deinitFunc != nil {
		c.deinitFunc()
	}

	c.state = WaitingForRequired
}
