// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package svcrt

import (
	"sync"

	"go.uber.org/multierr"

	"github.com/xmidt-org/svcrt/depmgr"
	"github.com/xmidt-org/svcrt/filter"
	"github.com/xmidt-org/svcrt/properties"
	"github.com/xmidt-org/svcrt/registry"
	"github.com/xmidt-org/svcrt/tracker"
)

// BundleContext is the narrow, per-bundle handle spec.md §4.5 and §9
// ("the bundle context is the narrow handle that threads the correct
// registry through all operations") describe: it scopes registrations and
// trackers to one bundle id and, on Close, unregisters and closes
// everything it opened — grounded on the teacher's BindRegistrar
// fx-lifecycle hook, which registers on start and deregisters everything
// on stop.
type BundleContext struct {
	reg    *registry.ServiceRegistry
	dm     *depmgr.DependencyManager
	bundle registry.BundleID

	mu            sync.Mutex
	registrations []*registry.ServiceRegistration
	trackers      []*tracker.ServiceTracker
	components    []*depmgr.Component
	closed        bool
}

// NewBundleContext scopes a BundleContext to bundle within reg, using dm to
// manage any components the bundle adds.
func NewBundleContext(reg *registry.ServiceRegistry, dm *depmgr.DependencyManager, bundle registry.BundleID) *BundleContext {
	return &BundleContext{reg: reg, dm: dm, bundle: bundle}
}

// BundleID returns the bundle identity this context was scoped to.
func (bc *BundleContext) BundleID() registry.BundleID { return bc.bundle }

// Registry exposes the underlying registry for operations BundleContext
// doesn't itself wrap (filtered lookups, Dump, and so on).
func (bc *BundleContext) Registry() *registry.ServiceRegistry { return bc.reg }

// RegisterService registers handleOrFactory under names, tracking the
// resulting registration so Close unregisters it automatically.
func (bc *BundleContext) RegisterService(names []string, handleOrFactory any, props properties.Properties) (*registry.ServiceRegistration, error) {
	bc.mu.Lock()
	if bc.closed {
		bc.mu.Unlock()
		return nil, newError(KindIllegalState, registry.ErrUnregistered)
	}
	bc.mu.Unlock()

	reg, err := bc.reg.Register(bc.bundle, names, handleOrFactory, props)
	if err != nil {
		return nil, err
	}

	bc.mu.Lock()
	bc.registrations = append(bc.registrations, reg)
	bc.mu.Unlock()

	return reg, nil
}

// UnregisterService unregisters reg ahead of Close, removing it from this
// context's tracked set.
func (bc *BundleContext) UnregisterService(reg *registry.ServiceRegistration) error {
	bc.mu.Lock()
	for i, r := range bc.registrations {
		if r == reg {
			bc.registrations = append(bc.registrations[:i], bc.registrations[i+1:]...)
			break
		}
	}
	bc.mu.Unlock()

	return bc.reg.Unregister(reg)
}

// OpenTracker opens a ServiceTracker scoped to this bundle's identity,
// tracking it so Close closes it automatically.
func (bc *BundleContext) OpenTracker(name string, f *filter.Filter, customizer tracker.Customizer) (*tracker.ServiceTracker, error) {
	t := tracker.New(bc.reg, bc.bundle, name, f, customizer)
	if err := t.Open(); err != nil {
		return nil, err
	}

	bc.mu.Lock()
	bc.trackers = append(bc.trackers, t)
	bc.mu.Unlock()

	return t, nil
}

// AddComponent adds c to this context's DependencyManager, tracking it so
// Close removes it automatically. Requires a DependencyManager to have
// been supplied via NewBundleContext.
func (bc *BundleContext) AddComponent(c *depmgr.Component) error {
	if bc.dm == nil {
		return newError(KindIllegalState, nil)
	}

	if err := bc.dm.Add(c); err != nil {
		return err
	}

	bc.mu.Lock()
	bc.components = append(bc.components, c)
	bc.mu.Unlock()

	return nil
}

// Close removes every component, closes every tracker, and unregisters
// every service this context opened, in that order, aggregating any errors. It
// is idempotent: calling Close on an already-closed context is a no-op.
func (bc *BundleContext) Close() error {
	bc.mu.Lock()
	if bc.closed {
		bc.mu.Unlock()
		return nil
	}
	bc.closed = true

	regs := bc.registrations
	bc.registrations = nil
	trackers := bc.trackers
	bc.trackers = nil
	components := bc.components
	bc.components = nil
	bc.mu.Unlock()

	var err error

	for _, c := range components {
		if bc.dm != nil {
			err = multierr.Append(err, bc.dm.Remove(c))
		}
	}

	for _, t := range trackers {
		err = multierr.Append(err, t.Close())
	}

	for _, r := range regs {
		err = multierr.Append(err, bc.reg.Unregister(r))
	}

	return err
}
