// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package depmgr assembles Components out of required/optional
// ServiceDependencies and drives each through the state machine in
// spec.md §4.4, built on top of package tracker for the underlying
// rank-ordered subscriptions.
package depmgr

import (
	"github.com/xmidt-org/svcrt/filter"
	"github.com/xmidt-org/svcrt/properties"
	"github.com/xmidt-org/svcrt/tracker"
)

// UpdateStrategy controls how a dependency's tracker delivers a change to
// its component.
type UpdateStrategy int

const (
	// StrategyLocking is the default: the underlying tracker callback
	// (and therefore the registry's dispatch) blocks until the
	// component's Set/Add/Remove callback returns, giving user code a
	// stable handle for the duration of its own callback. This is simply
	// package tracker's normal behavior; no special handling is needed
	// for it here.
	StrategyLocking UpdateStrategy = iota

	// StrategySuspending stops and restarts the component around a
	// change to this dependency, rather than delivering the change
	// in-place. Chosen per dependency (spec.md §4.4 "Update strategy"),
	// not globally.
	StrategySuspending
)

// ServiceDependency declares one of a Component's dependencies: a target
// service name, an optional filter, whether it's required for the
// component to instantiate, and the callback(s) invoked as matches change.
// Construct with NewServiceDependency and chain the With* methods.
type ServiceDependency struct {
	Name     string
	Filter   *filter.Filter
	Required bool
	Strategy UpdateStrategy

	setFunc    func(instance any, props properties.Properties)
	addFunc    func(instance any, props properties.Properties)
	removeFunc func(instance any, props properties.Properties)

	tr *tracker.ServiceTracker
}

// NewServiceDependency declares a dependency on services published under
// name, additionally narrowed by f (nil matches any properties).
func NewServiceDependency(name string, f *filter.Filter, required bool) *ServiceDependency {
	return &ServiceDependency{Name: name, Filter: f, Required: required}
}

// WithSet registers the single-target callback: invoked with each matching
// service as it is delivered (alongside Add), and with (nil, Properties{})
// each time a tracked service is removed (after Remove). It does not pick
// out the highest-ranked match, and a removal clears it even when other
// matches remain. Use this for a dependency a component expects at most
// one live instance of.
func (d *ServiceDependency) WithSet(fn func(instance any, props properties.Properties)) *ServiceDependency {
	d.setFunc = fn
	return d
}

// WithAdd registers the multi-target add callback, invoked once per
// matching service.
func (d *ServiceDependency) WithAdd(fn func(instance any, props properties.Properties)) *ServiceDependency {
	d.addFunc = fn
	return d
}

// WithRemove registers the multi-target remove callback, invoked once per
// service that stops matching or is unregistered.
func (d *ServiceDependency) WithRemove(fn func(instance any, props properties.Properties)) *ServiceDependency {
	d.removeFunc = fn
	return d
}

// WithSuspendStrategy opts this dependency into the suspending update
// strategy in place of the default locking one.
func (d *ServiceDependency) WithSuspendStrategy() *ServiceDependency {
	d.Strategy = StrategySuspending
	return d
}

// matchCount reports how many services this dependency is currently
// tracking; used to decide whether a required dependency is satisfied.
func (d *ServiceDependency) matchCount() int {
	if d.tr == nil {
		return 0
	}

	return d.tr.Size()
}

func (d *ServiceDependency) deliverAdd(ts tracker.TrackedService) {
	if d.setFunc != nil {
		d.setFunc(ts.Instance, ts.Properties)
	}

	if d.addFunc != nil {
		d.addFunc(ts.Instance, ts.Properties)
	}
}

func (d *ServiceDependency) deliverRemove(ts tracker.TrackedService) {
	if d.removeFunc != nil {
		d.removeFunc(ts.Instance, ts.Properties)
	}

	if d.setFunc != nil {
		d.setFunc(nil, properties.Properties{})
	}
}
