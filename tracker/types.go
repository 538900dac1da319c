// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package tracker implements the standing, rank-ordered subscription to a
// (name, filter) query over a registry: ServiceTracker.
package tracker

import (
	"github.com/xmidt-org/svcrt/properties"
	"github.com/xmidt-org/svcrt/registry"
)

// TrackedService is one entry in a tracker's sorted view: the reference, the
// instance already obtained via get_service, and the properties snapshot as
// of the last add or modify the tracker observed.
type TrackedService struct {
	Reference  registry.ServiceReference
	Instance   any
	Properties properties.Properties
}

// Customizer receives add/modify/remove callbacks as a tracker's view
// changes. Removed is called before the tracker releases its reference to
// the service; the implementation must not use Instance after Removed
// returns.
type Customizer interface {
	Added(TrackedService)
	Modified(TrackedService)
	Removed(TrackedService)
}

// TrackerCustomizerFuncs adapts a subset of Customizer's methods to plain
// functions, mirroring how the teacher's RegistrarListener/HealthListener
// callers only implement the events they care about. A nil field is a no-op.
type TrackerCustomizerFuncs struct {
	AddedFunc    func(TrackedService)
	ModifiedFunc func(TrackedService)
	RemovedFunc  func(TrackedService)
}

// Added implements Customizer.
func (f TrackerCustomizerFuncs) Added(s TrackedService) {
	if f.AddedFunc != nil {
		f.AddedFunc(s)
	}
}

// Modified implements Customizer.
func (f TrackerCustomizerFuncs) Modified(s TrackedService) {
	if f.ModifiedFunc != nil {
		f.ModifiedFunc(s)
	}
}

// Removed implements Customizer.
func (f TrackerCustomizerFuncs) Removed(s TrackedService) {
	if f.RemovedFunc != nil {
		f.RemovedFunc(s)
	}
}
