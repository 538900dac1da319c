// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package depmgr

import (
	"sync"

	"github.com/xmidt-org/svcrt/registry"
)

// Component is a unit of lifecycle managed by a DependencyManager: a name,
// a set of dependencies, and Init/Start/Stop/Deinit hooks invoked as those
// dependencies become satisfied or not, per spec.md §4.4. Construct with
// NewComponent and chain the With* methods; add to a manager with
// DependencyManager.Add.
type Component struct {
	Name   string
	Bundle registry.BundleID
	Deps   []*ServiceDependency

	initFunc   func() error
	startFunc  func() error
	stopFunc   func() error
	deinitFunc func()

	mu    sync.Mutex
	state ComponentState
}

// NewComponent declares a component owned by bundle.
func NewComponent(bundle registry.BundleID, name string) *Component {
	return &Component{Bundle: bundle, Name: name, state: Inactive}
}

// WithDependency adds d to the component's dependency set. Must be called
// before the component is added to a manager.
func (c *Component) WithDependency(d *ServiceDependency) *Component {
	c.Deps = append(c.Deps, d)
	return c
}

// WithInit registers the hook run once, on the WaitingForRequired ->
// Instantiated transition.
func (c *Component) WithInit(fn func() error) *Component {
	c.initFunc = fn
	return c
}

// WithStart registers the hook run once, on the Instantiated ->
// TrackingOptional transition, immediately before optional dependencies
// begin being delivered.
func (c *Component) WithStart(fn func() error) *Component {
	c.startFunc = fn
	return c
}

// WithStop registers the hook run during Stopping, after every tracked
// dependency has been torn down via its Remove/Set(nil) callback but
// before Deinit.
func (c *Component) WithStop(fn func() error) *Component {
	c.stopFunc = fn
	return c
}

// WithDeinit registers the hook run last during Stopping, immediately
// before the component returns to WaitingForRequired.
func (c *Component) WithDeinit(fn func()) *Component {
	c.deinitFunc = fn
	return c
}

// State returns the component's current position in the state machine.
func (c *Component) State() ComponentState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Component) requiredDeps() []*ServiceDependency {
	var out []*ServiceDependency
	for _, d := range c.Deps {
		if d.Required {
			out = append(out, d)
		}
	}
	return out
}
