// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package depmgr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmidt-org/svcrt/properties"
	"github.com/xmidt-org/svcrt/registry"
)

type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (c *callRecorder) record(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *callRecorder) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// TestPromoteOnSingleRequiredDependency walks spec.md scenario 6's first
// leg: registering an A instance satisfies C's sole required dependency,
// driving init -> start -> add(A) in that order.
func TestPromoteOnSingleRequiredDependency(t *testing.T) {
	reg := registry.NewServiceRegistry()
	rec := &callRecorder{}

	depA := NewServiceDependency("A", nil, true).WithAdd(func(instance any, _ properties.Properties) {
		rec.record("add:" + instance.(string))
	})

	c := NewComponent("bundle-1", "C").
		WithDependency(depA).
		WithInit(func() error { rec.record("init"); return nil }).
		WithStart(func() error { rec.record("start"); return nil })

	m := New(reg)
	require.NoError(t, m.Add(c))
	assert.Equal(t, WaitingForRequired, c.State())

	regA, err := reg.Register("bundle-a", []string{"A"}, "instance-A", properties.Properties{})
	require.NoError(t, err)
	defer reg.Unregister(regA)

	assert.Equal(t, TrackingOptional, c.State())
	assert.Equal(t, []string{"init", "start", "add:instance-A"}, rec.snapshot())
}

// TestOptionalDependencyDeliveredWhileTracking covers scenario 6's second
// leg: once C is already TrackingOptional, registering a B delivers a bare
// add(B) with no further state transition.
func TestOptionalDependencyDeliveredWhileTracking(t *testing.T) {
	reg := registry.NewServiceRegistry()
	rec := &callRecorder{}

	depA := NewServiceDependency("A", nil, true)
	depB := NewServiceDependency("B", nil, false).WithAdd(func(instance any, _ properties.Properties) {
		rec.record("add:" + instance.(string))
	})

	c := NewComponent("bundle-1", "C").WithDependency(depA).WithDependency(depB)

	m := New(reg)
	require.NoError(t, m.Add(c))

	regA, err := reg.Register("bundle-a", []string{"A"}, "instance-A", properties.Properties{})
	require.NoError(t, err)
	defer reg.Unregister(regA)

	require.Equal(t, TrackingOptional, c.State())

	regB, err := reg.Register("bundle-b", []string{"B"}, "instance-B", properties.Properties{})
	require.NoError(t, err)
	defer reg.Unregister(regB)

	assert.Equal(t, []string{"add:instance-B"}, rec.snapshot())
	assert.Equal(t, TrackingOptional, c.State())
}

// TestDemoteOrderingOnRequiredLoss covers scenario 6's final leg:
// unregistering the sole A drops C's only required dependency, which must
// tear down in the order remove(A), remove(B), stop, deinit, and land back
// in WaitingForRequired.
func TestDemoteOrderingOnRequiredLoss(t *testing.T) {
	reg := registry.NewServiceRegistry()
	rec := &callRecorder{}

	depA := NewServiceDependency("A", nil, true).WithRemove(func(instance any, _ properties.Properties) {
		rec.record("remove:" + instance.(string))
	})
	depB := NewServiceDependency("B", nil, false).WithRemove(func(instance any, _ properties.Properties) {
		rec.record("remove:" + instance.(string))
	})

	c := NewComponent("bundle-1", "C").
		WithDependency(depA).
		WithDependency(depB).
		WithStop(func() error { rec.record("stop"); return nil }).
		WithDeinit(func() { rec.record("deinit") })

	m := New(reg)
	require.NoError(t, m.Add(c))

	regA, err := reg.Register("bundle-a", []string{"A"}, "instance-A", properties.Properties{})
	require.NoError(t, err)

	regB, err := reg.Register("bundle-b", []string{"B"}, "instance-B", properties.Properties{})
	require.NoError(t, err)
	defer reg.Unregister(regB)

	require.Equal(t, TrackingOptional, c.State())

	require.NoError(t, reg.Unregister(regA))

	assert.Equal(t, []string{"remove:instance-A", "remove:instance-B", "stop", "deinit"}, rec.snapshot())
	assert.Equal(t, WaitingForRequired, c.State())
}

// TestAddWithAlreadySatisfiedRequiredDependencyPromotesImmediately checks
// that Add itself promotes a component whose required dependency is
// already registered at the time it's added, without waiting for a further
// registry event.
func TestAddWithAlreadySatisfiedRequiredDependencyPromotesImmediately(t *testing.T) {
	reg := registry.NewServiceRegistry()
	rec := &callRecorder{}

	regA, err := reg.Register("bundle-a", []string{"A"}, "instance-A", properties.Properties{})
	require.NoError(t, err)
	defer reg.Unregister(regA)

	depA := NewServiceDependency("A", nil, true)
	c := NewComponent("bundle-1", "C").
		WithDependency(depA).
		WithStart(func() error { rec.record("start"); return nil })

	m := New(reg)
	require.NoError(t, m.Add(c))

	assert.Equal(t, TrackingOptional, c.State())
	assert.Equal(t, []string{"start"}, rec.snapshot())
}

func TestAddTwiceFails(t *testing.T) {
	reg := registry.NewServiceRegistry()
	c := NewComponent("bundle-1", "C").WithDependency(NewServiceDependency("A", nil, true))

	m := New(reg)
	require.NoError(t, m.Add(c))
	assert.ErrorIs(t, m.Add(c), ErrAlreadyManaged)
}

func TestRemoveUnmanagedComponentFails(t *testing.T) {
	reg := registry.NewServiceRegistry()
	m := New(reg)
	c := NewComponent("bundle-1", "C")
	assert.ErrorIs(t, m.Remove(c), ErrNotManaged)
}

// TestRemoveDemotesATrackingComponent ensures Remove itself runs the
// teardown sequence (not just a manager bookkeeping removal) when the
// component is currently TrackingOptional.
func TestRemoveDemotesATrackingComponent(t *testing.T) {
	reg := registry.NewServiceRegistry()
	rec := &callRecorder{}

	depA := NewServiceDependency("A", nil, true)
	c := NewComponent("bundle-1", "C").
		WithDependency(depA).
		WithStop(func() error { rec.record("stop"); return nil })

	m := New(reg)
	require.NoError(t, m.Add(c))

	regA, err := reg.Register("bundle-a", []string{"A"}, "instance-A", properties.Properties{})
	require.NoError(t, err)
	defer reg.Unregister(regA)

	require.Equal(t, TrackingOptional, c.State())
	require.NoError(t, m.Remove(c))

	assert.Equal(t, []string{"stop"}, rec.snapshot())
	assert.ErrorIs(t, m.Remove(c), ErrNotManaged)
}

// TestSuspendingStrategyStopsAndRestartsAroundChange covers spec.md §4.4's
// suspending update strategy: a change to a dependency opted into
// WithSuspendStrategy stops the component, applies the change, then
// restarts the component, instead of delivering it in place.
func TestSuspendingStrategyStopsAndRestartsAroundChange(t *testing.T) {
	reg := registry.NewServiceRegistry()
	rec := &callRecorder{}

	depA := NewServiceDependency("A", nil, true)
	depB := NewServiceDependency("B", nil, false).
		WithSuspendStrategy().
		WithAdd(func(instance any, _ properties.Properties) {
			rec.record("add:" + instance.(string))
		}).
		WithRemove(func(instance any, _ properties.Properties) {
			rec.record("remove:" + instance.(string))
		})

	c := NewComponent("bundle-1", "C").
		WithDependency(depA).
		WithDependency(depB).
		WithStop(func() error { rec.record("stop"); return nil }).
		WithStart(func() error { rec.record("start"); return nil })

	m := New(reg)
	require.NoError(t, m.Add(c))

	regA, err := reg.Register("bundle-a", []string{"A"}, "instance-A", properties.Properties{})
	require.NoError(t, err)
	defer reg.Unregister(regA)

	require.Equal(t, TrackingOptional, c.State())

	rec.mu.Lock()
	rec.calls = nil // drop the start call from promotion
	rec.mu.Unlock()

	regB, err := reg.Register("bundle-b", []string{"B"}, "instance-B", properties.Properties{})
	require.NoError(t, err)

	assert.Equal(t, []string{"stop", "add:instance-B", "start"}, rec.snapshot())
	assert.Equal(t, TrackingOptional, c.State())

	rec.mu.Lock()
	rec.calls = nil
	rec.mu.Unlock()

	require.NoError(t, reg.Unregister(regB))
	assert.Equal(t, []string{"stop", "remove:instance-B", "start"}, rec.snapshot())
	assert.Equal(t, TrackingOptional, c.State())
}

func TestDumpReportsComponentStates(t *testing.T) {
	reg := registry.NewServiceRegistry()
	c := NewComponent("bundle-1", "C").WithDependency(NewServiceDependency("A", nil, true))

	m := New(reg)
	require.NoError(t, m.Add(c))

	assert.Equal(t, []ComponentSnapshot{{Name: "C", Bundle: "bundle-1", State: WaitingForRequired}}, m.Dump())
}
