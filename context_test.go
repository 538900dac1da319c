// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package svcrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmidt-org/svcrt/depmgr"
	"github.com/xmidt-org/svcrt/properties"
	"github.com/xmidt-org/svcrt/registry"
	"github.com/xmidt-org/svcrt/tracker"
)

func TestBundleContextRegisterAndClose(t *testing.T) {
	reg := registry.NewServiceRegistry()
	dm := depmgr.New(reg)
	bc := NewBundleContext(reg, dm, "bundle-1")

	serviceReg, err := bc.RegisterService([]string{"widget"}, "instance", properties.Properties{})
	require.NoError(t, err)

	refs, err := reg.GetReferences("widget", nil)
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	require.NoError(t, bc.Close())

	refs, err = reg.GetReferences("widget", nil)
	require.NoError(t, err)
	assert.Empty(t, refs)

	// Close is idempotent.
	assert.NoError(t, bc.Close())

	// operations after Close are rejected.
	_, err = bc.RegisterService([]string{"widget"}, "instance", properties.Properties{})
	assert.ErrorIs(t, err, KindIllegalState)

	_ = serviceReg
}

func TestBundleContextRegisterServiceTracksExplicitUnregister(t *testing.T) {
	reg := registry.NewServiceRegistry()
	bc := NewBundleContext(reg, nil, "bundle-1")

	serviceReg, err := bc.RegisterService([]string{"widget"}, "instance", properties.Properties{})
	require.NoError(t, err)

	require.NoError(t, bc.UnregisterService(serviceReg))

	// Close should not try to unregister it again.
	assert.NoError(t, bc.Close())
}

func TestBundleContextOpenTrackerClosesOnContextClose(t *testing.T) {
	reg := registry.NewServiceRegistry()
	bc := NewBundleContext(reg, nil, "bundle-1")

	var added, removed int
	customizer := tracker.TrackerCustomizerFuncs{
		AddedFunc:   func(tracker.TrackedService) { added++ },
		RemovedFunc: func(tracker.TrackedService) { removed++ },
	}

	_, err := bc.OpenTracker("widget", nil, customizer)
	require.NoError(t, err)

	serviceReg, err := reg.Register("other-bundle", []string{"widget"}, "instance", properties.Properties{})
	require.NoError(t, err)
	defer reg.Unregister(serviceReg)

	assert.Equal(t, 1, added)

	require.NoError(t, bc.Close())
	assert.Equal(t, 1, removed)
}

func TestBundleContextAddComponentWithoutManagerFails(t *testing.T) {
	reg := registry.NewServiceRegistry()
	bc := NewBundleContext(reg, nil, "bundle-1")

	c := depmgr.NewComponent("bundle-1", "C")
	assert.ErrorIs(t, bc.AddComponent(c), KindIllegalState)
}

func TestBundleContextAddComponentRemovedOnClose(t *testing.T) {
	reg := registry.NewServiceRegistry()
	dm := depmgr.New(reg)
	bc := NewBundleContext(reg, dm, "bundle-1")

	var stopped bool
	c := depmgr.NewComponent("bundle-1", "C").
		WithDependency(depmgr.NewServiceDependency("A", nil, true)).
		WithStop(func() error { stopped = true; return nil })

	require.NoError(t, bc.AddComponent(c))

	serviceReg, err := reg.Register("bundle-a", []string{"A"}, "instance-A", properties.Properties{})
	require.NoError(t, err)
	defer reg.Unregister(serviceReg)

	require.Equal(t, depmgr.TrackingOptional, c.State())

	require.NoError(t, bc.Close())
	assert.True(t, stopped)
}
