// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmidt-org/svcrt/filter"
	"github.com/xmidt-org/svcrt/properties"
)

func rankedProps(rank int64) properties.Properties {
	var b properties.Builder
	b.Set(properties.KeyServiceRanking, strconv.FormatInt(rank, 10))
	return b.Build()
}

func TestRegisterAssignsIncreasingIDs(t *testing.T) {
	sr := NewServiceRegistry()

	r1, err := sr.Register("b1", []string{"calc"}, "one", properties.Properties{})
	require.NoError(t, err)
	r2, err := sr.Register("b1", []string{"calc"}, "two", properties.Properties{})
	require.NoError(t, err)

	assert.Less(t, r1.ServiceID(), r2.ServiceID())
}

func TestRankOrderingScenario(t *testing.T) {
	sr := NewServiceRegistry()

	r1, err := sr.Register("b", []string{"calc"}, "v1", rankedProps(0))
	require.NoError(t, err)
	r2, err := sr.Register("b", []string{"calc"}, "v2", rankedProps(10))
	require.NoError(t, err)
	r3, err := sr.Register("b", []string{"calc"}, "v3", rankedProps(10))
	require.NoError(t, err)

	refs, err := sr.GetReferences("calc", nil)
	require.NoError(t, err)
	require.Len(t, refs, 3)

	assert.Equal(t, r2.ServiceID(), refs[0].ServiceID())
	assert.Equal(t, r3.ServiceID(), refs[1].ServiceID())
	assert.Equal(t, r1.ServiceID(), refs[2].ServiceID())
}

func TestGetReferencesEmptyNameReturnsAll(t *testing.T) {
	sr := NewServiceRegistry()
	_, err := sr.Register("b", []string{"a"}, "x", properties.Properties{})
	require.NoError(t, err)
	_, err = sr.Register("b", []string{"c"}, "y", properties.Properties{})
	require.NoError(t, err)

	refs, err := sr.GetReferences("", nil)
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestGetReferencesFiltered(t *testing.T) {
	sr := NewServiceRegistry()
	var b properties.Builder
	b.Set("color", "red")

	_, err := sr.Register("b", []string{"widget"}, "red-widget", b.Build())
	require.NoError(t, err)

	var b2 properties.Builder
	b2.Set("color", "blue")
	_, err = sr.Register("b", []string{"widget"}, "blue-widget", b2.Build())
	require.NoError(t, err)

	f, err := filter.Parse("(color=red)")
	require.NoError(t, err)

	refs, err := sr.GetReferences("widget", f)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	handle, err := sr.GetService("requester", refs[0])
	require.NoError(t, err)
	assert.Equal(t, "red-widget", handle)
}

type boolFactory struct {
	mu       sync.Mutex
	gets     int
	ungets   int
	instance any
}

func (f *boolFactory) Get(requester BundleID, props properties.Properties) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.instance, nil
}

func (f *boolFactory) Unget(requester BundleID, handle any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ungets++
	return nil
}

func TestFactoryUniquenessScenario(t *testing.T) {
	sr := NewServiceRegistry()
	factory := &boolFactory{instance: "produced"}

	reg, err := sr.Register("owner", []string{"factoryService"}, factory, properties.Properties{})
	require.NoError(t, err)
	ref := reg.Reference()

	h1, err := sr.GetService("bundleA", ref)
	require.NoError(t, err)
	h2, err := sr.GetService("bundleA", ref)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, factory.gets, "factory must be invoked once per requester")

	require.NoError(t, sr.UngetService("bundleA", ref))
	assert.Equal(t, 0, factory.ungets)

	require.NoError(t, sr.UngetService("bundleA", ref))
	assert.Equal(t, 1, factory.ungets, "unget fires once the requester's count returns to zero")
}

func TestUnregisterBlocksUntilReleasedScenario(t *testing.T) {
	sr := NewServiceRegistry(WithUnregisterGracePeriod(0))

	reg, err := sr.Register("owner", []string{"svc"}, "handle", properties.Properties{})
	require.NoError(t, err)
	ref := reg.Reference()

	_, err = sr.GetService("bundleA", ref)
	require.NoError(t, err)

	unregisterReturned := make(chan struct{})
	go func() {
		_ = sr.Unregister(reg)
		close(unregisterReturned)
	}()

	select {
	case <-unregisterReturned:
		t.Fatal("unregister returned before the outstanding reference was released")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, sr.UngetService("bundleA", ref))

	select {
	case <-unregisterReturned:
	case <-time.After(time.Second):
		t.Fatal("unregister did not return after release")
	}

	assert.False(t, ref.IsAlive())
}

func TestUnregisterTwiceIsIllegalState(t *testing.T) {
	sr := NewServiceRegistry()
	reg, err := sr.Register("owner", []string{"svc"}, "handle", properties.Properties{})
	require.NoError(t, err)

	require.NoError(t, sr.Unregister(reg))

	err = sr.Unregister(reg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, KindIllegalState))
}

func TestUnregisterRemovesFromIndices(t *testing.T) {
	sr := NewServiceRegistry()
	reg, err := sr.Register("owner", []string{"svc"}, "handle", properties.Properties{})
	require.NoError(t, err)
	require.NoError(t, sr.Unregister(reg))

	refs, err := sr.GetReferences("svc", nil)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

type recordingListener struct {
	mu     sync.Mutex
	events []Event
}

func (l *recordingListener) HandleEvent(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingListener) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()

	kinds := make([]EventKind, len(l.events))
	for i, e := range l.events {
		kinds[i] = e.Kind
	}

	return kinds
}

func TestListenerReceivesRegisteredModifiedUnregistering(t *testing.T) {
	sr := NewServiceRegistry()
	f, err := filter.Parse("(key=a)")
	require.NoError(t, err)

	l := &recordingListener{}
	_, err = sr.AddListener(f, l)
	require.NoError(t, err)

	var b properties.Builder
	b.Set("key", "a")
	reg, err := sr.Register("owner", []string{"svc"}, "handle", b.Build())
	require.NoError(t, err)

	var b2 properties.Builder
	b2.Set("key", "a")
	b2.Set("extra", "1")
	require.NoError(t, sr.ModifyProperties(reg, b2.Build()))

	require.NoError(t, sr.Unregister(reg))

	assert.Equal(t, []EventKind{Registered, Modified, Unregistering}, l.kinds())
}

func TestListenerEndMatchOnModify(t *testing.T) {
	sr := NewServiceRegistry()
	f, err := filter.Parse("(key=a)")
	require.NoError(t, err)

	l := &recordingListener{}
	_, err = sr.AddListener(f, l)
	require.NoError(t, err)

	var b properties.Builder
	b.Set("key", "a")
	reg, err := sr.Register("owner", []string{"svc"}, "handle", b.Build())
	require.NoError(t, err)

	var b2 properties.Builder
	b2.Set("key", "b")
	require.NoError(t, sr.ModifyProperties(reg, b2.Build()))

	assert.Equal(t, []EventKind{Registered, ModifiedEndMatch}, l.kinds())
}

func TestRemoveListenerStopsDelivery(t *testing.T) {
	sr := NewServiceRegistry()
	l := &recordingListener{}
	id, err := sr.AddListener(nil, l)
	require.NoError(t, err)

	sr.RemoveListener(id)

	_, err = sr.Register("owner", []string{"svc"}, "handle", properties.Properties{})
	require.NoError(t, err)

	assert.Empty(t, l.kinds())
}

func TestAddListenerRejectsNilListener(t *testing.T) {
	sr := NewServiceRegistry()
	_, err := sr.AddListener(nil, nil)
	assert.ErrorIs(t, err, ErrNilListener)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindInvalidArgument, ge.Kind)
}

func TestListenerPanicIsIsolated(t *testing.T) {
	sr := NewServiceRegistry()
	_, err := sr.AddListener(nil, ListenerFunc(func(Event) { panic("boom") }))
	require.NoError(t, err)

	good := &recordingListener{}
	_, err = sr.AddListener(nil, good)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		_, err := sr.Register("owner", []string{"svc"}, "handle", properties.Properties{})
		require.NoError(t, err)
	})

	assert.Equal(t, []EventKind{Registered}, good.kinds())
}

func TestEmptyServiceNameRejected(t *testing.T) {
	sr := NewServiceRegistry()
	_, err := sr.Register("owner", nil, "handle", properties.Properties{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, KindInvalidArgument))
}

func TestGetUsingBundlesSortedAscending(t *testing.T) {
	sr := NewServiceRegistry()
	reg, err := sr.Register("owner", []string{"svc"}, "handle", properties.Properties{})
	require.NoError(t, err)
	ref := reg.Reference()

	_, err = sr.GetService("zeta", ref)
	require.NoError(t, err)
	_, err = sr.GetService("alpha", ref)
	require.NoError(t, err)

	assert.Equal(t, []BundleID{"alpha", "zeta"}, sr.GetUsingBundles(ref))
}

func TestDeadReferenceFailsGetService(t *testing.T) {
	sr := NewServiceRegistry()
	reg, err := sr.Register("owner", []string{"svc"}, "handle", properties.Properties{})
	require.NoError(t, err)
	ref := reg.Reference()

	require.NoError(t, sr.Unregister(reg))

	_, err = sr.GetService("requester", ref)
	require.Error(t, err)
	assert.True(t, errors.Is(err, KindIllegalState))
}

func TestReferenceCompareOrdersByRankThenID(t *testing.T) {
	sr := NewServiceRegistry()
	low, err := sr.Register("b", []string{"svc"}, "low", rankedProps(0))
	require.NoError(t, err)
	high, err := sr.Register("b", []string{"svc"}, "high", rankedProps(5))
	require.NoError(t, err)

	assert.Negative(t, high.Reference().Compare(low.Reference()))
	assert.Positive(t, low.Reference().Compare(high.Reference()))
	assert.Zero(t, low.Reference().Compare(low.Reference()))
}

func TestDumpReflectsLiveState(t *testing.T) {
	sr := NewServiceRegistry()
	_, err := sr.Register("owner", []string{"svc"}, "handle", rankedProps(3))
	require.NoError(t, err)

	dump := sr.Dump()
	require.Len(t, dump, 1)
	assert.Equal(t, int64(3), dump[0].Ranking)
	assert.Equal(t, BundleID("owner"), dump[0].Owner)
}
