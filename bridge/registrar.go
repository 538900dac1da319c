// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/consul/api"
	"github.com/xmidt-org/retry"
	"go.uber.org/fx"
	"go.uber.org/multierr"
)

var (
	// ErrRegistered is returned by Register on a Registrar that already
	// has its exports registered.
	ErrRegistered = errors.New("bridge: registrar already registered")

	// ErrUnregistered is returned by Deregister on a Registrar with
	// nothing currently registered.
	ErrUnregistered = errors.New("bridge: registrar has no services registered")
)

// RegistrarEventType identifies the kind of Registrar event.
type RegistrarEventType int

const (
	// EventRegister results from a Registrar.Register call.
	EventRegister RegistrarEventType = iota

	// EventDeregister results from a Registrar.Deregister call.
	EventDeregister
)

// RegistrarEvent holds information about the state of a Registrar.
type RegistrarEvent struct {
	Type RegistrarEventType

	// Exports is the bundle of exports known to the Registrar that sent
	// this event.
	Exports ServiceExports

	// Registered holds the agent service ids that should be considered
	// registered with consul. If Type is EventDeregister, this is empty.
	Registered []string

	// Err is any error that occurred that halted the previous operation.
	Err error
}

// RegistrarListener is a sink for RegistrarEvents.
type RegistrarListener interface {
	OnRegistrarEvent(RegistrarEvent)
}

// AgentRegisterer is the strategy for registering a service with a consul
// Agent. The *api.Agent type implements this interface.
type AgentRegisterer interface {
	ServiceRegisterOpts(*api.AgentServiceRegistration, api.ServiceRegisterOpts) error
	ServiceDeregisterOpts(string, *api.QueryOptions) error
}

// Registrar is implemented by components responsible for mirroring the
// core registry's exported services into Consul and for dispatching
// events so other parts of an application can react.
type Registrar interface {
	// Register handles registration for every export. This method
	// blocks until every registration is complete or there is an
	// error. If this method returns an error, Deregister should be
	// called to clean up any exports that successfully registered.
	//
	// This method is idempotent: calling it while already registered
	// returns ErrRegistered.
	Register() error

	// Deregister handles deregistering every export. This method always
	// deregisters everything known to be registered, regardless of
	// errors. The returned error is an aggregate of any errors that
	// occurred.
	//
	// This method is idempotent: calling it before a corresponding
	// Register call returns ErrUnregistered.
	Deregister() error

	// AddListener adds l, which immediately receives a RegistrarEvent
	// reflecting the current state.
	AddListener(RegistrarListener)

	// RemoveListener removes l.
	RemoveListener(RegistrarListener)
}

const (
	registrarStateUnregistered uint32 = iota
	registrarStateRegistered
)

type agentRegistrar struct {
	registerer AgentRegisterer
	rcfg       retry.Config
	exports    ServiceExports

	lock      sync.Mutex
	state     atomic.Uint32
	lastEvent RegistrarEvent
	listeners []RegistrarListener
}

func (ar *agentRegistrar) registerTask(export ServiceExport) retry.Task[bool] {
	return func(ctx context.Context) (bool, error) {
		return true, ar.registerer.ServiceRegisterOpts(
			export.asAgentServiceRegistration(),
			export.RegisterOptions.WithContext(ctx),
		)
	}
}

func (ar *agentRegistrar) Register() error {
	if ar.state.Load() == registrarStateRegistered {
		return ErrRegistered
	}

	defer ar.lock.Unlock()
	ar.lock.Lock()

	if !ar.state.CompareAndSwap(registrarStateUnregistered, registrarStateRegistered) {
		return ErrRegistered
	}

	runner, err := retry.NewRunner(
		retry.WithPolicyFactory[bool](ar.rcfg),
	)

	if err != nil {
		return err
	}

	ar.lastEvent = RegistrarEvent{
		Type:       EventRegister,
		Exports:    ar.exports,
		Registered: make([]string, 0, ar.exports.Len()),
	}

	ar.exports.Each(func(agentServiceID string, export ServiceExport) {
		if _, taskErr := runner.Run(context.Background(), ar.registerTask(export)); taskErr == nil {
			ar.lastEvent.Registered = append(ar.lastEvent.Registered, agentServiceID)
		} else {
			ar.lastEvent.Err = multierr.Append(ar.lastEvent.Err, taskErr)
		}
	})

	for _, l := range ar.listeners {
		l.OnRegistrarEvent(ar.lastEvent)
	}

	return ar.lastEvent.Err
}

func (ar *agentRegistrar) Deregister() error {
	if ar.state.Load() == registrarStateUnregistered {
		return ErrUnregistered
	}

	defer ar.lock.Unlock()
	ar.lock.Lock()

	if !ar.state.CompareAndSwap(registrarStateRegistered, registrarStateUnregistered) {
		return ErrUnregistered
	}

	registered := ar.lastEvent.Registered
	ar.lastEvent = RegistrarEvent{
		Type:       EventDeregister,
		Exports:    ar.exports,
		Registered: nil,
	}

	for _, agentServiceID := range registered {
		export, _ := ar.exports.Get(agentServiceID)
		opts := export.DeregisterOptions

		ar.lastEvent.Err = multierr.Append(
			ar.lastEvent.Err,
			ar.registerer.ServiceDeregisterOpts(agentServiceID, &opts),
		)
	}

	for _, l := range ar.listeners {
		l.OnRegistrarEvent(ar.lastEvent)
	}

	return ar.lastEvent.Err
}

func (ar *agentRegistrar) AddListener(l RegistrarListener) {
	defer ar.lock.Unlock()
	ar.lock.Lock()

	ar.listeners = append(ar.listeners, l)
	l.OnRegistrarEvent(ar.lastEvent)
}

func (ar *agentRegistrar) RemoveListener(l RegistrarListener) {
	defer ar.lock.Unlock()
	ar.lock.Lock()

	last := len(ar.listeners) - 1
	for i := 0; i <= last; i++ {
		if ar.listeners[i] == l {
			ar.listeners[i] = ar.listeners[last]
			ar.listeners[last] = nil
			ar.listeners = ar.listeners[:last]
			return
		}
	}
}

// NewAgentRegistrar creates a Registrar that uses the consul agent to
// register exports. The given retry configuration is used to continue
// retrying registration according to a policy.
func NewAgentRegistrar(ar AgentRegisterer, rcfg retry.Config, exports ServiceExports) Registrar {
	return &agentRegistrar{
		registerer: ar,
		rcfg:       rcfg,
		exports:    exports,
		lastEvent: RegistrarEvent{
			Type:       EventDeregister,
			Exports:    exports,
			Registered: nil,
		},
	}
}

// BindRegistrar binds r to the enclosing application's lifecycle. On
// startup, Register is called. On shutdown, Deregister is called. If
// there is an error on startup, Deregister is also invoked for cleanup.
func BindRegistrar(r Registrar, lc fx.Lifecycle) {
	lc.Append(fx.StartStopHook(
		func() error {
			go func() {
				if err := r.Register(); err != nil {
					r.Deregister()
				}
			}()

			return nil
		},
		r.Deregister,
	))
}
