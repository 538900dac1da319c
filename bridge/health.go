// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"sync"

	"github.com/hashicorp/consul/api"

	"github.com/xmidt-org/svcrt/depmgr"
)

var (
	// ErrNoSuchAgentServiceID is returned by SetService for an agent
	// service id Health has no checks registered for.
	ErrNoSuchAgentServiceID = errors.New("bridge: that agent service id is not registered")

	// ErrNoSuchCheckID is returned by GetCheck/SetCheck for an unknown
	// check id.
	ErrNoSuchCheckID = errors.New("bridge: that check id is not registered")
)

// HealthStatus enumerates the allowed health statuses for consul checks.
type HealthStatus int

const (
	HealthAny HealthStatus = iota - 1
	HealthPassing
	HealthWarning
	HealthCritical
	HealthMaint
)

// StatusText returns the consul health status string that should be
// passed to checks.
func (hs HealthStatus) StatusText() string {
	switch hs {
	case HealthPassing:
		return api.HealthPassing
	case HealthWarning:
		return api.HealthWarning
	case HealthCritical:
		return api.HealthCritical
	case HealthMaint:
		return api.HealthMaint
	default:
		return api.HealthCritical
	}
}

// FromHealthStatusText converts consul health status texts into
// HealthStatus values. Any unrecognized text results in HealthCritical.
func FromHealthStatusText(text string) HealthStatus {
	switch text {
	case api.HealthAny:
		return HealthAny
	case "pass", api.HealthPassing:
		return HealthPassing
	case "warn", api.HealthWarning:
		return HealthWarning
	case "fail", api.HealthCritical:
		return HealthCritical
	default:
		return HealthCritical
	}
}

// ComponentHealth maps a depmgr.ComponentState onto the HealthStatus this
// bridge pushes for that component's TTL check: passing while the
// component is actively tracking optional dependencies, warning while it
// is Instantiated (required dependencies satisfied but not yet started),
// and critical in every other state.
func ComponentHealth(s depmgr.ComponentState) HealthStatus {
	switch s {
	case depmgr.TrackingOptional:
		return HealthPassing
	case depmgr.Instantiated:
		return HealthWarning
	default:
		return HealthCritical
	}
}

// HealthState is the full state associated with a consul check.
type HealthState struct {
	// Status reflects the healthiness of the check. The default value
	// for this field is HealthPassing.
	Status HealthStatus

	// Notes contains optional, human-readable text associated with the
	// check. This field is reflected in the consul check API.
	Notes string
}

// Health holds health information for exported services. Implementations
// are safe for concurrent access.
//
// No overall or aggregate health state is kept. Each check's state is
// kept separately. Aggregating health into a single application or
// service state is left to clients.
type Health struct {
	lock     sync.RWMutex
	checks   map[CheckID]HealthState
	services map[string][]CheckID
}

// GetCheck returns the current health state for a check. If checkID is
// not registered, this method returns a critical HealthState along with
// ErrNoSuchCheckID.
func (h *Health) GetCheck(checkID CheckID) (HealthState, error) {
	defer h.lock.RUnlock()
	h.lock.RLock()

	state, exists := h.checks[checkID]
	if !exists {
		return HealthState{Status: HealthCritical}, ErrNoSuchCheckID
	}

	return state, nil
}

// Each applies a visitor function to every check's HealthState. The
// check's associated agent service id is passed, which means the same id
// may get passed more than once since a service may have multiple
// checks.
//
// The visitor function is executed under a read lock. Callers must take
// care not to block, otherwise health updates may get delayed.
func (h *Health) Each(f func(agentServiceID string, checkID CheckID, state HealthState)) {
	defer h.lock.RUnlock()
	h.lock.RLock()

	for agentServiceID, checkIDs := range h.services {
		for _, checkID := range checkIDs {
			f(agentServiceID, checkID, h.checks[checkID])
		}
	}
}

// Set causes all checks for all services to be set to the given state.
func (h *Health) Set(hs HealthState) {
	defer h.lock.Unlock()
	h.lock.Lock()

	for checkID := range h.checks {
		h.checks[checkID] = hs
	}
}

// SetService updates the health state for all checks associated with a
// given agent service id. This method returns ErrNoSuchAgentServiceID if
// agentServiceID was not registered.
func (h *Health) SetService(agentServiceID string, hs HealthState) error {
	defer h.lock.Unlock()
	h.lock.Lock()

	checkIDs, exists := h.services[agentServiceID]
	if !exists {
		return ErrNoSuchAgentServiceID
	}

	for _, checkID := range checkIDs {
		h.checks[checkID] = hs
	}

	return nil
}

// SetCheck updates a single check's state. This method returns
// ErrNoSuchCheckID if checkID was not registered.
func (h *Health) SetCheck(checkID CheckID, hs HealthState) error {
	defer h.lock.Unlock()
	h.lock.Lock()

	if _, exists := h.checks[checkID]; !exists {
		return ErrNoSuchCheckID
	}

	h.checks[checkID] = hs
	return nil
}

// NewHealth constructs an initial Health from a set of exports. The
// returned Health contains one initial HealthState per check. Services
// without checks are not accessible.
func NewHealth(se ServiceExports) *Health {
	h := &Health{
		checks:   make(map[CheckID]HealthState, se.Len()),
		services: make(map[string][]CheckID, se.Len()),
	}

	se.Each(func(agentServiceID string, export ServiceExport) {
		for _, check := range export.Checks {
			checkID := CheckID(check.CheckID)
			initial := HealthState{Notes: check.Notes}

			if len(check.Status) > 0 {
				initial.Status = FromHealthStatusText(check.Status)
				if initial.Status == HealthAny {
					initial.Status = HealthPassing
				}
			}

			h.checks[checkID] = initial
			h.services[agentServiceID] = append(h.services[agentServiceID], checkID)
		}
	})

	return h
}
