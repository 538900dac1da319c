// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package registry

import "github.com/xmidt-org/svcrt/properties"

// ServiceReference is a stable, comparable handle to a service registration.
// Two references compare equal with == if and only if they name the same
// service_id (invariant 3); a reference is safe to store in a map key or a
// slice and to compare long after its registration has been unregistered.
type ServiceReference struct {
	r *registration
}

// ServiceID returns the referenced registration's identity. It remains
// valid even after the registration is unregistered.
func (ref ServiceReference) ServiceID() ServiceID {
	if ref.r == nil {
		return 0
	}

	return ref.r.id
}

// IsAlive reports whether the referenced registration is still REGISTERED.
// A false result means get_service will fail with KindIllegalState.
func (ref ServiceReference) IsAlive() bool {
	return ref.r != nil && ref.r.isAlive()
}

// Properties returns the registration's current properties snapshot, or an
// empty Properties for a zero-value reference.
func (ref ServiceReference) Properties() properties.Properties {
	if ref.r == nil {
		return properties.Properties{}
	}

	return ref.r.currentProps()
}

// Ranking returns the registration's current service.ranking.
func (ref ServiceReference) Ranking() int64 {
	if ref.r == nil {
		return 0
	}

	return ref.r.currentRanking()
}

// Names returns the service names the registration was published under.
func (ref ServiceReference) Names() []string {
	if ref.r == nil {
		return nil
	}

	return append([]string(nil), ref.r.names...)
}

// Owner returns the bundle that registered the service.
func (ref ServiceReference) Owner() BundleID {
	if ref.r == nil {
		return ""
	}

	return ref.r.owner
}

// Compare orders two references by the rank order used throughout this
// package: higher service.ranking first, ties broken by lower service_id
// first. It returns a negative number if ref sorts before other, zero if
// they name the same registration, and positive otherwise.
func (ref ServiceReference) Compare(other ServiceReference) int {
	if ref.r == other.r {
		return 0
	}

	ar, br := ref.Ranking(), other.Ranking()
	switch {
	case ar > br:
		return -1
	case ar < br:
		return 1
	}

	ai, bi := ref.ServiceID(), other.ServiceID()
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}

// ServiceRegistration is the owner-side handle returned by Register. Unlike
// ServiceReference, it grants the right to mutate or remove the service.
type ServiceRegistration struct {
	r *registration
}

// Reference returns the reference form of this registration, for handing to
// other bundles or storing in a tracker/listener's own bookkeeping.
func (reg *ServiceRegistration) Reference() ServiceReference {
	return ServiceReference{r: reg.r}
}

// ServiceID returns the registration's identity.
func (reg *ServiceRegistration) ServiceID() ServiceID {
	return reg.r.id
}

// Properties returns the registration's current properties snapshot.
func (reg *ServiceRegistration) Properties() properties.Properties {
	return reg.r.currentProps()
}

// Names returns the service names this registration was published under.
func (reg *ServiceRegistration) Names() []string {
	return append([]string(nil), reg.r.names...)
}
