// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package depmgr

//go:generate stringer -type=ComponentState -linecomment

// ComponentState is a Component's position in the state machine described
// in spec.md §4.4. Transitions are driven entirely by the DependencyManager
// in response to its dependencies' trackers; user code never sets this
// directly.
type ComponentState int

const (
	// Inactive means the component has not been added to a manager.
	Inactive ComponentState = iota // inactive

	// WaitingForRequired means at least one required dependency is
	// unsatisfied. Entered by ensuring every dependency's tracker is open.
	WaitingForRequired // waiting_for_required

	// Instantiated means every required dependency is satisfied and Init
	// has run, but Start has not yet.
	Instantiated // instantiated

	// TrackingOptional means Start has run and optional dependencies are
	// being delivered to the component's Add/Set callbacks as they change.
	TrackingOptional // tracking_optional

	// Stopping means the manager is tearing the component down: Remove/Set(nil)
	// for each tracked service, then Stop, then Deinit.
	Stopping // stopping
)
