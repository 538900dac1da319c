// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"github.com/xmidt-org/svcrt/registry"
)

// Translator turns one core registry registration into Consul-specific
// export metadata. It returns ok=false to skip a registration that isn't
// meant to be mirrored externally (most registrations in a process are
// purely in-process collaborators with no Consul-visible counterpart).
type Translator func(registry.RegistrationSnapshot) (export ServiceExport, ok bool)

// BuildExports snapshots reg and runs every live registration through
// translate, returning the resulting bundle. Call this once at startup
// (or on a poll interval) and feed the result to NewAgentRegistrar — this
// package mirrors the registry's state into Consul as an external
// snapshot, the same way the core registry itself never persists state
// across restarts (SPEC_FULL §4): on restart, the bridge simply rebuilds
// its export bundle from whatever is live in the registry at that moment.
func BuildExports(reg *registry.ServiceRegistry, translate Translator) (ServiceExports, error) {
	var candidates []ServiceExport

	for _, snap := range reg.Dump() {
		if export, ok := translate(snap); ok {
			candidates = append(candidates, export)
		}
	}

	return NewServiceExports(candidates...)
}
