// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"

	"github.com/hashicorp/consul/api"
	"go.uber.org/multierr"

	"github.com/xmidt-org/svcrt/registry"
)

// CheckID is the type alias for a service check's unique identifier.
type CheckID string

// ServiceExport holds the Consul-specific registration metadata for one
// core registry registration a bundle has opted into exporting. The core
// registry's Properties carry nothing Consul-specific (port, address,
// health checks), so a bundle supplies this alongside the ServiceID it
// wants mirrored.
type ServiceExport struct {
	// ServiceID identifies the core registry registration this export
	// describes.
	ServiceID registry.ServiceID

	ID                string                        `json:"id" yaml:"id"`
	Name              string                        `json:"name" yaml:"name"`
	Tags              []string                      `json:"tags" yaml:"tags"`
	Port              int                           `json:"port" yaml:"port"`
	Address           string                        `json:"address" yaml:"address"`
	SocketPath        string                        `json:"socketPath" yaml:"socketPath"`
	TaggedAddresses   map[string]api.ServiceAddress `json:"taggedAddresses" yaml:"taggedAddresses"`
	EnableTagOverride bool                          `json:"enableTagOverride" yaml:"enableTagOverride"`
	Meta              map[string]string             `json:"meta" yaml:"meta"`
	Checks            []api.AgentServiceCheck       `json:"checks" yaml:"checks"`

	Namespace string        `json:"namespace" yaml:"namespace"`
	Partition string        `json:"partition" yaml:"partition"`
	Locality  *api.Locality `json:"locality" yaml:"locality"`

	RegisterOptions   api.ServiceRegisterOpts `json:"registerOptions" yaml:"registerOptions"`
	DeregisterOptions api.QueryOptions        `json:"deregisterOptions" yaml:"deregisterOptions"`
}

func (se ServiceExport) agentServiceID() string {
	if len(se.ID) > 0 {
		return se.ID
	}

	return fmt.Sprintf("svcrt-%d", se.ServiceID)
}

func (se ServiceExport) asAgentServiceRegistration() (asr *api.AgentServiceRegistration) {
	asr = &api.AgentServiceRegistration{
		ID:                se.agentServiceID(),
		Name:              se.Name,
		Tags:              se.Tags,
		Port:              se.Port,
		Address:           se.Address,
		SocketPath:        se.SocketPath,
		TaggedAddresses:   se.TaggedAddresses,
		Meta:              se.Meta,
		EnableTagOverride: se.EnableTagOverride,
		Namespace:         se.Namespace,
		Partition:         se.Partition,
		Locality:          se.Locality,
	}

	if len(se.Checks) > 0 {
		asr.Checks = make(api.AgentServiceChecks, len(se.Checks))
		for i := range asr.Checks {
			asr.Checks[i] = new(api.AgentServiceCheck)
			*asr.Checks[i] = se.Checks[i]
		}
	}

	return
}

// ServiceExports is an immutable bundle of ServiceExport objects, keyed by
// the agent service id each will be registered under.
type ServiceExports struct {
	exports map[string]ServiceExport
}

// Len returns the number of exports contained in this bundle.
func (se ServiceExports) Len() int {
	return len(se.exports)
}

// Each applies a visitor function to each export. The visitor must not
// retain or modify the ServiceExport.
func (se ServiceExports) Each(f func(agentServiceID string, export ServiceExport)) {
	for id, export := range se.exports {
		f(id, export)
	}
}

// EachCheck applies a visitor function to every check across every export.
func (se ServiceExports) EachCheck(f func(agentServiceID string, checkID CheckID, check api.AgentServiceCheck)) {
	for id, export := range se.exports {
		for _, check := range export.Checks {
			f(id, CheckID(check.CheckID), check)
		}
	}
}

// Get returns the export registered under agentServiceID, if any.
func (se ServiceExports) Get(agentServiceID string) (ServiceExport, bool) {
	export, ok := se.exports[agentServiceID]
	return export, ok
}

// NewServiceExports produces an immutable bundle of exports. Basic
// validation is performed: every export needs a name, agent service ids
// must be unique, and checks missing identifiers have a predictable,
// unique id assigned.
func NewServiceExports(exports ...ServiceExport) (se ServiceExports, err error) {
	checks := make(map[CheckID]bool, len(exports))
	se = ServiceExports{exports: make(map[string]ServiceExport, len(exports))}

	for i, export := range exports {
		if len(export.Name) == 0 {
			err = multierr.Append(err, fmt.Errorf("no service name for export #%d", i))
			continue
		}

		agentServiceID := export.agentServiceID()
		if _, exists := se.exports[agentServiceID]; exists {
			err = multierr.Append(err, fmt.Errorf("duplicate agent service id: %s", agentServiceID))
			continue
		}

		for j, check := range export.Checks {
			if len(check.CheckID) == 0 {
				check.CheckID = fmt.Sprintf("%s:check-%d", agentServiceID, j)
				export.Checks[j] = check
			}

			checkID := CheckID(check.CheckID)
			if checks[checkID] {
				err = multierr.Append(err, fmt.Errorf("duplicate check id: %s", checkID))
			} else {
				checks[checkID] = true
			}
		}

		se.exports[agentServiceID] = export
	}

	return
}
