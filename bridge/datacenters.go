// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bridge

import "github.com/hashicorp/consul/api"

// Datacenters is the strategy used to obtain a list of datacenters. Module
// provides one built from the *api.Client; Health and TTL do not consult
// it, and TTL check output carries only the check's Notes.
type Datacenters interface {
	Get() ([]string, error)
}

type catalogDatacenters struct {
	catalog *api.Catalog
}

func (cd catalogDatacenters) Get() ([]string, error) {
	return cd.catalog.Datacenters()
}

// NewDatacenters returns a Datacenters strategy backed by the client's
// Catalog.
func NewDatacenters(client *api.Client) Datacenters {
	return catalogDatacenters{catalog: client.Catalog()}
}
