// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownEndpoint is returned by Describe for a name that is not registered.
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// Catalog is an immutable, ordered registry of endpoint descriptors.
type Catalog struct {
	byName map[string]Descriptor
	names  []string
}

// New builds a catalog from descriptors, preserving their order.
// Every descriptor is validated and names must be unique.
func New(descs ...Descriptor) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]Descriptor, len(descs)),
		names:  make([]string, 0, len(descs)),
	}
	for i := range descs {
		d := descs[i]
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate endpoint %q", d.Name)
		}
		c.byName[d.Name] = d
		c.names = append(c.names, d.Name)
	}
	return c, nil
}

// MustNew is like New but panics on an invalid descriptor set.
func MustNew(descs ...Descriptor) *Catalog {
	c, err := New(descs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the catalog of all supported Oura endpoints.
func Default() *Catalog {
	return MustNew(ouraEndpoints()...)
}

// Describe returns the descriptor registered under name.
func (c *Catalog) Describe(name string) (Descriptor, error) {
	d, ok := c.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownEndpoint, name)
	}
	return d, nil
}

// Names returns every registered endpoint name in registration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// All returns every descriptor in registration order.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.byName[n])
	}
	return out
}

// Len returns the number of registered endpoints.
func (c *Catalog) Len() int {
	return len(c.names)
}
