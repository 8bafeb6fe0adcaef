// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"context"
	"fmt"

	"go.chromium.org/infra/build/modscan/modgraph"
	"go.chromium.org/infra/build/modscan/toolsupport/p1689util"
)

// BatchPlan is a compile plan of a build scope's batch.
type BatchPlan struct {
	Scope        string `json:"scope"`
	BMIExtension string `json:"bmi_extension"`

	// Order is primary outputs in compile order.
	Order []string `json:"order"`

	// Levels groups Order into units that can be compiled in parallel.
	Levels [][]string `json:"levels"`

	// StdHeaderUnits should be built before UserHeaderUnits.
	StdHeaderUnits  []modgraph.HeaderUnit `json:"std_header_units,omitempty"`
	UserHeaderUnits []modgraph.HeaderUnit `json:"user_header_units,omitempty"`

	// Artifacts maps primary output to the artifact path of each
	// logical name it provides.
	Artifacts map[string]map[string]string `json:"artifacts,omitempty"`
}

// Plan returns the compile plan of the scope's batch.
func (p *Planner) Plan(ctx context.Context, scope Scope) (*BatchPlan, error) {
	g, err := p.Generate(ctx, scope)
	if err != nil {
		return nil, err
	}
	a, err := p.selector.Select(ctx, scope)
	if err != nil {
		return nil, err
	}
	batch := Batch(scope)
	order, err := modgraph.Sort(g, batch)
	if err != nil {
		return nil, fmt.Errorf("scope %s: %w", scope.Name(), err)
	}
	plan := &BatchPlan{
		Scope:        scope.Name(),
		BMIExtension: a.BMIExtension(),
		Order:        order,
		Levels:       modgraph.Levels(g, order),
	}
	plan.StdHeaderUnits, plan.UserHeaderUnits = modgraph.HeaderUnits(g, batch)
	for _, out := range order {
		u, ok := g.Unit(out)
		if !ok {
			continue
		}
		artifacts := u.Artifacts()
		if len(artifacts) == 0 {
			continue
		}
		if plan.Artifacts == nil {
			plan.Artifacts = make(map[string]map[string]string)
		}
		plan.Artifacts[out] = artifacts
	}
	return plan, nil
}

// Batch returns primary outputs of the scope's sources in order.
func Batch(scope Scope) []string {
	var batch []string
	for _, src := range scope.Sources() {
		batch = append(batch, p1689util.CanonicalPath(scope.ObjectFile(src)))
	}
	return batch
}
