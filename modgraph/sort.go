// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package modgraph

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is an error when module dependency has a cycle.
var ErrCycle = errors.New("module dependency cycle")

// DependencyCycleError is error type for module dependency cycle.
// Units starts with the unit where the cycle was detected, and
// each unit requires a module provided by the next unit.
type DependencyCycleError struct {
	Units []string
}

func (e DependencyCycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(e.Units, " -> "))
}

func (e DependencyCycleError) Unwrap() error {
	return ErrCycle
}

// sortNode is a node of a Sort call.
type sortNode struct {
	unit       *Unit
	marked     bool
	tempMarked bool
}

type sorter struct {
	// nodes in batch order.
	nodes []*sortNode
	// finished nodes. reverse of the result.
	finished []*sortNode
}

// Sort returns units in batch ordered so that every unit providing
// a module comes before the units that require it.
//
// Only units that provide modules are used as roots of depth first
// search. Units that don't provide modules and don't require modules
// provided in batch are placed at the end in batch order.
// Unrelated units keep batch order, so the result is deterministic
// for the same graph and batch.
//
// It returns DependencyCycleError if modules depend on each other.
func Sort(g *Graph, batch []string) ([]string, error) {
	s := &sorter{}
	seen := make(map[*Unit]bool)
	for _, out := range batch {
		u, ok := g.Unit(out)
		if !ok || seen[u] {
			continue
		}
		seen[u] = true
		s.nodes = append(s.nodes, &sortNode{unit: u})
	}
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]
		if n.marked || len(n.unit.Provides) == 0 {
			continue
		}
		err := s.visit(n)
		if err != nil {
			return nil, err
		}
	}
	order := make([]string, 0, len(s.nodes))
	for _, n := range slices.Backward(s.finished) {
		order = append(order, n.unit.PrimaryOutput)
	}
	for _, n := range s.nodes {
		if !n.marked {
			order = append(order, n.unit.PrimaryOutput)
		}
	}
	return order, nil
}

func (s *sorter) visit(n *sortNode) error {
	if n.marked {
		return nil
	}
	if n.tempMarked {
		return DependencyCycleError{Units: []string{n.unit.PrimaryOutput}}
	}
	n.tempMarked = true
	for _, m := range s.requirers(n) {
		err := s.visit(m)
		if err != nil {
			var cycleErr DependencyCycleError
			if errors.As(err, &cycleErr) {
				if len(cycleErr.Units) <= 1 || cycleErr.Units[0] != cycleErr.Units[len(cycleErr.Units)-1] {
					cycleErr.Units = append(cycleErr.Units, n.unit.PrimaryOutput)
				}
				return cycleErr
			}
			return err
		}
	}
	n.tempMarked = false
	n.marked = true
	s.finished = append(s.finished, n)
	return nil
}

// requirers returns other nodes that require modules provided by n,
// in reverse batch order.
func (s *sorter) requirers(n *sortNode) []*sortNode {
	var nodes []*sortNode
	for i := len(s.nodes) - 1; i >= 0; i-- {
		m := s.nodes[i]
		if m == n || m.marked {
			continue
		}
		for _, p := range n.unit.Provides {
			if m.unit.RequiresName(p.LogicalName) {
				nodes = append(nodes, m)
				break
			}
		}
	}
	return nodes
}

// Levels groups sorted units into levels. Units in the same level
// don't depend on each other, so they can be compiled in parallel
// once all units in previous levels are compiled.
func Levels(g *Graph, order []string) [][]string {
	level := make(map[string]int, len(order))
	var levels [][]string
	for _, out := range order {
		l := 0
		for _, dep := range g.Deps(out) {
			dl, ok := level[dep]
			if !ok {
				continue
			}
			l = max(l, dl+1)
		}
		level[out] = l
		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], out)
	}
	return levels
}
