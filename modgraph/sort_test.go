// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package modgraph

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/modscan/toolsupport/p1689util"
)

type testUnit struct {
	out      string
	provides []string
	requires []string
}

func testGraph(t *testing.T, units ...testUnit) (*Graph, []string) {
	t.Helper()
	doc := &p1689util.Document{Version: 1}
	var batch []string
	for _, u := range units {
		r := p1689util.Rule{PrimaryOutput: u.out}
		for _, p := range u.provides {
			r.Provides = append(r.Provides, p1689util.Provide{LogicalName: p})
		}
		for _, req := range u.requires {
			r.Requires = append(r.Requires, p1689util.Require{LogicalName: req})
		}
		doc.Rules = append(doc.Rules, r)
		batch = append(batch, u.out)
	}
	g, err := Build([]*p1689util.Document{doc}, Options{CacheDir: "/out", BMIExtension: ".pcm", Dir: "/src"})
	if err != nil {
		t.Fatal(err)
	}
	return g, batch
}

// checkOrder checks every provider comes before the units requiring it.
func checkOrder(t *testing.T, g *Graph, order []string) {
	t.Helper()
	index := make(map[string]int)
	for i, out := range order {
		index[out] = i
	}
	for _, out := range order {
		for _, dep := range g.Deps(out) {
			di, ok := index[dep]
			if !ok {
				continue
			}
			if di >= index[out] {
				t.Errorf("%s (index %d) requires %s (index %d): order=%q", out, index[out], dep, di, order)
			}
		}
	}
}

func TestSort(t *testing.T) {
	for _, tc := range []struct {
		name  string
		units []testUnit
		want  []string
	}{
		{
			name: "hello",
			units: []testUnit{
				{out: "main.o", requires: []string{"hello"}},
				{out: "hello.o", provides: []string{"hello"}},
			},
			want: []string{"hello.o", "main.o"},
		},
		{
			name: "chain",
			units: []testUnit{
				{out: "main.o", requires: []string{"c"}},
				{out: "c.o", provides: []string{"c"}, requires: []string{"b"}},
				{out: "b.o", provides: []string{"b"}, requires: []string{"a"}},
				{out: "a.o", provides: []string{"a"}},
			},
			want: []string{"a.o", "b.o", "c.o", "main.o"},
		},
		{
			name: "partitions",
			units: []testUnit{
				{out: "m.o", provides: []string{"m"}, requires: []string{"m:a", "m:b"}},
				{out: "m-a.o", provides: []string{"m:a"}},
				{out: "m-b.o", provides: []string{"m:b"}, requires: []string{"m:a"}},
				{out: "user.o", requires: []string{"m"}},
			},
			want: []string{"m-a.o", "m-b.o", "m.o", "user.o"},
		},
		{
			name: "independent-keeps-batch-order",
			units: []testUnit{
				{out: "x.o", provides: []string{"x"}},
				{out: "y.o", provides: []string{"y"}},
				{out: "z.o", provides: []string{"z"}},
			},
			want: []string{"x.o", "y.o", "z.o"},
		},
		{
			name: "pure-consumers-at-end",
			units: []testUnit{
				{out: "tool.o", requires: []string{"external"}},
				{out: "lib.o", provides: []string{"lib"}},
				{out: "other.o"},
			},
			want: []string{"lib.o", "tool.o", "other.o"},
		},
		{
			name: "diamond",
			units: []testUnit{
				{out: "top.o", provides: []string{"top"}, requires: []string{"left", "right"}},
				{out: "left.o", provides: []string{"left"}, requires: []string{"base"}},
				{out: "right.o", provides: []string{"right"}, requires: []string{"base"}},
				{out: "base.o", provides: []string{"base"}},
			},
			want: []string{"base.o", "left.o", "right.o", "top.o"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g, batch := testGraph(t, tc.units...)
			got, err := Sort(g, batch)
			if err != nil {
				t.Fatalf("Sort(...)=_, %v; want nil err", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Sort(...) diff -want +got:\n%s", diff)
			}
			checkOrder(t, g, got)
		})
	}
}

func TestSort_Cycle(t *testing.T) {
	g, batch := testGraph(t,
		testUnit{out: "a.o", provides: []string{"X"}, requires: []string{"Y"}},
		testUnit{out: "b.o", provides: []string{"Y"}, requires: []string{"X"}},
	)
	got, err := Sort(g, batch)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("Sort(cycle)=%q, %v; want %v", got, err, ErrCycle)
	}
	if got != nil {
		t.Errorf("Sort(cycle)=%q; want nil (no partial order)", got)
	}
	var cycleErr DependencyCycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Sort(cycle) err=%T; want DependencyCycleError", err)
	}
	want := []string{"b.o", "a.o", "b.o"}
	if diff := cmp.Diff(want, cycleErr.Units); diff != "" {
		t.Errorf("cycle units diff -want +got:\n%s", diff)
	}
}

func TestSort_Deterministic(t *testing.T) {
	var units []testUnit
	for i := range 30 {
		u := testUnit{
			out:      fmt.Sprintf("u%02d.o", i),
			provides: []string{fmt.Sprintf("m%02d", i)},
		}
		for j := 0; j < i; j += 3 + i%4 {
			u.requires = append(u.requires, fmt.Sprintf("m%02d", j))
		}
		units = append(units, u)
	}
	r := rand.New(rand.NewSource(1))
	r.Shuffle(len(units), func(i, j int) { units[i], units[j] = units[j], units[i] })
	g, batch := testGraph(t, units...)

	first, err := Sort(g, batch)
	if err != nil {
		t.Fatal(err)
	}
	checkOrder(t, g, first)
	if len(first) != len(batch) {
		t.Errorf("Sort returns %d units; want %d", len(first), len(batch))
	}
	for range 5 {
		again, err := Sort(g, batch)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Errorf("Sort is not deterministic. diff -first +again:\n%s", diff)
		}
	}
}

func TestSort_SubsetBatch(t *testing.T) {
	g, _ := testGraph(t,
		testUnit{out: "a.o", provides: []string{"a"}},
		testUnit{out: "b.o", provides: []string{"b"}, requires: []string{"a"}},
		testUnit{out: "c.o", requires: []string{"b"}},
	)
	got, err := Sort(g, []string{"c.o", "b.o", "missing.o"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b.o", "c.o"}, got); diff != "" {
		t.Errorf("Sort(subset) diff -want +got:\n%s", diff)
	}
}

func TestLevels(t *testing.T) {
	g, batch := testGraph(t,
		testUnit{out: "top.o", provides: []string{"top"}, requires: []string{"left", "right"}},
		testUnit{out: "left.o", provides: []string{"left"}, requires: []string{"base"}},
		testUnit{out: "right.o", provides: []string{"right"}, requires: []string{"base"}},
		testUnit{out: "base.o", provides: []string{"base"}},
		testUnit{out: "main.o", requires: []string{"top"}},
		testUnit{out: "misc.o"},
	)
	order, err := Sort(g, batch)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"base.o", "misc.o"},
		{"left.o", "right.o"},
		{"top.o"},
		{"main.o"},
	}
	if diff := cmp.Diff(want, Levels(g, order)); diff != "" {
		t.Errorf("Levels diff -want +got:\n%s", diff)
	}
}
