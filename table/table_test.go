// Copyright (c) 2024 Rishabh Parekh
// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

package table

import (
	"strconv"
	"testing"
)

func uniformWeights(hosts ...string) []HostWeight[string] {
	w := make([]HostWeight[string], len(hosts))
	each := 1.0 / float64(len(hosts))
	for i, h := range hosts {
		w[i] = HostWeight[string]{Host: h, Weight: each}
	}
	return w
}

func TestNewUniformModeSelection(t *testing.T) {
	tbl := New(uniformWeights("a", "b", "c"), DefaultConfig())
	if tbl.mode != Uniform {
		t.Fatalf("mode = %v, want Uniform", tbl.mode)
	}
	if got := tbl.Stats().PhysicalHosts; got != 3 {
		t.Errorf("PhysicalHosts = %d, want 3", got)
	}
}

func TestNewWeightedModeSelection(t *testing.T) {
	weights := []HostWeight[string]{
		{Host: "a", Weight: 0.7},
		{Host: "b", Weight: 0.3},
	}
	tbl := New(weights, DefaultConfig())
	if tbl.mode != Weighted {
		t.Fatalf("mode = %v, want Weighted", tbl.mode)
	}
	stats := tbl.Stats()
	if stats.PhysicalHosts != 2 {
		t.Errorf("PhysicalHosts = %d, want 2", stats.PhysicalHosts)
	}
	if stats.VirtualNodes <= stats.PhysicalHosts {
		t.Errorf("VirtualNodes = %d, want > PhysicalHosts (%d)", stats.VirtualNodes, stats.PhysicalHosts)
	}
}

func TestChooseHostTotalityUniform(t *testing.T) {
	tbl := New(uniformWeights("a", "b", "c", "d", "e"), DefaultConfig())
	seen := make(map[string]bool)
	for i := 0; i < 5000; i++ {
		host, ok := tbl.ChooseHost(uint64(i)*2654435761, 0)
		if !ok {
			t.Fatalf("ChooseHost(%d) returned ok=false", i)
		}
		seen[host] = true
	}
	if len(seen) != 5 {
		t.Errorf("distinct hosts chosen = %d, want 5", len(seen))
	}
}

func TestChooseHostTotalityWeighted(t *testing.T) {
	weights := []HostWeight[string]{
		{Host: "a", Weight: 0.5},
		{Host: "b", Weight: 0.3},
		{Host: "c", Weight: 0.2},
	}
	tbl := New(weights, DefaultConfig())
	counts := make(map[string]int)
	const n = 20000
	for i := 0; i < n; i++ {
		host, ok := tbl.ChooseHost(uint64(i)*2654435761+1, 0)
		if !ok {
			t.Fatalf("ChooseHost(%d) returned ok=false", i)
		}
		counts[host]++
	}
	if len(counts) != 3 {
		t.Fatalf("distinct hosts chosen = %d, want 3", len(counts))
	}
	// "a" should get roughly the largest share. Loose bound: tolerate skew,
	// just assert directional ordering holds.
	if counts["a"] < counts["b"] || counts["b"] < counts["c"] {
		t.Errorf("counts not proportional to weight: a=%d b=%d c=%d", counts["a"], counts["b"], counts["c"])
	}
}

func TestUpdateUniformAddStability(t *testing.T) {
	tbl := New(uniformWeights("a", "b", "c"), DefaultConfig())

	before := make(map[int]string)
	const n = 3000
	for i := 0; i < n; i++ {
		host, _ := tbl.ChooseHost(uint64(i), 0)
		before[i] = host
	}

	tbl.Update(uniformWeights("a", "b", "c", "d"))

	changed := 0
	for i := 0; i < n; i++ {
		host, ok := tbl.ChooseHost(uint64(i), 0)
		if !ok {
			t.Fatalf("ChooseHost(%d) returned ok=false after update", i)
		}
		if host != before[i] {
			changed++
			if host != "d" {
				t.Errorf("ChooseHost(%d) moved from %q to %q, want moves only onto the new host d", i, before[i], host)
			}
		}
	}
	if changed == 0 {
		t.Errorf("adding a host changed no mappings, want some to move to the new host")
	}
	if changed > n {
		t.Errorf("changed = %d exceeds total requests %d", changed, n)
	}
}

func TestUpdateModeSwitchFromUniformToWeighted(t *testing.T) {
	tbl := New(uniformWeights("a", "b"), DefaultConfig())
	if tbl.mode != Uniform {
		t.Fatalf("mode = %v, want Uniform", tbl.mode)
	}

	tbl.Update([]HostWeight[string]{
		{Host: "a", Weight: 0.9},
		{Host: "b", Weight: 0.1},
	})
	if tbl.mode != Weighted {
		t.Fatalf("mode after update = %v, want Weighted", tbl.mode)
	}
	host, ok := tbl.ChooseHost(123456, 0)
	if !ok {
		t.Fatalf("ChooseHost returned ok=false after mode switch")
	}
	if host != "a" && host != "b" {
		t.Errorf("ChooseHost returned unexpected host %q", host)
	}
}

func TestChooseHostAttemptVariesBucket(t *testing.T) {
	tbl := New(uniformWeights("a", "b", "c", "d", "e", "f", "g", "h"), DefaultConfig())
	hostsByAttempt := make(map[uint32]string)
	for attempt := uint32(0); attempt < 4; attempt++ {
		host, ok := tbl.ChooseHost(42, attempt)
		if !ok {
			t.Fatalf("ChooseHost attempt %d returned ok=false", attempt)
		}
		hostsByAttempt[attempt] = host
	}
	distinct := make(map[string]bool)
	for _, host := range hostsByAttempt {
		distinct[host] = true
	}
	if len(distinct) < 2 {
		t.Errorf("attempts 0..3 all chose %q, want the attempt to change the pick", hostsByAttempt[0])
	}
	// Attempt 0 must be reproducible.
	host0a, _ := tbl.ChooseHost(42, 0)
	if host0a != hostsByAttempt[0] {
		t.Errorf("ChooseHost(42, 0) not deterministic across calls")
	}
}

func TestWeightedUpdateRemovesHostVNodes(t *testing.T) {
	weights := []HostWeight[string]{
		{Host: "a", Weight: 0.5},
		{Host: "b", Weight: 0.3},
		{Host: "c", Weight: 0.2},
	}
	tbl := New(weights, DefaultConfig())

	// a and c keep unequal weights, so the table stays in weighted mode and
	// b's virtual nodes are removed incrementally.
	tbl.Update([]HostWeight[string]{
		{Host: "a", Weight: 0.5},
		{Host: "c", Weight: 0.2},
	})

	for i := 0; i < 2000; i++ {
		host, ok := tbl.ChooseHost(uint64(i)*31+7, 0)
		if !ok {
			t.Fatalf("ChooseHost(%d) returned ok=false", i)
		}
		if host == "b" {
			t.Fatalf("ChooseHost(%d) = %q, want only \"a\" or \"c\" to remain", i, host)
		}
	}
}

// TestWeightedUpdateStability covers the pure-addition scenario: adding
// a new weighted host without changing any existing host's weight leaves
// every existing host's virtual-node count untouched, so keys already
// mapped to one of them must not move.
func TestWeightedUpdateStability(t *testing.T) {
	weights := []HostWeight[string]{
		{Host: "a", Weight: 0.5},
		{Host: "b", Weight: 0.3},
	}
	tbl := New(weights, DefaultConfig())

	const n = 4000
	before := make(map[int]string, n)
	for i := 0; i < n; i++ {
		host, _ := tbl.ChooseHost(uint64(i)*104729+13, 0)
		before[i] = host
	}

	tbl.Update([]HostWeight[string]{
		{Host: "a", Weight: 0.5},
		{Host: "b", Weight: 0.3},
		{Host: "c", Weight: 0.2},
	})

	movedToC := 0
	movedBetweenOldHosts := 0
	for i := 0; i < n; i++ {
		host, ok := tbl.ChooseHost(uint64(i)*104729+13, 0)
		if !ok {
			t.Fatalf("ChooseHost(%d) returned ok=false after update", i)
		}
		if host == "c" {
			movedToC++
			continue
		}
		if host != before[i] {
			movedBetweenOldHosts++
		}
	}
	if movedToC == 0 {
		t.Errorf("adding host c moved no keys onto it")
	}
	if movedBetweenOldHosts != 0 {
		t.Errorf("%d keys shuffled between the unaffected hosts a/b, want 0", movedBetweenOldHosts)
	}
}

func TestStatsString(t *testing.T) {
	tbl := New(uniformWeights("a"), DefaultConfig())
	if got := tbl.Stats().Mode.String(); got != "uniform" {
		t.Errorf("Mode.String() = %q, want %q", got, "uniform")
	}
}

func TestAttemptKeyFormat(t *testing.T) {
	if got := attemptKey(10, 0); got != strconv.FormatUint(10, 10) {
		t.Errorf("attemptKey(10, 0) = %q, want %q", got, strconv.FormatUint(10, 10))
	}
	if got := attemptKey(10, 1); got == attemptKey(10, 0) {
		t.Errorf("attemptKey should differ across attempts")
	}
}
