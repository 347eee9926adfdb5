// Copyright (c) 2024 Rishabh Parekh
// MIT License

// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

// Package table implements MementoTable: the adapter that maps memento
// engine bucket indices to hosts, in either a 1:1 uniform mode or a
// weighted virtual-node mode, and applies minimally-disruptive updates as
// the host set or its weights change.
package table

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"mementolb/consistenthash"
	"mementolb/hashing"
	"mementolb/serverpool"
)

// Mode selects how MementoTable maps engine buckets to hosts.
type Mode int

const (
	// Uniform is a 1:1 bucket-to-host mapping, used when all hosts carry
	// equal weight.
	Uniform Mode = iota
	// Weighted lays out multiple virtual nodes per host, proportional to
	// weight.
	Weighted
)

func (m Mode) String() string {
	if m == Weighted {
		return "weighted"
	}
	return "uniform"
}

// weightUniformTolerance is how close normalized weights must be to count
// as uniform.
const weightUniformTolerance = 1e-3

// vnodeScale converts a normalized weight into an integer virtual-node count.
const vnodeScale = 1000

const (
	minVirtualNodesPerHost = 1
	maxVirtualNodesPerHost = 10000
)

// HostWeight pairs a host with its normalized weight. Callers are expected
// to pass a vector whose weights sum to approximately 1.0.
type HostWeight[H comparable] struct {
	Host   H
	Weight float64
}

// Stats reports introspection data about a MementoTable.
type Stats struct {
	VirtualNodes        int
	PhysicalHosts       int
	Mode                Mode
	OutOfRangeFallbacks uint64
}

// Config is advisory construction input. TableSizeHint is never used to
// size a fixed lookup table -- MementoTable keeps none -- it exists so
// callers migrating from ring/table-based balancers have somewhere to put
// the number they already have.
type Config struct {
	TableSizeHint uint64
}

// DefaultTableSizeHint is the suggested advisory default.
const DefaultTableSizeHint = 65537

// DefaultConfig returns a Config with the default table-size hint.
func DefaultConfig() Config {
	return Config{TableSizeHint: DefaultTableSizeHint}
}

// hostNode adapts an arbitrary comparable host identity to serverpool.Node.
type hostNode[H comparable] struct {
	host H
}

func (n hostNode[H]) Name() H { return n.host }

// MementoTable maps engine bucket indices to hosts of type H, supporting
// uniform and weighted distribution modes and in-place updates as the host
// set or its weights change.
type MementoTable[H comparable] struct {
	engine consistenthash.ConsistentHasher
	algo   hashing.HashAlgorithm
	mode   Mode
	config Config
	logger *zap.Logger

	// uniform mode: one bucket per host.
	registry serverpool.ServerPool[H]

	// weighted mode: many buckets (virtual nodes) per host.
	virtualToPhysical []H
	vnodeLive         []bool
	physicalBuckets   map[H][]int
	currentWeights    map[H]float64

	outOfRangeFallbacks uint64
}

// New constructs a MementoTable from a normalized host/weight vector. Mode
// is chosen automatically: Uniform if all weights are equal within
// tolerance, Weighted otherwise.
func New[H comparable](weights []HostWeight[H], cfg Config) *MementoTable[H] {
	return NewWithLogger(weights, cfg, zap.NewNop())
}

// NewWithLogger is New, but lets the caller observe mode switches and
// defensive fallbacks via a structured logger.
func NewWithLogger[H comparable](weights []HostWeight[H], cfg Config, logger *zap.Logger) *MementoTable[H] {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &MementoTable[H]{
		algo:   hashing.DefaultHashAlgorithm,
		config: cfg,
		logger: logger,
	}
	t.rebuild(weights)
	return t
}

// ChooseHost returns the host assigned to requestHash. attempt lets a
// caller retry host selection for the same request (e.g. the first pick
// was unhealthy) while staying deterministic for a given (requestHash,
// attempt) pair.
func (t *MementoTable[H]) ChooseHost(requestHash uint64, attempt uint32) (H, bool) {
	var zero H
	if t.mode == Uniform && !t.hasAnyUniformHost() {
		return zero, false
	}
	bucket := t.engine.GetBucket(attemptKey(requestHash, attempt))

	switch t.mode {
	case Uniform:
		node, ok := t.registry.GetNode(bucket)
		if !ok {
			t.outOfRangeFallbacks++
			t.logger.Warn("uniform table miss, falling back to bucket modulo host count",
				zap.Int("bucket", bucket))
			node, ok = t.registry.GetNode(bucket % t.engine.Size())
			if !ok {
				return zero, false
			}
		}
		return node.Name(), true
	default:
		if bucket < 0 || bucket >= len(t.virtualToPhysical) || !t.vnodeLive[bucket] {
			t.outOfRangeFallbacks++
			t.logger.Warn("weighted table miss, returning no host",
				zap.Int("bucket", bucket))
			return zero, false
		}
		return t.virtualToPhysical[bucket], true
	}
}

// attemptKey folds a retry attempt into the request hash so that repeated
// attempts for the same request walk a deterministic, distinct sequence of
// buckets instead of landing on the same host every time.
func attemptKey(requestHash uint64, attempt uint32) string {
	if attempt == 0 {
		return strconv.FormatUint(requestHash, 10)
	}
	return strconv.FormatUint(requestHash, 10) + ":" + strconv.FormatUint(uint64(attempt), 10)
}

// Update applies a new host/weight vector, switching modes if necessary and
// otherwise mutating the table incrementally so unaffected hosts keep their
// existing bucket assignments.
func (t *MementoTable[H]) Update(weights []HostWeight[H]) {
	newMode := Uniform
	if !areWeightsUniform(weights) {
		newMode = Weighted
	}

	if newMode != t.mode {
		t.logger.Info("memento table mode switch",
			zap.Stringer("from", t.mode), zap.Stringer("to", newMode))
		t.rebuild(weights)
		return
	}

	switch t.mode {
	case Uniform:
		t.updateUniform(weights)
	default:
		t.updateWeighted(weights)
	}
}

// Stats reports the table's current size and mode.
func (t *MementoTable[H]) Stats() Stats {
	s := Stats{Mode: t.mode, OutOfRangeFallbacks: t.outOfRangeFallbacks}
	switch t.mode {
	case Uniform:
		s.PhysicalHosts = t.engine.Size()
		s.VirtualNodes = t.engine.Size()
	default:
		s.PhysicalHosts = len(t.physicalBuckets)
		s.VirtualNodes = t.engine.Size()
	}
	return s
}

func (t *MementoTable[H]) rebuild(weights []HostWeight[H]) {
	t.engine = consistenthash.NewConsistentHasherWithAlgo(t.algo)
	t.outOfRangeFallbacks = 0

	if areWeightsUniform(weights) {
		t.mode = Uniform
		t.virtualToPhysical = nil
		t.vnodeLive = nil
		t.physicalBuckets = nil
		t.currentWeights = nil
		t.buildUniform(weights)
	} else {
		t.mode = Weighted
		t.registry = nil
		t.buildWeighted(weights)
	}
}

func (t *MementoTable[H]) buildUniform(weights []HostWeight[H]) {
	t.registry = serverpool.NewServerPool[H]()
	for _, hw := range weights {
		bucket := 0
		if t.hasAnyUniformHost() {
			bucket = t.engine.AddBucket()
		}
		_ = t.registry.AddNode(hostNode[H]{hw.Host}, bucket)
	}
}

// hasAnyUniformHost reports whether the uniform registry already holds a
// host, so the first AddNode can claim the engine's initial bucket 0
// instead of calling AddBucket (which would skip straight to bucket 1).
func (t *MementoTable[H]) hasAnyUniformHost() bool {
	for range t.registry.Nodes() {
		return true
	}
	return false
}

func (t *MementoTable[H]) updateUniform(weights []HostWeight[H]) {
	wanted := make(map[H]struct{}, len(weights))
	for _, hw := range weights {
		wanted[hw.Host] = struct{}{}
	}

	for node, bucket := range t.registry.Nodes() {
		if _, ok := wanted[node.Name()]; !ok {
			t.engine.RemoveBucket(bucket)
			_, _ = t.registry.RemoveNode(node)
		}
	}

	for _, hw := range weights {
		found := false
		for node := range t.registry.Nodes() {
			if node.Name() == hw.Host {
				found = true
				break
			}
		}
		if found {
			continue
		}
		// Bucket 0 is free to claim only while the engine still holds its
		// initial bucket; once every host was removed it must be re-added.
		bucket := 0
		if t.hasAnyUniformHost() || t.engine.Size() == 0 {
			bucket = t.engine.AddBucket()
		}
		_ = t.registry.AddNode(hostNode[H]{hw.Host}, bucket)
	}
}

func (t *MementoTable[H]) buildWeighted(weights []HostWeight[H]) {
	t.virtualToPhysical = nil
	t.vnodeLive = nil
	t.physicalBuckets = make(map[H][]int, len(weights))
	t.currentWeights = make(map[H]float64, len(weights))

	for _, hw := range weights {
		t.currentWeights[hw.Host] = hw.Weight
		count := normalizedWeightToVNodes(hw.Weight)
		buckets := make([]int, 0, count)
		for i := 0; i < count; i++ {
			bucket := t.allocateVNodeBucket(hw.Host)
			buckets = append(buckets, bucket)
		}
		t.physicalBuckets[hw.Host] = buckets
	}
}

func (t *MementoTable[H]) updateWeighted(weights []HostWeight[H]) {
	target := make(map[H]float64, len(weights))
	for _, hw := range weights {
		target[hw.Host] = hw.Weight
	}

	for host, buckets := range t.physicalBuckets {
		if _, ok := target[host]; ok {
			continue
		}
		for _, b := range buckets {
			t.releaseVNodeBucket(b)
			t.engine.RemoveBucket(b)
		}
		delete(t.physicalBuckets, host)
		delete(t.currentWeights, host)
	}

	for _, hw := range weights {
		wantCount := normalizedWeightToVNodes(hw.Weight)
		buckets := t.physicalBuckets[hw.Host]
		haveCount := len(buckets)

		for haveCount < wantCount {
			bucket := t.allocateVNodeBucket(hw.Host)
			buckets = append(buckets, bucket)
			haveCount++
		}
		for haveCount > wantCount {
			last := buckets[haveCount-1]
			t.releaseVNodeBucket(last)
			t.engine.RemoveBucket(last)
			buckets = buckets[:haveCount-1]
			haveCount--
		}
		t.physicalBuckets[hw.Host] = buckets
		t.currentWeights[hw.Host] = hw.Weight
	}
}

func (t *MementoTable[H]) allocateVNodeBucket(host H) int {
	// The engine is born with an implicit bucket 0 (working-set size 1).
	// The very first virtual node ever allocated claims that bucket
	// directly; every allocation after that goes through AddBucket.
	var bucket int
	if len(t.virtualToPhysical) == 0 {
		bucket = 0
	} else {
		bucket = t.engine.AddBucket()
	}
	for bucket >= len(t.virtualToPhysical) {
		t.virtualToPhysical = append(t.virtualToPhysical, host)
		t.vnodeLive = append(t.vnodeLive, false)
	}
	t.virtualToPhysical[bucket] = host
	t.vnodeLive[bucket] = true
	return bucket
}

func (t *MementoTable[H]) releaseVNodeBucket(bucket int) {
	if bucket >= 0 && bucket < len(t.vnodeLive) {
		t.vnodeLive[bucket] = false
	}
}

func areWeightsUniform[H comparable](weights []HostWeight[H]) bool {
	if len(weights) == 0 {
		return true
	}
	first := weights[0].Weight
	for _, hw := range weights[1:] {
		if math.Abs(hw.Weight-first) > weightUniformTolerance {
			return false
		}
	}
	return true
}

func normalizedWeightToVNodes(weight float64) int {
	count := int(math.Round(weight * vnodeScale))
	if count < minVirtualNodesPerHost {
		count = minVirtualNodesPerHost
	}
	if count > maxVirtualNodesPerHost {
		count = maxVirtualNodesPerHost
	}
	return count
}
