// Copyright (c) 2024 Rishabh Parekh
// MIT License

// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

// Load balancer

package main

import (
	"errors"
	"fmt"
	"iter"

	"mementolb/hashing"
	"mementolb/serverpool"
	"mementolb/table"
)

type LoadBalancer[T comparable] interface {
	// Add a list of nodes to the table, each with relative weight 1.0;
	// all weights are then renormalized across the new total node set.
	AddNodes(nodes []serverpool.Node[T]) error

	// Add a list of nodes with explicit per-node weights.
	AddWeightedNodes(nodes []serverpool.Node[T], weights []float64) error

	// Remove a list of nodes from the table.
	RemoveNodes(nodes []serverpool.Node[T]) error

	// Get the node responsible for the given key
	GetNode(key string) (serverpool.Node[T], error)

	// Count of nodes in the cluster
	NodeCount() int

	// Iterate over all nodes in the load balancer along with their
	// normalized weight.
	Nodes() iter.Seq2[serverpool.Node[T], float64]

	// Stats reports the underlying table's size, mode and miss count.
	Stats() table.Stats
}

type loadBalancer[T comparable] struct {
	// tbl is the memento table driving host selection.
	tbl *table.MementoTable[T]

	// hasher turns an incoming request key into the uint64 the table
	// expects.
	hasher hashing.HashFn

	// nodes holds the full Node[T] value for each currently tracked host
	// identity, so GetNode/Nodes can hand back the original node instead
	// of just its bare T identity.
	nodes map[T]serverpool.Node[T]

	// weights holds each host's last-assigned (unnormalized) weight.
	weights map[T]float64
}

// Create a new load balancer
func NewLoadBalancer[T comparable]() LoadBalancer[T] {
	return &loadBalancer[T]{
		tbl:     table.New[T](nil, table.DefaultConfig()),
		hasher:  hashing.NewHashFunction(hashing.DefaultHashAlgorithm),
		nodes:   make(map[T]serverpool.Node[T]),
		weights: make(map[T]float64),
	}
}

// Add a list of nodes to the load balancer with equal weight
func (lb *loadBalancer[T]) AddNodes(nodes []serverpool.Node[T]) error {
	if len(nodes) == 0 {
		return errors.New("no nodes to add")
	}
	for _, node := range nodes {
		if err := lb.addNode(node, 1.0); err != nil {
			return err
		}
	}
	lb.applyWeights()
	return nil
}

// Add a list of nodes with explicit weights
func (lb *loadBalancer[T]) AddWeightedNodes(nodes []serverpool.Node[T], weights []float64) error {
	if len(nodes) == 0 {
		return errors.New("no nodes to add")
	}
	if len(nodes) != len(weights) {
		return fmt.Errorf("got %d nodes but %d weights", len(nodes), len(weights))
	}
	for i, node := range nodes {
		if weights[i] <= 0 {
			return fmt.Errorf("weight for node %v must be positive", node.Name())
		}
		if err := lb.addNode(node, weights[i]); err != nil {
			return err
		}
	}
	lb.applyWeights()
	return nil
}

func (lb *loadBalancer[T]) addNode(node serverpool.Node[T], weight float64) error {
	if _, exists := lb.nodes[node.Name()]; exists {
		return fmt.Errorf("node %v already exists", node.Name())
	}
	lb.nodes[node.Name()] = node
	lb.weights[node.Name()] = weight
	return nil
}

// Remove a list of nodes from the load balancer
func (lb *loadBalancer[T]) RemoveNodes(nodes []serverpool.Node[T]) error {
	if len(nodes) == 0 {
		return errors.New("no nodes to remove")
	}
	if len(nodes) > len(lb.nodes) {
		return fmt.Errorf("cannot remove more nodes than the size of the working set %d", len(lb.nodes))
	}

	for _, node := range nodes {
		if _, ok := lb.nodes[node.Name()]; !ok {
			return fmt.Errorf("node not found")
		}
	}
	for _, node := range nodes {
		delete(lb.nodes, node.Name())
		delete(lb.weights, node.Name())
	}
	lb.applyWeights()
	return nil
}

// applyWeights normalizes the current weight map and pushes it down to the
// memento table, which applies it as a minimally-disruptive update.
func (lb *loadBalancer[T]) applyWeights() {
	total := 0.0
	for _, w := range lb.weights {
		total += w
	}

	vec := make([]table.HostWeight[T], 0, len(lb.weights))
	if total > 0 {
		for host, w := range lb.weights {
			vec = append(vec, table.HostWeight[T]{Host: host, Weight: w / total})
		}
	}
	lb.tbl.Update(vec)
}

// Get the node responsible for the given key
func (lb *loadBalancer[T]) GetNode(key string) (serverpool.Node[T], error) {
	if len(key) == 0 {
		return nil, errors.New("key cannot be empty")
	}
	host, ok := lb.tbl.ChooseHost(lb.hasher.HashString(key), 0)
	if !ok {
		return nil, fmt.Errorf("no node available for key %q", key)
	}
	node, ok := lb.nodes[host]
	if !ok {
		return nil, fmt.Errorf("node not found for key %q", key)
	}
	return node, nil
}

// Count of nodes in the cluster
func (lb *loadBalancer[T]) NodeCount() int {
	return len(lb.nodes)
}

// Iterate over all nodes in the load balancer, along with each node's
// normalized weight.
func (lb *loadBalancer[T]) Nodes() iter.Seq2[serverpool.Node[T], float64] {
	total := 0.0
	for _, w := range lb.weights {
		total += w
	}
	return func(yield func(serverpool.Node[T], float64) bool) {
		for host, w := range lb.weights {
			normalized := 0.0
			if total > 0 {
				normalized = w / total
			}
			if !yield(lb.nodes[host], normalized) {
				return
			}
		}
	}
}

// Stats reports the underlying table's size, mode and miss count.
func (lb *loadBalancer[T]) Stats() table.Stats {
	return lb.tbl.Stats()
}
