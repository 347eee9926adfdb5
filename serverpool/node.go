// Copyright (c) 2024 Rishabh Parekh
// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

package serverpool

// Node is an opaque host identity: comparable by reference equality (or
// value equality, for value types), usable as a map key, and nameable for
// logging/display. T is the identity's underlying comparable type.
type Node[T comparable] interface {
	// Get name of the node
	Name() T
}
