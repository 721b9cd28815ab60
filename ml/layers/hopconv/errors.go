// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

package hopconv

import "github.com/pkg/errors"

// Sentinel errors returned by the layers' Apply methods. They are always
// wrapped with context about the offending input; match them with errors.Is.
var (
	// ErrShape indicates an input tensor whose rank or dimensions do not
	// match what the layer was built for, or a hop-operator set with the
	// wrong number of entries.
	ErrShape = errors.New("shape mismatch")

	// ErrAdjacencyValue indicates a raw adjacency matrix with entries
	// outside {0, 1}.
	ErrAdjacencyValue = errors.New("adjacency entries must be 0 or 1")
)
