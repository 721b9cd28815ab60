// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

package hopconv

import (
	"encoding/gob"
	"os"

	"github.com/hopgnn/hopgnn/ml/variables"
	"github.com/hopgnn/hopgnn/types/tensors"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
)

// Pipeline composes the three layers built from one shared Config:
// raw adjacency → hop operators → learned adjacencies → graph convolution.
//
// The layer fields are exported so callers can run steps individually, and
// the intermediate tensors are observable via ApplyWithIntermediates.
type Pipeline struct {
	PowerOperator *PowerOperator
	Adjacency     *Adjacency
	Convolution   *GraphConvolution
}

// Intermediates holds every tensor that crosses a layer boundary during one
// forward pass of the pipeline.
type Intermediates struct {
	// HopOperators is the PowerOperator output: identity plus adjacency
	// powers.
	HopOperators []*tensors.Tensor

	// LearnedAdjacencies is the Adjacency output: real-valued learned
	// operators, one per hop.
	LearnedAdjacencies []*tensors.Tensor

	// Output is the final updated node feature matrix, shape [N,F].
	Output *tensors.Tensor
}

// New builds the full pipeline from the config. It panics on an invalid
// config.
func New(config *Config) *Pipeline {
	config.validate()
	return &Pipeline{
		PowerOperator: NewPowerOperator(config),
		Adjacency:     NewAdjacency(config),
		Convolution:   NewGraphConvolution(config),
	}
}

// Apply runs the full forward pass and returns the updated node features,
// shape [N,F]. Input constraints and errors are those of the individual
// layers.
func (p *Pipeline) Apply(adj, nodeVec *tensors.Tensor) (*tensors.Tensor, error) {
	inter, err := p.ApplyWithIntermediates(adj, nodeVec)
	if err != nil {
		return nil, err
	}
	return inter.Output, nil
}

// ApplyWithIntermediates runs the full forward pass and returns all
// intermediate outputs along with the final one. On error all results are
// nil.
func (p *Pipeline) ApplyWithIntermediates(adj, nodeVec *tensors.Tensor) (*Intermediates, error) {
	hopOps, err := p.PowerOperator.Apply(adj)
	if err != nil {
		return nil, err
	}
	learned, err := p.Adjacency.Apply(hopOps, nodeVec)
	if err != nil {
		return nil, err
	}
	output, err := p.Convolution.Apply(nodeVec, learned)
	if err != nil {
		return nil, err
	}
	return &Intermediates{
		HopOperators:       hopOps,
		LearnedAdjacencies: learned,
		Output:             output,
	}, nil
}

// MustApply is like Apply but panics on error. For tests and tools.
func (p *Pipeline) MustApply(adj, nodeVec *tensors.Tensor) *tensors.Tensor {
	return must.M1(p.Apply(adj, nodeVec))
}

// Variables returns the trainable variables of all layers, in a stable
// order: Adjacency's MLP weight pairs first, then Convolution's kernels.
func (p *Pipeline) Variables() []*variables.Variable {
	return append(p.Adjacency.Variables(), p.Convolution.Variables()...)
}

// GobSerialize writes the values of all trainable variables, keyed by name,
// to the encoder.
func (p *Pipeline) GobSerialize(encoder *gob.Encoder) error {
	vars := p.Variables()
	if err := encoder.Encode(len(vars)); err != nil {
		return errors.Wrapf(err, "failed to encode variable count")
	}
	for _, v := range vars {
		if err := encoder.Encode(v.Name()); err != nil {
			return errors.Wrapf(err, "failed to encode name of variable %q", v.Name())
		}
		if err := v.Value().GobSerialize(encoder); err != nil {
			return errors.WithMessagef(err, "variable %q", v.Name())
		}
	}
	return nil
}

// GobDeserialize reads variable values written by GobSerialize and assigns
// them to the pipeline's variables.
//
// Every decoded value is matched to a current variable by name and must have
// its exact shape, so checkpoints only load into a pipeline built with the
// same Config. Unknown names and shape mismatches are errors.
func (p *Pipeline) GobDeserialize(decoder *gob.Decoder) error {
	byName := make(map[string]*variables.Variable)
	for _, v := range p.Variables() {
		byName[v.Name()] = v
	}
	var count int
	if err := decoder.Decode(&count); err != nil {
		return errors.Wrapf(err, "failed to decode variable count")
	}
	if count != len(byName) {
		return errors.Errorf("checkpoint has %d variables, pipeline has %d", count, len(byName))
	}
	for range count {
		var name string
		if err := decoder.Decode(&name); err != nil {
			return errors.Wrapf(err, "failed to decode variable name")
		}
		value, err := tensors.GobDeserialize(decoder)
		if err != nil {
			return errors.WithMessagef(err, "variable %q", name)
		}
		v, found := byName[name]
		if !found {
			return errors.Errorf("checkpoint variable %q does not exist in the pipeline", name)
		}
		if !value.Shape().Equal(v.Shape()) {
			return errors.Errorf("checkpoint variable %q has shape %s, pipeline variable has shape %s",
				name, value.Shape(), v.Shape())
		}
		v.SetValue(value)
	}
	return nil
}

// Save writes a checkpoint of the pipeline's variables to the given file.
func (p *Pipeline) Save(filePath string) (err error) {
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "creating file %q to save pipeline", filePath)
	}
	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "closing file %q after saving pipeline", filePath)
		}
	}()
	enc := gob.NewEncoder(f)
	err = p.GobSerialize(enc)
	if err != nil {
		err = errors.WithMessagef(err, "saving pipeline to %q", filePath)
	}
	return
}

// Load reads a checkpoint written by Save into the pipeline's variables.
func (p *Pipeline) Load(filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "opening file %q to load pipeline", filePath)
	}
	defer func() { _ = f.Close() }()
	dec := gob.NewDecoder(f)
	if err := p.GobDeserialize(dec); err != nil {
		return errors.WithMessagef(err, "loading pipeline from %q", filePath)
	}
	return nil
}
