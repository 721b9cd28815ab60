// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"

	"github.com/hopgnn/hopgnn/types/shapes"
)

// GobSerialize Tensor in binary format.
//
// It returns an error for I/O errors.
// It panics for invalid tensors.
func (t *Tensor) GobSerialize(encoder *gob.Encoder) (err error) {
	if t == nil {
		panic(errors.New("Tensor is nil"))
	}
	t.AssertValid()
	err = t.shape.GobSerialize(encoder)
	if err != nil {
		return
	}
	t.ConstBytes(func(data []byte) {
		err = encoder.Encode(data)
		if err != nil {
			err = errors.Wrapf(err, "failed to write Tensor data")
		}
	})
	return
}

// GobDeserialize a Tensor from the decoder. Returns new Tensor or an error.
func GobDeserialize(decoder *gob.Decoder) (t *Tensor, err error) {
	shape, err := shapes.GobDeserialize(decoder)
	if err != nil {
		err = errors.WithMessagef(err, "failed to deserialize Tensor shape")
		return
	}
	var data []byte
	err = decoder.Decode(&data)
	if err != nil {
		err = errors.Wrapf(err, "failed to deserialize Tensor data")
		return
	}
	if len(data) != int(shape.Memory()) {
		err = errors.Errorf("deserialized Tensor data has %d bytes, shape %s requires %d", len(data), shape, shape.Memory())
		return
	}
	t = FromShape(shape)
	t.MutableBytes(func(dst []byte) {
		copy(dst, data)
	})
	return
}

// Save the tensor to the given file path.
//
// It returns an error for I/O errors.
// It may panic if the tensor is invalid (`nil` or already finalized).
func (t *Tensor) Save(filePath string) (err error) {
	t.AssertValid()
	var f *os.File
	f, err = os.Create(filePath)
	if err != nil {
		err = errors.Wrapf(err, "creating %q to save tensor", filePath)
		return
	}
	enc := gob.NewEncoder(f)
	err = t.GobSerialize(enc)
	if err != nil {
		err = errors.WithMessagef(err, "saving Tensor to %q", filePath)
		return
	}
	err = f.Close()
	if err != nil {
		err = errors.Wrapf(err, "close file %q, where tensor was saved", filePath)
		return
	}
	return
}

// Load a tensor from the file path given.
func Load(filePath string) (t *Tensor, err error) {
	f, err := os.Open(filePath)
	if err != nil {
		err = errors.Wrapf(err, "opening %q to load Tensor", filePath)
		return
	}
	dec := gob.NewDecoder(f)
	t, err = GobDeserialize(dec)
	if err != nil {
		err = errors.WithMessagef(err, "loading Tensor from %q", filePath)
		return
	}
	_ = f.Close()
	return
}
