// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

// hopconv_demo runs forward passes of the hop-convolution pipeline over
// random graphs and optionally saves or restores a checkpoint of the
// pipeline weights.
//
// Example:
//
//	hopconv_demo --nodes=20 --features=16 --graphs=100 --save=/tmp/pipeline.ckpt
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/google/uuid"
	"github.com/hopgnn/hopgnn/ml/layers/hopconv"
	"github.com/hopgnn/hopgnn/types/tensors"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"
)

var (
	flagNodes    = flag.Int("nodes", 20, "Number of nodes (N) the pipeline is built for.")
	flagFeatures = flag.Int("features", 16, "Node feature dimension (F).")
	flagPower    = flag.Int("power", 2, "Exploration depth: power+1 hop operators are used.")
	flagGraphs   = flag.Int("graphs", 100, "Number of random graphs to run forward passes on.")
	flagEdgeProb = flag.Float64("edge_prob", 0.3, "Probability of an edge between any two nodes.")
	flagSeed     = flag.Uint64("seed", 0, "Random seed for graphs and weights. 0 picks a random one.")
	flagFloat64  = flag.Bool("float64", false, "Use Float64 instead of Float32.")
	flagSave     = flag.String("save", "", "If set, save a checkpoint of the pipeline weights to this file.")
	flagLoad     = flag.String("load", "", "If set, load the pipeline weights from this checkpoint file before running.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if len(flag.Args()) > 0 {
		klog.Errorf("Unexpected arguments %q. See 'hopconv_demo -help'.", flag.Args())
		os.Exit(1)
	}

	runID := uuid.New().String()
	dtype := dtypes.Float32
	if *flagFloat64 {
		dtype = dtypes.Float64
	}
	config := hopconv.NewConfig().
		WithMaxNodes(*flagNodes).
		WithNumFeatures(*flagFeatures).
		WithPower(*flagPower).
		WithDType(dtype)
	pipeline := hopconv.New(config)
	if *flagLoad != "" {
		must.M(pipeline.Load(*flagLoad))
		klog.Infof("Loaded checkpoint from %s", *flagLoad)
	}

	var weightBytes uintptr
	for _, v := range pipeline.Variables() {
		weightBytes += v.Value().Memory()
	}
	fmt.Printf("Run %s: N=%d, F=%d, power=%d, dtype=%s, %d variables (%s)\n",
		runID, *flagNodes, *flagFeatures, *flagPower, dtype,
		len(pipeline.Variables()), humanize.Bytes(uint64(weightBytes)))

	rng := newRng(*flagSeed)
	bar := progressbar.NewOptions(*flagGraphs,
		progressbar.OptionSetDescription("forward passes"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("graphs"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
	)
	var checksum float64
	for range *flagGraphs {
		adj := randomAdjacency(rng, *flagNodes, *flagEdgeProb, dtype)
		nodeVec := randomFeatures(rng, *flagNodes, *flagFeatures, dtype)
		out := must.M1(pipeline.Apply(adj, nodeVec))
		checksum += sumAll(out)
		must.M(bar.Add(1))
	}
	must.M(bar.Close())
	fmt.Printf("Done, output checksum %.6g\n", checksum)

	if *flagSave != "" {
		must.M(pipeline.Save(*flagSave))
		klog.Infof("Saved checkpoint to %s", *flagSave)
	}
}

func newRng(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewSource(seed))
}

// randomAdjacency builds a symmetric 0/1 adjacency with zero diagonal.
func randomAdjacency(rng *rand.Rand, n int, edgeProb float64, dtype dtypes.DType) *tensors.Tensor {
	edges := make([]float64, n*n)
	for i := range n {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < edgeProb {
				edges[i*n+j] = 1
				edges[j*n+i] = 1
			}
		}
	}
	return fromFlat(edges, dtype, n, n)
}

func randomFeatures(rng *rand.Rand, n, f int, dtype dtypes.DType) *tensors.Tensor {
	features := make([]float64, n*f)
	for ii := range features {
		features[ii] = rng.NormFloat64()
	}
	return fromFlat(features, dtype, n, f)
}

func fromFlat(values []float64, dtype dtypes.DType, dimensions ...int) *tensors.Tensor {
	if dtype == dtypes.Float64 {
		return tensors.FromFlatDataAndDimensions(values, dimensions...)
	}
	converted := make([]float32, len(values))
	for ii, v := range values {
		converted[ii] = float32(v)
	}
	return tensors.FromFlatDataAndDimensions(converted, dimensions...)
}

func sumAll(t *tensors.Tensor) (sum float64) {
	if t.DType() == dtypes.Float64 {
		tensors.ConstFlatData(t, func(flat []float64) {
			for _, v := range flat {
				sum += v
			}
		})
		return
	}
	tensors.ConstFlatData(t, func(flat []float32) {
		for _, v := range flat {
			sum += float64(v)
		}
	})
	return
}
