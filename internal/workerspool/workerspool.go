// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

// Package workerspool implements a soft-capped pool of worker goroutines used to
// parallelize the numeric kernels over rows of the matrices involved.
package workerspool

import (
	"runtime"
	"sync"
)

// Pool of workers with a soft limit on parallelism.
//
// The kernels split their work in independent row ranges and dispatch them through the pool,
// so concurrent forward passes share a bounded amount of parallelism.
type Pool struct {
	// maxParallelism is a soft target on the limit of parallel work to do.
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // Signaled whenever numRunning is decreased.
	numRunning     int
}

// New returns a new Pool of workers with the default parallelism (runtime.NumCPU()).
func New() *Pool {
	w := &Pool{}
	w.maxParallelism = runtime.NumCPU()
	w.cond = sync.Cond{L: &w.mu}
	return w
}

// IsEnabled returns whether parallelism is enabled (maxParallelism is != 0).
func (w *Pool) IsEnabled() bool {
	return w.maxParallelism != 0
}

// IsUnlimited returns whether parallelism is unlimited (maxParallelism < 0).
func (w *Pool) IsUnlimited() bool {
	return w.maxParallelism < 0
}

// MaxParallelism is a soft-target for parallelism.
// If set to 0 parallelism is disabled.
// If set to -1 parallelism is unlimited.
func (w *Pool) MaxParallelism() int {
	return w.maxParallelism
}

// SetMaxParallelism sets the maxParallelism.
//
// Only change the parallelism before any workers start running. If changed during
// execution the behavior is undefined.
func (w *Pool) SetMaxParallelism(maxParallelism int) {
	w.maxParallelism = maxParallelism
}

// lockedIsFull returns whether all available workers are in use.
//
// It must be called with w.mu acquired.
func (w *Pool) lockedIsFull() bool {
	if w.maxParallelism == 0 {
		return true
	} else if w.maxParallelism < 0 {
		return false
	}
	return w.numRunning >= w.maxParallelism
}

// WaitToStart waits until there is a worker available to run the task, then runs it in a
// separate goroutine.
//
// If parallelism is disabled (maxParallelism is 0), it runs the task inline and returns when
// it is finished.
func (w *Pool) WaitToStart(task func()) {
	if w.IsUnlimited() {
		go task()
		return
	} else if w.maxParallelism == 0 {
		task()
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for w.lockedIsFull() {
		w.cond.Wait()
	}
	w.lockedRunTaskInGoroutine(task)
}

// lockedRunTaskInGoroutine keeps tabs on w.numRunning.
//
// It must be called with w.mu acquired.
func (w *Pool) lockedRunTaskInGoroutine(task func()) {
	w.numRunning++
	go func() {
		task()
		w.mu.Lock()
		w.numRunning--
		w.cond.Signal()
		w.mu.Unlock()
	}()
}

// StartIfAvailable runs the task in a separate goroutine, if there are enough workers left.
// It returns true if it found workers to run the function, false otherwise.
//
// It's up to the client to synchronize the end of the function execution.
func (w *Pool) StartIfAvailable(task func()) bool {
	if w.IsUnlimited() {
		go task()
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lockedIsFull() {
		return false
	}
	w.lockedRunTaskInGoroutine(task)
	return true
}

// ForRange splits [0, n) in contiguous chunks and runs fn for every index, using as many
// workers as available. It blocks until all indices have been processed.
//
// The caller runs one of the chunks itself, so ForRange makes progress even when the pool
// is saturated. fn must be safe to call concurrently for different indices.
func (w *Pool) ForRange(n int, fn func(index int)) {
	if n <= 0 {
		return
	}
	numChunks := w.maxParallelism
	if numChunks < 0 || numChunks > n {
		numChunks = n
	}
	if numChunks <= 1 {
		for index := range n {
			fn(index)
		}
		return
	}

	chunkSize := (n + numChunks - 1) / numChunks
	var wg sync.WaitGroup
	runChunk := func(start int) {
		end := min(start+chunkSize, n)
		for index := start; index < end; index++ {
			fn(index)
		}
	}
	for start := chunkSize; start < n; start += chunkSize {
		startCopy := start
		wg.Add(1)
		task := func() {
			defer wg.Done()
			runChunk(startCopy)
		}
		if !w.StartIfAvailable(task) {
			// Pool saturated: run inline.
			task()
		}
	}
	runChunk(0) // The caller's own share.
	wg.Wait()
}
