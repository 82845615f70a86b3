/*
 * Copyright 2026 gannetio.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"runtime"
	"sync"

	"github.com/gammazero/workerpool"
)

// Executor dispatches repository operations to a bounded worker pool.
type Executor struct {
	wp *workerpool.WorkerPool
}

// NewExecutor returns an executor with the given number of workers; values
// below one default to the number of CPUs.
func NewExecutor(maxWorkers int) *Executor {
	if maxWorkers < 1 {
		maxWorkers = runtime.NumCPU()
	}
	return &Executor{wp: workerpool.New(maxWorkers)}
}

// Stop waits for queued work to finish and shuts the pool down. The shared
// default executor is never stopped.
func (e *Executor) Stop() {
	e.wp.StopWait()
}

func (e *Executor) submit(task func()) {
	e.wp.Submit(task)
}

var (
	sharedExecutor     *Executor
	sharedExecutorOnce sync.Once
)

func defaultExecutor() *Executor {
	sharedExecutorOnce.Do(func() {
		sharedExecutor = NewExecutor(runtime.NumCPU())
	})
	return sharedExecutor
}

// Future is the deferred result of an asynchronous repository operation.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Wait blocks until the operation finishes and returns its result or error.
// Wait may be called any number of times.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Done returns a channel closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

func (r *baseRepositoryImpl[T]) AllAsync(ctx context.Context, opts ...QueryOption) *Future[[]*T] {
	f := newFuture[[]*T]()
	r.executor.submit(func() {
		f.complete(r.All(ctx, opts...))
	})
	return f
}

func (r *baseRepositoryImpl[T]) AnyAsync(ctx context.Context, opts ...QueryOption) *Future[bool] {
	f := newFuture[bool]()
	r.executor.submit(func() {
		f.complete(r.Any(ctx, opts...))
	})
	return f
}

func (r *baseRepositoryImpl[T]) GetAsync(ctx context.Context, opts ...QueryOption) *Future[*T] {
	f := newFuture[*T]()
	r.executor.submit(func() {
		f.complete(r.Get(ctx, opts...))
	})
	return f
}

func (r *baseRepositoryImpl[T]) CreateAsync(ctx context.Context, entities ...*T) *Future[bool] {
	f := newFuture[bool]()
	r.executor.submit(func() {
		f.complete(r.Create(ctx, entities...))
	})
	return f
}

func (r *baseRepositoryImpl[T]) UpdateAsync(ctx context.Context, entities ...*T) *Future[bool] {
	f := newFuture[bool]()
	r.executor.submit(func() {
		f.complete(r.Update(ctx, entities...))
	})
	return f
}

func (r *baseRepositoryImpl[T]) DeleteAsync(ctx context.Context, entities ...*T) *Future[bool] {
	f := newFuture[bool]()
	r.executor.submit(func() {
		f.complete(r.Delete(ctx, entities...))
	})
	return f
}
