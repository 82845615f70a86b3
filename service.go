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

package gannet

import (
	"context"
	"sync"

	"github.com/gannetio/gannet/database"
	"github.com/gannetio/gannet/repository"
)

// Repository is the typed entry point over the global database connection.
// It is lazily bound to the global session provider on first use, so it can
// be constructed before database.InitDB has run.
type Repository[T any] interface {
	repository.Repository[T]
}

type lazyRepository[T any] struct {
	mu   sync.Mutex
	repo repository.Repository[T]
	opts []repository.Option
}

// NewRepository returns a repository for T backed by the global database
// initialized with database.InitDB.
func NewRepository[T any](opts ...repository.Option) Repository[T] {
	return &lazyRepository[T]{opts: opts}
}

func (l *lazyRepository[T]) base() repository.Repository[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.repo == nil {
		sessions := database.Sessions()
		if sessions == nil {
			// Not initialized yet: fail this call without pinning the binding,
			// so the repository binds once InitDB has run.
			return repository.NewRepository[T](nil, l.opts...)
		}
		l.repo = repository.NewRepository[T](sessions, l.opts...)
	}
	return l.repo
}

func (l *lazyRepository[T]) All(ctx context.Context, opts ...repository.QueryOption) ([]*T, error) {
	return l.base().All(ctx, opts...)
}

func (l *lazyRepository[T]) Any(ctx context.Context, opts ...repository.QueryOption) (bool, error) {
	return l.base().Any(ctx, opts...)
}

func (l *lazyRepository[T]) Get(ctx context.Context, opts ...repository.QueryOption) (*T, error) {
	return l.base().Get(ctx, opts...)
}

func (l *lazyRepository[T]) Create(ctx context.Context, entities ...*T) (bool, error) {
	return l.base().Create(ctx, entities...)
}

func (l *lazyRepository[T]) Update(ctx context.Context, entities ...*T) (bool, error) {
	return l.base().Update(ctx, entities...)
}

func (l *lazyRepository[T]) Delete(ctx context.Context, entities ...*T) (bool, error) {
	return l.base().Delete(ctx, entities...)
}

func (l *lazyRepository[T]) AllAsync(ctx context.Context, opts ...repository.QueryOption) *repository.Future[[]*T] {
	return l.base().AllAsync(ctx, opts...)
}

func (l *lazyRepository[T]) AnyAsync(ctx context.Context, opts ...repository.QueryOption) *repository.Future[bool] {
	return l.base().AnyAsync(ctx, opts...)
}

func (l *lazyRepository[T]) GetAsync(ctx context.Context, opts ...repository.QueryOption) *repository.Future[*T] {
	return l.base().GetAsync(ctx, opts...)
}

func (l *lazyRepository[T]) CreateAsync(ctx context.Context, entities ...*T) *repository.Future[bool] {
	return l.base().CreateAsync(ctx, entities...)
}

func (l *lazyRepository[T]) UpdateAsync(ctx context.Context, entities ...*T) *repository.Future[bool] {
	return l.base().UpdateAsync(ctx, entities...)
}

func (l *lazyRepository[T]) DeleteAsync(ctx context.Context, entities ...*T) *repository.Future[bool] {
	return l.base().DeleteAsync(ctx, entities...)
}
