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
	"errors"
)

// ErrFilterRequired is returned by Get when no Where option is supplied.
var ErrFilterRequired = errors.New("repository: Get requires a filter predicate")

// QueryRepository defines the read operations for a generic entity type.
type QueryRepository[T any] interface {
	// All returns the entities matching the options, in store order unless
	// an OrderBy option is given.
	All(ctx context.Context, opts ...QueryOption) ([]*T, error)

	// Any reports whether at least one entity matches the filter, or whether
	// the set is non-empty when no filter is given.
	Any(ctx context.Context, opts ...QueryOption) (bool, error)

	// Get returns the first entity matching the required filter, or
	// (nil, nil) when nothing matches.
	Get(ctx context.Context, opts ...QueryOption) (*T, error)
}

// MutationRepository defines the write operations for a generic entity type.
// Each call stages all supplied entities and commits them in one save. The
// boolean result is true iff the commit reported at least len(entities)
// affected rows; cascades may legitimately inflate the count. Zero entities
// is trivially true and leaves the store untouched.
type MutationRepository[T any] interface {
	Create(ctx context.Context, entities ...*T) (bool, error)
	Update(ctx context.Context, entities ...*T) (bool, error)
	Delete(ctx context.Context, entities ...*T) (bool, error)
}

// AsyncRepository mirrors the synchronous operations on a background worker
// pool. Each call returns immediately with a future that resolves to the
// same result or error the synchronous call would produce. There is no
// cancellation; submitted work runs to completion.
type AsyncRepository[T any] interface {
	AllAsync(ctx context.Context, opts ...QueryOption) *Future[[]*T]
	AnyAsync(ctx context.Context, opts ...QueryOption) *Future[bool]
	GetAsync(ctx context.Context, opts ...QueryOption) *Future[*T]
	CreateAsync(ctx context.Context, entities ...*T) *Future[bool]
	UpdateAsync(ctx context.Context, entities ...*T) *Future[bool]
	DeleteAsync(ctx context.Context, entities ...*T) *Future[bool]
}

// Repository combines the query, mutation, and asynchronous capabilities.
type Repository[T any] interface {
	QueryRepository[T]
	MutationRepository[T]
	AsyncRepository[T]
}
