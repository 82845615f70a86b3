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
	"database/sql"
	"errors"

	"github.com/gannetio/gannet/database"

	"github.com/uptrace/bun"
)

type baseRepositoryImpl[T any] struct {
	sessions *database.SessionProvider
	executor *Executor
}

// Option configures a repository instance.
type Option func(*repositoryConfig)

type repositoryConfig struct {
	executor *Executor
}

// WithExecutor runs asynchronous operations on the given executor instead of
// the shared default.
func WithExecutor(executor *Executor) Option {
	return func(c *repositoryConfig) {
		c.executor = executor
	}
}

// NewRepository returns a generic repository that acquires a fresh session
// from the provider for every operation.
func NewRepository[T any](sessions *database.SessionProvider, opts ...Option) Repository[T] {
	cfg := &repositoryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.executor == nil {
		cfg.executor = defaultExecutor()
	}
	return &baseRepositoryImpl[T]{sessions: sessions, executor: cfg.executor}
}

func (r *baseRepositoryImpl[T]) All(ctx context.Context, opts ...QueryOption) ([]*T, error) {
	session, err := r.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Release() }()

	var entities []*T
	query := newQueryOptions(opts...).apply(session.DB().NewSelect().Model(&entities))
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	if entities == nil {
		entities = make([]*T, 0)
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Any(ctx context.Context, opts ...QueryOption) (bool, error) {
	session, err := r.sessions.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = session.Release() }()

	options := newQueryOptions(opts...)
	var entity T
	query := session.DB().NewSelect().Model(&entity)
	for _, path := range options.Includes {
		query = query.Relation(path)
	}
	if options.Filter != nil {
		query = query.Where(options.Filter.Schema, options.Filter.Args...)
	}
	return query.Exists(ctx)
}

func (r *baseRepositoryImpl[T]) Get(ctx context.Context, opts ...QueryOption) (*T, error) {
	options := newQueryOptions(opts...)
	if options.Filter == nil {
		return nil, ErrFilterRequired
	}

	session, err := r.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Release() }()

	var entity T
	query := session.DB().NewSelect().Model(&entity)
	for _, path := range options.Includes {
		query = query.Relation(path)
	}
	query = query.Where(options.Filter.Schema, options.Filter.Args...).Limit(1)

	if err := query.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entities ...*T) (bool, error) {
	if len(entities) == 0 {
		return true, nil
	}

	session, err := r.sessions.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = session.Release() }()

	models := cloneSlice(entities)
	res, err := session.DB().NewInsert().Model(&models).Exec(ctx)
	if err != nil {
		return false, err
	}
	return atLeast(res, len(entities))
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entities ...*T) (bool, error) {
	if len(entities) == 0 {
		return true, nil
	}

	session, err := r.sessions.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = session.Release() }()

	var affected int64
	err = session.DB().RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, entity := range entities {
			res, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			affected += n
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected >= int64(len(entities)), nil
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, entities ...*T) (bool, error) {
	if len(entities) == 0 {
		return true, nil
	}

	session, err := r.sessions.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = session.Release() }()

	models := cloneSlice(entities)
	res, err := session.DB().NewDelete().Model(&models).WherePK().Exec(ctx)
	if err != nil {
		return false, err
	}
	return atLeast(res, len(entities))
}

// atLeast reports whether the commit affected at least n rows. The minimum
// comparison is deliberate: cascades may affect more rows than were staged.
func atLeast(res sql.Result, n int) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected >= int64(n), nil
}

func cloneSlice[T any](entities []*T) []*T {
	models := make([]*T, len(entities))
	copy(models, entities)
	return models
}
