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
	"github.com/gannetio/gannet/types"

	"github.com/uptrace/bun"
)

// QueryOptions enumerates the optional pieces of a query: an optional filter
// predicate, an optional ascending order key, optional skip/take counts, and
// an ordered list of relation include paths.
type QueryOptions struct {
	Filter   *types.QueryFilter
	Order    string
	Skip     int
	Take     int
	Includes []string
}

// QueryOption mutates QueryOptions. Options are applied in the order given;
// a later Where or OrderBy replaces an earlier one, Include paths accumulate.
type QueryOption func(*QueryOptions)

func newQueryOptions(opts ...QueryOption) *QueryOptions {
	o := &QueryOptions{Skip: -1, Take: -1}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Where sets the filter predicate, e.g. Where("age > ? AND city = ?", 21, "Oslo").
func Where(schema string, args ...interface{}) QueryOption {
	return func(o *QueryOptions) {
		o.Filter = types.NewQueryFilter(schema, args...)
	}
}

// WhereFilter sets the filter predicate from an existing QueryFilter.
func WhereFilter(filter *types.QueryFilter) QueryOption {
	return func(o *QueryOptions) {
		o.Filter = filter
	}
}

// OrderBy sorts results ascending by the given column.
func OrderBy(column string) QueryOption {
	return func(o *QueryOptions) {
		o.Order = column
	}
}

// Skip drops the first n rows of the filtered, ordered result.
func Skip(n int) QueryOption {
	return func(o *QueryOptions) {
		o.Skip = n
	}
}

// Take keeps at most n rows.
func Take(n int) QueryOption {
	return func(o *QueryOptions) {
		o.Take = n
	}
}

// Include eager-loads the named relation paths alongside the primary result.
// Paths are applied in the order given.
func Include(paths ...string) QueryOption {
	return func(o *QueryOptions) {
		o.Includes = append(o.Includes, paths...)
	}
}

// apply composes the options onto a Bun select query: includes first (in
// order), then filter, ascending order, offset, and limit.
func (o *QueryOptions) apply(q *bun.SelectQuery) *bun.SelectQuery {
	for _, path := range o.Includes {
		q = q.Relation(path)
	}
	if o.Filter != nil {
		q = q.Where(o.Filter.Schema, o.Filter.Args...)
	}
	if o.Order != "" {
		q = q.OrderExpr("? ASC", bun.Ident(o.Order))
	}
	if o.Skip >= 0 {
		q = q.Offset(o.Skip)
	}
	if o.Take >= 0 {
		q = q.Limit(o.Take)
	}
	return q
}
