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
	"path/filepath"
	"sync"
	"testing"

	"github.com/gannetio/gannet/database"
	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID       int64   `bun:"id,pk,autoincrement"`
	Title    string  `bun:"title,notnull"`
	Pages    int     `bun:"pages"`
	AuthorID int64   `bun:"author_id"`
	Author   *Author `bun:"rel:belongs-to,join:author_id=id"`
}

var registerModelsOnce sync.Once

func newTestProvider(t *testing.T) *database.SessionProvider {
	t.Helper()
	registerModelsOnce.Do(func() {
		database.RegisterModel(database.NewModel((*Author)(nil), 1))
		database.RegisterModel(database.NewModel((*Book)(nil), 2))
	})

	cfg := database.DefaultConfig()
	cfg.Connection.Type = "sqlite"
	cfg.Connection.DBName = filepath.Join(t.TempDir(), "gannet_repository_test")
	cfg.Connection.HealthCheckInterval = 0
	// SQLite tolerates a single writer; one pooled connection keeps the
	// concurrent async tests free of SQLITE_BUSY noise.
	cfg.Connection.MaxOpenConns = 1
	cfg.Connection.MaxIdleConns = 1

	manager := database.NewManager(&cfg.Connection)
	ctx := context.Background()
	if err := manager.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = manager.Disconnect() })
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database.NewSessionProvider(manager, cfg.Migrate)
}

func seedBooks(t *testing.T, repo Repository[Book], books ...*Book) {
	t.Helper()
	ok, err := repo.Create(context.Background(), books...)
	if err != nil {
		t.Fatalf("seed books: %v", err)
	}
	if !ok {
		t.Fatalf("seed books: create reported failure")
	}
}

func defaultBooks() []*Book {
	return []*Book{
		{ID: 1, Title: "The Left Hand of Darkness", Pages: 304, AuthorID: 1},
		{ID: 2, Title: "The Dispossessed", Pages: 387, AuthorID: 1},
		{ID: 3, Title: "A Wizard of Earthsea", Pages: 183, AuthorID: 1},
		{ID: 4, Title: "Solaris", Pages: 204, AuthorID: 2},
		{ID: 5, Title: "The Cyberiad", Pages: 295, AuthorID: 2},
	}
}

func TestAllReturnsFullSet(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	books := defaultBooks()
	seedBooks(t, repo, books...)

	got, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != len(books) {
		t.Fatalf("expected %d books, got %d", len(books), len(got))
	}
	for i, b := range got {
		if b.ID != books[i].ID || b.Title != books[i].Title {
			t.Fatalf("row %d: expected %+v, got %+v", i, books[i], b)
		}
	}
}

func TestAllEmptySet(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))

	got, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d rows", len(got))
	}
}

func TestAllWithFilter(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	seedBooks(t, repo, defaultBooks()...)

	got, err := repo.All(context.Background(), Where("pages > ?", 300))
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 books over 300 pages, got %d", len(got))
	}
	for _, b := range got {
		if b.Pages <= 300 {
			t.Fatalf("filter leaked: %+v", b)
		}
	}
}

func TestAllSkipTake(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	books := defaultBooks()
	seedBooks(t, repo, books...)
	ctx := context.Background()

	// Skip and take form a window over the ordered result.
	got, err := repo.All(ctx, OrderBy("id"), Skip(1), Take(2))
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("expected ids [2 3], got %+v", got)
	}

	// Take without skip keeps the leading prefix.
	got, err = repo.All(ctx, OrderBy("id"), Take(3))
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 3 || got[0].ID != 1 {
		t.Fatalf("expected leading prefix of 3, got %+v", got)
	}

	// Skip beyond the available count yields an empty result.
	got, err = repo.All(ctx, OrderBy("id"), Skip(100), Take(10))
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d rows", len(got))
	}
}

func TestAllOrderAscending(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	seedBooks(t, repo, defaultBooks()...)

	got, err := repo.All(context.Background(), OrderBy("pages"))
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Pages > got[i].Pages {
			t.Fatalf("result not ascending by pages: %d before %d", got[i-1].Pages, got[i].Pages)
		}
	}
}

func TestAnyMatchesAll(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	seedBooks(t, repo, defaultBooks()...)
	ctx := context.Background()

	for _, filter := range []QueryOption{
		Where("pages > ?", 300),
		Where("pages > ?", 1000),
		Where("title = ?", "Solaris"),
	} {
		any, err := repo.Any(ctx, filter)
		if err != nil {
			t.Fatalf("any: %v", err)
		}
		all, err := repo.All(ctx, filter)
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if any != (len(all) > 0) {
			t.Fatalf("Any=%v disagrees with All (len=%d)", any, len(all))
		}
	}
}

func TestAnyWithoutFilter(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	ctx := context.Background()

	any, err := repo.Any(ctx)
	if err != nil {
		t.Fatalf("any: %v", err)
	}
	if any {
		t.Fatalf("expected empty set to report false")
	}

	seedBooks(t, repo, defaultBooks()...)
	any, err = repo.Any(ctx)
	if err != nil {
		t.Fatalf("any: %v", err)
	}
	if !any {
		t.Fatalf("expected non-empty set to report true")
	}
}

func TestGetFirstMatch(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	seedBooks(t, repo, defaultBooks()...)
	ctx := context.Background()

	got, err := repo.Get(ctx, Where("author_id = ?", 2))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	all, err := repo.All(ctx, Where("author_id = ?", 2))
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if got == nil || len(all) == 0 || got.ID != all[0].ID {
		t.Fatalf("Get did not return the first element of All")
	}
}

func TestGetAbsentReturnsNil(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	seedBooks(t, repo, defaultBooks()...)

	got, err := repo.Get(context.Background(), Where("title = ?", "no such book"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent entity, got %+v", got)
	}
}

func TestGetRequiresFilter(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))

	_, err := repo.Get(context.Background())
	if !errors.Is(err, ErrFilterRequired) {
		t.Fatalf("expected ErrFilterRequired, got %v", err)
	}
}

func TestCreatePersistsAndReportsTrue(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	ctx := context.Background()

	e1 := &Book{ID: 10, Title: "Roadside Picnic", Pages: 224}
	e2 := &Book{ID: 11, Title: "Hard to Be a God", Pages: 246}
	ok, err := repo.Create(ctx, e1, e2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !ok {
		t.Fatalf("create reported failure")
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	found := 0
	for _, b := range all {
		if b.ID == e1.ID || b.ID == e2.ID {
			found++
		}
	}
	if found != 2 {
		t.Fatalf("expected both created books in All, found %d", found)
	}
}

func TestUpdatePersists(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	ctx := context.Background()
	seedBooks(t, repo, defaultBooks()...)

	book := &Book{ID: 4, Title: "Solaris (revised)", Pages: 212, AuthorID: 2}
	ok, err := repo.Update(ctx, book)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !ok {
		t.Fatalf("update reported failure")
	}

	got, err := repo.Get(ctx, Where("id = ?", 4))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Title != "Solaris (revised)" || got.Pages != 212 {
		t.Fatalf("update not visible: %+v", got)
	}
}

func TestUpdateMissingRowReportsFalse(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	ctx := context.Background()

	ok, err := repo.Update(ctx, &Book{ID: 999, Title: "ghost"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ok {
		t.Fatalf("expected false when fewer rows than entities were affected")
	}
}

func TestDeleteRemoves(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	ctx := context.Background()
	seedBooks(t, repo, defaultBooks()...)

	ok, err := repo.Delete(ctx, &Book{ID: 3})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Fatalf("delete reported failure")
	}

	any, err := repo.Any(ctx, Where("id = ?", 3))
	if err != nil {
		t.Fatalf("any: %v", err)
	}
	if any {
		t.Fatalf("deleted entity still present")
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 remaining books, got %d", len(all))
	}
}

func TestZeroEntityMutations(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	ctx := context.Background()
	seedBooks(t, repo, defaultBooks()...)

	for name, fn := range map[string]func() (bool, error){
		"create": func() (bool, error) { return repo.Create(ctx) },
		"update": func() (bool, error) { return repo.Update(ctx) },
		"delete": func() (bool, error) { return repo.Delete(ctx) },
	} {
		ok, err := fn()
		if err != nil {
			t.Fatalf("%s with zero entities: %v", name, err)
		}
		if !ok {
			t.Fatalf("%s with zero entities should report true", name)
		}
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("zero-entity mutations must leave the store unchanged, got %d rows", len(all))
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	ctx := context.Background()

	created := &Book{ID: 42, Title: "Invisible Cities", Pages: 165, AuthorID: 7}
	ok, err := repo.Create(ctx, created)
	if err != nil || !ok {
		t.Fatalf("create: ok=%v err=%v", ok, err)
	}

	got, err := repo.Get(ctx, Where("id = ?", created.ID))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatalf("round trip lost the entity")
	}
	if got.ID != created.ID || got.Title != created.Title ||
		got.Pages != created.Pages || got.AuthorID != created.AuthorID {
		t.Fatalf("round trip mismatch: created %+v, got %+v", created, got)
	}
}

func TestIncludeEagerLoadsRelation(t *testing.T) {
	provider := newTestProvider(t)
	authors := NewRepository[Author](provider)
	books := NewRepository[Book](provider)
	ctx := context.Background()

	if ok, err := authors.Create(ctx, &Author{ID: 1, Name: "Ursula K. Le Guin"}); err != nil || !ok {
		t.Fatalf("create author: ok=%v err=%v", ok, err)
	}
	seedBooks(t, books, &Book{ID: 1, Title: "The Dispossessed", Pages: 387, AuthorID: 1})

	got, err := books.Get(ctx, Where("b.id = ?", 1), Include("Author"))
	if err != nil {
		t.Fatalf("get with include: %v", err)
	}
	if got == nil || got.Author == nil {
		t.Fatalf("expected Author relation to be loaded, got %+v", got)
	}
	if got.Author.Name != "Ursula K. Le Guin" {
		t.Fatalf("unexpected author: %+v", got.Author)
	}

	// Without the include the relation stays nil.
	bare, err := books.Get(ctx, Where("b.id = ?", 1))
	if err != nil {
		t.Fatalf("get without include: %v", err)
	}
	if bare == nil || bare.Author != nil {
		t.Fatalf("relation should not load without an include, got %+v", bare)
	}
}

func TestAsyncVariantsAgree(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))
	ctx := context.Background()

	created, err := repo.CreateAsync(ctx, defaultBooks()...).Wait()
	if err != nil {
		t.Fatalf("create async: %v", err)
	}
	if !created {
		t.Fatalf("create async reported failure")
	}

	all, err := repo.AllAsync(ctx, OrderBy("id")).Wait()
	if err != nil {
		t.Fatalf("all async: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 books, got %d", len(all))
	}

	any, err := repo.AnyAsync(ctx, Where("pages > ?", 300)).Wait()
	if err != nil {
		t.Fatalf("any async: %v", err)
	}
	if !any {
		t.Fatalf("any async expected true")
	}

	got, err := repo.GetAsync(ctx, Where("id = ?", 4)).Wait()
	if err != nil {
		t.Fatalf("get async: %v", err)
	}
	if got == nil || got.Title != "Solaris" {
		t.Fatalf("get async mismatch: %+v", got)
	}

	updated, err := repo.UpdateAsync(ctx, &Book{ID: 4, Title: "Solaris", Pages: 999, AuthorID: 2}).Wait()
	if err != nil || !updated {
		t.Fatalf("update async: ok=%v err=%v", updated, err)
	}

	deleted, err := repo.DeleteAsync(ctx, &Book{ID: 5}).Wait()
	if err != nil || !deleted {
		t.Fatalf("delete async: ok=%v err=%v", deleted, err)
	}

	rest, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(rest) != 4 {
		t.Fatalf("expected 4 books after async delete, got %d", len(rest))
	}
}

func TestAsyncErrorPropagates(t *testing.T) {
	repo := NewRepository[Book](newTestProvider(t))

	_, err := repo.GetAsync(context.Background()).Wait()
	if !errors.Is(err, ErrFilterRequired) {
		t.Fatalf("expected ErrFilterRequired through the future, got %v", err)
	}
}

func TestDedicatedExecutor(t *testing.T) {
	executor := NewExecutor(2)
	defer executor.Stop()

	repo := NewRepository[Book](newTestProvider(t), WithExecutor(executor))
	ctx := context.Background()

	futures := make([]*Future[bool], 0, 4)
	for i := 0; i < 4; i++ {
		futures = append(futures, repo.CreateAsync(ctx, &Book{ID: int64(100 + i), Title: "concurrent", Pages: i}))
	}
	for _, f := range futures {
		if ok, err := f.Wait(); err != nil || !ok {
			t.Fatalf("concurrent create: ok=%v err=%v", ok, err)
		}
	}

	count, err := repo.All(ctx, Where("title = ?", "concurrent"))
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(count) != 4 {
		t.Fatalf("expected 4 concurrent inserts, got %d", len(count))
	}
}
