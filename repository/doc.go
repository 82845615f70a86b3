// Package repository provides a generic CRUD repository facade built on Bun.
// Every operation acquires a fresh database session, delegates filtering,
// ordering, paging, and eager loading to Bun's query builder, and releases
// the session before returning. Asynchronous variants run the identical
// operation on a background worker pool and expose the result as a future.
package repository
