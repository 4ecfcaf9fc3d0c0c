// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - CollectionStore: Collection configuration persistence
//   - RunStore: Run and run-error persistence
//
// # Durability
//
// Every write outside a transaction is committed by SQLite before the call
// returns. Cross-record mutations (cascade deletes, run finalisation) run
// inside an explicit transaction via WithTx: a crash mid-transaction loses
// the whole transaction, never part of one.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. A missing database file triggers fresh-schema
// creation, not an error.
//
// # Data Location
//
// By default, the database is stored at ~/.harvest/data/harvest.db. The
// file is exclusively owned by one process instance at a time; multi-process
// write sharing is not supported.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
