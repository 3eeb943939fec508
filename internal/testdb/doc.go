// Package testdb provides migrated databases for store and server tests.
//
// By default every call to Open returns a fresh in-memory SQLite database.
// When TASKFLOW_TEST_DATABASE_URL (or DATABASE_URL) points at PostgreSQL,
// Open instead creates a throwaway schema on that server, so the same
// tests run against both drivers without sharing rows:
//
//	func TestTaskStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.Open(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
//	        store := sqlstore.NewTaskStore(tx, nil)
//	        // changes are rolled back when fn returns
//	    })
//	}
package testdb
