// Package database provides SQLite connectivity for the run ledger.
//
// It wraps database/sql with the mattn/go-sqlite3 driver, configuring WAL
// mode, busy timeout, and a single-writer connection pool. The ledger
// repository owns its own schema; this package only manages the connection
// lifecycle.
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        "./db/run_metadata.db",
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
package database
