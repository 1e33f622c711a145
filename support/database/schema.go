package database

import (
	"database/sql"
	"fmt"
	"log"
)

/*
	tables
*/
const SqlDbVersionTableCreate = "CREATE TABLE IF NOT EXISTS db_version (version INTEGER NOT NULL, date_completed_utc TEXT NOT NULL, num_scripts INTEGER NOT NULL, time_elapsed_millis INTEGER NOT NULL, PRIMARY KEY (version))"
const SqlDbVersionTableAlter1 = "ALTER TABLE db_version ADD COLUMN code_version_string TEXT"

/*
	queries
*/
// sqlQueryDbVersion queries the db_version table
const sqlQueryDbVersion = "SELECT version FROM db_version ORDER BY version desc LIMIT 1"

// sqlQueryTableExists checks the sqlite catalog for a table
const sqlQueryTableExists = "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?"

/*
	query helper functions
*/
// QueryDbVersion queries for the version of the database, a database without the db_version table is at version 0
func QueryDbVersion(db *sql.DB) (uint32, error) {
	hasTable, e := TableExists(db, "db_version")
	if e != nil {
		return 0, e
	}
	if !hasTable {
		return 0, nil
	}

	rows, e := db.Query(sqlQueryDbVersion)
	if e != nil {
		return 0, fmt.Errorf("could not execute sql select query (%s): %s", sqlQueryDbVersion, e)
	}
	defer rows.Close()

	for rows.Next() {
		var dbVersion uint32
		e = rows.Scan(&dbVersion)
		if e != nil {
			return 0, fmt.Errorf("could not scan row to get the db version: %s", e)
		}

		log.Printf("fetched dbVersion from db: %d", dbVersion)
		return dbVersion, nil
	}

	return 0, nil
}

// TableExists is well-named
func TableExists(db *sql.DB, tableName string) (bool, error) {
	rows, e := db.Query(sqlQueryTableExists, tableName)
	if e != nil {
		return false, fmt.Errorf("could not check whether table '%s' exists: %s", tableName, e)
	}
	defer rows.Close()

	return rows.Next(), nil
}
