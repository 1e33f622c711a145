package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	// registers the sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// TimestampFormatString is the format of the timestamps stored as TEXT
const TimestampFormatString = "2006-01-02 15:04:05.000"

// sqlDbVersionTableInsertTemplate inserts into the db_version table
const sqlDbVersionTableInsertTemplate1 = "INSERT INTO db_version (version, date_completed_utc, num_scripts, time_elapsed_millis) VALUES (?, ?, ?, ?)"
const sqlDbVersionTableInsertTemplate2 = "INSERT INTO db_version (version, date_completed_utc, num_scripts, time_elapsed_millis, code_version_string) VALUES (?, ?, ?, ?, ?)"

// UpgradeScript encapsulates a script to be run to upgrade the database from one version to the next
type UpgradeScript struct {
	version  uint32
	commands []string
}

// MakeUpgradeScript encapsulates a script to be run to upgrade the database from one version to the next
func MakeUpgradeScript(version uint32, command string, moreCommands ...string) *UpgradeScript {
	allCommands := []string{command}
	allCommands = append(allCommands, moreCommands...)

	return &UpgradeScript{
		version:  version,
		commands: allCommands,
	}
}

// Version is the database version after this script ran
func (s *UpgradeScript) Version() uint32 {
	return s.version
}

// UpgradeScripts are the metadata tables every database starts with
var UpgradeScripts = []*UpgradeScript{
	MakeUpgradeScript(1, SqlDbVersionTableCreate),
	MakeUpgradeScript(2, SqlDbVersionTableAlter1),
}

// SqliteDSN builds the connection string of a sqlite file. Transactions take the write lock when they begin
// so that concurrent processes queue up behind busyTimeout instead of failing on upgrade.
func SqliteDSN(path string, busyTimeout time.Duration) string {
	return fmt.Sprintf("file:%s?_txlock=exclusive&_busy_timeout=%d", path, busyTimeout.Milliseconds())
}

// ConnectInitializedDatabase opens the sqlite database at path, creating it if needed, and runs the upgrade scripts
func ConnectInitializedDatabase(path string, upgradeScripts []*UpgradeScript, codeVersionString string) (*sql.DB, error) {
	db, e := sql.Open("sqlite3", SqliteDSN(path, 15*time.Second))
	if e != nil {
		return nil, fmt.Errorf("could not open database '%s': %s", path, e)
	}
	// a single connection serializes writers inside this process, other processes wait on the busy timeout
	db.SetMaxOpenConns(1)
	// don't defer db.Close() here becuase we want it open for the life of the application for now

	log.Printf("creating db schema and running upgrade scripts on '%s' ...\n", path)
	e = RunUpgradeScripts(db, upgradeScripts, codeVersionString)
	if e != nil {
		db.Close()
		return nil, fmt.Errorf("could not run upgrade scripts: %s", e)
	}
	log.Printf("... finished creating db schema and running upgrade scripts\n")

	return db, nil
}

// RunUpgradeScripts is a utility function that can be run from outside this package so we need to export it
func RunUpgradeScripts(db *sql.DB, scripts []*UpgradeScript, codeVersionString string) error {
	// save feature flags for the db_version table here
	hasCodeVersionString := false

	for _, script := range scripts {
		// fetch the db version inside the for loop because it constantly gets updated
		currentDbVersion, e := QueryDbVersion(db)
		if e != nil {
			return fmt.Errorf("could not fetch current db version: %s", e)
		}

		if script.version <= currentDbVersion {
			log.Printf("   skipping upgrade script for version %d because current db version (%d) is equal or ahead\n", script.version, currentDbVersion)
			for _, command := range script.commands {
				if command == SqlDbVersionTableAlter1 {
					hasCodeVersionString = true
				}
			}
			continue
		}

		e = runUpgradeScript(db, script, currentDbVersion, &hasCodeVersionString, codeVersionString)
		if e != nil {
			return e
		}
	}
	return nil
}

func runUpgradeScript(db *sql.DB, script *UpgradeScript, currentDbVersion uint32, hasCodeVersionString *bool, codeVersionString string) error {
	tx, e := db.Begin()
	if e != nil {
		return fmt.Errorf("could not start transaction before upgrading db to version %d: %s", script.version, e)
	}
	// Rollback is a noop if the transaction commits successfully
	defer tx.Rollback()

	startTime := time.Now()
	for ci, command := range script.commands {
		_, e = tx.Exec(command)
		if e != nil {
			return fmt.Errorf("could not execute sql statement at index %d for db version %d (%s): %s", ci, script.version, command, e)
		}
		log.Printf("   executed sql statement at index %d for db version %d", ci, script.version)
	}
	elapsedMillis := time.Since(startTime).Milliseconds()

	// update feature flags here where required after running a script so we don't need to hard-code version numbers which can be different for different consumers of this API
	for _, command := range script.commands {
		if command == SqlDbVersionTableAlter1 {
			// if we have run this alter table command it means the database version has the code_version_string feature
			*hasCodeVersionString = true
		}
	}

	dateCompleted := startTime.UTC().Format(TimestampFormatString)
	if *hasCodeVersionString {
		_, e = tx.Exec(sqlDbVersionTableInsertTemplate2, script.version, dateCompleted, len(script.commands), elapsedMillis, codeVersionString)
	} else {
		_, e = tx.Exec(sqlDbVersionTableInsertTemplate1, script.version, dateCompleted, len(script.commands), elapsedMillis)
	}
	if e != nil {
		// duplicate insert should return an error
		return fmt.Errorf("could not add an entry to the db_version table for upgrade script (db_version=%d) for current db version %d: %s", script.version, currentDbVersion, e)
	}

	e = tx.Commit()
	if e != nil {
		return fmt.Errorf("could not commit transaction after upgrading db to version %d: %s", script.version, e)
	}
	log.Printf("   successfully ran %d upgrade commands and upgraded to version %d of the database in %d milliseconds\n", len(script.commands), script.version, elapsedMillis)
	return nil
}
