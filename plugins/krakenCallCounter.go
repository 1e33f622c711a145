package plugins

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/krakentools/krakentools/krakendb"
	"github.com/krakentools/krakentools/support/database"
)

// CallCounter is the leaky bucket of Kraken API calls
type CallCounter interface {
	// Add decays the counter by decayPerSecond for the time elapsed since the last call, adds cost and returns the new value
	Add(cost float64, decayPerSecond float64) (float64, error)
}

func decay(counter float64, lastUpdate float64, now float64, decayPerSecond float64) float64 {
	counter -= (now - lastUpdate) * decayPerSecond
	return math.Max(counter, 0)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// memoryCallCounter is a CallCounter local to this process
type memoryCallCounter struct {
	mutex      sync.Mutex
	counter    float64
	lastUpdate float64
	now        func() time.Time
}

var _ CallCounter = &memoryCallCounter{}

// MakeMemoryCallCounter is a factory method
func MakeMemoryCallCounter(now func() time.Time) CallCounter {
	return &memoryCallCounter{now: now}
}

// Add impl
func (c *memoryCallCounter) Add(cost float64, decayPerSecond float64) (float64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := unixSeconds(c.now())
	c.counter = decay(c.counter, c.lastUpdate, now, decayPerSecond) + cost
	c.lastUpdate = now
	return c.counter, nil
}

// sqliteCallCounter keeps the counter in a sqlite file so every process using the same API key shares it
type sqliteCallCounter struct {
	db  *sql.DB
	now func() time.Time
}

var _ CallCounter = &sqliteCallCounter{}

// MakeSqliteCallCounter opens (or creates) the counter database at dbPath
func MakeSqliteCallCounter(dbPath string, now func() time.Time) (CallCounter, error) {
	db, e := database.ConnectInitializedDatabase(dbPath, krakendb.CounterUpgradeScripts, "")
	if e != nil {
		return nil, fmt.Errorf("could not open the call counter database: %s", e)
	}

	log.Printf("making sqliteCallCounter with db path: %s\n", dbPath)
	return &sqliteCallCounter{
		db:  db,
		now: now,
	}, nil
}

// Add impl, the read-modify-write runs in an exclusive transaction
func (c *sqliteCallCounter) Add(cost float64, decayPerSecond float64) (float64, error) {
	tx, e := c.db.Begin()
	if e != nil {
		return 0, fmt.Errorf("could not start call counter transaction: %s", e)
	}
	defer tx.Rollback()

	var counter, lastUpdate float64
	e = tx.QueryRow(krakendb.SqlQueryCounter).Scan(&counter, &lastUpdate)
	if e != nil {
		return 0, fmt.Errorf("could not read the call counter: %s", e)
	}

	now := unixSeconds(c.now())
	counter = decay(counter, lastUpdate, now, decayPerSecond) + cost
	_, e = tx.Exec(krakendb.SqlCounterUpdate, counter, now)
	if e != nil {
		return 0, fmt.Errorf("could not update the call counter: %s", e)
	}

	e = tx.Commit()
	if e != nil {
		return 0, fmt.Errorf("could not commit the call counter: %s", e)
	}
	return counter, nil
}

// Close releases the database
func (c *sqliteCallCounter) Close() error {
	return c.db.Close()
}
