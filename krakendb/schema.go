package krakendb

import (
	"github.com/krakentools/krakentools/support/database"
)

/*
	tables
*/
const SqlPairsTableCreate = "CREATE TABLE IF NOT EXISTS pairs (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, base TEXT NOT NULL, quote TEXT NOT NULL, taker_fee REAL NOT NULL, maker_fee REAL NOT NULL)"
const SqlOrderBookTableCreate = "CREATE TABLE IF NOT EXISTS order_book (pair_id INTEGER NOT NULL REFERENCES pairs (id), type TEXT NOT NULL, price REAL NOT NULL, volume REAL NOT NULL, time INTEGER NOT NULL, time_l INTEGER NOT NULL, PRIMARY KEY (pair_id, type, price, volume, time))"
const SqlTradesTableCreate = "CREATE TABLE IF NOT EXISTS trades (pair_id INTEGER NOT NULL REFERENCES pairs (id), price REAL NOT NULL, volume REAL NOT NULL, time REAL NOT NULL, side TEXT NOT NULL, type TEXT NOT NULL, misc TEXT NOT NULL, PRIMARY KEY (pair_id, time, price, volume, side))"
const SqlTimestampsTableCreate = "CREATE TABLE IF NOT EXISTS timestamps (name TEXT PRIMARY KEY, time TEXT NOT NULL)"

// the call counter lives in its own database file so that every process using the same API key shares it
const SqlCounterTableCreate = "CREATE TABLE IF NOT EXISTS counter (lock CHAR(1) NOT NULL DEFAULT 'X', counter REAL NOT NULL, time REAL NOT NULL, PRIMARY KEY (lock), CHECK (lock = 'X'))"
const SqlCounterSeed = "INSERT OR IGNORE INTO counter (counter, time) VALUES (0, 0)"

/*
	indexes
*/
const SqlOrderBookIndexCreate = "CREATE INDEX IF NOT EXISTS order_book_time ON order_book (pair_id, time_l)"
const SqlTradesIndexCreate = "CREATE INDEX IF NOT EXISTS trades_time ON trades (pair_id, time)"

/*
	insert statements
*/
// SqlPairsUpsert inserts a pair or refreshes its fees, the id is kept so rows referencing it stay valid
const SqlPairsUpsert = "INSERT INTO pairs (name, base, quote, taker_fee, maker_fee) VALUES (?, ?, ?, ?, ?) ON CONFLICT (name) DO UPDATE SET taker_fee = excluded.taker_fee, maker_fee = excluded.maker_fee"

// SqlOrderBookUpsert inserts an order book level, a level seen again only updates the time it was last seen (time_l)
const SqlOrderBookUpsert = "INSERT INTO order_book (pair_id, type, price, volume, time, time_l) VALUES ((SELECT id FROM pairs WHERE name = ?), ?, ?, ?, ?, ?) ON CONFLICT (pair_id, type, price, volume, time) DO UPDATE SET time_l = excluded.time_l"

// SqlTradesInsert inserts a public trade, trades fetched twice are ignored
const SqlTradesInsert = "INSERT OR IGNORE INTO trades (pair_id, price, volume, time, side, type, misc) VALUES ((SELECT id FROM pairs WHERE name = ?), ?, ?, ?, ?, ?, ?)"

// SqlTimestampsUpsert stores a sync cursor
const SqlTimestampsUpsert = "INSERT OR REPLACE INTO timestamps (name, time) VALUES (?, ?)"

// SqlCounterUpdate stores the decayed call counter
const SqlCounterUpdate = "UPDATE counter SET counter = ?, time = ?"

/*
	queries
*/
// SqlQueryPairNames lists the names of the pairs
const SqlQueryPairNames = "SELECT name FROM pairs ORDER BY name"

// SqlQueryTimestamp queries a sync cursor
const SqlQueryTimestamp = "SELECT time FROM timestamps WHERE name = ?"

// SqlQueryOrderBookCount counts the levels stored for a pair
const SqlQueryOrderBookCount = "SELECT COUNT(*) FROM order_book WHERE pair_id = (SELECT id FROM pairs WHERE name = ?)"

// SqlQueryObservationTimes lists every distinct time an order book was last seen
const SqlQueryObservationTimes = "SELECT DISTINCT time_l FROM order_book ORDER BY time_l"

// SqlQueryCounter reads the call counter
const SqlQueryCounter = "SELECT counter, time FROM counter"

// UpgradeScripts of the log-depth database
var UpgradeScripts = []*database.UpgradeScript{
	database.MakeUpgradeScript(1, database.SqlDbVersionTableCreate),
	database.MakeUpgradeScript(2, database.SqlDbVersionTableAlter1),
	database.MakeUpgradeScript(3,
		SqlPairsTableCreate,
		SqlOrderBookTableCreate,
		SqlTradesTableCreate,
		SqlTimestampsTableCreate,
	),
	database.MakeUpgradeScript(4,
		SqlOrderBookIndexCreate,
		SqlTradesIndexCreate,
	),
}

// CounterUpgradeScripts of the call counter database
var CounterUpgradeScripts = []*database.UpgradeScript{
	database.MakeUpgradeScript(1, database.SqlDbVersionTableCreate),
	database.MakeUpgradeScript(2, database.SqlDbVersionTableAlter1),
	database.MakeUpgradeScript(3,
		SqlCounterTableCreate,
		SqlCounterSeed,
	),
}
