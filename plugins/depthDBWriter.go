package plugins

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/krakentools/krakentools/api"
	"github.com/krakentools/krakentools/krakendb"
	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/database"
)

// DepthDBWriter stores order books and public trades in a sqlite database
type DepthDBWriter struct {
	db *sql.DB
}

// MakeDepthDBWriter is a factory method
func MakeDepthDBWriter(sqlDbPath string, codeVersionString string) (*DepthDBWriter, error) {
	db, e := database.ConnectInitializedDatabase(sqlDbPath, krakendb.UpgradeScripts, codeVersionString)
	if e != nil {
		return nil, fmt.Errorf("could not open depth database: %s", e)
	}

	log.Printf("making DepthDBWriter with db path: %s\n", sqlDbPath)
	return &DepthDBWriter{
		db: db,
	}, nil
}

// Close releases the database
func (w *DepthDBWriter) Close() error {
	return w.db.Close()
}

func (w *DepthDBWriter) inTransaction(fn func(tx *sql.Tx) error) error {
	tx, e := w.db.Begin()
	if e != nil {
		return fmt.Errorf("could not start transaction: %s", e)
	}
	defer tx.Rollback()

	e = fn(tx)
	if e != nil {
		return e
	}
	return tx.Commit()
}

// WritePairs inserts the pairs or refreshes their fees
func (w *DepthDBWriter) WritePairs(pairs []model.TradablePair) error {
	return w.inTransaction(func(tx *sql.Tx) error {
		for _, p := range pairs {
			_, e := tx.Exec(krakendb.SqlPairsUpsert, p.Name, string(p.Pair.Base), string(p.Pair.Quote), p.TakerFee, p.MakerFee)
			if e != nil {
				return fmt.Errorf("could not write pair %s: %s", p.Name, e)
			}
		}
		return nil
	})
}

// PairNames lists the pairs stored in the database
func (w *DepthDBWriter) PairNames() ([]string, error) {
	rows, e := w.db.Query(krakendb.SqlQueryPairNames)
	if e != nil {
		return nil, fmt.Errorf("could not query pairs: %s", e)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		e = rows.Scan(&name)
		if e != nil {
			return nil, fmt.Errorf("could not scan pair name: %s", e)
		}
		names = append(names, name)
	}
	return names, nil
}

// WriteOrderBook stores every level of the book, seen is the time the book was fetched in exchange time
func (w *DepthDBWriter) WriteOrderBook(pairName string, book *model.OrderBook, seen time.Time) error {
	write := func(tx *sql.Tx, side string, orders []model.Order) error {
		for _, o := range orders {
			orderTime := seen.Unix()
			if o.Timestamp != nil {
				orderTime = o.Timestamp.AsInt64() / 1000
			}
			_, e := tx.Exec(krakendb.SqlOrderBookUpsert, pairName, side, o.Price.AsFloat(), o.Volume.AsFloat(), orderTime, seen.Unix())
			if e != nil {
				return fmt.Errorf("could not write %s of %s: %s", side, pairName, e)
			}
		}
		return nil
	}

	return w.inTransaction(func(tx *sql.Tx) error {
		e := write(tx, "asks", book.Asks())
		if e != nil {
			return e
		}
		return write(tx, "bids", book.Bids())
	})
}

// WriteTrades stores public trades and moves the sync cursor of the pair in the same transaction
func (w *DepthDBWriter) WriteTrades(pairName string, trades []model.Trade, cursor string) error {
	return w.inTransaction(func(tx *sql.Tx) error {
		for _, t := range trades {
			side := "b"
			if t.OrderAction.IsSell() {
				side = "s"
			}
			orderType := "l"
			if !t.OrderType.IsLimit() {
				orderType = "m"
			}
			seconds := float64(t.Timestamp.AsInt64()) / 1000
			_, e := tx.Exec(krakendb.SqlTradesInsert, pairName, t.Price.AsFloat(), t.Volume.AsFloat(), seconds, side, orderType, t.Misc)
			if e != nil {
				return fmt.Errorf("could not write trade of %s: %s", pairName, e)
			}
		}

		if cursor == "" {
			return nil
		}
		_, e := tx.Exec(krakendb.SqlTimestampsUpsert, recentTradesTimestamp(pairName), cursor)
		if e != nil {
			return fmt.Errorf("could not store trades cursor of %s: %s", pairName, e)
		}
		return nil
	})
}

func recentTradesTimestamp(pairName string) string {
	return "RecentTrades-" + pairName
}

// GetTimestamp returns the stored sync cursor, nil when the cursor was never stored
func (w *DepthDBWriter) GetTimestamp(name string) (*string, error) {
	var value string
	e := w.db.QueryRow(krakendb.SqlQueryTimestamp, name).Scan(&value)
	if e == sql.ErrNoRows {
		return nil, nil
	}
	if e != nil {
		return nil, fmt.Errorf("could not query timestamp '%s': %s", name, e)
	}
	return &value, nil
}

// CountOrderBookLevels is the number of distinct levels stored for a pair
func (w *DepthDBWriter) CountOrderBookLevels(pairName string) (int, error) {
	var count int
	e := w.db.QueryRow(krakendb.SqlQueryOrderBookCount, pairName).Scan(&count)
	if e != nil {
		return 0, fmt.Errorf("could not count order book levels of %s: %s", pairName, e)
	}
	return count, nil
}

// ObservationTimes lists the distinct unix times at which order books were seen, oldest first
func (w *DepthDBWriter) ObservationTimes() ([]int64, error) {
	rows, e := w.db.Query(krakendb.SqlQueryObservationTimes)
	if e != nil {
		return nil, fmt.Errorf("could not query observation times: %s", e)
	}
	defer rows.Close()

	times := []int64{}
	for rows.Next() {
		var t int64
		e = rows.Scan(&t)
		if e != nil {
			return nil, fmt.Errorf("could not scan observation time: %s", e)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// SampleTimePoints returns a point every `every` seconds from the first observation up to (excluding) the last one.
// Points that fall strictly inside a gap of more than maxGap seconds between two observations are left out since
// no order book was recorded there. times needs to be sorted ascending.
func SampleTimePoints(times []int64, every int64, maxGap int64) ([]int64, error) {
	if every <= 0 {
		return nil, fmt.Errorf("sampling interval needs to be positive, was %d", every)
	}
	if maxGap < 0 {
		return nil, fmt.Errorf("max gap cannot be negative, was %d", maxGap)
	}
	points := []int64{}
	if len(times) == 0 {
		return points, nil
	}

	gap := 1
	for x := times[0]; x < times[len(times)-1]; x += every {
		// times[gap] is the first observation at or after x
		for times[gap] < x {
			gap++
		}
		if times[gap]-times[gap-1] > maxGap && x > times[gap-1] && x < times[gap] {
			continue
		}
		points = append(points, x)
	}
	return points, nil
}

// DepthLogger syncs order books and recent trades of pairs into a DepthDBWriter
type DepthLogger struct {
	exchange api.MarketDataAPI
	writer   *DepthDBWriter
	// clockOffset is added to the local clock to get the exchange time
	clockOffset time.Duration
}

// MakeDepthLogger is a factory method, it reads the exchange clock once
func MakeDepthLogger(exchange api.MarketDataAPI, writer *DepthDBWriter) (*DepthLogger, error) {
	serverTime, e := exchange.GetServerTime()
	if e != nil {
		return nil, fmt.Errorf("could not make depth logger: %s", e)
	}

	offset := serverTime.Sub(time.Now())
	log.Printf("kraken clock offset is %s\n", offset)
	return &DepthLogger{
		exchange:    exchange,
		writer:      writer,
		clockOffset: offset,
	}, nil
}

// SyncOrderBook fetches and stores the order book of a pair
func (d *DepthLogger) SyncOrderBook(pair model.TradablePair, count int32) error {
	book, e := d.exchange.GetOrderBook(pair, count)
	if e != nil {
		return fmt.Errorf("could not sync order book: %s", e)
	}
	seen := time.Now().Add(d.clockOffset)

	e = d.writer.WriteOrderBook(pair.Name, book, seen)
	if e != nil {
		return fmt.Errorf("could not sync order book: %s", e)
	}
	log.Printf("stored %d asks and %d bids of %s\n", len(book.Asks()), len(book.Bids()), pair.Name)
	return nil
}

// SyncRecentTrades fetches the trades of a pair newer than its stored cursor
func (d *DepthLogger) SyncRecentTrades(pair model.TradablePair) error {
	cursor, e := d.writer.GetTimestamp(recentTradesTimestamp(pair.Name))
	if e != nil {
		return fmt.Errorf("could not sync recent trades: %s", e)
	}

	result, e := d.exchange.GetTrades(pair, cursor)
	if e != nil {
		return fmt.Errorf("could not sync recent trades: %s", e)
	}

	e = d.writer.WriteTrades(pair.Name, result.Trades, result.Cursor)
	if e != nil {
		return fmt.Errorf("could not sync recent trades: %s", e)
	}
	log.Printf("stored %d trades of %s\n", len(result.Trades), pair.Name)
	return nil
}
