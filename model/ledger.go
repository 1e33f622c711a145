package model

import (
	"fmt"
)

// LedgerEntry is one movement of funds on the account, trades produce two entries sharing the same RefID
type LedgerEntry struct {
	ID     string  `mapstructure:"id" json:"id"`
	RefID  string  `mapstructure:"refid" json:"refid"`
	Time   float64 `mapstructure:"time" json:"time"`
	Type   string  `mapstructure:"type" json:"type"`
	Asset  string  `mapstructure:"asset" json:"asset"`
	Amount string  `mapstructure:"amount" json:"amount"`
	Fee    string  `mapstructure:"fee" json:"fee"`
	// Balance is the balance of Asset after this entry was applied
	Balance string `mapstructure:"balance" json:"balance"`
}

// IsTrade is true for ledger entries that are one leg of a trade
func (l LedgerEntry) IsTrade() bool {
	return l.Type == "trade"
}

// String is the stringer function
func (l LedgerEntry) String() string {
	return fmt.Sprintf("LedgerEntry[id=%s, refid=%s, time=%.4f, type=%s, asset=%s, amount=%s, fee=%s]",
		l.ID, l.RefID, l.Time, l.Type, l.Asset, l.Amount, l.Fee)
}
