package model

import (
	"fmt"
)

// TradingPair lists an ordered pair that is understood by the exchange API.
// XBT/EUR = 27000; XBT is base, EUR is Quote.
type TradingPair struct {
	// Base represents the asset that has a unit of 1 (implicit)
	Base Asset
	// Quote represents the asset that has its unit specified relative to the base asset
	Quote Asset
}

// MakeTradingPair is a factory method
func MakeTradingPair(base Asset, quote Asset) *TradingPair {
	return &TradingPair{
		Base:  base,
		Quote: quote,
	}
}

// String is the stringer function
func (p TradingPair) String() string {
	return string(p.Base) + "/" + string(p.Quote)
}

// TradablePair is a market listed on the exchange together with its fee schedule
type TradablePair struct {
	// Name is the exchange symbol of the pair, e.g. XXBTZEUR
	Name string
	Pair TradingPair
	// fees are fractions, 0.0026 is 0.26%
	TakerFee float64
	MakerFee float64
}

// MakeTradablePair is a factory method
func MakeTradablePair(name string, base Asset, quote Asset, takerFee float64, makerFee float64) *TradablePair {
	return &TradablePair{
		Name:     name,
		Pair:     TradingPair{Base: base, Quote: quote},
		TakerFee: takerFee,
		MakerFee: makerFee,
	}
}

// Validate checks the invariants of the pair metadata
func (p TradablePair) Validate() error {
	if p.Pair.Base == "" || p.Pair.Quote == "" {
		return fmt.Errorf("pair '%s' has an empty base or quote asset: %s", p.Name, p.Pair)
	}
	if p.Pair.Base == p.Pair.Quote {
		return fmt.Errorf("pair '%s' has the same base and quote asset: %s", p.Name, p.Pair.Base)
	}
	if p.TakerFee < 0 || p.TakerFee >= 1 {
		return fmt.Errorf("pair '%s' has an invalid taker fee: %f", p.Name, p.TakerFee)
	}
	if p.MakerFee < 0 || p.MakerFee >= 1 {
		return fmt.Errorf("pair '%s' has an invalid maker fee: %f", p.Name, p.MakerFee)
	}
	return nil
}

// String is the stringer function
func (p TradablePair) String() string {
	return fmt.Sprintf("TradablePair[name=%s, pair=%s, takerFee=%.4f, makerFee=%.4f]", p.Name, p.Pair, p.TakerFee, p.MakerFee)
}
