package model

import (
	"errors"
	"strings"
)

// Asset is the display code of a currency, e.g. XBT or EUR
type Asset string

// some of the assets traded on Kraken, the list is only used for symbol conversion
const (
	XBT Asset = "XBT"
	ETH Asset = "ETH"
	LTC Asset = "LTC"
	XLM Asset = "XLM"
	XRP Asset = "XRP"
	ETC Asset = "ETC"
	XDG Asset = "XDG"
	XMR Asset = "XMR"
	ZEC Asset = "ZEC"
	REP Asset = "REP"
	MLN Asset = "MLN"
	EUR Asset = "EUR"
	USD Asset = "USD"
	GBP Asset = "GBP"
	JPY Asset = "JPY"
	CAD Asset = "CAD"
)

// AssetConverter converts exchange symbols to the asset type, it is specific to an exchange
type AssetConverter struct {
	string2Asset map[string]Asset
}

// MakeAssetConverter is a factory method for AssetConverter
func MakeAssetConverter(asset2String map[Asset]string) *AssetConverter {
	string2Asset := map[string]Asset{}
	for a, s := range asset2String {
		string2Asset[s] = a
	}

	return &AssetConverter{
		string2Asset: string2Asset,
	}
}

// FromString converts from a string to an asset
func (c AssetConverter) FromString(s string) (Asset, error) {
	a, ok := c.string2Asset[s]
	if !ok {
		return "", errors.New("asset converter could not recognize string: " + s)
	}
	return a, nil
}

// KrakenAssetConverter is the asset converter for the Kraken exchange
var KrakenAssetConverter = MakeAssetConverter(map[Asset]string{
	XBT: "XXBT",
	ETH: "XETH",
	LTC: "XLTC",
	XLM: "XXLM",
	XRP: "XXRP",
	ETC: "XETC",
	XDG: "XXDG",
	XMR: "XXMR",
	ZEC: "XZEC",
	REP: "XREP",
	MLN: "XMLN",
	EUR: "ZEUR",
	USD: "ZUSD",
	GBP: "ZGBP",
	JPY: "ZJPY",
	CAD: "ZCAD",
})

// KrakenAsset converts a Kraken asset symbol to an Asset. Symbols missing from KrakenAssetConverter follow
// the legacy Kraken naming: 4 letter codes starting with X (crypto) or Z (fiat) drop the prefix.
func KrakenAsset(symbol string) Asset {
	if a, e := KrakenAssetConverter.FromString(symbol); e == nil {
		return a
	}
	if len(symbol) == 4 && (strings.HasPrefix(symbol, "X") || strings.HasPrefix(symbol, "Z")) {
		return Asset(symbol[1:])
	}
	return Asset(symbol)
}
