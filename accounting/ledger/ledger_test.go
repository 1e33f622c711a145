package ledger

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/logger"
	"github.com/krakentools/krakentools/support/utils"
)

var testAccounts = Accounts{
	Account:    "Assets:Kraken",
	FeeAccount: "Expenses:Kraken:Fees",
}

func tradeEntries() []model.LedgerEntry {
	return []model.LedgerEntry{
		{ID: "L4UESK-KG3EQ-UFO4T5", RefID: "TJKLXX-PGMUI-4NTLXU", Time: 1688672000.5, Type: "trade", Asset: "ZEUR", Amount: "-270.0010", Fee: "0.4320", Balance: "930.1234"},
		{ID: "LQ3KJD-SHOO5-3UZU6T", RefID: "TJKLXX-PGMUI-4NTLXU", Time: 1688672000.5, Type: "trade", Asset: "XXBT", Amount: "0.0100000000", Fee: "0.0000000000", Balance: "0.5100000000"},
	}
}

func depositEntry() model.LedgerEntry {
	return model.LedgerEntry{ID: "LDN3VC-Z5NLD-ZXJ4OP", RefID: "QCCTKE4-XUXSQA-ZALV7M", Time: 1688600000, Type: "deposit", Asset: "ZEUR", Amount: "1200.0000", Fee: "0.0000", Balance: "1200.1244"}
}

func TestConvertAndWrite(t *testing.T) {
	entries := append(tradeEntries(), depositEntry())

	txs, e := Convert(logger.MakeRecordingLogger(), entries, testAccounts, time.UTC)
	require.NoError(t, e)
	require.Equal(t, 2, len(txs))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, txs))

	want := strings.Join([]string{
		"",
		"2023/07/05 QCCTKE4-XUXSQA-ZALV7M",
		"    Expenses:Kraken:Fees                      0.0000 EUR",
		"    Assets:Kraken                     1200.000000000 EUR",
		"    Assets:Kraken:deposit",
		"",
		"2023/07/06 Trade id: TJKLXX-PGMUI-4NTLXU",
		"    Expenses:Kraken:Fees                0.0000000000 XBT",
		"    Expenses:Kraken:Fees                      0.4320 EUR",
		"    Assets:Kraken                        0.010000000 XBT ; BUY AT  0.000037037 XBTEUR",
		"    Assets:Kraken                     -270.433000000 EUR ; SELL AT 27000.100000000 EURXBT",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestConvert(t *testing.T) {
	lonely := tradeEntries()[:1]
	three := append(tradeEntries(), model.LedgerEntry{ID: "LX", RefID: "TJKLXX-PGMUI-4NTLXU", Time: 1688672000.5, Type: "trade", Asset: "XETH", Amount: "1", Fee: "0"})
	mixed := tradeEntries()
	mixed[1].Type = "transfer"
	badAmount := []model.LedgerEntry{depositEntry()}
	badAmount[0].Amount = "lots"

	testCases := []struct {
		name     string
		entries  []model.LedgerEntry
		accounts Accounts
		wantTxs  int
		wantErr  bool
		wantLogs int
	}{
		{name: "empty", entries: []model.LedgerEntry{}, accounts: testAccounts, wantTxs: 0},
		{name: "lonely trade", entries: lonely, accounts: testAccounts, wantTxs: 0, wantLogs: 1},
		{name: "lonely trade next to a deposit", entries: append(lonely, depositEntry()), accounts: testAccounts, wantTxs: 1, wantLogs: 1},
		{name: "three entries", entries: three, accounts: testAccounts, wantErr: true},
		{name: "not both trades", entries: mixed, accounts: testAccounts, wantErr: true},
		{name: "bad amount", entries: badAmount, accounts: testAccounts, wantErr: true},
		{name: "missing fee account", entries: tradeEntries(), accounts: Accounts{Account: "Assets:Kraken"}, wantErr: true},
	}

	for _, kase := range testCases {
		t.Run(kase.name, func(t *testing.T) {
			l := logger.MakeRecordingLogger()
			txs, e := Convert(l, kase.entries, kase.accounts, time.UTC)
			if kase.wantErr {
				assert.Error(t, e)
				return
			}
			if !assert.NoError(t, e) {
				return
			}
			assert.Equal(t, kase.wantTxs, len(txs))
			assert.Equal(t, kase.wantLogs, len(l.Messages))
		})
	}
}

func TestBalances(t *testing.T) {
	balances, e := Balances(append(tradeEntries(), depositEntry()))
	require.NoError(t, e)

	assert.Equal(t, "929.567", balances[model.EUR].String())
	assert.Equal(t, "0.01", balances[model.XBT].String())
	f, _ := balances[model.EUR].Float64()
	utils.AssertFloatEquals(t, 929.567, f)
}

func TestTimestampFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.timestamp")

	ts, e := ReadTimestamp(path)
	require.NoError(t, e)
	assert.Equal(t, initialTimestamp, ts)

	entries := append(tradeEntries(), depositEntry())
	latest := LatestTime(entries, ts)
	assert.Equal(t, 1688672000.5, latest)
	assert.Equal(t, 5.0, LatestTime([]model.LedgerEntry{}, 5))

	require.NoError(t, WriteTimestamp(path, latest))
	ts, e = ReadTimestamp(path)
	require.NoError(t, e)
	assert.Equal(t, 1688672000.5, ts)
}
