package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krakentools/krakentools/plugins"
	"github.com/krakentools/krakentools/support/logger"
)

func TestWriteDepthTimes(t *testing.T) {
	writer, e := plugins.MakeDepthDBWriter(filepath.Join(t.TempDir(), "data.db"), "test")
	require.NoError(t, e)
	defer writer.Close()

	exchange := makeTriangleExchange()
	require.NoError(t, writer.WritePairs(exchange.pairs))
	seen := time.Unix(1688671800, 0)
	for i, name := range []string{"XXBTZEUR", "XETHZEUR", "XETHXXBT"} {
		// one pair per minute
		book := exchange.books[name]
		require.NoError(t, writer.WriteOrderBook(name, book, seen.Add(time.Duration(i)*time.Minute)))
	}

	var buf bytes.Buffer
	l := logger.MakeRecordingLogger()
	require.NoError(t, writeDepthTimes(l, &buf, writer, 60, 1000))
	assert.Equal(t, "1688671800\n1688671860\n", buf.String())
	assert.Equal(t, 1, len(l.Messages))

	assert.Error(t, writeDepthTimes(l, &buf, writer, 0, 1000))
}
