package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/plugins"
	"github.com/krakentools/krakentools/support/logger"
)

var depthTimesCmd = &cobra.Command{
	Use:   "depth-times",
	Short: "Prints evenly spaced times at which DEPTH_DB has order books, skipping the gaps in the recording",
	Example: `  krakentools depth-times
  krakentools depth-times --every 60 --max-gap 300`,
}

func init() {
	every := depthTimesCmd.Flags().Int64("every", 180, "seconds between two printed times")
	maxGap := depthTimesCmd.Flags().Int64("max-gap", 1000, "times inside a gap of more than this many seconds between two recorded order books are skipped")

	depthTimesCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("depth-times")
		defer logPanic(l, true)

		writer, e := plugins.MakeDepthDBWriter(cfg.DepthDB, version)
		if e != nil {
			logger.Fatal(l, e)
		}
		defer writer.Close()

		e = writeDepthTimes(l, os.Stdout, writer, *every, *maxGap)
		if e != nil {
			logger.Fatal(l, e)
		}
	}
}

// writeDepthTimes prints one unix time per line
func writeDepthTimes(l logger.Logger, w io.Writer, writer *plugins.DepthDBWriter, every int64, maxGap int64) error {
	times, e := writer.ObservationTimes()
	if e != nil {
		return e
	}
	points, e := plugins.SampleTimePoints(times, every, maxGap)
	if e != nil {
		return e
	}
	l.Infof("sampled %d time points from %d recorded order book times\n", len(points), len(times))

	for _, p := range points {
		_, e = fmt.Fprintln(w, p)
		if e != nil {
			return fmt.Errorf("could not write time point: %s", e)
		}
	}
	return nil
}
