package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/api"
	"github.com/krakentools/krakentools/arbitrage"
	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/plugins"
	"github.com/krakentools/krakentools/support/logger"
	"github.com/krakentools/krakentools/support/monitoring"
	"github.com/krakentools/krakentools/support/utils"
)

const arbitrageExamples = `  krakentools arbitrage --conf krakentools.cfg
  krakentools arbitrage --conf krakentools.cfg --solve --log logs/arbitrage`

// activeThreshold hides the solver's round off noise
const activeThreshold = 1e-9

var arbitrageCmd = &cobra.Command{
	Use:     "arbitrage",
	Short:   "Writes the cross-pair arbitrage linear program of the current order books",
	Example: arbitrageExamples,
}

// arbitrageAlertDetails is sent along with the alert of a failed run
type arbitrageAlertDetails struct {
	RunID string `json:"run_id"`
	Error string `json:"error"`
}

// arbitrageRun is the outcome of a run
type arbitrageRun struct {
	RunID    string
	Path     string
	Report   *arbitrage.BuildReport
	Model    *arbitrage.LPModel
	Solution *arbitrage.Solution
}

func init() {
	solve := arbitrageCmd.Flags().Bool("solve", false, "also solve the model with the built-in simplex solver and log the non-zero variables")

	arbitrageCmd.Run = func(ccmd *cobra.Command, args []string) {
		l, cfg := startCommand("arbitrage")
		defer logPanic(l, true)
		utils.LogConfig(cfg)

		alert, e := monitoring.MakeAlert(cfg.AlertType, cfg.AlertAPIKey)
		if e != nil {
			logger.Fatal(l, e)
		}

		ctx := context.Background()
		exchange, e := makeExchange(ctx, l, cfg, false)
		if e != nil {
			logger.Fatal(l, e)
		}

		runID := uuid.New().String()
		run, e := runArbitrage(ctx, l, exchange, cfg, runID, time.Now(), *solve)
		if e != nil {
			if arbitrage.IsStructural(e) {
				alertErr := alert.Trigger("krakentools arbitrage run failed with a structural error", arbitrageAlertDetails{
					RunID: runID,
					Error: e.Error(),
				})
				if alertErr != nil {
					l.Errorf("could not send alert: %s\n", alertErr)
				}
			}
			logger.Fatal(l, e)
		}
		l.Infof("run %s wrote %s\n", run.RunID, run.Path)
	}
}

// runArbitrage fetches the order books, builds the linear program and writes it to ARBITRAGE_DIR
func runArbitrage(
	ctx context.Context,
	l logger.Logger,
	exchange api.MarketDataAPI,
	cfg *ToolConfig,
	runID string,
	now time.Time,
	solve bool,
) (*arbitrageRun, error) {
	allPairs, e := exchange.GetTradablePairs()
	if e != nil {
		return nil, errors.Wrap(e, "could not load tradable pairs")
	}
	pairs, e := selectPairs(allPairs, cfg.Pairs)
	if e != nil {
		return nil, e
	}
	l.Infof("run %s: fetching %d order books with %d workers\n", runID, len(pairs), cfg.FetchWorkers)

	snapshot, e := plugins.FetchSnapshot(ctx, l, exchange, pairs, cfg.DepthCount, cfg.FetchWorkers)
	if e != nil {
		return nil, errors.Wrap(e, "could not fetch order books")
	}

	matrix, report, e := arbitrage.BuildDepthMatrix(l, snapshot, cfg.normalizeOptions())
	if e != nil {
		return nil, errors.Wrap(e, "could not build depth matrix")
	}
	logBuildReport(l, report)

	if cfg.ClusterBuckets != nil {
		before := matrix.Len()
		matrix, e = arbitrage.ClusterVolumes(matrix, *cfg.ClusterBuckets)
		if e != nil {
			return nil, errors.Wrap(e, "could not cluster volumes")
		}
		l.Infof("clustered %d depth matrix entries into %d\n", before, matrix.Len())
	}

	m, e := arbitrage.BuildLPModel(matrix, model.Asset(cfg.ReferenceAsset), cfg.lpOptions(runID))
	if e != nil {
		return nil, errors.Wrap(e, "could not build linear program")
	}

	path := arbitrageFilename(cfg.ArbitrageDir, now)
	e = utils.WriteFileAtomic(path, []byte(m.String()), 0644)
	if e != nil {
		return nil, errors.Wrap(e, "could not write linear program")
	}
	l.Infof("wrote linear program with %d variables and %d constraints to %s\n", len(m.Variables), len(m.Constraints), path)

	run := &arbitrageRun{
		RunID:  runID,
		Path:   path,
		Report: report,
		Model:  m,
	}
	if !solve {
		return run, nil
	}

	solution, e := arbitrage.Solve(m)
	if e != nil {
		return nil, errors.Wrap(e, "could not solve linear program")
	}
	run.Solution = solution
	l.Infof("optimal return: %g %s\n", solution.Objective, cfg.ReferenceAsset)
	for _, name := range solution.Active(activeThreshold) {
		l.Infof("    %s = %g  (%s)\n", name, solution.Values[name], m.Describe(name))
	}
	return run, nil
}

// selectPairs keeps the pairs listed in names (by name or altname), all pairs when names is empty
func selectPairs(pairs []model.TradablePair, names []string) ([]model.TradablePair, error) {
	if len(names) == 0 {
		return pairs, nil
	}

	selected := []model.TradablePair{}
	for _, name := range utils.Dedupe(names) {
		p, e := findPair(pairs, name)
		if e != nil {
			return nil, fmt.Errorf("PAIRS lists %s", e)
		}
		selected = append(selected, *p)
	}
	return selected, nil
}

func logBuildReport(l logger.Logger, report *arbitrage.BuildReport) {
	l.Infof("depth matrix has %d entries from %d pairs\n", report.Entries, report.Pairs)

	names := []string{}
	for name := range report.Skipped {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		l.Infof("    skipped %s: %s\n", name, report.Skipped[name])
	}
}

func arbitrageFilename(dir string, now time.Time) string {
	return filepath.Join(dir, now.Format("20060102-1504")+".lp")
}
