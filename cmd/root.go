package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/support/logger"
	"github.com/krakentools/krakentools/support/utils"
)

// build flags
var version string
var buildDate string
var gitHash string

const rootShort = "krakentools is a set of command line tools for the Kraken exchange."
const rootLong = `krakentools is a set of command line tools for the Kraken exchange (https://www.kraken.com).

It formulates cross-pair arbitrage as a linear program over the current order books,
logs order books and trades into sqlite, and wraps the account endpoints.`
const rootExamples = arbitrageExamples + "\n  krakentools arbitrage --help"

// RootCmd is the main command for this repo
var RootCmd = &cobra.Command{
	Use:     "krakentools",
	Short:   rootShort,
	Long:    rootLong,
	Example: rootExamples,
	Run: func(ccmd *cobra.Command, args []string) {
		e := ccmd.Help()
		if e != nil {
			log.Fatal(e)
		}

		fmt.Println("version:", version)
		fmt.Println("build date:", buildDate)
		fmt.Println("git hash:", gitHash)
	},
}

var rootConfigPath *string
var rootLogPrefix *string

func init() {
	rootConfigPath = RootCmd.PersistentFlags().StringP("conf", "c", "", "config file path, environment variables and a .env file override it")
	rootLogPrefix = RootCmd.PersistentFlags().StringP("log", "l", "", "log to a file (and stdout) with this prefix for the filename")

	RootCmd.AddCommand(arbitrageCmd)
	RootCmd.AddCommand(depthCmd)
	RootCmd.AddCommand(pairsCmd)
	RootCmd.AddCommand(balanceCmd)
	RootCmd.AddCommand(ordersCmd)
	RootCmd.AddCommand(orderCmd)
	RootCmd.AddCommand(cancelCmd)
	RootCmd.AddCommand(ledgerCmd)
	RootCmd.AddCommand(logDepthCmd)
	RootCmd.AddCommand(depthTimesCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(versionCmd)
}

func requiredFlag(ccmd *cobra.Command, flag string) {
	e := ccmd.MarkFlagRequired(flag)
	if e != nil {
		panic(e)
	}
}

func logPanic(l logger.Logger, fatalOnError bool) {
	if r := recover(); r != nil {
		st := debug.Stack()
		l.Errorf("PANIC!! recovered to log it in the file\npanic: %v\n\n%s\n", r, string(st))
		if fatalOnError {
			logger.Fatal(l, fmt.Errorf("PANIC!! recovered to log it in the file\npanic: %v\n\n%s\n", r, string(st)))
		}
	}
}

func setLogFile(l logger.Logger, filename string) {
	f, e := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if e != nil {
		logger.Fatal(l, fmt.Errorf("failed to set log file: %s", e))
		return
	}
	mw := io.MultiWriter(os.Stdout, f)
	log.SetOutput(mw)

	l.Infof("logging to file: %s\n", filename)
}

func makeLogFilename(logPrefix string, command string, startTime time.Time) string {
	return fmt.Sprintf("%s_%s_%s.log", logPrefix, command, startTime.Format("20060102T150405MST"))
}

// startCommand sets up logging and loads the config, every command calls it first
func startCommand(command string) (logger.Logger, *ToolConfig) {
	l := logger.MakeBasicLogger()
	if *rootLogPrefix != "" {
		setLogFile(l, makeLogFilename(*rootLogPrefix, command, time.Now()))
	}
	l.Infof("krakentools %s (%s), command '%s'\n", version, gitHash, command)

	cfg, e := loadConfig(*rootConfigPath)
	utils.CheckConfigError(e, *rootConfigPath)
	return l, cfg
}
