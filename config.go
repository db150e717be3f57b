// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcsettle/internal/cfgutil"
	"github.com/btcsuite/btcsettle/netparams"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultCAFilename     = "rpc.cert"
	defaultConfigFilename = "btcsettle.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "btcsettle.log"
	defaultMinerWallet    = "Miner"
	defaultTraderWallet   = "Trader"
	defaultReportFilename = "out.txt"

	defaultPaymentAmount = 20 * btcutil.SatoshiPerBitcoin
)

var (
	btcsettleHomeDir  = btcutil.AppDataDir("btcsettle", false)
	defaultConfigFile = filepath.Join(btcsettleHomeDir, defaultConfigFilename)
	defaultCAFile     = filepath.Join(btcsettleHomeDir, defaultCAFilename)
	defaultLogDir     = filepath.Join(btcsettleHomeDir, defaultLogDirname)
)

type config struct {
	// General application behavior
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	LogDir      string `long:"logdir" description:"Directory to log output."`
	SimNet      bool   `long:"simnet" description:"Use the simulation test network (default regtest)"`

	// RPC client options
	RPCConnect       string `short:"c" long:"rpcconnect" description:"Hostname/IP and port of the ledger node RPC server to connect to (default localhost:18443, simnet: localhost:18556)"`
	CAFile           string `long:"cafile" description:"File containing root certificates to authenticate a TLS connection with the node"`
	DisableClientTLS bool   `long:"noclienttls" description:"Disable TLS for the RPC client -- NOTE: This is only allowed if the RPC client is connecting to localhost"`
	Username         string `short:"u" long:"username" description:"Username for node RPC authentication"`
	Password         string `short:"P" long:"password" default-mask:"-" description:"Password for node RPC authentication"`

	// Settlement options
	MinerWallet   string              `long:"minerwallet" description:"Name of the wallet funded by block rewards"`
	TraderWallet  string              `long:"traderwallet" description:"Name of the counterparty wallet receiving the payment"`
	PaymentAmount *cfgutil.AmountFlag `long:"amount" description:"Amount to transfer from the miner wallet to the trader wallet"`
	ReportFile    string              `short:"o" long:"outfile" description:"Path of the settlement report to write"`
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(btcsettleHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows cmd.exe-style
	// %VARIABLE%, but the variables can still be expanded via POSIX-style
	// $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace":
		fallthrough
	case "debug":
		fallthrough
	case "info":
		fallthrough
	case "warn":
		fallthrough
	case "error":
		fallthrough
	case "critical":
		return true
	}
	return false
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	// Convert the subsystemLoggers map keys to a slice.
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsystems for stable display.
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			str := "The specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "The specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "The specified subsystem [%v] is invalid -- " +
				"supported subsystems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			str := "The specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in the tool functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig() (*config, []string, error) {
	// Default config.
	cfg := config{
		DebugLevel:    defaultLogLevel,
		ConfigFile:    defaultConfigFile,
		LogDir:        defaultLogDir,
		CAFile:        defaultCAFile,
		MinerWallet:   defaultMinerWallet,
		TraderWallet:  defaultTraderWallet,
		PaymentAmount: cfgutil.NewAmountFlag(defaultPaymentAmount),
		ReportFile:    defaultReportFilename,
	}

	// A config file in the current directory takes precedence.
	exists, err := cfgutil.FileExists(defaultConfigFilename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}
	if exists {
		cfg.ConfigFile = defaultConfigFilename
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err = preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version())
		os.Exit(0)
	}

	// Load additional config from file.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Choose the active network params.  The pipeline mines blocks to
	// fund itself, so only networks where block generation is available
	// on demand are offered.
	if cfg.SimNet {
		activeNet = &netparams.SimNetParams
	}

	// Append the network type to the log directory so it is "namespaced"
	// per network.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, activeNet.Params.Name)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation.  After the log rotation has been
	// initialized, the logger variables may be used.
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("loadConfig: %v", err)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Warn about missing config file after the final command line parse
	// succeeds.  This prevents the warning on help messages and invalid
	// options.
	if configFileError != nil {
		log.Warnf("%v", configFileError)
	}

	// The node credentials are required; the node only accepts basic-auth
	// requests.
	if cfg.Username == "" || cfg.Password == "" {
		err := fmt.Errorf("loadConfig: username and password are " +
			"required for node RPC authentication")
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Add the default RPC port of the active network if needed.
	if cfg.RPCConnect == "" {
		cfg.RPCConnect = "localhost"
	}
	cfg.RPCConnect, err = cfgutil.NormalizeAddress(cfg.RPCConnect,
		activeNet.RPCClientPort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid rpcconnect network address: %v\n", err)
		return nil, nil, err
	}

	if cfg.DisableClientTLS {
		// TLS may only be disabled when connecting to the loopback
		// interface.
		rpcConnectHost, _, err := net.SplitHostPort(cfg.RPCConnect)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
		switch rpcConnectHost {
		case "localhost", "127.0.0.1", "::1":
		default:
			err := fmt.Errorf("loadConfig: the --noclienttls " +
				"option may not be used when connecting to " +
				"a remote node")
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	} else {
		cfg.CAFile = cleanAndExpandPath(cfg.CAFile)
		certExists, err := cfgutil.FileExists(cfg.CAFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
		if !certExists {
			err := fmt.Errorf("loadConfig: CA file %q does not "+
				"exist; supply --cafile or use --noclienttls "+
				"for a local node", cfg.CAFile)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	if cfg.MinerWallet == cfg.TraderWallet {
		err := fmt.Errorf("loadConfig: the miner and trader wallets " +
			"must not share a name")
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	if cfg.PaymentAmount.Amount <= 0 {
		err := fmt.Errorf("loadConfig: the payment amount must be " +
			"positive")
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	cfg.ReportFile = cleanAndExpandPath(cfg.ReportFile)

	return &cfg, remainingArgs, nil
}
