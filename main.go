package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rplantdash/pkg/config"
	"rplantdash/pkg/models"
	"rplantdash/pkg/pool"
	"rplantdash/pkg/prefs"
	"rplantdash/pkg/tui"
	"rplantdash/pkg/utils"
	"rplantdash/pkg/watcher"

	"github.com/sirupsen/logrus"
)

// Version should be set during build
var Version = "dev"

func main() {
	testFlag := flag.Bool("t", false, "Fetch stats once, report and exit")
	testLongFlag := flag.Bool("test", false, "Fetch stats once, report and exit")
	jsonFlag := flag.Bool("json", false, "Output test results as JSON")
	onceFlag := flag.Bool("once", false, "Render the dashboard once to stdout and exit")
	configFlag := flag.String("config", "", "Path to configuration file")
	walletFlag := flag.String("wallet", "", "Wallet address (overrides config)")
	coinFlag := flag.String("coin", "", "Coin name (overrides config)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("rplantdash version %s\n", Version)
		os.Exit(0)
	}

	cfgInput := *configFlag
	if cfgInput == "" && len(flag.Args()) > 0 {
		cfgInput = flag.Args()[0]
	}
	path, err := config.GetConfigPath(cfgInput)
	if err != nil {
		fmt.Printf("Error determining config path: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		fmt.Printf("Error loading config from %s: %v\n", path, err)
		os.Exit(1)
	}
	applyOverrides(&cfg, *walletFlag, *coinFlag)
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration in %s: %v\n", path, err)
		os.Exit(1)
	}

	testMode := *testFlag || *testLongFlag
	interactive := !testMode && !*onceFlag

	// The TUI owns the terminal, so its logs go to a file or nowhere.
	var fallback io.Writer = os.Stderr
	if interactive {
		fallback = io.Discard
	}
	out, closeLog, err := openLogOutput(cfg.LogFile, fallback)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg, out)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	client := pool.NewClient(cfg.Pool, logger)
	store := prefs.NewFileStore(cfg.PrefsPath)

	exitCode := 0
	switch {
	case testMode:
		report := runConfigTest(ctx, client, path, cfg)
		if *jsonFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		} else {
			printReport(os.Stdout, report)
		}
		if report.Status != "ok" {
			exitCode = 1
		}

	case *onceFlag:
		view, err := runOnce(ctx, client, cfg, store, logger)
		fmt.Println(view)
		if err != nil {
			exitCode = 1
		}

	default:
		logger.WithFields(logrus.Fields{
			"coin":     cfg.Pool.Coin,
			"wallet":   cfg.Pool.Wallet,
			"interval": cfg.PollInterval(),
			"prefs":    store.Path(),
		}).Info("Starting dashboard")
		w := watcher.NewWatcher(client, cfg, logger)
		if err := tui.Start(ctx, w, store, cfg.Pool, logger, Version); err != nil {
			fmt.Printf("Alas, there's been an error: %v\n", err)
			exitCode = 1
		}
	}

	stop()
	closeLog()
	os.Exit(exitCode)
}

func applyOverrides(cfg *config.Config, wallet, coin string) {
	if w := strings.TrimSpace(wallet); w != "" {
		cfg.Pool.Wallet = w
	}
	if c := strings.TrimSpace(coin); c != "" {
		cfg.Pool.Coin = c
	}
}

func setupLogger(cfg config.Config, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	// Set log level
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Set log format
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	return logger
}

func openLogOutput(path string, fallback io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return fallback, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// runConfigTest performs one fetch cycle against the configured pool.
func runConfigTest(ctx context.Context, client *pool.Client, path string, cfg config.Config) models.TestReport {
	report := models.TestReport{
		ConfigPath:  path,
		Coin:        cfg.Pool.Coin,
		Wallet:      cfg.Pool.Wallet,
		WalletURL:   client.WalletURL(),
		WalletExURL: client.WalletExURL(),
	}

	start := time.Now()
	stats, err := client.FetchAllStats(ctx)
	report.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		report.Status = "error"
		report.Error = err.Error()
		if kind, ok := pool.KindOf(err); ok {
			report.FailureKind = kind.String()
		}
		return report
	}

	report.Status = "ok"
	if ext := stats.Extended; ext != nil {
		report.Hashrate = utils.FormatHashrate(ext.Hashrate)
		report.Unpaid = utils.FormatCurrency(string(ext.Unpaid))
		report.MinerCount = len(ext.Miners)
		report.PaymentCount = len(ext.Payments)
	}
	return report
}

func printReport(w io.Writer, r models.TestReport) {
	fmt.Fprintf(w, "Testing configuration at: %s\n", r.ConfigPath)
	fmt.Fprintf(w, "Coin: %s  Wallet: %s\n", r.Coin, r.Wallet)
	fmt.Fprintf(w, "  GET %s\n", r.WalletURL)
	fmt.Fprintf(w, "  GET %s\n", r.WalletExURL)
	if r.Status != "ok" {
		fmt.Fprintf(w, "Failed (%s) after %dms: %s\n", r.FailureKind, r.DurationMs, r.Error)
		return
	}
	fmt.Fprintf(w, "OK in %dms: hashrate %s, unpaid %s, %d miners, %d payments\n",
		r.DurationMs, r.Hashrate, r.Unpaid, r.MinerCount, r.PaymentCount)
}

// runOnce renders a single cycle with the persisted theme.
func runOnce(ctx context.Context, src watcher.DataSource, cfg config.Config, store prefs.Store, logger *logrus.Logger) (string, error) {
	w := watcher.NewWatcher(src, cfg, logger)
	defer w.Stop()

	err := w.Refresh(ctx)
	view := tui.Render(w.Snapshot(), tui.RenderOptions{DarkMode: prefs.DarkMode(store)})
	return view, err
}
