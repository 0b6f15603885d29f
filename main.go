package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/rs/zerolog"
)

type ReconcileCmd struct {
	Statement string `arg:"positional,required" help:"Bank statement file, .xlsx or .xls."`
	Ledger    string `arg:"positional,required" help:"Cash/bank ledger .xlsx file."`
	Currency  string `arg:"-c,--currency,required" help:"Ledger section: 'MN' for national currency, 'ME' for foreign currency."`
	Month     string `arg:"-m,--month,required" help:"Month name as in ledger sheet names, like 'OCTUBRE'."`
	Output    string `arg:"-o,--output" help:"Path to save updated ledger. By default is 'Cajas_Bancos_<MONTH>_<CURRENCY>_<date>.xlsx' next to the ledger."`
	Open      bool   `arg:"--open" help:"Open updated ledger in OS."`
}

type ServeCmd struct {
	Listen string `arg:"-l,--listen" help:"Address to listen on, overrides configuration."`
}

type Args struct {
	ConfigPath string        `arg:"--config" default:"config.yaml" help:"Path to the configuration YAML file. Built-in defaults are used if the file doesn't exist."`
	Reconcile  *ReconcileCmd `arg:"subcommand:reconcile" help:"Add new statement records into the ledger sheet."`
	Serve      *ServeCmd     `arg:"subcommand:serve" help:"Run HTTP service."`
}

// Version is application version string and should be updated with `go build -ldflags`.
var Version = "development"

func (Args) Version() string {
	return Version
}

func (Args) Description() string {
	return "Ledger reconciler adds bank statement transactions missing in the monthly cash/bank ledger sheet."
}

// parseArgs parses command line arguments. Returns true if help or version was printed.
func parseArgs(osArgs []string) (Args, bool, error) {
	var args Args
	p, err := arg.NewParser(arg.Config{Program: "ledger-reconcile"}, &args)
	if err != nil {
		return args, false, fmt.Errorf("error creating argument parser: %w", err)
	}
	err = p.Parse(osArgs)
	switch {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelp(os.Stdout)
		return args, true, nil
	case errors.Is(err, arg.ErrVersion):
		fmt.Println(Version)
		return args, true, nil
	case err != nil:
		return args, false, err
	}
	if args.Reconcile == nil && args.Serve == nil {
		return args, false, errors.New("missing subcommand, use 'reconcile' or 'serve'")
	}
	return args, false, nil
}

func main() {
	args, isDone, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(2)
	}
	if isDone {
		os.Exit(0)
	}
	if err := runApplication(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runApplication loads configuration and runs the chosen subcommand.
func runApplication(args Args) error {
	cfg, err := loadConfig(args.ConfigPath, args.ConfigPath != DEFAULT_CONFIG_FILE_PATH)
	if err != nil {
		return fmt.Errorf("configuration '%s' is wrong: %w", args.ConfigPath, err)
	}
	logger := newLogger(cfg.LogLevel, os.Stderr)
	logger.Debug().Str("version", Version).Interface("config", cfg).Msg("configuration loaded")

	translator, err := newTranslator(cfg.Language)
	if err != nil {
		return fmt.Errorf("can't load translations: %w", err)
	}

	switch {
	case args.Reconcile != nil:
		return runReconcile(cfg, args.Reconcile, translator, logger)
	case args.Serve != nil:
		return runServe(cfg, args.Serve, translator, logger)
	default:
		return errors.New("missing subcommand, use 'reconcile' or 'serve'")
	}
}

func runReconcile(cfg *Config, cmd *ReconcileCmd, translator *I18n, logger zerolog.Logger) error {
	currency, err := cfg.ParseCurrency(cmd.Currency)
	if err != nil {
		return err
	}
	month, err := cfg.ParseMonth(cmd.Month)
	if err != nil {
		return err
	}
	statementPath, err := getAbsolutePath(cmd.Statement)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingInput, err)
	}
	ledgerPath, err := getAbsolutePath(cmd.Ledger)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingInput, err)
	}

	grid, err := openStatementGrid(statementPath)
	if err != nil {
		return err
	}
	ledger, err := OpenLedger(ledgerPath, &cfg.Ledger)
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx := WithLogger(context.Background(), logger)
	result, err := NewEngine(cfg).Run(ctx, grid, ledger, currency, month)
	if err != nil {
		return err
	}
	DumpReport(result, os.Stdout, translator)
	if len(result.NewRecords) == 0 {
		return nil
	}

	output := cmd.Output
	if output == "" {
		output = filepath.Join(filepath.Dir(ledgerPath), ResultFileName(month, currency, time.Now().In(cfg.Location())))
	}
	if err := ledger.SaveAs(output); err != nil {
		return fmt.Errorf("can't save updated ledger into '%s': %w", output, err)
	}
	fmt.Println(translator.T("Updated ledger saved to f", "f", output))
	if cmd.Open {
		if err := openFileInOS(output); err != nil {
			return fmt.Errorf("can't open '%s': %w", output, err)
		}
	}
	return nil
}

func runServe(cfg *Config, cmd *ServeCmd, translator *I18n, logger zerolog.Logger) error {
	if cmd.Listen != "" {
		cfg.Server.ListenAddress = cmd.Listen
	}
	server, err := NewServer(cfg, NewEngine(cfg), translator, logger)
	if err != nil {
		return err
	}
	app := server.App()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go NewUploadJanitor(&cfg.Server, logger).Run(ctx)
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Str("address", cfg.Server.ListenAddress).Str("version", Version).Msg("listening")
	return app.Listen(cfg.Server.ListenAddress)
}
