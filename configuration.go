package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/thlib/go-timezone-local/tzlocal"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("timezone", validateTimezone)
}

func validateTimezone(fl validator.FieldLevel) bool {
	timezone := fl.Field().String()
	if timezone == "" {
		return true // Empty timezone is allowed, will be replaced with system default
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// StatementConfig describes how to find and classify rows of the bank statement.
type StatementConfig struct {
	// Substring of the operation date header, used to locate the header row.
	HeaderMarker string `yaml:"headerMarker,omitempty" validate:"required"`
	// How many top rows to scan for the header row.
	HeaderScanRows int `yaml:"headerScanRows,omitempty" validate:"min=1,max=1000"`
	// How many leading columns to scan for the header marker.
	HeaderScanColumns int `yaml:"headerScanColumns,omitempty" validate:"min=1,max=100"`
	// Substrings of headers of the 4 columns to extract.
	DateMarker     string `yaml:"dateMarker,omitempty" validate:"required"`
	DocumentMarker string `yaml:"documentMarker,omitempty" validate:"required"`
	ConceptMarker  string `yaml:"conceptMarker,omitempty" validate:"required"`
	AmountMarker   string `yaml:"amountMarker,omitempty" validate:"required"`
	// Rows with description starting with these are not transactions.
	BalancePrefixes []string `yaml:"balancePrefixes,omitempty" validate:"dive,required"`
	// Description of tax rows, compared exactly.
	TaxMarker string `yaml:"taxMarker,omitempty" validate:"required"`
	// Rows with description starting with these are bank commissions.
	CommissionPrefixes []string `yaml:"commissionPrefixes,omitempty" validate:"dive,required"`
}

func (c *StatementConfig) columnMarkers() map[StatementField]string {
	return map[StatementField]string{
		FieldOperationDate:  c.DateMarker,
		FieldDocumentNumber: c.DocumentMarker,
		FieldConcept:        c.ConceptMarker,
		FieldAmount:         c.AmountMarker,
	}
}

// LedgerConfig describes fixed layout of the cash/bank ledger sheets.
type LedgerConfig struct {
	// First row of the transactions block per currency.
	StartRows map[Currency]int `yaml:"startRows,omitempty" validate:"required,dive,keys,required,endkeys,min=1"`
	// 1-based column numbers.
	DateColumn          int `yaml:"dateColumn,omitempty" validate:"min=1"`
	DocumentColumn      int `yaml:"documentColumn,omitempty" validate:"min=1"`
	DescriptionColumn   int `yaml:"descriptionColumn,omitempty" validate:"min=1"`
	DebitColumn         int `yaml:"debitColumn,omitempty" validate:"min=1"`
	CreditColumn        int `yaml:"creditColumn,omitempty" validate:"min=1"`
	HighlightFromColumn int `yaml:"highlightFromColumn,omitempty" validate:"min=1"`
	HighlightToColumn   int `yaml:"highlightToColumn,omitempty" validate:"gtefield=HighlightFromColumn"`
	// RGB fill color of inserted rows.
	HighlightColor string `yaml:"highlightColor,omitempty" validate:"hexadecimal,len=6"`
	// Number format of debit and credit cells.
	AmountFormat string `yaml:"amountFormat,omitempty" validate:"required"`
	// Number format of date cells which have no date format yet.
	DateFormat string `yaml:"dateFormat,omitempty" validate:"required"`
	// Accepted month names, sheet name is "<MONTH> <CURRENCY>".
	Months []string `yaml:"months,omitempty" validate:"min=1,dive,required"`
}

// SheetName returns the ledger sheet name for the month and currency.
func (c *LedgerConfig) SheetName(month string, currency Currency) string {
	return fmt.Sprintf("%s %s", month, currency)
}

// ServerConfig configures the upload service.
type ServerConfig struct {
	ListenAddress   string        `yaml:"listenAddress,omitempty" validate:"required"`
	UploadDir       string        `yaml:"uploadDir,omitempty" validate:"required"`
	AllowedOrigins  string        `yaml:"allowedOrigins,omitempty"`
	MaxUploadMB     int           `yaml:"maxUploadMB,omitempty" validate:"min=1,max=1024"`
	CleanupInterval time.Duration `yaml:"cleanupInterval,omitempty" validate:"min=1s"`
	MaxFileAge      time.Duration `yaml:"maxFileAge,omitempty" validate:"min=1s"`
}

type Config struct {
	Language         string          `yaml:"language,omitempty" validate:"omitempty,oneof=en es"`
	LogLevel         string          `yaml:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`
	TimeZoneLocation string          `yaml:"timeZoneLocation,omitempty" validate:"timezone"`
	Statement        StatementConfig `yaml:"statement,omitempty"`
	Ledger           LedgerConfig    `yaml:"ledger,omitempty"`
	Server           ServerConfig    `yaml:"server,omitempty"`
}

// defaultConfig returns layout of the statement and ledger the tool was built for.
func defaultConfig() *Config {
	return &Config{
		Language: "en",
		LogLevel: "info",
		Statement: StatementConfig{
			HeaderMarker:       "F. Operaci",
			HeaderScanRows:     50,
			HeaderScanColumns:  5,
			DateMarker:         "F. Operaci",
			DocumentMarker:     "Doc",
			ConceptMarker:      "Concepto",
			AmountMarker:       "Importe",
			BalancePrefixes:    []string{"Saldo Inicial:", "Saldo Final:"},
			TaxMarker:          "ITF",
			CommissionPrefixes: []string{"COMIS", "*COMIS"},
		},
		Ledger: LedgerConfig{
			StartRows:           map[Currency]int{CurrencyMN: 33, CurrencyME: 32},
			DateColumn:          3,
			DocumentColumn:      6,
			DescriptionColumn:   8,
			DebitColumn:         14,
			CreditColumn:        15,
			HighlightFromColumn: 3,
			HighlightToColumn:   15,
			HighlightColor:      "FFFF00",
			AmountFormat:        "#,##0.00",
			DateFormat:          "dd/mm/yyyy",
			Months: []string{
				"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO", "JULIO",
				"AGOSTO", "SETIEMBRE", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
			},
		},
		Server: ServerConfig{
			ListenAddress:   ":3001",
			UploadDir:       "uploads",
			AllowedOrigins:  "*",
			MaxUploadMB:     32,
			CleanupInterval: time.Hour,
			MaxFileAge:      time.Hour,
		},
	}
}

// loadConfig reads configuration from filename, or uses defaults if the file doesn't
// exist and isRequired is false. Environment (and .env file) overrides are applied last.
func loadConfig(filename string, isRequired bool) (*Config, error) {
	var cfg *Config
	_, err := os.Stat(filename)
	switch {
	case err == nil:
		if cfg, err = readConfig(filename); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && !isRequired:
		cfg = defaultConfig()
		if err := cfg.finish(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("can't find configuration file '%s': %w", filename, err)
	}

	// Ignore missing .env, it is optional.
	_ = godotenv.Load(DEFAULT_ENV_FILE_PATH)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfig(filename string) (*Config, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	// Lists are replaced as a whole, not merged into defaults.
	cfg.Statement.BalancePrefixes = nil
	cfg.Statement.CommissionPrefixes = nil
	cfg.Ledger.Months = nil
	cfg.Ledger.StartRows = nil
	decoder := yaml.NewDecoder(strings.NewReader(string(buf)))
	decoder.KnownFields(true) // Disallow unknown fields
	if err = decoder.Decode(cfg); err != nil {
		if err.Error() == "EOF" {
			return nil, fmt.Errorf("can't decode YAML from configuration file '%s': %v", filename, err)
		}
		return nil, err
	}

	// Set default values for omitted lists.
	defaults := defaultConfig()
	if cfg.Statement.BalancePrefixes == nil {
		cfg.Statement.BalancePrefixes = defaults.Statement.BalancePrefixes
	}
	if cfg.Statement.CommissionPrefixes == nil {
		cfg.Statement.CommissionPrefixes = defaults.Statement.CommissionPrefixes
	}
	if cfg.Ledger.Months == nil {
		cfg.Ledger.Months = defaults.Ledger.Months
	}
	if cfg.Ledger.StartRows == nil {
		cfg.Ledger.StartRows = defaults.Ledger.StartRows
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish resolves the time zone and validates all fields.
func (cfg *Config) finish() error {
	if len(cfg.TimeZoneLocation) == 0 {
		tzname, err := tzlocal.RuntimeTZ()
		if err != nil {
			// Fallback to UTC if system timezone cannot be determined
			cfg.TimeZoneLocation = "UTC"
		} else {
			cfg.TimeZoneLocation = tzname
		}
	}

	// Verify timezone is valid
	if _, err := time.LoadLocation(cfg.TimeZoneLocation); err != nil {
		return fmt.Errorf("invalid timezone location '%s': %w", cfg.TimeZoneLocation, err)
	}

	// Each currency must have a start row.
	for _, currency := range []Currency{CurrencyMN, CurrencyME} {
		if _, ok := cfg.Ledger.StartRows[currency]; !ok {
			return fmt.Errorf("ledger start row for '%s' currency must be set", currency)
		}
	}

	// Validate other fields
	return validate.Struct(cfg)
}

// applyEnv overrides listen port and log level from environment variables.
func (cfg *Config) applyEnv() error {
	if port := os.Getenv(ENV_PORT); port != "" {
		cfg.Server.ListenAddress = ":" + port
	}
	if level := os.Getenv(ENV_LOG_LEVEL); level != "" {
		cfg.LogLevel = level
		if err := validate.Var(level, "oneof=debug info warn error"); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", ENV_LOG_LEVEL, level, err)
		}
	}
	return nil
}

// Location returns the configured time zone.
func (cfg *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.TimeZoneLocation)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseCurrency validates the currency selector.
func (cfg *Config) ParseCurrency(value string) (Currency, error) {
	currency := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := cfg.Ledger.StartRows[currency]; !ok {
		return "", fmt.Errorf("%w: unknown currency '%s', supported: %s, %s", ErrInvalidSelector, value, CurrencyMN, CurrencyME)
	}
	return currency, nil
}

// ParseMonth validates the month selector.
func (cfg *Config) ParseMonth(value string) (string, error) {
	month := strings.ToUpper(strings.TrimSpace(value))
	for _, m := range cfg.Ledger.Months {
		if m == month {
			return month, nil
		}
	}
	return "", fmt.Errorf("%w: unknown month '%s', supported: %s", ErrInvalidSelector, value, strings.Join(cfg.Ledger.Months, ", "))
}
