// =============================================================================
// EDIFACT Generator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and trading partner
// profiles.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings, read through
//      viper so that every key can be overridden from the environment
//      (EDIGEN_OUTPUT_DIR, EDIGEN_LOGGING_LEVEL, ...) or a .env file.
//   2. Partner Configs (configs/*.yaml): One file per trading partner with
//      file patterns, CSV settings, field mappings and interchange ids.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides for the main config.
const EnvPrefix = "EDIGEN"

// Output formats.
const (
	FormatEDIFACT = "edifact"
	FormatJSON    = "json"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for CSV, XLSX and YAML invoice sources.
	// Default: "./input"
	InputDir string `mapstructure:"input_dir"`

	// OutputDir receives the generated interchanges.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir"`

	// InputArchiveDir receives input files after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `mapstructure:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated interchange.
	// Default: "./output_archive"
	OutputArchiveDir string `mapstructure:"output_archive_dir"`

	// ArchiveByDate stores archived files under YYYY/MM/DD subdirectories.
	// Default: false
	ArchiveByDate bool `mapstructure:"archive_by_date"`

	// TemplatesDir holds the XLSX mapping templates.
	// Default: "./templates"
	TemplatesDir string `mapstructure:"templates_dir"`

	// ConfigsDir holds the partner configuration files.
	// Default: "./configs"
	ConfigsDir string `mapstructure:"configs_dir"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines the output file name.
	// Placeholders: {uuid} {timestamp} {date} {time} {partner} {invoice}
	// Default: "{partner}_{timestamp}_{uuid}"
	OutputNameFormat string `mapstructure:"output_name_format"`

	// OutputFormat is "edifact" or "json".
	// Default: "edifact"
	OutputFormat string `mapstructure:"output_format"`

	// Newline writes one segment per line.
	// Default: false
	Newline bool `mapstructure:"newline"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once.
	// Default: 4
	MaxConcurrency int `mapstructure:"max_concurrency"`

	// ContinueOnError keeps processing other files and invoices after a
	// failure.
	// Default: true
	ContinueOnError bool `mapstructure:"continue_on_error"`

	// Logging configures console and file logging.
	Logging LoggingConfig `mapstructure:"logging"`

	// Compat holds switches that reproduce older output exactly.
	Compat CompatConfig `mapstructure:"compat"`
}

// CompatConfig holds output compatibility switches.
type CompatConfig struct {
	// DuplicateTrailerTaxAmount emits MOA+124 a second time after the
	// trailer TAX segment.
	DuplicateTrailerTaxAmount bool `mapstructure:"duplicate_trailer_tax_amount"`
}

// LoadOptions controls LoadMainConfig.
type LoadOptions struct {
	// ConfigFile is the main config path. A missing file falls back to the
	// defaults.
	ConfigFile string

	// EnvFile is loaded with godotenv before viper reads the environment.
	// Empty means ".env" if present.
	EnvFile string

	// CreateDirs creates the configured directories.
	CreateDirs bool
}

func setMainDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "./input")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("input_archive_dir", "./input_archive")
	v.SetDefault("output_archive_dir", "./output_archive")
	v.SetDefault("archive_by_date", false)
	v.SetDefault("templates_dir", "./templates")
	v.SetDefault("configs_dir", "./configs")
	v.SetDefault("output_name_format", "{partner}_{timestamp}_{uuid}")
	v.SetDefault("output_format", FormatEDIFACT)
	v.SetDefault("newline", false)
	v.SetDefault("max_concurrency", 4)
	v.SetDefault("continue_on_error", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.file_level", "debug")
	v.SetDefault("logging.file_mode", "append")
	v.SetDefault("compat.duplicate_trailer_tax_amount", false)
}

// LoadMainConfig reads the main configuration.
//
// PRECEDENCE (highest first):
//  1. EDIGEN_* environment variables (including values from .env)
//  2. the YAML config file
//  3. built-in defaults
func LoadMainConfig(opts LoadOptions) (*MainConfig, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else {
		// .env is optional.
		_ = godotenv.Load()
	}

	v := viper.New()
	setMainDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config MainConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if opts.CreateDirs {
		if err := ensureDirs(&config); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// validateMainConfig checks value ranges and enumerations.
func validateMainConfig(config *MainConfig) error {
	var errs error
	config.OutputFormat = strings.ToLower(config.OutputFormat)
	if config.OutputFormat != FormatEDIFACT && config.OutputFormat != FormatJSON {
		errs = multierr.Append(errs, fmt.Errorf("output_format must be %q or %q, got %q", FormatEDIFACT, FormatJSON, config.OutputFormat))
	}
	if config.MaxConcurrency < 1 {
		errs = multierr.Append(errs, fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency))
	}
	if err := config.Logging.validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

func ensureDirs(config *MainConfig) error {
	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.TemplatesDir,
		config.ConfigsDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// PARTNER CONFIGURATION STRUCTURE
// =============================================================================

// PartnerConfig holds the configuration of one trading partner. Each partner
// has its own file patterns, input layout, field mappings and interchange
// identification.
type PartnerConfig struct {
	// PartnerName is the human-readable name used in logs.
	PartnerName string `yaml:"partner_name"`

	// PartnerCode is the short code used as {partner} in file names.
	PartnerCode string `yaml:"partner_code"`

	// FileMatchingPatterns are glob patterns matched against input file
	// names. Example: "acme_*.csv"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// CSVSettings describe the CSV layout.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// XLSXSettings describe XLSX invoice sources.
	XLSXSettings XLSXSettings `yaml:"xlsx_settings"`

	// MappingTemplate is an XLSX template in the templates directory that
	// maps source headers to invoice field keys.
	MappingTemplate string `yaml:"mapping_template"`

	// FieldMappings maps source headers to invoice field keys. Entries here
	// win over the mapping template.
	// Example:
	//   field_mappings:
	//     "Invoice No": invoice_number
	//     "Qty": quantity
	FieldMappings map[string]string `yaml:"field_mappings"`

	// TransformationRules are applied to source values before mapping.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`

	// InvoiceGrouping decides which rows form one invoice.
	InvoiceGrouping InvoiceGrouping `yaml:"invoice_grouping"`

	// StaticFields are constant field values added to every invoice or item.
	StaticFields []StaticField `yaml:"static_fields"`

	// Interchange holds the UNB envelope settings.
	Interchange InterchangeConfig `yaml:"interchange"`

	// Source is the file the configuration was loaded from.
	Source string `yaml:"-"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter separates fields. Common values: ",", ";", "|", "\t".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-based row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Encoding of the file: UTF-8, ISO-8859-1, ISO-8859-15, Windows-1252.
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// QuoteChar quotes fields containing delimiters.
	// Default: '"'
	QuoteChar string `yaml:"quote_char"`

	// Comment marks lines to skip. Empty disables comments.
	Comment string `yaml:"comment"`
}

// XLSXSettings contains settings for XLSX invoice sources.
type XLSXSettings struct {
	// Sheet is the sheet name. Default: the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRow is the 1-based header row.
	// Default: 1
	HeaderRow int `yaml:"header_row"`
}

// TransformationRule defines a transformation to apply to a specific field.
type TransformationRule struct {
	// Field is the source column header.
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is one of: prepend_string, append_string, pad_zeros_to_length,
	// ensure_length, uppercase, lowercase, trim, replace, regex_replace,
	// format_date, format_number, lookup, conditional, default_value.
	Type string `yaml:"type"`

	// Value is the action parameter (string to add, length, format, ...).
	Value string `yaml:"value"`

	// Find is the substring or pattern for replace and regex_replace.
	Find string `yaml:"find,omitempty"`

	// Condition gates a conditional action. Examples:
	//   "value == 'ABC'", "length > 10", "starts_with 'P'", "is_empty"
	Condition string `yaml:"condition,omitempty"`

	// Then is the action applied when Condition holds.
	Then *TransformationAction `yaml:"then,omitempty"`

	// LookupTable maps input values to output values.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// InvoiceGrouping defines how rows are grouped into invoices.
type InvoiceGrouping struct {
	// GroupByField is the source column identifying an invoice. When empty
	// the column mapped to invoice_number is used.
	GroupByField string `yaml:"group_by_field"`

	// SortByField optionally orders rows within an invoice.
	SortByField string `yaml:"sort_by_field,omitempty"`

	// SortOrder is "asc" or "desc".
	// Default: "asc"
	SortOrder string `yaml:"sort_order,omitempty"`
}

// StaticField is a constant field value.
type StaticField struct {
	// Field is an invoice field key, e.g. "currency" or "supplier_id".
	Field string `yaml:"field"`

	// Value is the constant value.
	Value string `yaml:"value"`

	// Overwrite replaces values coming from the source.
	Overwrite bool `yaml:"overwrite,omitempty"`
}

// InterchangeConfig holds the UNB settings of a partner.
type InterchangeConfig struct {
	SenderID             string `yaml:"sender_id"`
	SenderQualifier      string `yaml:"sender_qualifier"`
	RecipientID          string `yaml:"recipient_id"`
	RecipientQualifier   string `yaml:"recipient_qualifier"`
	SyntaxIdentifier     string `yaml:"syntax_identifier"`
	SyntaxVersion        string `yaml:"syntax_version"`
	ApplicationReference string `yaml:"application_reference"`
	TestIndicator        bool   `yaml:"test_indicator"`
	Association          string `yaml:"association"`
}

// =============================================================================
// PARTNER CONFIGURATION LOADING
// =============================================================================

// LoadPartnerConfigs loads every *.yaml and *.yml file in configsDir, keyed
// by partner code. All broken files are reported together.
func LoadPartnerConfigs(configsDir string) (map[string]*PartnerConfig, error) {
	configs := make(map[string]*PartnerConfig)

	files, err := filepath.Glob(filepath.Join(configsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(configsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	var errs error
	for _, file := range files {
		config, err := LoadPartnerConfig(file)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		key := config.PartnerCode
		if key == "" {
			key = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			config.PartnerCode = key
		}
		if prev, ok := configs[key]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: partner code %q already defined in %s", file, key, prev.Source))
			continue
		}
		configs[key] = config
	}
	if errs != nil {
		return nil, errs
	}
	return configs, nil
}

// LoadPartnerConfig loads a single partner configuration file.
func LoadPartnerConfig(filePath string) (*PartnerConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	var config PartnerConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	config.Source = filePath
	ApplyPartnerDefaults(&config)
	return &config, nil
}

// ApplyPartnerDefaults sets default values for unset partner options.
func ApplyPartnerDefaults(config *PartnerConfig) {
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.CSVSettings.HeaderRows == 0 {
		config.CSVSettings.HeaderRows = 1
	}
	if config.CSVSettings.DataStartRow == 0 {
		config.CSVSettings.DataStartRow = config.CSVSettings.HeaderRows + 1
	}
	if config.CSVSettings.Encoding == "" {
		config.CSVSettings.Encoding = "UTF-8"
	}
	if config.CSVSettings.QuoteChar == "" {
		config.CSVSettings.QuoteChar = "\""
	}
	if config.XLSXSettings.HeaderRow == 0 {
		config.XLSXSettings.HeaderRow = 1
	}
	if config.InvoiceGrouping.SortOrder == "" {
		config.InvoiceGrouping.SortOrder = "asc"
	}
	if config.Interchange.SyntaxIdentifier == "" {
		config.Interchange.SyntaxIdentifier = "UNOC"
	}
	if config.Interchange.SyntaxVersion == "" {
		config.Interchange.SyntaxVersion = "3"
	}
	if config.Interchange.SenderQualifier == "" {
		config.Interchange.SenderQualifier = "14"
	}
	if config.Interchange.RecipientQualifier == "" {
		config.Interchange.RecipientQualifier = "14"
	}
}

// DefaultPartner is used when no partner configuration matches a file.
func DefaultPartner() *PartnerConfig {
	config := &PartnerConfig{PartnerName: "default", PartnerCode: "default"}
	ApplyPartnerDefaults(config)
	return config
}

// MatchPartner returns the partner whose file pattern matches fileName. With
// several matches the one with the lowest partner code wins.
func MatchPartner(configs map[string]*PartnerConfig, fileName string) (*PartnerConfig, bool) {
	codes := make([]string, 0, len(configs))
	for code := range configs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	base := filepath.Base(fileName)
	for _, code := range codes {
		for _, pattern := range configs[code].FileMatchingPatterns {
			if ok, _ := filepath.Match(pattern, base); ok {
				return configs[code], true
			}
		}
	}
	return nil, false
}
