package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMainConfigDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	require.NoError(t, err)

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, FormatEDIFACT, cfg.OutputFormat)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.True(t, cfg.ContinueOnError)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Compat.DuplicateTrailerTaxAmount)
}

func TestLoadMainConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
output_dir: /srv/out
output_format: JSON
max_concurrency: 2
compat:
  duplicate_trailer_tax_amount: true
logging:
  level: warn
`)
	t.Setenv("EDIGEN_MAX_CONCURRENCY", "8")
	t.Setenv("EDIGEN_LOGGING_LEVEL", "debug")

	cfg, err := LoadMainConfig(LoadOptions{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "/srv/out", cfg.OutputDir)
	assert.Equal(t, FormatJSON, cfg.OutputFormat)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Compat.DuplicateTrailerTaxAmount)
}

func TestLoadMainConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, "test.env", "EDIGEN_OUTPUT_NAME_FORMAT={invoice}_{uuid}\n")
	t.Cleanup(func() { os.Unsetenv("EDIGEN_OUTPUT_NAME_FORMAT") })

	cfg, err := LoadMainConfig(LoadOptions{EnvFile: env})
	require.NoError(t, err)
	assert.Equal(t, "{invoice}_{uuid}", cfg.OutputNameFormat)

	_, err = LoadMainConfig(LoadOptions{EnvFile: filepath.Join(dir, "nope.env")})
	assert.Error(t, err)
}

func TestLoadMainConfigValidation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
output_format: xml
max_concurrency: 0
logging:
  level: loud
`)
	_, err := LoadMainConfig(LoadOptions{ConfigFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output_format")
	assert.Contains(t, err.Error(), "max_concurrency")
	assert.Contains(t, err.Error(), "loud")
}

func TestLoadMainConfigCreatesDirs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "input_dir: "+filepath.Join(dir, "in")+"\noutput_dir: "+filepath.Join(dir, "out")+
		"\ntemplates_dir: "+filepath.Join(dir, "tpl")+"\nconfigs_dir: "+filepath.Join(dir, "cfg")+"\n")

	_, err := LoadMainConfig(LoadOptions{ConfigFile: path, CreateDirs: true})
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "in"))
	assert.DirExists(t, filepath.Join(dir, "cfg"))
}

const partnerYAML = `
partner_name: ACME Retail
partner_code: ACME
file_matching_patterns: ["acme_*.csv", "acme_*.xlsx"]
csv_settings:
  delimiter: ";"
  encoding: ISO-8859-1
field_mappings:
  Invoice No: invoice_number
  Qty: quantity
interchange:
  sender_id: "4000001000005"
  recipient_id: "4000002000004"
`

func TestLoadPartnerConfigs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "acme.yaml", partnerYAML)
	writeFile(t, dir, "other.yml", "partner_name: Other\nfile_matching_patterns: [\"other_*\"]\n")

	configs, err := LoadPartnerConfigs(dir)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	acme := configs["ACME"]
	require.NotNil(t, acme)
	assert.Equal(t, ";", acme.CSVSettings.Delimiter)
	assert.Equal(t, 2, acme.CSVSettings.DataStartRow)
	assert.Equal(t, "quantity", acme.FieldMappings["Qty"])
	assert.Equal(t, "UNOC", acme.Interchange.SyntaxIdentifier)
	assert.Equal(t, "14", acme.Interchange.SenderQualifier)

	other := configs["other"]
	require.NotNil(t, other)
	assert.Equal(t, "other", other.PartnerCode)

	p, ok := MatchPartner(configs, "/in/acme_2024.csv")
	require.True(t, ok)
	assert.Equal(t, "ACME", p.PartnerCode)

	_, ok = MatchPartner(configs, "unknown.csv")
	assert.False(t, ok)
}

func TestLoadPartnerConfigsReportsAllErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "partner_code: [broken\n")
	writeFile(t, dir, "b.yaml", "csv_settings: 12\n")
	writeFile(t, dir, "c.yaml", partnerYAML)
	writeFile(t, dir, "d.yaml", partnerYAML)

	_, err := LoadPartnerConfigs(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.yaml")
	assert.Contains(t, err.Error(), "b.yaml")
	assert.Contains(t, err.Error(), "already defined")
}

func TestDefaultPartner(t *testing.T) {
	p := DefaultPartner()
	assert.Equal(t, "default", p.PartnerCode)
	assert.Equal(t, ",", p.CSVSettings.Delimiter)
}
