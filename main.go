// =============================================================================
// EDIFACT Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   edigen process          - Generate interchanges for every input file
//   edigen compose FILE     - Print the interchange of one file
//   edigen clean            - Remove old archived files
//   edigen version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : message composition, parsing, validation, conversion
//   - pkg/           : shared file utilities
//   - configs/       : partner YAML configurations
//   - templates/     : XLSX mapping templates
//
// =============================================================================

package main

import (
	"github.com/annis-souames/edifact-generator/cmd"
)

func main() {
	cmd.Execute()
}
