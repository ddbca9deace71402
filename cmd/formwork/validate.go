package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/formwork-dev/formwork/internal/presentation/tui"
	"github.com/formwork-dev/formwork/pkg/domain"
	"github.com/formwork-dev/formwork/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schema-file> [data-file]",
	Short: "Check a schema document, optionally against sample data",
	Long: `Parses a schema document and reports whether it is well-formed.
When a data file (JSON or YAML) is given, the data is validated against
the schema and the outcome is printed as a report.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(args []string) error {
	doc, err := schema.LoadFile(args[0])
	if err != nil {
		return err
	}
	validator, err := doc.Validator()
	if err != nil {
		return err
	}

	render := tui.NewRenderer()

	if len(args) < 2 {
		out, err := render(fmt.Sprintf("# %s\n\nSchema is well-formed.\n", doc.Name))
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	state, err := loadData(args[1])
	if err != nil {
		return err
	}

	report, err := validator.Validate(context.Background(), state)
	if err != nil {
		return fmt.Errorf("validator failure: %w", err)
	}

	out, err := render(tui.ValidationReport(doc.Name, report.Errors()))
	if err != nil {
		return err
	}
	fmt.Print(out)

	if !report.Valid {
		return domain.ErrInvalidData
	}
	return nil
}

// loadData reads a JSON or YAML data file into a generic state tree.
func loadData(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var state any
	if json.Valid(data) {
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("parse data file: %w", err)
		}
		return state, nil
	}
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse data file: %w", err)
	}
	return state, nil
}
