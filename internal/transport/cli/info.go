package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/cpfvariants/internal/domain/cpf"
	"github.com/kailas-cloud/cpfvariants/internal/domain/region"
)

// NewValidateCmd creates the "validate" subcommand. An invalid CPF is
// returned as an error so the process exits non-zero.
func NewValidateCmd(render *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <cpf>",
		Short: "Check a CPF's format and check digits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := cpf.Validate(cpf.Normalize(args[0]))
			if err != nil {
				return err
			}
			render.Valid(d)
			return nil
		},
	}
}

// NewFormatCmd creates the "format" subcommand, which applies the
// XXX.XXX.XXX-YY mask to however many digits are given.
func NewFormatCmd(render *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "format <digits>",
		Short: "Apply the CPF mask to partial or complete input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(render.Out(), cpf.FormatPartial(args[0]))
			return err
		},
	}
}

// NewRegionsCmd creates the "regions" subcommand.
func NewRegionsCmd(render *Renderer) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List states and their region digits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return writeJSON(render.Out(), region.All())
			}
			render.Regions(region.All())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")

	return cmd
}
