package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-engine/internal/engine"
	"github.com/insightdelivered/statement-engine/internal/extractor"
	"github.com/insightdelivered/statement-engine/internal/models"
	"github.com/insightdelivered/statement-engine/internal/writer"
)

func newConvertCommand(deps *dependencies) *cobra.Command {
	var (
		dialectName string
		output      string
		format      string
		confidence  bool
	)

	cmd := &cobra.Command{
		Use:   "convert <statement.pdf>",
		Short: "Convert a statement PDF to CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := deps.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfgs, err := deps.dialects()
			if err != nil {
				return err
			}
			eng, err := engine.New(cfgs, log)
			if err != nil {
				return err
			}

			doc, err := extractor.ExtractDocument(args[0])
			if err != nil {
				return err
			}

			res, err := eng.Parse(cmd.Context(), doc, dialectName)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			if !res.BalanceReconciled {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: statement does not reconcile")
			}

			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file %q: %w", output, err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "json":
				return (&writer.JSONWriter{}).Write(out, res)
			case "csv":
				cw := &writer.CSVWriter{IncludeHeader: true, IncludeConfidence: confidence}
				return cw.Write(out, res)
			default:
				return fmt.Errorf("unsupported format %q, use csv or json", format)
			}
		},
	}

	cmd.Flags().StringVarP(&dialectName, "dialect", "d", "auto", "statement dialect (auto, metro, hsbc, barclays, generic)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or json")
	cmd.Flags().BoolVar(&confidence, "confidence", false, "include per-transaction confidence in CSV output")

	return cmd
}

func newDetectCommand(deps *dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <statement.pdf>",
		Short: "Identify the issuing institution of a statement PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := deps.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfgs, err := deps.dialects()
			if err != nil {
				return err
			}
			eng, err := engine.New(cfgs, log)
			if err != nil {
				return err
			}

			doc, err := extractor.ExtractDocument(args[0])
			if err != nil {
				return err
			}
			name, err := eng.Detect(models.Document{Pages: doc.Pages})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}
