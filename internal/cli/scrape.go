package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Arifmaulanaazis/BioChem/scrape"
	"github.com/Arifmaulanaazis/BioChem/scrape/admetlab"
	"github.com/Arifmaulanaazis/BioChem/scrape/molsoft"
	"github.com/Arifmaulanaazis/BioChem/scrape/protox"
)

// smilesRunner is the shape the three prediction clients share.
type smilesRunner interface {
	Run(ctx context.Context, smilesList []string) (*scrape.Table, error)
}

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run batch predictions against the supported web services",
	}

	cmd.AddCommand(
		newServiceCmd("admetlab", "ADMET screening via ADMETlab",
			func(opts []scrape.Option) (smilesRunner, error) { return admetlab.New(opts...) }),
		newServiceCmd("protox", "Acute toxicity prediction via ProTox",
			func(opts []scrape.Option) (smilesRunner, error) { return protox.New(opts...) }),
		newServiceCmd("molsoft", "Physicochemical properties via the Molsoft calculator",
			func(opts []scrape.Option) (smilesRunner, error) { return molsoft.New(opts...) }),
	)
	return cmd
}

// newServiceCmd builds one scrape subcommand; the three services differ only
// in how their client is constructed.
func newServiceCmd(name, short string, build func([]scrape.Option) (smilesRunner, error)) *cobra.Command {
	var (
		inputPath string
		outPath   string
		resume    bool
	)

	cmd := &cobra.Command{
		Use:   name + " [SMILES...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			list, err := readSMILESArgs(args, inputPath)
			if err != nil {
				return err
			}

			opts := scrapeOptions(cliCtx)
			if resume {
				opts = append(opts, scrape.WithAutoResume(cliCtx.Config.Scrape.ResumeDir))
			}
			client, err := build(opts)
			if err != nil {
				return err
			}

			table, err := client.Run(cmd.Context(), list)
			if table == nil {
				return err
			}
			if exportErr := exportOrPrint(cmd, table, outPath); exportErr != nil {
				return exportErr
			}
			// A partial table from a cancelled run still surfaces the error.
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&inputPath, "input", "i", "", "file with one SMILES per line")
	f.StringVarP(&outPath, "out", "o", "", "write results to this file (.xlsx or .csv)")
	f.BoolVar(&resume, "resume", false, "checkpoint progress and resume interrupted runs")
	return cmd
}
