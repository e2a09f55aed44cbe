package cli

import (
	"github.com/spf13/cobra"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
	"github.com/Arifmaulanaazis/BioChem/scrape/knapsack"
)

func newKnapsackCmd() *cobra.Command {
	var (
		searchType string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "knapsack KEYWORD",
		Short: "Search the KNApSAcK natural-product database",
		Long:  "Search the KNApSAcK core database by metabolite name, formula, mass,\nC_ID or across all fields, fetching structure identifiers and source\norganisms for every hit.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			client, err := knapsack.New(scrapeOptions(cliCtx)...)
			if err != nil {
				return err
			}

			table, err := client.Search(cmd.Context(), knapsack.SearchType(searchType), args[0])
			if err != nil && table == nil {
				return err
			}
			if table.Len() == 0 {
				return errors.InvalidParam("no metabolites matched the keyword").WithDetail(args[0])
			}
			if exportErr := exportOrPrint(cmd, table, outPath); exportErr != nil {
				return exportErr
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&searchType, "type", "t", string(knapsack.SearchAll), "search field (all, name, formula, mass, cid)")
	f.StringVarP(&outPath, "out", "o", "", "write results to this file (.xlsx or .csv)")
	return cmd
}
