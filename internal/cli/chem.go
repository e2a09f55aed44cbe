package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Arifmaulanaazis/BioChem/chem"
)

// ---------------------------------------------------------------------------
// biochem props
// ---------------------------------------------------------------------------

// propsReport renders BatchProperties results as JSON or an aligned table.
type propsReport struct {
	Results []propsRow `json:"results"`
}

type propsRow struct {
	SMILES     string               `json:"smiles"`
	Properties *chem.PropertyRecord `json:"properties,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func (r propsReport) TableHeaders() []string {
	headers := make([]string, 0, len(chem.PropertyColumns)+2)
	headers = append(headers, "SMILES")
	headers = append(headers, chem.PropertyColumns...)
	return append(headers, "Error")
}

func (r propsReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		row := []string{res.SMILES}
		if res.Properties != nil {
			values := res.Properties.Map()
			for _, col := range chem.PropertyColumns {
				row = append(row, strconv.FormatFloat(values[col], 'f', 2, 64))
			}
		} else {
			for range chem.PropertyColumns {
				row = append(row, "")
			}
		}
		row = append(row, res.Error)
		rows = append(rows, row)
	}
	return rows
}

func newPropsCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "props [SMILES...]",
		Short: "Compute molecular descriptors for one or more structures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			list, err := readSMILESArgs(args, inputPath)
			if err != nil {
				return err
			}

			report := propsReport{}
			for _, res := range chem.BatchProperties(cmd.Context(), list, cliCtx.Config.Chem.Workers) {
				row := propsRow{SMILES: res.SMILES}
				if res.Err != nil {
					row.Error = res.Err.Error()
				} else {
					props := res.Properties
					row.Properties = &props
				}
				report.Results = append(report.Results, row)
			}
			return PrintResult(cmd, report)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "file with one SMILES per line")
	return cmd
}

// ---------------------------------------------------------------------------
// biochem lipinski
// ---------------------------------------------------------------------------

type lipinskiReport struct {
	Results []lipinskiRow `json:"results"`
}

type lipinskiRow struct {
	SMILES  string                `json:"smiles"`
	Profile *chem.LipinskiProfile `json:"profile,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func (r lipinskiReport) TableHeaders() []string {
	return []string{"SMILES", "Conclusion", "Violations", "Details", "Error"}
}

func (r lipinskiReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Profile == nil {
			rows = append(rows, []string{res.SMILES, "", "", "", res.Error})
			continue
		}
		rows = append(rows, []string{
			res.SMILES,
			res.Profile.Conclusion(),
			strconv.Itoa(res.Profile.Violations),
			strings.Join(res.Profile.Details, "; "),
			"",
		})
	}
	return rows
}

func newLipinskiCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "lipinski [SMILES...]",
		Short: "Screen structures against the Lipinski rule of five",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			list, err := readSMILESArgs(args, inputPath)
			if err != nil {
				return err
			}

			report := lipinskiReport{}
			for _, res := range chem.BatchProperties(cmd.Context(), list, cliCtx.Config.Chem.Workers) {
				row := lipinskiRow{SMILES: res.SMILES}
				if res.Err != nil {
					row.Error = res.Err.Error()
				} else {
					profile := chem.EvaluateLipinski(res.Properties)
					row.Profile = &profile
				}
				report.Results = append(report.Results, row)
			}
			return PrintResult(cmd, report)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "file with one SMILES per line")
	return cmd
}

// ---------------------------------------------------------------------------
// biochem minimize
// ---------------------------------------------------------------------------

type minimizeReport struct {
	Results []minimizeRow `json:"results"`
}

type minimizeRow struct {
	SMILES     string                `json:"smiles"`
	Conformers []chem.MinimizeResult `json:"conformers,omitempty"`
	SavedPath  string                `json:"saved_path,omitempty"`
	Error      string                `json:"error,omitempty"`
}

func (r minimizeReport) TableHeaders() []string {
	return []string{"SMILES", "Conformers", "Best Energy", "Converged", "Saved", "Error"}
}

func (r minimizeReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Error != "" {
			rows = append(rows, []string{res.SMILES, "", "", "", "", res.Error})
			continue
		}
		best := 0.0
		converged := true
		for i, c := range res.Conformers {
			if i == 0 || c.Energy < best {
				best = c.Energy
			}
			converged = converged && c.Converged
		}
		rows = append(rows, []string{
			res.SMILES,
			strconv.Itoa(len(res.Conformers)),
			strconv.FormatFloat(best, 'f', 3, 64),
			strconv.FormatBool(converged),
			res.SavedPath,
			"",
		})
	}
	return rows
}

func newMinimizeCmd() *cobra.Command {
	var (
		inputPath  string
		forceField string
		iters      int
		conformers int
		seed       int64
		saveDir    string
	)

	cmd := &cobra.Command{
		Use:   "minimize [SMILES...]",
		Short: "Generate 3D conformers and minimize their geometry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			list, err := readSMILESArgs(args, inputPath)
			if err != nil {
				return err
			}

			cc := cliCtx.Config.Chem
			opts := chem.MinimizeOptions{
				ForceField:    chem.ForceField(firstNonEmpty(forceField, cc.ForceField)),
				MaxIters:      firstPositive(iters, cc.MaxIters),
				NumConformers: firstPositive(conformers, cc.NumConformers),
				Seed:          seed,
				Workers:       cc.Workers,
				SaveDir:       saveDir,
			}
			if opts.Seed == 0 {
				opts.Seed = cc.Seed
			}
			if saveDir != "" {
				if err := os.MkdirAll(saveDir, 0o755); err != nil {
					return fmt.Errorf("failed to create save directory: %w", err)
				}
			}

			report := minimizeReport{}
			for _, res := range chem.BatchMinimize(cmd.Context(), list, opts) {
				row := minimizeRow{SMILES: res.SMILES, SavedPath: res.SavedPath}
				if res.Err != nil {
					row.Error = res.Err.Error()
				} else {
					row.Conformers = res.Results
				}
				report.Results = append(report.Results, row)
			}
			return PrintResult(cmd, report)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&inputPath, "input", "i", "", "file with one SMILES per line")
	f.StringVar(&forceField, "forcefield", "", "force field (MMFF94, UFF)")
	f.IntVar(&iters, "iters", 0, "maximum minimization iterations")
	f.IntVar(&conformers, "conformers", 0, "number of conformers to embed")
	f.Int64Var(&seed, "seed", 0, "embedding random seed")
	f.StringVar(&saveDir, "save-dir", "", "write minimized structures as SDF into this directory")
	return cmd
}

// ---------------------------------------------------------------------------
// biochem draw
// ---------------------------------------------------------------------------

func newDrawCmd() *cobra.Command {
	var (
		outPath string
		width   int
		height  int
	)

	cmd := &cobra.Command{
		Use:   "draw SMILES",
		Short: "Render a 2D depiction of a structure as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			w := firstPositive(width, cliCtx.Config.Chem.ImageWidth)
			h := firstPositive(height, cliCtx.Config.Chem.ImageHeight)

			mol, err := chem.NewMolecule(args[0])
			if err != nil {
				return err
			}
			if err := mol.DrawPNG(outPath, w, h); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&outPath, "out", "o", "molecule.png", "output PNG path")
	f.IntVar(&width, "width", 0, "image width in pixels")
	f.IntVar(&height, "height", 0, "image height in pixels")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
