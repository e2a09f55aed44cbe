package chem

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

// PropertiesResult is one row of a BatchProperties run.  A failing SMILES
// sets Err and leaves Properties zero; it never aborts the batch.
type PropertiesResult struct {
	Index      int
	SMILES     string
	Properties PropertyRecord
	Err        error
}

// BatchProperties computes the descriptor record for every SMILES in the
// list on a bounded worker pool.  Results are returned in input order, one
// per entry, with per-item failures reported inline.
func BatchProperties(ctx context.Context, smilesList []string, workers int) []PropertiesResult {
	results := make([]PropertiesResult, len(smilesList))
	runPool(workers, len(smilesList), func(i int) {
		smiles := smilesList[i]
		results[i] = PropertiesResult{Index: i, SMILES: smiles}
		if err := ctx.Err(); err != nil {
			results[i].Err = errors.Wrap(err, errors.CodeCancelled, "batch cancelled")
			return
		}
		mol, err := NewMolecule(smiles)
		if err != nil {
			results[i].Err = err
			return
		}
		results[i].Properties = mol.Properties()
	})
	return results
}

// MinimizeOptions configures BatchMinimize.  The zero value selects MMFF94,
// one conformer, the default seed and iteration cap, and one worker per
// CPU.
type MinimizeOptions struct {
	ForceField    ForceField
	MaxIters      int
	NumConformers int
	Seed          int64
	Workers       int

	// SaveDir, when non-empty, receives one minimized structure per input
	// as mol_<n>.sdf with n starting at 1.
	SaveDir string
}

func (o *MinimizeOptions) applyDefaults() {
	if o.ForceField == "" {
		o.ForceField = MMFF94
	}
	if o.NumConformers <= 0 {
		o.NumConformers = 1
	}
	if o.Seed == 0 {
		o.Seed = DefaultEmbedSeed
	}
}

// MinimizeBatchResult is one row of a BatchMinimize run.
type MinimizeBatchResult struct {
	Index   int
	SMILES  string
	Results []MinimizeResult

	// SavedPath is the SDF written for this input when SaveDir was set.
	SavedPath string

	Err error
}

// BatchMinimize embeds and minimizes every SMILES in the list on a bounded
// worker pool.  Each worker owns its molecule instance, so no locking is
// needed.  Results follow input order and per-item failures are inline.
func BatchMinimize(ctx context.Context, smilesList []string, opts MinimizeOptions) []MinimizeBatchResult {
	opts.applyDefaults()
	results := make([]MinimizeBatchResult, len(smilesList))
	runPool(opts.Workers, len(smilesList), func(i int) {
		smiles := smilesList[i]
		results[i] = MinimizeBatchResult{Index: i, SMILES: smiles}
		if err := ctx.Err(); err != nil {
			results[i].Err = errors.Wrap(err, errors.CodeCancelled, "batch cancelled")
			return
		}

		mol, err := NewMolecule(smiles)
		if err != nil {
			results[i].Err = err
			return
		}
		mol.AddHydrogens()
		if err := mol.EmbedConformers(opts.NumConformers, opts.Seed); err != nil {
			results[i].Err = err
			return
		}
		minResults, err := mol.Minimize(opts.ForceField, opts.MaxIters)
		if err != nil {
			results[i].Err = err
			return
		}
		results[i].Results = minResults

		if opts.SaveDir != "" {
			path := filepath.Join(opts.SaveDir, fmt.Sprintf("mol_%d.sdf", i+1))
			if err := mol.WriteSDF(path); err != nil {
				results[i].Err = err
				return
			}
			results[i].SavedPath = path
		}
	})
	return results
}

// runPool fans n index-addressed tasks out over an ants pool and waits for
// completion.  Worker counts below one default to the CPU count.
func runPool(workers, n int, task func(i int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n && n > 0 {
		workers = n
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		// Pool construction only fails on invalid sizes; fall back to
		// running inline.
		for i := 0; i < n; i++ {
			task(i)
		}
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			task(i)
		}); err != nil {
			task(i)
			wg.Done()
		}
	}
	wg.Wait()
}
