package chem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

func TestBatchPropertiesOrderAndInlineErrors(t *testing.T) {
	input := []string{"CCO", "not-a-smiles(", aspirinSMILES, "c1ccccc1"}

	results := BatchProperties(context.Background(), input, 4)
	require.Len(t, results, len(input))

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, input[i], r.SMILES)
	}

	require.NoError(t, results[0].Err)
	assert.InDelta(t, 46.07, results[0].Properties.MolecularWeight, 0.01)

	require.Error(t, results[1].Err)
	assert.True(t, errors.IsCode(results[1].Err, errors.CodeInvalidStructure))

	require.NoError(t, results[2].Err)
	require.NoError(t, results[3].Err)
}

func TestBatchPropertiesSingleWorkerMatchesParallel(t *testing.T) {
	input := []string{"CCO", "CCC", "CCCC"}

	serial := BatchProperties(context.Background(), input, 1)
	parallel := BatchProperties(context.Background(), input, 3)
	assert.Equal(t, serial, parallel)
}

func TestBatchPropertiesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := BatchProperties(ctx, []string{"CCO", "CCC"}, 2)
	require.Len(t, results, 2)
	for _, r := range results {
		require.Error(t, r.Err)
		assert.True(t, errors.IsCode(r.Err, errors.CodeCancelled))
	}
}

func TestBatchMinimizeWritesSaveDir(t *testing.T) {
	dir := t.TempDir()
	input := []string{"CCO", "CC"}

	results := BatchMinimize(context.Background(), input, MinimizeOptions{
		MaxIters: 100,
		SaveDir:  dir,
	})
	require.Len(t, results, 2)

	for i, r := range results {
		require.NoError(t, r.Err)
		require.NotEmpty(t, r.Results)
		expected := filepath.Join(dir, "mol_"+string(rune('1'+i))+".sdf")
		assert.Equal(t, expected, r.SavedPath)
		_, err := os.Stat(r.SavedPath)
		assert.NoError(t, err)
	}
}

func TestBatchMinimizeInlineFailure(t *testing.T) {
	results := BatchMinimize(context.Background(), []string{"bad(", "CC"}, MinimizeOptions{MaxIters: 50})
	require.Len(t, results, 2)

	require.Error(t, results[0].Err)
	assert.True(t, errors.IsCode(results[0].Err, errors.CodeInvalidStructure))
	require.NoError(t, results[1].Err)
}

func TestBatchEmptyInput(t *testing.T) {
	assert.Empty(t, BatchProperties(context.Background(), nil, 4))
	assert.Empty(t, BatchMinimize(context.Background(), nil, MinimizeOptions{}))
}
