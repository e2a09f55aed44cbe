package molsoft

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
	"github.com/Arifmaulanaazis/BioChem/scrape"
)

const fakeResultPage = `<html><body>
<b>Molecular formula:</b> C2H6O<br>
<b>Molecular weight:</b> 46.07<br>
<b>Number of HBA:</b> 1<br>
<b>Number of HBD:</b> 1<br>
<b>MolLogP :</b> -0.14<br>
<b>MolLogS :</b> 1.02 (in Log(moles/L)) 481.91 (in mg/L)<br>
<b>MolPSA :</b> 19.52 A<sup>2</sup><br>
<b>MolVol :</b> 59.47 A<sup>3</sup><br>
<b>pKa of most Basic/Acidic group :</b> 15.20<br>
<b>BBB Score :</b> 5.0 (high)<br>
<b>Number of stereo centers:</b> 0<br>
</body></html>`

func newFakeMolsoft(t *testing.T, body string) (*httptest.Server, *[]map[string]string) {
	t.Helper()
	var requests []map[string]string

	mux := http.NewServeMux()
	mux.HandleFunc("/mprop/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		requests = append(requests, map[string]string{
			"jme_mol": r.PostFormValue("jme_mol"),
			"act":     r.PostFormValue("act"),
			"Calc":    r.PostFormValue("Calc"),
		})
		fmt.Fprint(w, body)
	})
	return httptest.NewServer(mux), &requests
}

func TestRunParsesProperties(t *testing.T) {
	srv, requests := newFakeMolsoft(t, fakeResultPage)
	defer srv.Close()

	client, err := NewWithBaseURL(srv.URL)
	require.NoError(t, err)

	table, err := client.Run(context.Background(), []string{"CCO"})
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	row := table.Row(0)
	assert.Equal(t, "CCO", row["SMILES"])
	assert.Equal(t, "C2H6O", row["Molecular formula"])
	assert.Equal(t, "46.07", row["Molecular weight"])
	assert.Equal(t, "1", row["HBA"])
	assert.Equal(t, "1", row["HBD"])
	assert.Equal(t, "-0.14", row["MolLogP"])
	assert.Equal(t, "1.02", row["MolLogS"])
	assert.Equal(t, "5.0", row["BBB Score"])
	assert.Equal(t, "0", row["Number of stereo centers"])

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "Search", req["act"])
	assert.Equal(t, "Calculate Properties", req["Calc"])
	assert.Contains(t, req["jme_mol"], "MOLSOFT")
	assert.Contains(t, req["jme_mol"], "V2000")
}

func TestRunEmptyResultPageBecomesErrorRow(t *testing.T) {
	srv, _ := newFakeMolsoft(t, "<html><body>maintenance</body></html>")
	defer srv.Close()

	client, err := NewWithBaseURL(srv.URL)
	require.NoError(t, err)

	table, err := client.Run(context.Background(), []string{"CCO"})
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	assert.Contains(t, table.Row(0)[scrape.ErrorColumn], errors.CodeParse.String())
}

func TestMolblockForStampsProgram(t *testing.T) {
	block, err := molblockFor("CCO")
	require.NoError(t, err)
	assert.Contains(t, block, "MOLSOFT")
	assert.NotContains(t, block, "BioChem")
}

func TestMolblockForInvalidStructure(t *testing.T) {
	_, err := molblockFor("C((")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidStructure))
}

func TestParseResultLogSAndBBBPostProcessing(t *testing.T) {
	row, err := parseResult(fakeResultPage, "CCO")
	require.NoError(t, err)
	assert.Equal(t, "1.02", row["MolLogS"])
	assert.Equal(t, "5.0", row["BBB Score"])
}
