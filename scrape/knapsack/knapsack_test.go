package knapsack

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
<table>
<tr><th>C_ID</th><th>CAS ID</th><th>Metabolite</th><th>Molecular formula</th><th>Mw</th><th>Organism</th></tr>
<tr><td><a href="information.php?word=C00002647">C00002647</a></td><td>117-39-5</td><td>Quercetin</td><td>C15H10O7</td><td>302.04</td><td>Plantae</td></tr>
<tr><td><a href="information.php?word=C00002646">C00002646</a></td><td>520-18-3</td><td>Kaempferol</td><td>C15H10O6</td><td>286.05</td><td>Plantae</td></tr>
</table>
</body></html>`

func fakeDetailPage(cid string) string {
	return fmt.Sprintf(`<html><body>
<img property="image" src="/knapsack_core/image/%s.png">
<table class="d3">
<tr><th class="inf">Name</th><td>Quercetin</td></tr>
<tr><th class="inf">InChIKey</th><td>REFJWTPEDVJJIY-UHFFFAOYSA-N</td></tr>
<tr><th class="inf">InChICode</th><td>InChI=1S/C15H10O7</td></tr>
<tr><th class="inf">SMILES</th><td>O=c1c(O)c(-c2ccc(O)c(O)c2)oc2cc(O)cc(O)c12</td></tr>
<tr><th class="inf">Organism</th><td></td></tr>
<tr><td colspan="2"><table>
<tr><th>Kingdom</th><th>Family</th><th>Species</th><th>Reference</th></tr>
<tr><td>Plantae</td><td>Rosaceae</td><td>Malus domestica</td><td>ref1</td></tr>
<tr><td>Plantae</td><td>Fabaceae</td><td>Glycine max</td><td>ref2</td></tr>
</table></td></tr>
</table>
</body></html>`, cid)
}

func newFakeKNApSAcK(t *testing.T, detailStatus map[string]int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/knapsack_core/result.php", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name", r.URL.Query().Get("sname"))
		if r.URL.Query().Get("word") == "nothing" {
			fmt.Fprint(w, "<html><body><p>0 matches</p></body></html>")
			return
		}
		fmt.Fprint(w, fakeResultPage)
	})
	mux.HandleFunc("/knapsack_core/information.php", func(w http.ResponseWriter, r *http.Request) {
		cid := r.URL.Query().Get("word")
		if status, ok := detailStatus[cid]; ok {
			w.WriteHeader(status)
			return
		}
		fmt.Fprint(w, fakeDetailPage(cid))
	})
	return httptest.NewServer(mux)
}

func TestSearchMergesDetails(t *testing.T) {
	srv := newFakeKNApSAcK(t, nil)
	defer srv.Close()

	client, err := NewWithBaseURL(srv.URL)
	require.NoError(t, err)

	table, err := client.Search(context.Background(), SearchName, "quercetin")
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	row := table.Row(0)
	assert.Equal(t, "C00002647", row["C_ID"])
	assert.Equal(t, "117-39-5", row["CAS_ID"])
	assert.Equal(t, "Quercetin", row["Metabolite"])
	assert.Equal(t, "C15H10O7", row["Molecular_Formula"])
	assert.Equal(t, "302.04", row["Mw"])
	assert.Equal(t, "REFJWTPEDVJJIY-UHFFFAOYSA-N", row["InChIKey"])
	assert.Equal(t, "InChI=1S/C15H10O7", row["InChICode"])
	assert.Contains(t, row["SMILES"], "oc2cc(O)cc(O)c12")
	assert.Equal(t, srv.URL+"/knapsack_core/image/C00002647.png", row["image_url"])
	assert.Equal(t,
		"Plantae / Rosaceae / Malus domestica (ref1); Plantae / Fabaceae / Glycine max (ref2)",
		row["Organisms"])

	assert.Equal(t, "C00002646", table.Row(1)["C_ID"])
}

func TestSearchKeepsSummaryWhenDetailFails(t *testing.T) {
	srv := newFakeKNApSAcK(t, map[string]int{"C00002646": http.StatusInternalServerError})
	defer srv.Close()

	client, err := NewWithBaseURL(srv.URL)
	require.NoError(t, err)

	table, err := client.Search(context.Background(), SearchName, "quercetin")
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	failed := table.Row(1)
	assert.Equal(t, "C00002646", failed["C_ID"])
	assert.Equal(t, "Kaempferol", failed["Metabolite"])
	assert.Empty(t, failed["SMILES"])
	assert.NotEmpty(t, failed[scrape.ErrorColumn])
}

func TestSearchNoMatches(t *testing.T) {
	srv := newFakeKNApSAcK(t, nil)
	defer srv.Close()

	client, err := NewWithBaseURL(srv.URL)
	require.NoError(t, err)

	table, err := client.Search(context.Background(), SearchName, "nothing")
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestSearchValidatesInput(t *testing.T) {
	client, err := NewWithBaseURL("http://localhost:1")
	require.NoError(t, err)

	_, err = client.Search(context.Background(), SearchType("fuzzy"), "x")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = client.Search(context.Background(), SearchAll, "   ")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestSearchTypeValid(t *testing.T) {
	for _, st := range []SearchType{SearchAll, SearchName, SearchFormula, SearchMass, SearchCID} {
		assert.True(t, st.valid(), string(st))
	}
	assert.False(t, SearchType("organism").valid())
}
