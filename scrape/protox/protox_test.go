package protox

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
	"github.com/Arifmaulanaazis/BioChem/scrape"
)

const fakeResultPage = `<html><body>
<h1>Predicted LD50: 250mg/kg</h1>
<h1>Predicted Toxicity Class: 3</h1>
<h1>Average similarity: 62.45%</h1>
<h1>Prediction accuracy: 68.07%</h1>
</body></html>`

func newFakeProTox(t *testing.T, body string) (*httptest.Server, *[]map[string]string) {
	t.Helper()
	var requests []map[string]string

	mux := http.NewServeMux()
	mux.HandleFunc("/index.php", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		requests = append(requests, map[string]string{
			"site":         r.URL.Query().Get("site"),
			"smilesString": r.PostFormValue("smilesString"),
			"defaultName":  r.PostFormValue("defaultName"),
			"smiles":       r.PostFormValue("smiles"),
		})
		fmt.Fprint(w, body)
	})
	return httptest.NewServer(mux), &requests
}

func TestRunParsesPrediction(t *testing.T) {
	srv, requests := newFakeProTox(t, fakeResultPage)
	defer srv.Close()

	client, err := NewWithBaseURL(srv.URL)
	require.NoError(t, err)

	table, err := client.Run(context.Background(), []string{"CCO"})
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	row := table.Row(0)
	assert.Equal(t, "CCO", row["SMILES"])
	assert.Equal(t, "250mg/kg", row["Predicted LD50"])
	assert.Equal(t, "3", row["Toxicity Class"])
	assert.Equal(t, "62.45%", row["Average Similarity"])
	assert.Equal(t, "68.07%", row["Prediction Accuracy"])

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "compound_search_similarity", req["site"])
	assert.Equal(t, "Tamoxifen", req["defaultName"])
	assert.Equal(t, "CCO", req["smiles"])
	assert.Contains(t, req["smilesString"], "V2000")
}

func TestRunRateLimitedFailsWithoutResume(t *testing.T) {
	srv, requests := newFakeProTox(t,
		"<html><body>You reached the limit of allowed queries</body></html>")
	defer srv.Close()

	client, err := NewWithBaseURL(srv.URL)
	require.NoError(t, err)

	table, err := client.Run(context.Background(), []string{"CCO"})
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	assert.Contains(t, table.Row(0)[scrape.ErrorColumn], errors.CodeRateLimited.String())
	// No polling without auto-resume.
	assert.Len(t, *requests, 1)
}

func TestRunRejectsInvalidSMILESLocally(t *testing.T) {
	srv, requests := newFakeProTox(t, fakeResultPage)
	defer srv.Close()

	client, err := NewWithBaseURL(srv.URL)
	require.NoError(t, err)

	table, err := client.Run(context.Background(), []string{"C(("})
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	assert.NotEmpty(t, table.Row(0)[scrape.ErrorColumn])
	assert.Empty(t, *requests)
}

func TestParseResultMissingValues(t *testing.T) {
	_, err := parseResult("<html><body><h1>Welcome</h1></body></html>", "CCO")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParse))
	assert.True(t, strings.Contains(err.Error(), "no prediction values"))
}
