// Package protox predicts acute toxicity through the ProTox web server.
// Each SMILES is converted to a molblock, submitted to the similarity
// search endpoint, and the LD50, toxicity class, similarity and accuracy
// figures are scraped from the result page.
//
// ProTox rate-limits aggressively.  With auto-resume enabled the engine
// waits out the limit and re-polls; without it a rate-limited compound
// fails with CodeRateLimited.
package protox

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/Arifmaulanaazis/BioChem/chem"
	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
	"github.com/Arifmaulanaazis/BioChem/pkg/logging"
	"github.com/Arifmaulanaazis/BioChem/scrape"
)

const (
	// ServiceName labels jobs, metrics and checkpoints for this client.
	ServiceName = "protox"

	// DefaultBaseURL is the production ProTox endpoint.
	DefaultBaseURL = "https://tox.charite.de/protox3"

	searchPath = "/index.php"
	searchSite = "compound_search_similarity"

	// rateLimitMarker is the phrase the server embeds in the response
	// body when the query quota is exhausted.
	rateLimitMarker = "You reached the limit of allowed queries"
)

// Columns is the result table schema in render order.
var Columns = []string{
	"SMILES",
	"Predicted LD50",
	"Toxicity Class",
	"Average Similarity",
	"Prediction Accuracy",
}

// Client talks to the ProTox prediction service.
type Client struct {
	http   *resty.Client
	runner *scrape.Runner
	log    logging.Logger
}

// New builds a client against the production service.
func New(opts ...scrape.Option) (*Client, error) {
	return NewWithBaseURL(DefaultBaseURL, opts...)
}

// NewWithBaseURL builds a client against an alternate endpoint.
func NewWithBaseURL(baseURL string, opts ...scrape.Option) (*Client, error) {
	runner, err := scrape.NewRunner(ServiceName, opts...)
	if err != nil {
		return nil, err
	}
	o := runner.Options()
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(o.HTTPTimeout)
	return &Client{
		http:   http,
		runner: runner,
		log:    o.Logger.Named(ServiceName),
	}, nil
}

// Run predicts toxicity for the given SMILES and returns one row per
// input, in input order, with failures inline.
func (c *Client) Run(ctx context.Context, smilesList []string) (*scrape.Table, error) {
	return c.runner.Run(ctx, smilesList, Columns, c.processSingle)
}

func (c *Client) processSingle(ctx context.Context, job *scrape.Job) (scrape.Row, error) {
	smiles := job.Identifier
	mol, err := chem.NewMolecule(smiles)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("site", searchSite).
		SetFormData(map[string]string{
			"smilesString": mol.MolBlock(),
			"defaultName":  "Tamoxifen",
			"smiles":       smiles,
			"pubchem_name": "",
		}).
		Post(searchPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetwork, "toxicity request failed")
	}
	if resp.IsError() {
		return nil, errors.Newf(errors.CodeRemoteService,
			"toxicity request returned status %d", resp.StatusCode())
	}

	body := resp.String()
	if strings.Contains(body, rateLimitMarker) {
		return nil, errors.RateLimited("query limit reached").WithDetail(smiles)
	}
	return parseResult(body, smiles)
}

// parseResult extracts the prediction headline values.  The page renders
// each figure as an h1 of the form "Predicted LD50: 250mg/kg".
func parseResult(html, smiles string) (scrape.Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "failed to parse result page")
	}

	extract := func(label string) string {
		var value string
		doc.Find("h1").EachWithBreak(func(_ int, h *goquery.Selection) bool {
			text := strings.TrimSpace(h.Text())
			if !strings.Contains(text, label) {
				return true
			}
			parts := strings.Split(text, ":")
			value = strings.TrimSpace(parts[len(parts)-1])
			return false
		})
		return value
	}

	row := scrape.Row{
		"SMILES":              smiles,
		"Predicted LD50":      extract("Predicted LD50"),
		"Toxicity Class":      extract("Predicted Toxicity Class"),
		"Average Similarity":  extract("Average similarity"),
		"Prediction Accuracy": extract("Prediction accuracy"),
	}
	if row["Predicted LD50"] == "" && row["Toxicity Class"] == "" {
		return nil, errors.Parse("result page has no prediction values").WithDetail(smiles)
	}
	return row, nil
}
