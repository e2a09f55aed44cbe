// Package knapsack searches the KNApSAcK natural-product database.  A
// keyword search yields the summary table of matching metabolites; the
// detail page of every hit is then fetched concurrently and merged in, so
// the final table carries structures (SMILES, InChI) and source organisms
// alongside the summary fields.
package knapsack

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
	"github.com/Arifmaulanaazis/BioChem/pkg/logging"
	"github.com/Arifmaulanaazis/BioChem/scrape"
)

const (
	// ServiceName labels jobs, metrics and checkpoints for this client.
	ServiceName = "knapsack"

	// DefaultBaseURL is the production KNApSAcK core endpoint.
	DefaultBaseURL = "https://www.knapsackfamily.com"

	resultPath = "/knapsack_core/result.php"
	detailPath = "/knapsack_core/information.php"
)

// SearchType selects which field the keyword is matched against.
type SearchType string

const (
	SearchAll     SearchType = "all"
	SearchName    SearchType = "name"
	SearchFormula SearchType = "formula"
	SearchMass    SearchType = "mass"
	SearchCID     SearchType = "cid"
)

func (s SearchType) valid() bool {
	switch s {
	case SearchAll, SearchName, SearchFormula, SearchMass, SearchCID:
		return true
	}
	return false
}

// Summary table column names, matching the result page layout.
var summaryColumns = []string{
	"C_ID", "CAS_ID", "Metabolite", "Molecular_Formula", "Mw", "Organism",
}

// Detail columns fetched per compound.
var detailColumns = []string{
	"C_ID", "InChIKey", "InChICode", "SMILES", "image_url", "Organisms",
}

// Columns is the merged result table schema in render order.
var Columns = []string{
	"C_ID", "CAS_ID", "Metabolite", "Molecular_Formula", "Mw", "Organism",
	"InChIKey", "InChICode", "SMILES", "image_url", "Organisms",
}

// Client talks to the KNApSAcK core database.
type Client struct {
	http    *resty.Client
	runner  *scrape.Runner
	baseURL string
	log     logging.Logger
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
		http:    http,
		runner:  runner,
		baseURL: baseURL,
		log:     o.Logger.Named(ServiceName),
	}, nil
}

// Search queries the database and returns the merged result table: one row
// per metabolite, summary fields plus detail fields, in the order the
// search page listed them.  Detail fetches that fail leave their row with
// the summary fields and an error message.
func (c *Client) Search(ctx context.Context, searchType SearchType, keyword string) (*scrape.Table, error) {
	if !searchType.valid() {
		return nil, errors.InvalidParam("unknown search type: " + string(searchType))
	}
	if strings.TrimSpace(keyword) == "" {
		return nil, errors.InvalidParam("search keyword must not be empty")
	}

	summaries, err := c.fetchSummary(ctx, searchType, keyword)
	if err != nil {
		return nil, err
	}
	c.log.Info("search complete",
		logging.String("keyword", keyword),
		logging.String("type", string(searchType)),
		logging.Int("hits", len(summaries)))

	table := scrape.NewTable(Columns...)
	if len(summaries) == 0 {
		return table, nil
	}

	cids := make([]string, len(summaries))
	byCID := make(map[string]scrape.Row, len(summaries))
	for i, s := range summaries {
		cids[i] = s["C_ID"]
		byCID[s["C_ID"]] = s
	}

	details, err := c.runner.Run(ctx, cids, detailColumns, c.fetchDetail)
	if details == nil {
		return nil, err
	}

	for i := 0; i < details.Len(); i++ {
		detail := details.Row(i)
		merged := scrape.Row{}
		for k, v := range byCID[detail["C_ID"]] {
			merged[k] = v
		}
		for k, v := range detail {
			if v != "" {
				merged[k] = v
			}
		}
		table.Append(merged)
	}
	return table, err
}

// fetchSummary loads and parses the search result table.
func (c *Client) fetchSummary(ctx context.Context, searchType SearchType, keyword string) ([]scrape.Row, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"sname": string(searchType),
			"word":  keyword,
		}).
		Get(resultPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetwork, "search request failed")
	}
	if resp.IsError() {
		return nil, errors.Newf(errors.CodeRemoteService,
			"search returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "failed to parse search page")
	}

	var rows []scrape.Row
	doc.Find("table").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < len(summaryColumns) {
			return
		}
		row := scrape.Row{}
		cells.Each(func(i int, td *goquery.Selection) {
			if i < len(summaryColumns) {
				row[summaryColumns[i]] = strings.TrimSpace(td.Text())
			}
		})
		if row["C_ID"] != "" {
			rows = append(rows, row)
		}
	})
	return rows, nil
}

// fetchDetail loads one compound page and extracts structure identifiers,
// the depiction URL and the organism list.
func (c *Client) fetchDetail(ctx context.Context, job *scrape.Job) (scrape.Row, error) {
	cid := job.Identifier
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("word", cid).
		Get(detailPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetwork, "detail request failed").WithDetail(cid)
	}
	if resp.IsError() {
		return nil, errors.Newf(errors.CodeRemoteService,
			"detail page returned status %d", resp.StatusCode()).WithDetail(cid)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "failed to parse detail page").WithDetail(cid)
	}

	row := scrape.Row{"C_ID": cid}
	doc.Find("table.d3 tr").Each(func(_ int, tr *goquery.Selection) {
		label := strings.TrimSpace(tr.Find("th.inf").First().Text())
		if label == "" {
			return
		}
		value := strings.TrimSpace(tr.Find("td").First().Text())
		switch label {
		case "InChIKey":
			row["InChIKey"] = value
		case "InChICode":
			row["InChICode"] = value
		case "SMILES":
			row["SMILES"] = value
		case "Organism":
			row["Organisms"] = parseOrganisms(tr.NextAllFiltered("tr").Find("table").First())
			if row["Organisms"] == "" {
				row["Organisms"] = parseOrganisms(tr.Parent().Parent().Find("table").First())
			}
		}
	})

	if src, ok := doc.Find(`img[property="image"]`).Attr("src"); ok && src != "" {
		row["image_url"] = c.baseURL + src
	}
	return row, nil
}

// parseOrganisms flattens the organism table into one cell: each row
// renders as "kingdom / family / species (reference)", rows joined with
// semicolons.
func parseOrganisms(table *goquery.Selection) string {
	var entries []string
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			// Header row.
			return
		}
		cells := tr.Find("td")
		if cells.Length() < 4 {
			return
		}
		get := func(j int) string { return strings.TrimSpace(cells.Eq(j).Text()) }
		entries = append(entries, fmt.Sprintf("%s / %s / %s (%s)",
			get(0), get(1), get(2), get(3)))
	})
	return strings.Join(entries, "; ")
}
