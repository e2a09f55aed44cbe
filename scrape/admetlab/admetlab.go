// Package admetlab screens compounds through the ADMETlab batch prediction
// service.  Submissions are batched (up to 100 SMILES per request), the
// result CSV is downloaded and every compound becomes one row of the
// result table.
package admetlab

import (
	"context"
	"encoding/csv"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
	"github.com/Arifmaulanaazis/BioChem/pkg/logging"
	"github.com/Arifmaulanaazis/BioChem/scrape"
)

const (
	// ServiceName labels jobs, metrics and checkpoints for this client.
	ServiceName = "admetlab"

	// DefaultBaseURL is the production ADMETlab endpoint.
	DefaultBaseURL = "https://admetlab3.scbdd.com"

	screeningPath = "/server/screening"
	submitPath    = "/server/screeningCal"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
)

// smilesColumn is the column the service uses for the input structure in
// its result CSV, and the identifier column of the result table.
const smilesColumn = "smiles"

// csvURLPattern extracts the result-file path from the inline script on
// the result page.
var csvURLPattern = regexp.MustCompile(`window\.open\(["'](.*?\.csv)["']\)`)

// Client talks to the ADMETlab screening service.
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

// NewWithBaseURL builds a client against an alternate endpoint, which the
// tests point at a local fake.
func NewWithBaseURL(baseURL string, opts ...scrape.Option) (*Client, error) {
	runner, err := scrape.NewRunner(ServiceName, opts...)
	if err != nil {
		return nil, err
	}
	o := runner.Options()
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(o.HTTPTimeout).
		SetHeader("User-Agent", userAgent)
	return &Client{
		http:    http,
		runner:  runner,
		baseURL: baseURL,
		log:     o.Logger.Named(ServiceName),
	}, nil
}

// Run screens the given SMILES and returns one result row per input, in
// input order.  Structures the service rejects appear as error rows; a
// whole-batch failure yields error rows for every member of that batch.
func (c *Client) Run(ctx context.Context, smilesList []string) (*scrape.Table, error) {
	return c.runner.RunBatched(ctx, smilesList, []string{smilesColumn}, c.processBatch)
}

// processBatch drives one screening submission: token fetch, form POST,
// result-page parse, CSV download.
func (c *Client) processBatch(ctx context.Context, job *scrape.Job, group []string) ([]scrape.Row, error) {
	token, err := c.fetchCSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Referer", c.baseURL+screeningPath).
		SetHeader("Origin", c.baseURL).
		SetFormData(map[string]string{
			"csrfmiddlewaretoken": token,
			"smiles-list":         strings.Join(group, "\r\n"),
			"method":              "2",
		}).
		Post(submitPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetwork, "screening submission failed")
	}
	if resp.IsError() {
		return nil, errors.Newf(errors.CodeRemoteService,
			"screening submission returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "failed to parse result page")
	}

	if total, success, invalid, ok := parseSummary(doc); ok {
		c.log.Info("batch screened",
			logging.Int("submitted", len(group)),
			logging.Int("total", total),
			logging.Int("success", success),
			logging.Int("invalid", invalid))
	}

	csvURL, err := c.resultCSVURL(doc)
	if err != nil {
		return nil, err
	}
	header, records, err := c.downloadCSV(ctx, csvURL)
	if err != nil {
		return nil, err
	}
	return matchRows(group, header, records), nil
}

// fetchCSRFToken scrapes the screening form for its csrfmiddlewaretoken.
func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(screeningPath)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeNetwork, "failed to load screening page")
	}
	if resp.IsError() {
		return "", errors.Newf(errors.CodeRemoteService,
			"screening page returned status %d", resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeParse, "failed to parse screening page")
	}
	token, ok := doc.Find(`input[name="csrfmiddlewaretoken"]`).Attr("value")
	if !ok || token == "" {
		return "", errors.Parse("CSRF token not found on screening page")
	}
	return token, nil
}

// parseSummary reads the info cards of the result page.
func parseSummary(doc *goquery.Document) (total, success, invalid int, ok bool) {
	doc.Find("div.info-card").Each(func(_ int, card *goquery.Selection) {
		title := strings.ToLower(strings.TrimSpace(card.Find("h5.card-title").Text()))
		number := strings.TrimSpace(card.Find("h6").Text())
		n := 0
		for _, r := range number {
			if r < '0' || r > '9' {
				return
			}
			n = n*10 + int(r-'0')
		}
		switch {
		case strings.Contains(title, "success"):
			success = n
			ok = true
		case strings.Contains(title, "invalid"):
			invalid = n
			ok = true
		case strings.Contains(title, "total"):
			total = n
			ok = true
		}
	})
	return total, success, invalid, ok
}

// resultCSVURL finds the CSV download link embedded in the result page's
// scripts.
func (c *Client) resultCSVURL(doc *goquery.Document) (string, error) {
	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := csvURLPattern.FindStringSubmatch(s.Text()); m != nil {
			found = m[1]
			return false
		}
		return true
	})
	if found == "" {
		return "", errors.Parse("result page has no CSV download link")
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "invalid base URL")
	}
	ref, err := url.Parse(found)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeParse, "malformed CSV URL").WithDetail(found)
	}
	return base.ResolveReference(ref).String(), nil
}

// downloadCSV fetches and decodes the result file.
func (c *Client) downloadCSV(ctx context.Context, csvURL string) ([]string, [][]string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(csvURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeNetwork, "failed to download result CSV")
	}
	if resp.IsError() {
		return nil, nil, errors.Newf(errors.CodeRemoteService,
			"result CSV returned status %d", resp.StatusCode())
	}
	records, err := csv.NewReader(strings.NewReader(resp.String())).ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeParse, "failed to parse result CSV")
	}
	if len(records) == 0 {
		return nil, nil, errors.Parse("result CSV is empty")
	}
	return records[0], records[1:], nil
}

// matchRows pairs CSV records back to the submitted SMILES.  The service
// silently drops structures it cannot parse, so inputs without a matching
// record become error rows.
func matchRows(group []string, header []string, records [][]string) []scrape.Row {
	smilesIdx := -1
	for i, col := range header {
		if strings.EqualFold(col, smilesColumn) {
			smilesIdx = i
			break
		}
	}

	bySMILES := make(map[string][]scrape.Row)
	for _, record := range records {
		row := scrape.Row{}
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		key := ""
		if smilesIdx >= 0 && smilesIdx < len(record) {
			key = record[smilesIdx]
		}
		bySMILES[key] = append(bySMILES[key], row)
	}

	rows := make([]scrape.Row, len(group))
	for i, smiles := range group {
		if queue := bySMILES[smiles]; len(queue) > 0 {
			rows[i] = queue[0]
			bySMILES[smiles] = queue[1:]
			rows[i][smilesColumn] = smiles
			continue
		}
		rows[i] = scrape.Row{
			smilesColumn:       smiles,
			scrape.ErrorColumn: "structure rejected by the screening service",
		}
	}
	return rows
}
