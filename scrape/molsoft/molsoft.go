// Package molsoft computes physicochemical property profiles through the
// Molsoft property calculator.  Each SMILES is laid out in 2D, rendered as
// a molblock with the MOLSOFT program stamp the form expects, and the
// key/value pairs of the response page become one result row.
package molsoft

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/Arifmaulanaazis/BioChem/chem"
	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
	"github.com/Arifmaulanaazis/BioChem/pkg/logging"
	"github.com/Arifmaulanaazis/BioChem/scrape"
)

const (
	// ServiceName labels jobs, metrics and checkpoints for this client.
	ServiceName = "molsoft"

	// DefaultBaseURL is the production property-calculator endpoint.
	DefaultBaseURL = "https://www.molsoft.com"

	calcPath = "/mprop/"
)

// Columns is the result table schema in render order.
var Columns = []string{
	"SMILES",
	"Molecular formula",
	"Molecular weight",
	"HBA",
	"HBD",
	"MolLogP",
	"MolLogS",
	"MolPSA",
	"MolVol",
	"pKa",
	"BBB Score",
	"Number of stereo centers",
}

var (
	logSPattern = regexp.MustCompile(`([-\d.]+)\s+\(in Log`)
	bbbPattern  = regexp.MustCompile(`^\s*([-\d.]+)`)
)

// Client talks to the Molsoft property calculator.
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

// Run computes the property profile for the given SMILES and returns one
// row per input, in input order, with failures inline.
func (c *Client) Run(ctx context.Context, smilesList []string) (*scrape.Table, error) {
	return c.runner.Run(ctx, smilesList, Columns, c.processSingle)
}

func (c *Client) processSingle(ctx context.Context, job *scrape.Job) (scrape.Row, error) {
	smiles := job.Identifier
	block, err := molblockFor(smiles)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"p":       "",
			"sm":      "",
			"jme_mol": block,
			"act":     "Search",
			"Calc":    "Calculate Properties",
		}).
		Post(calcPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetwork, "property request failed")
	}
	if resp.IsError() {
		return nil, errors.Newf(errors.CodeRemoteService,
			"property request returned status %d", resp.StatusCode())
	}
	return parseResult(resp.String(), smiles)
}

// molblockFor renders the structure the way the Molsoft form expects: 2D
// coordinates and MOLSOFT as the generating program.
func molblockFor(smiles string) (string, error) {
	mol, err := chem.NewMolecule(smiles)
	if err != nil {
		return "", err
	}
	mol.Compute2DCoords()
	return strings.Replace(mol.MolBlock(), "BioChem", "MOLSOFT", 1), nil
}

// parseResult walks the bold key labels of the response and reads each
// value from the text node that follows.
func parseResult(page, smiles string) (scrape.Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "failed to parse result page")
	}

	bold := doc.Find("b")
	value := func(key string) string {
		var out string
		bold.EachWithBreak(func(_ int, b *goquery.Selection) bool {
			if !strings.Contains(b.Text(), key) {
				return true
			}
			out = nextSiblingText(b)
			return false
		})
		return strings.TrimSpace(out)
	}

	logS := value("MolLogS :")
	if m := logSPattern.FindStringSubmatch(logS); m != nil {
		logS = m[1]
	}
	bbb := value("BBB Score :")
	if m := bbbPattern.FindStringSubmatch(bbb); m != nil {
		bbb = m[1]
	}

	row := scrape.Row{
		"SMILES":                   smiles,
		"Molecular formula":        value("Molecular formula:"),
		"Molecular weight":         value("Molecular weight:"),
		"HBA":                      value("Number of HBA:"),
		"HBD":                      value("Number of HBD:"),
		"MolLogP":                  value("MolLogP :"),
		"MolLogS":                  logS,
		"MolPSA":                   value("MolPSA :"),
		"MolVol":                   value("MolVol :"),
		"pKa":                      value("pKa of most Basic/Acidic group :"),
		"BBB Score":                bbb,
		"Number of stereo centers": value("Number of stereo centers:"),
	}
	if row["Molecular formula"] == "" && row["Molecular weight"] == "" {
		return nil, errors.Parse("result page has no property values").WithDetail(smiles)
	}
	return row, nil
}

// nextSiblingText returns the text immediately following the selection's
// first node, skipping nothing: the Molsoft page puts each value in a bare
// text node right after its <b> label.
func nextSiblingText(s *goquery.Selection) string {
	if len(s.Nodes) == 0 {
		return ""
	}
	for n := s.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				return t
			}
			continue
		}
		break
	}
	return ""
}
