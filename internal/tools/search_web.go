package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/miniagent/internal/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const (
	SearchWebName = "search_web"

	DefaultSearchURL  = "https://html.duckduckgo.com/html/"
	DefaultRegion     = "ru-ru"
	DefaultTimeLimit  = "w"
	DefaultMaxResults = 5
	maxResultsCap     = 20

	// AnyTime disables the time filter
	AnyTime = "any"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/124.0.0.0 Safari/537.36"
)

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// SearchWeb searches DuckDuckGo through its javascript-free html endpoint,
// which requires no api key.
type SearchWeb struct {
	URL        string
	Region     string
	TimeLimit  string
	MaxResults int
	client     httpDoer
}

type searchWebArgs struct {
	Query      string `mapstructure:"query"`
	MaxResults int    `mapstructure:"max_results"`
}

type searchHit struct {
	Title string
	Body  string
	Href  string
}

func NewSearchWeb(region, timeLimit string, maxResults int) *SearchWeb {
	if region == "" {
		region = DefaultRegion
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &SearchWeb{
		URL:        DefaultSearchURL,
		Region:     region,
		TimeLimit:  timeLimit,
		MaxResults: maxResults,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *SearchWeb) Specification() models.Specification {
	return models.Specification{
		Name:        SearchWebName,
		Description: fmt.Sprintf("Search the web with DuckDuckGo (region %v, %v results by default). Returns one line per hit: 'title: snippet -- link'.", s.Region, s.MaxResults),
		Inputs: &models.InputSchema{
			Type: "object",
			Properties: map[string]models.ParameterObject{
				"query": {
					Type:        "string",
					Description: "The search query.",
				},
				"max_results": {
					Type:        "integer",
					Description: fmt.Sprintf("Maximum amount of results to return. Default %v, at most %v.", s.MaxResults, maxResultsCap),
				},
			},
			Required: []string{"query"},
		},
	}
}

func (s *SearchWeb) Call(ctx context.Context, input models.Input) (string, error) {
	var args searchWebArgs
	if err := decodeInput(input, &args); err != nil {
		return "", err
	}
	args.Query = strings.TrimSpace(args.Query)
	if args.Query == "" {
		return "", fmt.Errorf("query must be a non-empty string")
	}
	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = s.MaxResults
	}
	maxResults = min(maxResults, maxResultsCap)

	hits, err := s.search(ctx, args.Query, maxResults)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "no results found for: " + args.Query, nil
	}
	lines := make([]string, 0, len(hits))
	for _, h := range hits {
		lines = append(lines, fmt.Sprintf("%v: %v -- %v", h.Title, h.Body, h.Href))
	}
	return strings.Join(lines, "\n"), nil
}

func (s *SearchWeb) searchURL(query string) string {
	q := url.Values{}
	q.Set("q", query)
	if s.Region != "" {
		q.Set("kl", s.Region)
	}
	if s.TimeLimit != "" && s.TimeLimit != AnyTime {
		q.Set("df", s.TimeLimit)
	}
	return s.URL + "?" + q.Encode()
}

func (s *SearchWeb) search(ctx context.Context, query string, maxResults int) ([]searchHit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")

	client := s.client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var r io.Reader = io.LimitReader(resp.Body, 2<<20)
	ur, err := charset.NewReader(r, resp.Header.Get("Content-Type"))
	if err != nil {
		ur = r
	}
	hits, err := parseSearchResults(ur, maxResults)
	if err != nil {
		return nil, err
	}
	if misc.Truthy(os.Getenv("DEBUG_CALL")) {
		ancli.Noticef("search_web: '%v' gave %v hits", query, len(hits))
	}
	return hits, nil
}

// parseSearchResults walks the result page. Each organic result has an
// anchor with class result__a followed by an element with class
// result__snippet. Ads link through y.js and are skipped.
func parseSearchResults(r io.Reader, maxResults int) ([]searchHit, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var hits []searchHit
	var current *searchHit
	flush := func() {
		if current != nil && current.Title != "" && current.Href != "" {
			hits = append(hits, *current)
		}
		current = nil
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(hits) >= maxResults {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				flush()
				href := unwrapRedirect(attr(n, "href"))
				if isAdLink(href) {
					return
				}
				current = &searchHit{
					Title: nodeText(n),
					Href:  href,
				}
				return
			case hasClass(n, "result__snippet"):
				if current != nil {
					current.Body = nodeText(n)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(hits) < maxResults {
		flush()
	}
	return hits, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText concatenates all text below n, collapsing whitespace.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// unwrapRedirect turns '//duckduckgo.com/l/?uddg=<escaped>' into the
// target link.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "duckduckgo.com/l/") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func isAdLink(href string) bool {
	return strings.Contains(href, "duckduckgo.com/y.js")
}
