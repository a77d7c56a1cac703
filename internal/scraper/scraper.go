// Package scraper extracts announced physical-media releases from the
// weekly release listing page. Each listing table carries a week label and a
// set of cells, one per title, holding a poster image and an IMDb link.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// titleSuffix is appended to every poster title on the listing page.
const titleSuffix = " DVD Release Date"

// Announcement is one scraped release.
type Announcement struct {
	Title       string `json:"title"`
	Poster      string `json:"poster"`
	IMDbID      string `json:"imdb_id"`
	ReleaseWeek string `json:"release_week"`
}

// Scraper fetches and parses the release listing page.
type Scraper struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with the page request.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) { s.userAgent = strings.TrimSpace(ua) }
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.httpClient.Timeout = d
		}
	}
}

// New creates a Scraper for the listing at pageURL.
func New(pageURL string, opts ...Option) (*Scraper, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, errors.New("scraper url required")
	}
	if _, err := url.Parse(pageURL); err != nil {
		return nil, fmt.Errorf("parse scraper url: %w", err)
	}
	s := &Scraper{
		url:        pageURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Scrape downloads the listing page and returns its announcements in page
// order.
func (s *Scraper) Scrape(ctx context.Context) ([]Announcement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("fetch release page (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release page returned %d (latency=%v)", resp.StatusCode, latency)
	}

	base, _ := url.Parse(s.url)
	return Parse(resp.Body, base)
}

// Parse extracts announcements from a listing document. Relative poster
// URLs are resolved against base when it is non-nil. Cells without a poster
// image or IMDb link are skipped.
func Parse(r io.Reader, base *url.URL) ([]Announcement, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse release page: %w", err)
	}

	out := []Announcement{}
	skipped := 0
	for _, table := range findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Table && hasClass(n, "fieldtable-inner")
	}) {
		week := ""
		if label := findFirst(table, func(n *html.Node) bool { return hasClass(n, "reldate") }); label != nil {
			week = clean(innerText(label))
		}

		for _, cell := range findAll(table, func(n *html.Node) bool {
			return n.DataAtom == atom.Td && hasClass(n, "dvdcell")
		}) {
			a, ok := parseCell(cell, base)
			if !ok {
				skipped++
				continue
			}
			a.ReleaseWeek = week
			out = append(out, a)
		}
	}
	if skipped > 0 {
		log.Debug().Int("skipped", skipped).Msg("scraper: skipped incomplete release cells")
	}
	return out, nil
}

func parseCell(cell *html.Node, base *url.URL) (Announcement, bool) {
	img := findFirst(cell, func(n *html.Node) bool {
		return n.DataAtom == atom.Img && hasClass(n, "movieimg")
	})
	if img == nil {
		return Announcement{}, false
	}
	title := clean(strings.TrimSuffix(attr(img, "title"), titleSuffix))
	if title == "" {
		title = clean(strings.TrimSuffix(attr(img, "alt"), titleSuffix))
	}

	link := findFirst(cell, func(n *html.Node) bool {
		return n.DataAtom == atom.A && n.Parent != nil &&
			n.Parent.DataAtom == atom.Td && hasClass(n.Parent, "imdblink")
	})
	if link == nil {
		return Announcement{}, false
	}
	imdbID := IMDbIDFromURL(attr(link, "href"))
	if title == "" || imdbID == "" {
		return Announcement{}, false
	}

	return Announcement{
		Title:  title,
		Poster: resolve(base, attr(img, "src")),
		IMDbID: imdbID,
	}, true
}

var imdbIDRE = regexp.MustCompile(`\btt\d{5,}\b`)

// IMDbIDFromURL returns the title id ("tt" followed by digits) found in an
// IMDb link, or "".
func IMDbIDFromURL(href string) string {
	return imdbIDRE.FindString(href)
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// clean collapses whitespace runs to single spaces and normalizes to NFC.
func clean(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
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
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if n := findFirst(c, match); n != nil {
			return n
		}
	}
	return nil
}

// innerText concatenates the text under n, rendering <br> as a line break.
func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
