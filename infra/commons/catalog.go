package commons

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math/rand/v2"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/infra/logging"
)

// Mode selects how pages are walked.
type Mode string

const (
	// ModeRandom re-queries the first page and shuffles it. Tokens are
	// never issued.
	ModeRandom Mode = "random"
	// ModePaged keeps upstream order and follows continuation tokens.
	ModePaged Mode = "paged"
)

const (
	randomPageSize      = 100
	DefaultPageSize     = 50
	DefaultImageWidth   = 800
	maxCategoryPageSize = 500
)

// Seen reports whether an item was already shown.
type Seen interface {
	Contains(id string) bool
}

// CatalogOptions configures a catalogService. Zero values pick defaults.
type CatalogOptions struct {
	Mode       Mode
	PageSize   int // Paged mode only; random mode always asks for 100
	ImageWidth int
	// Rand drives the shuffle in random mode. Nil uses a runtime-seeded source.
	Rand *rand.Rand
}

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// catalogService implements app.Catalog using the Commons action API.
type catalogService struct {
	client     *Client
	seen       Seen
	mode       Mode
	pageSize   int
	imageWidth int
	log        *log.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewCatalogService creates a Catalog backed by Commons. Items that seen
// reports as viewed are filtered out of every page; seen may be nil.
func NewCatalogService(client *Client, seen Seen, opts CatalogOptions, logger *log.Logger) *catalogService {
	mode := opts.Mode
	if mode != ModePaged {
		mode = ModeRandom
	}
	size := opts.PageSize
	if mode == ModeRandom {
		size = randomPageSize
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > maxCategoryPageSize {
		size = maxCategoryPageSize
	}
	width := opts.ImageWidth
	if width <= 0 {
		width = DefaultImageWidth
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &catalogService{
		client:     client,
		seen:       seen,
		mode:       mode,
		pageSize:   size,
		imageWidth: width,
		log:        logging.OrDiscard(logger).WithPrefix("commons"),
		rng:        rng,
	}
}

// Paginated reports whether continuation tokens are honored.
func (s *catalogService) Paginated() bool { return s.mode == ModePaged }

type apiResponse struct {
	Error    *apiError                  `json:"error"`
	Continue map[string]json.RawMessage `json:"continue"`
	Query    *struct {
		Pages json.RawMessage `json:"pages"`
	} `json:"query"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *apiError) Error() string { return fmt.Sprintf("API error %s: %s", e.Code, e.Info) }

type apiPage struct {
	PageID    int64          `json:"pageid"`
	Title     string         `json:"title"`
	ImageInfo []apiImageInfo `json:"imageinfo"`
}

type apiImageInfo struct {
	URL            string                     `json:"url"`
	DescriptionURL string                     `json:"descriptionurl"`
	MIME           string                     `json:"mime"`
	ExtMetadata    map[string]json.RawMessage `json:"extmetadata"`
}

// FetchPage fetches one page of category members, dropping unsupported
// formats and already viewed items. token is ignored in random mode.
func (s *catalogService) FetchPage(ctx context.Context, category domain.Category, token string) (domain.Page, error) {
	params, err := s.query(category, token)
	if err != nil {
		return domain.Page{}, domain.NewFetchError(domain.FetchDecode, category, err)
	}

	data, err := s.client.Get(ctx, params)
	if err != nil {
		if isStatus(err, http.StatusTooManyRequests) {
			s.log.Warn("throttled by the API, lower --rate", "category", category)
		}
		return domain.Page{}, domain.NewFetchError(domain.FetchNetwork, category, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Page{}, domain.NewFetchError(domain.FetchUpstreamEmpty, category, nil)
	}

	resp, pages, err := decodeResponse(data)
	if err != nil {
		return domain.Page{}, domain.NewFetchError(domain.FetchDecode, category, err)
	}
	if resp.Error != nil {
		return domain.Page{}, domain.NewFetchError(domain.FetchNetwork, category, resp.Error)
	}

	items := make([]domain.Item, 0, len(pages))
	var dropped int
	for _, p := range pages {
		item, ok := s.mapPage(p)
		if !ok {
			dropped++
			continue
		}
		if s.seen != nil && s.seen.Contains(item.ID) {
			dropped++
			continue
		}
		items = append(items, item)
	}

	page := domain.Page{Items: items}
	if s.mode == ModeRandom {
		s.shuffle(page.Items)
	} else {
		page.NextToken = encodeContinue(resp.Continue)
	}

	s.log.Debug("fetched page", "category", category, "items", len(items), "dropped", dropped, "more", page.NextToken != "")
	return page, nil
}

func (s *catalogService) query(category domain.Category, token string) (url.Values, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "categorymembers")
	params.Set("gcmtitle", "Category:"+string(category))
	params.Set("gcmtype", "file")
	params.Set("gcmnamespace", "6")
	params.Set("gcmlimit", strconv.Itoa(s.pageSize))
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url|extmetadata|mime")
	params.Set("iiextmetadatafilter", "LicenseShortName|LicenseUrl|Artist|ImageDescription")

	if s.mode == ModePaged && token != "" {
		cont, err := url.ParseQuery(token)
		if err != nil {
			return nil, fmt.Errorf("parsing continuation token: %w", err)
		}
		for k, v := range cont {
			params[k] = v
		}
	}
	return params, nil
}

// decodeResponse parses the envelope and returns pages in document order.
// MediaWiki keys pages by id in an object, and a plain map would lose
// that order.
func decodeResponse(data []byte) (apiResponse, []apiPage, error) {
	trimmed := bytes.TrimSpace(data)
	// An empty result set is sometimes encoded as an empty array.
	if bytes.Equal(trimmed, []byte("[]")) {
		return apiResponse{}, nil, nil
	}

	var resp apiResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return apiResponse{}, nil, fmt.Errorf("parsing response: %w", err)
	}
	if resp.Query == nil {
		return resp, nil, nil
	}
	pages, err := decodePages(resp.Query.Pages)
	if err != nil {
		return apiResponse{}, nil, err
	}
	return resp, pages, nil
}

func decodePages(raw json.RawMessage) ([]apiPage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var pages []apiPage
		if err := json.Unmarshal(raw, &pages); err != nil {
			return nil, fmt.Errorf("parsing pages: %w", err)
		}
		return pages, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing pages: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("parsing pages: unexpected %v", tok)
	}
	var pages []apiPage
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("parsing pages: %w", err)
		}
		var p apiPage
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("parsing page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func (s *catalogService) mapPage(p apiPage) (domain.Item, bool) {
	if p.PageID <= 0 || len(p.ImageInfo) == 0 {
		return domain.Item{}, false
	}
	info := p.ImageInfo[0]
	mime := strings.ToLower(strings.TrimSpace(info.MIME))
	if !allowedMIME[mime] {
		return domain.Item{}, false
	}

	title := strings.TrimPrefix(p.Title, "File:")
	escaped := url.PathEscape(title)
	pageURL := info.DescriptionURL
	if pageURL == "" {
		pageURL = s.client.SiteURL() + "/wiki/File:" + escaped
	}

	license := metaText(info.ExtMetadata, "LicenseShortName")
	if license == "" {
		license = domain.DefaultLicense
	}
	author := metaText(info.ExtMetadata, "Artist")
	if author == "" {
		author = domain.DefaultAuthor
	}

	return domain.Item{
		ID:          strconv.FormatInt(p.PageID, 10),
		Title:       title,
		ImageURL:    fmt.Sprintf("%s/wiki/Special:FilePath/%s?width=%d", s.client.SiteURL(), escaped, s.imageWidth),
		PageURL:     pageURL,
		License:     license,
		Author:      author,
		Description: metaText(info.ExtMetadata, "ImageDescription"),
		MIME:        mime,
	}, true
}

// metaText returns the plain-text value of an extmetadata field. Values
// that are not strings are ignored.
func metaText(meta map[string]json.RawMessage, field string) string {
	raw, ok := meta[field]
	if !ok {
		return ""
	}
	var v struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err != nil {
		return ""
	}
	return stripHTML(s)
}

// Fisher–Yates.
func (s *catalogService) shuffle(items []domain.Item) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	for i := len(items) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// encodeContinue turns the upstream continue object into an opaque token.
func encodeContinue(cont map[string]json.RawMessage) string {
	if len(cont) == 0 {
		return ""
	}
	v := url.Values{}
	for k, raw := range cont {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			v.Set(k, s)
			continue
		}
		v.Set(k, strings.Trim(string(raw), `"`))
	}
	return v.Encode()
}

// stripHTML removes HTML tags and decodes entities.
// Good enough for terminal display; not a security boundary.
var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	lineBreakRe  = regexp.MustCompile(`(?i)</p>|<br\s*/?>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func stripHTML(s string) string {
	s = lineBreakRe.ReplaceAllString(s, " ")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// isStatus reports whether err carries an HTTP status code from the API.
func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.Code == code
}
