package inspector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	acceptEncoding      = "gzip, deflate, br, zstd"
	defaultConcurrency  = 4
	defaultMaxResources = 100
	// defaultMaxDocument caps the document both on the wire and decoded.
	defaultMaxDocument = 16 << 20
)

// ErrDocumentTooLarge is returned when a document exceeds the prober's size
// cap, compressed or decoded.
var ErrDocumentTooLarge = errors.New("document too large")

// resourceSelectors lists the elements whose URL attribute names a
// sub-resource fetched during page load.
var resourceSelectors = []struct {
	selector string
	attr     string
}{
	{"script[src]", "src"},
	{`link[rel~="stylesheet"][href]`, "href"},
	{`link[rel~="icon"][href]`, "href"},
	{`link[rel~="preload"][href]`, "href"},
	{"img[src]", "src"},
	{"source[src]", "src"},
	{"video[src]", "src"},
	{"audio[src]", "src"},
	{"iframe[src]", "src"},
}

// Measurement is the outcome of probing one page.
type Measurement struct {
	URL string
	// Document is the decoded HTML, standing in for the serialized DOM.
	Document string
	// DocumentTransfer is the on-the-wire size of the document response.
	DocumentTransfer int64
	Resources        []ResourceEntry
	PageSize         int64
}

// Prober loads a page and its sub-resources over HTTP and measures what
// was transferred. Compression is negotiated by hand so that transfer sizes
// are the encoded byte counts.
type Prober struct {
	Client       *http.Client
	Concurrency  int
	MaxResources int
	// MaxDocumentBytes caps the document. Zero means 16 MiB.
	MaxDocumentBytes int64
	Log              logrus.FieldLogger
}

// NewProber returns a Prober with a client that leaves bodies compressed.
func NewProber(log logrus.FieldLogger) *Prober {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Prober{
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: &http.Transport{DisableCompression: true, Proxy: http.ProxyFromEnvironment},
		},
		Concurrency:      defaultConcurrency,
		MaxResources:     defaultMaxResources,
		MaxDocumentBytes: defaultMaxDocument,
		Log:              log.WithField("component", "inspector"),
	}
}

// Probe measures pageURL.
func (p *Prober) Probe(ctx context.Context, pageURL string) (*Measurement, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid page URL %q", pageURL)
	}

	raw := &cappedBuffer{max: p.maxDocument()}
	wire, header, err := p.fetch(ctx, pageURL, raw)
	if err != nil {
		return nil, err
	}

	body, err := decodeBody(raw.buf.Bytes(), header.Get("Content-Encoding"), p.maxDocument())
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	m := &Measurement{
		URL:              pageURL,
		Document:         string(body),
		DocumentTransfer: wire,
		Resources:        p.fetchResources(ctx, discoverResources(doc, base, p.maxResources())),
	}
	m.PageSize = PageSize(m.Resources, m.Document)
	return m, nil
}

func (p *Prober) maxDocument() int64 {
	if p.MaxDocumentBytes <= 0 {
		return defaultMaxDocument
	}
	return p.MaxDocumentBytes
}

func (p *Prober) maxResources() int {
	if p.MaxResources <= 0 {
		return defaultMaxResources
	}
	return p.MaxResources
}

// fetchResources measures each resource. A failed fetch counts as zero
// bytes, like a missing transferSize.
func (p *Prober) fetchResources(ctx context.Context, urls []string) []ResourceEntry {
	entries := make([]ResourceEntry, len(urls))

	limit := p.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, u := range urls {
		i, u := i, u
		entries[i] = ResourceEntry{Name: u}
		g.Go(func() error {
			wire, _, err := p.fetch(gctx, u, io.Discard)
			if err != nil {
				p.Log.WithError(err).WithField("resource", u).Debug("resource not measured")
				return nil
			}
			entries[i].TransferSize = wire
			return nil
		})
	}
	_ = g.Wait()

	return entries
}

// fetch GETs u, copies the body as received into w and returns the
// on-the-wire body size and the response headers.
func (p *Prober) fetch(ctx context.Context, u string, w io.Writer) (int64, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("User-Agent", "greentab-inspector/1")

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, nil, fmt.Errorf("fetch %s: %s", u, resp.Status)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", u, err)
	}
	return n, resp.Header, nil
}

// cappedBuffer collects up to max bytes and fails any write past that.
type cappedBuffer struct {
	buf bytes.Buffer
	max int64
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if int64(c.buf.Len()+len(p)) > c.max {
		return 0, ErrDocumentTooLarge
	}
	return c.buf.Write(p)
}

// decodeBody undoes a single Content-Encoding, refusing output larger than
// limit bytes.
func decodeBody(raw []byte, contentEncoding string, limit int64) ([]byte, error) {
	var decoder io.Reader
	var err error

	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return raw, nil
	case "gzip", "x-gzip":
		decoder, err = gzip.NewReader(bytes.NewReader(raw))
	case "deflate":
		decoder, err = zlib.NewReader(bytes.NewReader(raw))
	case "br":
		decoder = brotli.NewReader(bytes.NewReader(raw))
	case "zstd":
		var zr *zstd.Decoder
		zr, err = zstd.NewReader(bytes.NewReader(raw))
		if err == nil {
			defer zr.Close()
			decoder = zr
		}
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", contentEncoding)
	}
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(io.LimitReader(decoder, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, ErrDocumentTooLarge
	}
	return out, nil
}

// discoverResources returns the absolute http(s) URLs of the document's
// sub-resources, deduplicated, grouped by element kind.
func discoverResources(doc *goquery.Document, base *url.URL, limit int) []string {
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}

	seen := make(map[string]bool)
	var urls []string
	for _, rs := range resourceSelectors {
		doc.Find(rs.selector).Each(func(_ int, s *goquery.Selection) {
			if len(urls) >= limit {
				return
			}
			ref, _ := s.Attr(rs.attr)
			ref = strings.TrimSpace(ref)
			if ref == "" {
				return
			}
			u, err := base.Parse(ref)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				return
			}
			u.Fragment = ""
			abs := u.String()
			if seen[abs] {
				return
			}
			seen[abs] = true
			urls = append(urls, abs)
		})
	}
	return urls
}
