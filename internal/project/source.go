package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/Ko-stant/estate-visibility-engine/internal/geometry"
	"github.com/Ko-stant/estate-visibility-engine/internal/metrics"
)

// ErrDataUnavailable marks a project document that could not be fetched.
var ErrDataUnavailable = errors.New("project data unavailable")

// DefaultCenter is where the map opens when no project data is available.
var DefaultCenter = orb.Point{114.057868, 22.543099}

type Logger interface {
	Printf(format string, v ...interface{})
}

// Source fetches raw data documents by name, e.g. "bay-garden.json".
type Source interface {
	Fetch(ctx context.Context, doc string) ([]byte, error)
}

// HTTPSource fetches documents relative to BaseURL.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{BaseURL: strings.TrimRight(baseURL, "/"), Client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *HTTPSource) Fetch(ctx context.Context, doc string) ([]byte, error) {
	u := s.BaseURL + "/" + url.PathEscape(doc)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", doc, err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v: %w", doc, err, ErrDataUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d: %w", doc, resp.StatusCode, ErrDataUnavailable)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", doc, err, ErrDataUnavailable)
	}
	return data, nil
}

// FileSource reads documents from a directory.
type FileSource struct {
	Dir string
}

func (s *FileSource) Fetch(ctx context.Context, doc string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Base(filepath.Clean("/" + doc))
	data, err := os.ReadFile(filepath.Join(s.Dir, clean))
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", doc, err, ErrDataUnavailable)
	}
	return data, nil
}

// NewSource picks an HTTP source for http(s) locations and a directory
// source otherwise.
func NewSource(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location)
	}
	return &FileSource{Dir: location}
}

// Load fetches and parses the project document <name>.json.
func Load(ctx context.Context, src Source, name string) (*geometry.Project, error) {
	data, err := src.Fetch(ctx, name+".json")
	if err != nil {
		return nil, err
	}
	p, err := geometry.ParseProject(data)
	if err != nil {
		return nil, fmt.Errorf("project %s: %v: %w", name, err, ErrDataUnavailable)
	}
	return p, nil
}

// LoadOrDefault never fails: when the project cannot be loaded it returns an
// empty project centred on DefaultCenter and ok=false.
func LoadOrDefault(ctx context.Context, src Source, name string, logger Logger) (p *geometry.Project, ok bool) {
	return LoadOrFallback(ctx, src, name, DefaultCenter, logger)
}

// LoadOrFallback is LoadOrDefault with a caller-chosen fallback center. The
// fallback also applies to a loaded project that carries no center.
func LoadOrFallback(ctx context.Context, src Source, name string, fallback orb.Point, logger Logger) (p *geometry.Project, ok bool) {
	p, err := Load(ctx, src, name)
	if err != nil {
		metrics.DataUnavailableTotal.Inc()
		logger.Printf("project %s unavailable, using default center: %v", name, err)
		return emptyAt(name, fallback), false
	}
	if p.Name == "" {
		p.Name = name
	}
	if p.Center == nil {
		c := fallback
		p.Center = &c
	}
	return p, true
}

func Empty(name string) *geometry.Project {
	return emptyAt(name, DefaultCenter)
}

func emptyAt(name string, center orb.Point) *geometry.Project {
	return &geometry.Project{Name: name, Center: &center}
}
