package project

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockLogger struct {
	messages []string
}

func (m *MockLogger) Printf(format string, v ...interface{}) {
	m.messages = append(m.messages, format)
}

const projectDoc = `{
  "name": "Bay Garden",
  "buildings": [
    {"name": "1#", "polygon": [[114.0578, 22.5430], [114.0580, 22.5430], [114.0580, 22.5432]], "center": [114.0579, 22.5431]}
  ]
}`

func TestLoadOrDefault_NotFoundFallsBackToDefaultCenter(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	logger := &MockLogger{}

	// Act
	p, ok := LoadOrDefault(context.Background(), NewHTTPSource(srv.URL), "missing", logger)

	// Assert
	assert.False(t, ok)
	require.NotNil(t, p)
	require.NotNil(t, p.Center)
	assert.Equal(t, DefaultCenter, *p.Center)
	assert.Empty(t, p.Buildings)
	assert.NotEmpty(t, logger.messages)
}

func TestHTTPSource_NonOKIsDataUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), NewHTTPSource(srv.URL), "bay")

	assert.True(t, errors.Is(err, ErrDataUnavailable))
}

func TestHTTPSource_TransportErrorIsDataUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSource(url).Fetch(context.Background(), "bay.json")

	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoadOrDefault_ServesProject(t *testing.T) {
	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		_, _ = w.Write([]byte(projectDoc))
	}))
	defer srv.Close()

	p, ok := LoadOrDefault(context.Background(), NewHTTPSource(srv.URL+"/data/"), "bay", &MockLogger{})

	require.True(t, ok)
	assert.Equal(t, "/data/bay.json", requested)
	assert.Equal(t, "Bay Garden", p.Name)
	require.NotNil(t, p.Center, "a project without center opens on the default center")
	assert.Equal(t, DefaultCenter, *p.Center)
}

func TestLoadOrFallback_UsesConfiguredCenter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bay.json"), []byte(projectDoc), 0o600))
	fallback := orb.Point{113.93, 22.52}

	loaded, ok := LoadOrFallback(context.Background(), &FileSource{Dir: dir}, "bay", fallback, &MockLogger{})
	missing, missingOK := LoadOrFallback(context.Background(), &FileSource{Dir: dir}, "gone", fallback, &MockLogger{})

	require.True(t, ok)
	assert.Equal(t, fallback, *loaded.Center)
	assert.False(t, missingOK)
	assert.Equal(t, fallback, *missing.Center)
}

func TestLoadOrDefault_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o600))

	p, ok := LoadOrDefault(context.Background(), &FileSource{Dir: dir}, "bad", &MockLogger{})

	assert.False(t, ok)
	assert.Equal(t, DefaultCenter, *p.Center)
}

func TestFileSource_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bay.json"), []byte(projectDoc), 0o600))
	src := &FileSource{Dir: dir}

	data, err := src.Fetch(context.Background(), "../../bay.json")

	require.NoError(t, err)
	assert.Equal(t, projectDoc, string(data))
}

func TestNewSource(t *testing.T) {
	assert.IsType(t, &HTTPSource{}, NewSource("https://example.com/data"))
	assert.IsType(t, &FileSource{}, NewSource("./data"))
}

// block is the unit square; five on-sale listings sit inside it.
func testCatalog() (*Catalog, Block) {
	block := Block{Name: "XX", Coordinates: orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}
	c := &Catalog{
		Blocks: []Block{block},
		Listings: []Listing{
			{Name: "a", Coordinates: orb.Point{0.1, 0.1}, Status: StatusOnSale},
			{Name: "b", Coordinates: orb.Point{0.5, 0.5}, Status: StatusOnSale},
			{Name: "c", Coordinates: orb.Point{0.9, 0.2}, Status: StatusOnSale},
			{Name: "d", Coordinates: orb.Point{0.3, 0.8}, Status: StatusOnSale},
			{Name: "e", Coordinates: orb.Point{0.6, 0.4}, Status: StatusOnSale},
			{Name: "f", Coordinates: orb.Point{0.7, 0.7}, Status: StatusPending},
			{Name: "g", Coordinates: orb.Point{2, 2}, Status: StatusOnSale},
		},
	}
	return c, block
}

func TestCatalog_CountInBlock(t *testing.T) {
	c, block := testCatalog()

	assert.Equal(t, 5, c.CountInBlock(block, StatusOnSale))
	assert.Equal(t, 6, c.CountInBlock(block, StatusAll))
	assert.Equal(t, 1, c.CountInBlock(block, StatusPending))
	assert.Equal(t, 0, c.CountInBlock(Block{Coordinates: orb.Ring{{0, 0}, {1, 1}}}, StatusAll))
}

func TestCatalog_SchoolsAt(t *testing.T) {
	c := &Catalog{Schools: Schools{
		Primary: []School{
			{Name: "North Primary", District: &District{Polygon: []orb.Ring{{{0, 0}, {2, 0}, {2, 2}, {0, 2}}}}},
			{Name: "South Primary", District: &District{Polygon: []orb.Ring{{{5, 5}, {6, 5}, {6, 6}}}}},
			{Name: "No District"},
		},
		Middle: []School{
			{Name: "Central Middle", District: &District{Polygon: []orb.Ring{{{-1, -1}, {3, -1}, {3, 3}, {-1, 3}}}}},
		},
	}}

	primary, middle := c.SchoolsAt(orb.Point{1, 1})

	assert.Equal(t, []string{"North Primary"}, primary)
	assert.Equal(t, []string{"Central Middle"}, middle)

	primary, middle = c.SchoolsAt(orb.Point{10, 10})
	assert.Empty(t, primary)
	assert.Empty(t, middle)
}

func TestParseBlocks_ArrayAndGeoJSON(t *testing.T) {
	arr := `[{"name": "Futian", "coordinates": [[0,0],[1,0],[1,1]], "color": "#FF6B6B"}]`
	fc := `{"type": "FeatureCollection", "features": [
	  {"type": "Feature", "properties": {"name": "Nanshan", "opacity": 0.5},
	   "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}
	]}`

	blocks, err := ParseBlocks([]byte(arr))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Futian", blocks[0].Name)
	assert.Equal(t, orb.Point{2.0 / 3, 1.0 / 3}, blocks[0].CenterPoint())

	blocks, err = ParseBlocks([]byte(fc))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Nanshan", blocks[0].Name)
	assert.Equal(t, 0.5, blocks[0].Opacity)
	assert.Len(t, blocks[0].Coordinates, 4)

	_, err = ParseBlocks([]byte(`{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [0,0]}}]}`))
	assert.Error(t, err)
}

func TestLoadCatalog_MissingDocumentsLeaveLayersEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "projects.json"),
		[]byte(`[{"name": "a", "coordinates": [0.5, 0.5], "status": "on-sale"}]`), 0o600))
	logger := &MockLogger{}

	c := LoadCatalog(context.Background(), &FileSource{Dir: dir}, logger)

	assert.Empty(t, c.Blocks)
	assert.Len(t, c.Listings, 1)
	assert.Empty(t, c.Schools.Primary)
	assert.GreaterOrEqual(t, len(logger.messages), 3)
}

func TestFileSource_WatchReportsChanges(t *testing.T) {
	dir := t.TempDir()
	src := &FileSource{Dir: dir}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 8)
	done := make(chan error, 1)
	notify := func(doc string) {
		select {
		case changed <- doc:
		default:
		}
	}
	go func() { done <- src.Watch(ctx, &MockLogger{}, notify) }()

	// the watcher registers asynchronously; keep writing until it reports
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case doc := <-changed:
			assert.Equal(t, "bay.json", doc)
			cancel()
			require.NoError(t, <-done)
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(filepath.Join(dir, "bay.json"), []byte(projectDoc), 0o600))
			_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600)
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}
