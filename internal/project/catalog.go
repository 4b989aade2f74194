package project

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/Ko-stant/estate-visibility-engine/internal/geo"
)

const (
	StatusAll     = "all"
	StatusOnSale  = "on-sale"
	StatusPending = "pending"
)

// Block is a district polygon that aggregates projects at city zoom.
type Block struct {
	Name        string     `json:"name"`
	Coordinates orb.Ring   `json:"coordinates"`
	Center      *orb.Point `json:"center,omitempty"`
	Color       string     `json:"color,omitempty"`
	BorderColor string     `json:"borderColor,omitempty"`
	Opacity     float64    `json:"opacity,omitempty"`
}

func (b Block) CenterPoint() orb.Point {
	if b.Center != nil {
		return *b.Center
	}
	return geo.RingCenter(b.Coordinates)
}

// Listing is a new-house project point.
type Listing struct {
	Name        string    `json:"name"`
	Coordinates orb.Point `json:"coordinates"`
	Status      string    `json:"status"`
	URL         string    `json:"url,omitempty"`
}

type District struct {
	Polygon []orb.Ring `json:"polygon"`
}

type School struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Coordinates orb.Point `json:"coordinates"`
	District    *District `json:"district,omitempty"`
}

// Ring is the outer district ring, or nil when the district is unusable.
func (s School) Ring() orb.Ring {
	if s.District == nil || len(s.District.Polygon) == 0 {
		return nil
	}
	r := s.District.Polygon[0]
	if len(r) < 3 {
		return nil
	}
	return r
}

type Schools struct {
	Primary []School `json:"primarySchools"`
	Middle  []School `json:"middleSchools"`
}

// Catalog holds the city-level layers shared by every session.
type Catalog struct {
	Blocks   []Block
	Listings []Listing
	Schools  Schools
}

// Filter returns the listings matching status; StatusAll keeps every one.
func (c *Catalog) Filter(status string) []Listing {
	if status == "" || status == StatusAll {
		return c.Listings
	}
	var out []Listing
	for _, l := range c.Listings {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out
}

// CountInBlock counts the listings with status whose point falls inside b.
func (c *Catalog) CountInBlock(b Block, status string) int {
	n := 0
	for _, l := range c.Filter(status) {
		if geo.RingContains(b.Coordinates, l.Coordinates) {
			n++
		}
	}
	return n
}

// SchoolsAt returns every primary and middle school whose district covers pt.
func (c *Catalog) SchoolsAt(pt orb.Point) (primary, middle []string) {
	for _, s := range c.Schools.Primary {
		if geo.RingContains(s.Ring(), pt) {
			primary = append(primary, s.Name)
		}
	}
	for _, s := range c.Schools.Middle {
		if geo.RingContains(s.Ring(), pt) {
			middle = append(middle, s.Name)
		}
	}
	return primary, middle
}

// ParseBlocks accepts either a JSON array of blocks or a GeoJSON feature
// collection of polygons with a "name" property.
func ParseBlocks(data []byte) ([]Block, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return parseBlockFeatures(trimmed)
	}
	var blocks []Block
	if err := json.Unmarshal(trimmed, &blocks); err != nil {
		return nil, fmt.Errorf("failed to parse blocks JSON: %w", err)
	}
	return blocks, nil
}

func parseBlockFeatures(data []byte) ([]Block, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse blocks GeoJSON: %w", err)
	}
	blocks := make([]Block, 0, len(fc.Features))
	for i, f := range fc.Features {
		var ring orb.Ring
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if len(g) > 0 {
				ring = g[0]
			}
		case orb.MultiPolygon:
			if len(g) > 0 && len(g[0]) > 0 {
				ring = g[0][0]
			}
		case orb.Ring:
			ring = g
		case nil:
			return nil, fmt.Errorf("block feature %d has no geometry", i)
		default:
			return nil, fmt.Errorf("block feature %d: unsupported geometry %s", i, f.Geometry.GeoJSONType())
		}
		blocks = append(blocks, Block{
			Name:        f.Properties.MustString("name", fmt.Sprintf("block-%d", i)),
			Coordinates: ring,
			Color:       f.Properties.MustString("color", ""),
			BorderColor: f.Properties.MustString("borderColor", ""),
			Opacity:     f.Properties.MustFloat64("opacity", 0),
		})
	}
	return blocks, nil
}

// LoadCatalog reads blocks.json, projects.json and school.json. A missing or
// broken document leaves its layer empty.
func LoadCatalog(ctx context.Context, src Source, logger Logger) *Catalog {
	c := &Catalog{}

	if data, err := src.Fetch(ctx, "blocks.json"); err != nil {
		logger.Printf("blocks unavailable: %v", err)
	} else if c.Blocks, err = ParseBlocks(data); err != nil {
		logger.Printf("blocks: %v", err)
	}

	if data, err := src.Fetch(ctx, "projects.json"); err != nil {
		logger.Printf("listings unavailable: %v", err)
	} else if err := json.Unmarshal(data, &c.Listings); err != nil {
		logger.Printf("failed to parse listings JSON: %v", err)
		c.Listings = nil
	}

	if data, err := src.Fetch(ctx, "school.json"); err != nil {
		logger.Printf("schools unavailable: %v", err)
	} else if err := json.Unmarshal(data, &c.Schools); err != nil {
		logger.Printf("failed to parse schools JSON: %v", err)
		c.Schools = Schools{}
	}

	logger.Printf("catalog loaded: %d blocks, %d listings, %d schools",
		len(c.Blocks), len(c.Listings), len(c.Schools.Primary)+len(c.Schools.Middle))
	return c
}
