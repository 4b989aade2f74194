package visibility

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// bandsFile is the on-disk form of a configuration. Preset seeds every band;
// the tables that are present override it. Without a preset, missing bands
// are Never.
type bandsFile struct {
	Preset          string `toml:"preset"`
	BlockPolygon    *Band  `toml:"block_polygon"`
	BlockCountLabel *Band  `toml:"block_count_label"`
	BlockNameLabel  *Band  `toml:"block_name_label"`
	ProjectMarker   *Band  `toml:"project_marker"`
	Building        *Band  `toml:"building"`
	Unit            *Band  `toml:"unit"`
}

// LoadBandsFile reads a TOML band configuration such as
//
//	preset = "newhouse"
//
//	[unit]
//	min = 19
//	max = 21
func LoadBandsFile(path string) (Bands, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bands{}, fmt.Errorf("failed to read bands file: %w", err)
	}
	return ParseBands(data)
}

func ParseBands(data []byte) (Bands, error) {
	var f bandsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return Bands{}, fmt.Errorf("%w: %v", ErrInvalidBands, err)
	}

	b := Bands{Never, Never, Never, Never, Never, Never}
	if f.Preset != "" {
		var err error
		if b, err = Preset(f.Preset); err != nil {
			return Bands{}, err
		}
	}
	override(&b.BlockPolygon, f.BlockPolygon)
	override(&b.BlockCountLabel, f.BlockCountLabel)
	override(&b.BlockNameLabel, f.BlockNameLabel)
	override(&b.ProjectMarker, f.ProjectMarker)
	override(&b.Building, f.Building)
	override(&b.Unit, f.Unit)

	if err := b.Validate(); err != nil {
		return Bands{}, err
	}
	return b, nil
}

func override(dst *Band, src *Band) {
	if src != nil {
		*dst = *src
	}
}
