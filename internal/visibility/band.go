package visibility

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidBands = errors.New("invalid zoom bands")

// Band is a zoom interval. Bounds are inclusive unless the matching Open
// flag is set. A band whose Max is below its Min contains nothing.
type Band struct {
	Min     float64 `toml:"min"`
	Max     float64 `toml:"max"`
	MinOpen bool    `toml:"min_open"`
	MaxOpen bool    `toml:"max_open"`
}

// Closed returns [min, max].
func Closed(min, max float64) Band { return Band{Min: min, Max: max} }

// HalfOpen returns [min, max).
func HalfOpen(min, max float64) Band { return Band{Min: min, Max: max, MaxOpen: true} }

// LeftOpen returns (min, max].
func LeftOpen(min, max float64) Band { return Band{Min: min, Max: max, MinOpen: true} }

// Never is a band that contains no zoom level.
var Never = Band{Min: 1, Max: 0}

// AtLeast returns [min, +inf).
func AtLeast(min float64) Band { return Band{Min: min, Max: math.Inf(1)} }

func (b Band) Empty() bool { return b.Max < b.Min || (b.Max == b.Min && (b.MinOpen || b.MaxOpen)) }

func (b Band) Contains(z float64) bool {
	if math.IsNaN(z) || b.Empty() {
		return false
	}
	if b.MinOpen {
		if z <= b.Min {
			return false
		}
	} else if z < b.Min {
		return false
	}
	if b.MaxOpen {
		return z < b.Max
	}
	return z <= b.Max
}

// Within reports whether every zoom in b is also in outer.
func (b Band) Within(outer Band) bool {
	if b.Empty() {
		return true
	}
	if outer.Empty() {
		return false
	}
	if b.Min < outer.Min || (b.Min == outer.Min && outer.MinOpen && !b.MinOpen) {
		return false
	}
	if b.Max > outer.Max || (b.Max == outer.Max && outer.MaxOpen && !b.MaxOpen) {
		return false
	}
	return true
}

func (b Band) String() string {
	if b.Empty() {
		return "never"
	}
	lo, hi := "[", "]"
	if b.MinOpen {
		lo = "("
	}
	if b.MaxOpen {
		hi = ")"
	}
	return fmt.Sprintf("%s%g,%g%s", lo, b.Min, b.Max, hi)
}
