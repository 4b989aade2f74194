package views

import "strconv"

// IndexData is what the map page needs to open its session.
type IndexData struct {
	Project    string
	Preset     string
	StreamPath string
	Zoom       float64
}

func formatZoom(z float64) string {
	if z <= 0 {
		return ""
	}
	return strconv.FormatFloat(z, 'f', -1, 64)
}
