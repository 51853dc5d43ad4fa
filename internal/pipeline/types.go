package pipeline

import (
	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/rectangle"
)

// Request describes one unit of work: a point set plus the questions asked
// about it.
type Request struct {
	Source      string           `json:"source,omitempty" yaml:"source,omitempty"`
	Points      []geometry.Point `json:"points" yaml:"points"`
	Queries     []geometry.Point `json:"queries,omitempty" yaml:"queries,omitempty"`
	Orientation *float64         `json:"orientation,omitempty" yaml:"orientation,omitempty"` // nil skips the rectangle solve
	Steps       bool             `json:"steps,omitempty" yaml:"steps,omitempty"`             // record intermediate hull stacks
}

// HullResult is the hull of a point set in the caller's coordinate frame.
type HullResult struct {
	InputPoints int                `json:"input_points" yaml:"input_points"`
	Algorithm   string             `json:"algorithm" yaml:"algorithm"`
	Vertices    []geometry.Point   `json:"vertices" yaml:"vertices"`
	Area        float64            `json:"area" yaml:"area"`
	Centroid    geometry.Point     `json:"centroid" yaml:"centroid"`
	Bounding    []geometry.Point   `json:"bounding_rectangle,omitempty" yaml:"bounding_rectangle,omitempty"`
	Steps       [][]geometry.Point `json:"steps,omitempty" yaml:"steps,omitempty"`
	Processing  struct {
		HullNs int64 `json:"hull_ns" yaml:"hull_ns"`
	} `json:"processing" yaml:"processing"`
}

// RectangleResult is a solved inscribed rectangle in the caller's frame.
type RectangleResult struct {
	Orientation float64          `json:"orientation" yaml:"orientation"`
	Corners     []geometry.Point `json:"corners" yaml:"corners"`
	Area        float64          `json:"area" yaml:"area"`
	Width       float64          `json:"width" yaml:"width"`
	Height      float64          `json:"height" yaml:"height"`
	FillRatio   float64          `json:"fill_ratio" yaml:"fill_ratio"` // rectangle area / hull area
	Stats       rectangle.Stats  `json:"stats" yaml:"stats"`
}

// ContainmentResult answers one containment query.
type ContainmentResult struct {
	Point  geometry.Point `json:"point" yaml:"point"`
	Inside bool           `json:"inside" yaml:"inside"`
}

// Report is the aggregated output for one Request.
type Report struct {
	Source      string              `json:"source,omitempty" yaml:"source,omitempty"`
	Hull        *HullResult         `json:"hull,omitempty" yaml:"hull,omitempty"`
	Rectangle   *RectangleResult    `json:"rectangle,omitempty" yaml:"rectangle,omitempty"`
	Containment []ContainmentResult `json:"containment,omitempty" yaml:"containment,omitempty"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
	Processing  struct {
		TotalNs int64 `json:"total_ns" yaml:"total_ns"`
	} `json:"processing" yaml:"processing"`
}

// Orientation returns a pointer to t, for building Requests.
func Orientation(t float64) *float64 {
	return &t
}
