// Package pointset reads and writes point-set files and generates synthetic
// point sets for benchmarks and tests.
//
// Three encodings are understood:
//
//   - text: one "x y" pair per line, separated by blanks, commas or
//     semicolons; blank lines and lines starting with '#' are ignored.
//   - json: either an object {"points": [...], "queries": [...],
//     "orientation": t} with {"x":..,"y":..} points, or a bare array of
//     such points or of [x, y] pairs.
//   - yaml: the same shapes as json.
package pointset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
)

// Encodings understood by Parse and Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Set is the content of a point-set file.
type Set struct {
	Points      []geometry.Point `json:"points" yaml:"points"`
	Queries     []geometry.Point `json:"queries,omitempty" yaml:"queries,omitempty"`
	Orientation *float64         `json:"orientation,omitempty" yaml:"orientation,omitempty"`
}

// ErrEmpty is returned when a file holds no points.
var ErrEmpty = errors.New("point set is empty")

// FormatFromPath picks an encoding from a file extension. Unknown extensions
// are read as text.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// LoadFile reads a point-set file, choosing the decoder by extension.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open point set: %w", err)
	}
	defer func() { _ = f.Close() }()

	set, err := Parse(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes a point set from r.
func Parse(r io.Reader, format string) (*Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read point set: %w", err)
	}

	var set *Set
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		set, err = parseText(data)
	case FormatJSON:
		set, err = parseJSON(data)
	case FormatYAML, "yml":
		set, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported point set format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	if len(set.Points) == 0 {
		return nil, ErrEmpty
	}
	return set, nil
}

func parseText(data []byte) (*Set, error) {
	set := &Set{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		p, err := ParsePoint(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		set.Points = append(set.Points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// ParsePoint parses "x y", "x,y" or "x;y".
func ParsePoint(s string) (geometry.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == ';'
	})
	if len(fields) != 2 {
		return geometry.Point{}, fmt.Errorf("expected two coordinates, got %q", s)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid x coordinate %q", fields[0])
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid y coordinate %q", fields[1])
	}
	return geometry.Point{X: x, Y: y}, nil
}

// ParsePoints parses a list of points separated by spaces between pairs, as
// accepted on the command line: "1,2 3,4" or "1;2|3;4".
func ParsePoints(s string) ([]geometry.Point, error) {
	var out []geometry.Point
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '|' }) {
		p, err := ParsePoint(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func pairsToPoints(pairs [][]float64) ([]geometry.Point, error) {
	out := make([]geometry.Point, len(pairs))
	for i, pr := range pairs {
		if len(pr) != 2 {
			return nil, fmt.Errorf("point %d: expected [x, y], got %d values", i, len(pr))
		}
		out[i] = geometry.Point{X: pr[0], Y: pr[1]}
	}
	return out, nil
}

func parseJSON(data []byte) (*Set, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmpty
	}
	if trimmed[0] != '[' {
		var set Set
		if err := json.Unmarshal(trimmed, &set); err != nil {
			return nil, fmt.Errorf("decode json point set: %w", err)
		}
		return &set, nil
	}

	var pts []geometry.Point
	if err := json.Unmarshal(trimmed, &pts); err == nil {
		return &Set{Points: pts}, nil
	}
	var pairs [][]float64
	if err := json.Unmarshal(trimmed, &pairs); err != nil {
		return nil, fmt.Errorf("decode json point list: %w", err)
	}
	pts, err := pairsToPoints(pairs)
	if err != nil {
		return nil, err
	}
	return &Set{Points: pts}, nil
}

func parseYAML(data []byte) (*Set, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml point set: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmpty
	}
	root := doc.Content[0]

	switch root.Kind {
	case yaml.MappingNode:
		var set Set
		if err := root.Decode(&set); err != nil {
			return nil, fmt.Errorf("decode yaml point set: %w", err)
		}
		return &set, nil
	case yaml.SequenceNode:
		if len(root.Content) > 0 && root.Content[0].Kind == yaml.SequenceNode {
			var pairs [][]float64
			if err := root.Decode(&pairs); err != nil {
				return nil, fmt.Errorf("decode yaml point list: %w", err)
			}
			pts, err := pairsToPoints(pairs)
			if err != nil {
				return nil, err
			}
			return &Set{Points: pts}, nil
		}
		var pts []geometry.Point
		if err := root.Decode(&pts); err != nil {
			return nil, fmt.Errorf("decode yaml point list: %w", err)
		}
		return &Set{Points: pts}, nil
	default:
		return nil, fmt.Errorf("unexpected yaml node at line %d", root.Line)
	}
}

// Write encodes set to w.
func Write(w io.Writer, set *Set, format string) error {
	if set == nil {
		return errors.New("nil point set")
	}
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		bw := bufio.NewWriter(w)
		for _, p := range set.Points {
			_, _ = fmt.Fprintf(bw, "%s %s\n",
				strconv.FormatFloat(p.X, 'g', -1, 64),
				strconv.FormatFloat(p.Y, 'g', -1, 64))
		}
		return bw.Flush()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(set); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported point set format: %s", format)
	}
}

// SaveFile writes set to path, choosing the encoder by extension.
func SaveFile(path string, set *Set) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create point set: %w", err)
	}
	if err := Write(f, set, FormatFromPath(path)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
