package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
)

// Output formats understood by FormatReports.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// ToJSONReport serializes a single Report to pretty JSON.
func ToJSONReport(rep *Report) (string, error) {
	if rep == nil {
		return "", errors.New("nil report")
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToJSONReports serializes multiple reports to pretty JSON.
func ToJSONReports(reports []*Report) (string, error) {
	b, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToYAMLReports serializes reports as a YAML document. A single report is
// written as a mapping, several as a sequence.
func ToYAMLReports(reports []*Report) (string, error) {
	var v interface{} = reports
	if len(reports) == 1 {
		v = reports[0]
	}
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToCSVReports exports one row per hull vertex, rectangle corner and
// containment query.
func ToCSVReports(reports []*Report) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"source", "kind", "index", "x", "y", "inside"})
	row := func(src, kind string, i int, p geometry.Point, inside string) {
		_ = w.Write([]string{
			src, kind, strconv.Itoa(i),
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
			inside,
		})
	}
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		if rep.Hull != nil {
			for i, v := range rep.Hull.Vertices {
				row(rep.Source, "vertex", i, v, "")
			}
		}
		if rep.Rectangle != nil {
			for i, c := range rep.Rectangle.Corners {
				row(rep.Source, "corner", i, c, "")
			}
		}
		for i, q := range rep.Containment {
			row(rep.Source, "query", i, q.Point, strconv.FormatBool(q.Inside))
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ToPlainTextReport renders a human-readable summary.
func ToPlainTextReport(rep *Report) (string, error) {
	if rep == nil {
		return "", errors.New("nil report")
	}
	pr := message.NewPrinter(language.English)
	var sb strings.Builder
	if rep.Source != "" {
		sb.WriteString(pr.Sprintf("== %s ==\n", rep.Source))
	}
	if h := rep.Hull; h != nil {
		sb.WriteString(pr.Sprintf("Hull (%s): %d of %d points, area %.4f\n",
			h.Algorithm, len(h.Vertices), h.InputPoints, h.Area))
		for i, v := range h.Vertices {
			sb.WriteString(pr.Sprintf("  %2d  (%.4f, %.4f)\n", i, v.X, v.Y))
		}
		sb.WriteString(pr.Sprintf("  centroid (%.4f, %.4f)\n", h.Centroid.X, h.Centroid.Y))
	}
	for _, q := range rep.Containment {
		state := "outside"
		if q.Inside {
			state = "inside"
		}
		sb.WriteString(pr.Sprintf("Point (%.4f, %.4f): %s\n", q.Point.X, q.Point.Y, state))
	}
	if r := rep.Rectangle; r != nil {
		sb.WriteString(pr.Sprintf("Rectangle (orientation %g): area %.4f, %.4f x %.4f, fill %.1f%%\n",
			r.Orientation, r.Area, r.Width, r.Height, r.FillRatio*100))
		for i, c := range r.Corners {
			sb.WriteString(pr.Sprintf("  p%d  (%.4f, %.4f)\n", i+1, c.X, c.Y))
		}
		sb.WriteString(pr.Sprintf("  %d centering steps, %d Newton steps\n",
			r.Stats.OuterIterations, r.Stats.NewtonIterations))
	}
	if rep.Error != "" {
		sb.WriteString(pr.Sprintf("Error: %s\n", rep.Error))
	}
	return sb.String(), nil
}

// FormatReports renders reports in the given output format.
func FormatReports(reports []*Report, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		parts := make([]string, 0, len(reports))
		for _, rep := range reports {
			s, err := ToPlainTextReport(rep)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "\n"), nil
	case FormatJSON:
		if len(reports) == 1 {
			return ToJSONReport(reports[0])
		}
		return ToJSONReports(reports)
	case FormatYAML:
		return ToYAMLReports(reports)
	case FormatCSV:
		return ToCSVReports(reports)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}
