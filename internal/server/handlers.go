package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/pointset"
	"github.com/MeKo-Tech/hullrect/internal/render"
	"github.com/MeKo-Tech/hullrect/internal/version"
)

// Error codes carried in ErrorResponse.Code.
const (
	codeBadRequest     = "bad_request"
	codeTooLarge       = "payload_too_large"
	codeDegenerate     = "degenerate_input"
	codeInfeasible     = "infeasible"
	codeNotConverged   = "not_converged"
	codeInternal       = "internal_error"
	outcomeSuccess     = "success"
	headerSolveFailure = "X-Hullrect-Error"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	v, commit, _ := version.Info()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   v,
		GitCommit: commit,
		Time:      time.Now().UTC().Format(time.RFC3339),
	})
}

// hullHandler builds the convex hull of the posted point set. With
// ?steps=true the intermediate Graham scan stacks are included.
func (s *Server) hullHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	set, ok := s.readPointSet(w, r)
	if !ok {
		return
	}
	steps, err := boolParam(r, "steps", false)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), codeBadRequest, http.StatusBadRequest)
		return
	}

	var res *pipeline.HullResult
	if steps {
		var stacks [][]geometry.Point
		res, err = s.pipeline.HullSteps(set.Points, func(_ int, stack []geometry.Point) error {
			stacks = append(stacks, stack)
			return nil
		})
		if res != nil {
			res.Steps = stacks
		}
	} else {
		res, err = s.pipeline.Hull(set.Points)
	}
	if err != nil {
		s.writeProcessingError(w, "hull", err)
		return
	}

	recordHull("hull", res)
	writeJSON(w, http.StatusOK, HullResponse{Success: true, Hull: res})
}

// containsHandler tests the posted queries against the hull of the points.
// With ?hull=true the points are taken as the hull vertices themselves.
func (s *Server) containsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	set, ok := s.readPointSet(w, r)
	if !ok {
		return
	}
	if len(set.Queries) == 0 {
		s.writeErrorResponse(w, "No query points provided", codeBadRequest, http.StatusBadRequest)
		return
	}

	given, err := boolParam(r, "hull", false)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), codeBadRequest, http.StatusBadRequest)
		return
	}

	var (
		hr      *pipeline.HullResult
		results []pipeline.ContainmentResult
	)
	if given {
		hr, results, err = s.pipeline.ContainsHull(set.Points, set.Queries)
	} else {
		hr, results, err = s.pipeline.Contains(set.Points, set.Queries)
	}
	if err != nil {
		s.writeProcessingError(w, "contains", err)
		return
	}

	inside := 0
	for _, c := range results {
		if c.Inside {
			inside++
		}
	}
	recordHull("contains", hr)
	writeJSON(w, http.StatusOK, ContainsResponse{
		Success:     true,
		Hull:        hr,
		Containment: results,
		InsideCount: inside,
	})
}

// rectangleHandler solves for the largest inscribed rectangle. The
// orientation comes from the body, then ?orientation=, then defaults to 0.
// ?hull=true takes the points as the hull vertices.
func (s *Server) rectangleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	set, ok := s.readPointSet(w, r)
	if !ok {
		return
	}
	t, err := orientationParam(r, set)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), codeBadRequest, http.StatusBadRequest)
		return
	}
	given, err := boolParam(r, "hull", false)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), codeBadRequest, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	rectangleIn := s.pipeline.Rectangle
	if given {
		rectangleIn = s.pipeline.RectangleInHull
	}
	hr, rr, err := rectangleIn(ctx, set.Points, t)
	if err != nil {
		if hr == nil {
			s.writeProcessingError(w, "rectangle", err)
			return
		}
		status, code := errorStatus(err)
		requestsTotal.WithLabelValues("rectangle", code).Inc()
		logFailure("rectangle", status, err)
		writeJSON(w, status, RectangleResponse{Hull: hr, Error: err.Error(), Code: code})
		return
	}

	recordHull("rectangle", hr)
	recordSolve(rr)
	writeJSON(w, http.StatusOK, RectangleResponse{Success: true, Hull: hr, Rectangle: rr})
}

// renderHandler draws the point set, its hull, the queries and (unless
// ?rectangle=false) the inscribed rectangle as PNG or JPEG. A failed solve
// is drawn as a note and reported in the X-Hullrect-Error header.
func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	set, ok := s.readPointSet(w, r)
	if !ok {
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	contentType := "image/png"
	switch format {
	case "", render.FormatPNG:
		format = render.FormatPNG
	case render.FormatJPEG, "jpg":
		format = render.FormatJPEG
		contentType = "image/jpeg"
	default:
		s.writeErrorResponse(w, fmt.Sprintf("Unsupported image format %q (use png or jpeg)", format), codeBadRequest, http.StatusBadRequest)
		return
	}

	opts, err := s.renderOptions(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), codeBadRequest, http.StatusBadRequest)
		return
	}

	req := pipeline.Request{Source: "request", Points: set.Points, Queries: set.Queries}
	withRect, err := boolParam(r, "rectangle", true)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), codeBadRequest, http.StatusBadRequest)
		return
	}
	if withRect {
		t, err := orientationParam(r, set)
		if err != nil {
			s.writeErrorResponse(w, err.Error(), codeBadRequest, http.StatusBadRequest)
			return
		}
		req.Orientation = pipeline.Orientation(t)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	rep, err := s.pipeline.Process(ctx, req)
	if rep == nil {
		s.writeProcessingError(w, "render", err)
		return
	}
	if err != nil {
		w.Header().Set(headerSolveFailure, rep.Error)
	}

	img, err := render.Render(render.SceneFromReport(set.Points, rep), opts)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Rendering failed: %v", err), codeInternal, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := render.Encode(&buf, img, format); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Encoding failed: %v", err), codeInternal, http.StatusInternalServerError)
		return
	}

	if rep.Hull != nil {
		recordHull("render", rep.Hull)
	}
	if rep.Rectangle != nil {
		recordSolve(rep.Rectangle)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// renderOptions applies ?width= and ?height= to the configured options.
func (s *Server) renderOptions(r *http.Request) (render.Options, error) {
	o := s.render
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{{"width", &o.Width}, {"height", &o.Height}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return render.Options{}, fmt.Errorf("invalid %s %q", p.name, v)
		}
		*p.dst = n
	}
	if err := o.Validate(); err != nil {
		return render.Options{}, err
	}
	return o, nil
}

// readPointSet decodes the request body as a point set. The encoding follows
// Content-Type: YAML and plain text are accepted next to the JSON default.
// On failure the error response has already been written.
func (s *Server) readPointSet(w http.ResponseWriter, r *http.Request) (*pointset.Set, bool) {
	if r.ContentLength > 0 {
		uploadSizeBytes.Observe(float64(r.ContentLength))
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	set, err := pointset.Parse(r.Body, requestFormat(r))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), codeTooLarge, http.StatusRequestEntityTooLarge)
			return nil, false
		}
		s.writeErrorResponse(w, fmt.Sprintf("Invalid point set: %v", err), codeBadRequest, http.StatusBadRequest)
		return nil, false
	}
	if n := len(set.Points) + len(set.Queries); n > s.maxPoints {
		s.writeErrorResponse(w, fmt.Sprintf("Too many points: %d (max %d)", n, s.maxPoints), codeBadRequest, http.StatusBadRequest)
		return nil, false
	}
	pointsReceived.Observe(float64(len(set.Points)))
	return set, true
}

func requestFormat(r *http.Request) string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return pointset.FormatJSON
	}
	switch {
	case strings.Contains(mediaType, "yaml"):
		return pointset.FormatYAML
	case mediaType == "text/plain":
		return pointset.FormatText
	default:
		return pointset.FormatJSON
	}
}

func orientationParam(r *http.Request, set *pointset.Set) (float64, error) {
	if set.Orientation != nil {
		return *set.Orientation, nil
	}
	v := r.URL.Query().Get("orientation")
	if v == "" {
		return 0, nil
	}
	t, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid orientation %q", v)
	}
	return t, nil
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, v)
	}
	return b, nil
}

// errorStatus maps a processing error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, geometry.ErrDegenerateInput):
		return http.StatusUnprocessableEntity, codeDegenerate
	case errors.Is(err, geometry.ErrInfeasible):
		return http.StatusUnprocessableEntity, codeInfeasible
	case errors.Is(err, geometry.ErrNotConverged):
		return http.StatusInternalServerError, codeNotConverged
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func (s *Server) writeProcessingError(w http.ResponseWriter, operation string, err error) {
	status, code := errorStatus(err)
	requestsTotal.WithLabelValues(operation, code).Inc()
	logFailure(operation, status, err)
	s.writeErrorResponse(w, err.Error(), code, status)
}

func logFailure(operation string, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "status", status, "error", err)
		return
	}
	slog.Info("Request rejected", "operation", operation, "status", status, "error", err)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message, code string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func recordHull(operation string, res *pipeline.HullResult) {
	requestsTotal.WithLabelValues(operation, outcomeSuccess).Inc()
	hullVertices.Observe(float64(len(res.Vertices)))
}

func recordSolve(rr *pipeline.RectangleResult) {
	solveDuration.Observe(rr.Stats.Duration.Seconds())
	newtonIterations.Observe(float64(rr.Stats.NewtonIterations))
}
