package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/qyrowren/flightdeck/internal/flightpath"
	"github.com/qyrowren/flightdeck/internal/logging"
	"github.com/qyrowren/flightdeck/internal/report"
	"github.com/qyrowren/flightdeck/internal/store"
	"github.com/qyrowren/flightdeck/internal/telemetry"
)

// defaultScatterStride matches the dashboard's 3D view downsampling.
const defaultScatterStride = 20

// uploadResponse is returned for a successful upload.
type uploadResponse struct {
	SessionID string           `json:"session_id"`
	FileName  string           `json:"file_name"`
	Rows      int              `json:"rows"`
	Report    telemetry.Report `json:"report"`
}

// handleUpload runs one multipart CSV through the validation pipeline and, on
// success, registers the result as a dashboard session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if err := s.limiter.acquire(r.Context()); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, ErrTooBusy) {
			w.Header().Set("Retry-After", "5")
		}
		s.respondError(w, r, err, status)
		return
	}
	defer s.limiter.release()

	start := time.Now()
	table, rep := s.validator.Validate(file)
	if rep.Failed() {
		writeJSONStatus(w, http.StatusUnprocessableEntity, map[string]any{"report": rep})
		return
	}

	sess := s.sessions.Put(header.Filename, table, rep)
	logging.FromContext(r.Context()).Info("file validated",
		"session_id", sess.ID,
		"file", header.Filename,
		"rows", table.NumRows(),
		"columns", table.NumColumns(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(w, uploadResponse{
		SessionID: sess.ID,
		FileName:  sess.FileName,
		Rows:      table.NumRows(),
		Report:    rep,
	})
}

// session resolves the URL's session ID. A nil return means the error response
// was already written.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *store.Session {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return nil
	}
	return sess
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, sess.Report)
}

// columnInfo is one entry of the columns listing.
type columnInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Class   string `json:"class"`
	Numeric bool   `json:"numeric"`
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	cols := sess.Table.Columns()
	infos := make([]columnInfo, len(cols))
	for i, col := range cols {
		infos[i] = columnInfo{
			Name:    col.Name,
			Kind:    col.Kind.String(),
			Class:   telemetry.ClassifyColumn(col.Name, telemetry.DefaultTimestampColumn).String(),
			Numeric: col.Kind == telemetry.KindNumeric,
		}
	}
	writeJSON(w, map[string]any{"columns": infos})
}

// seriesResponse carries aligned time series for the 2D chart. Missing cells
// are null so the client draws gaps instead of zeroes.
type seriesResponse struct {
	Timestamps []string              `json:"timestamps"`
	Series     map[string][]*float64 `json:"series"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	cols := r.URL.Query()["col"]
	if len(cols) == 0 {
		writeError(w, http.StatusBadRequest, "at least one col parameter is required")
		return
	}
	stride, err := strideParam(r, 1)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	times, _ := sess.Table.Timestamps()
	resp := seriesResponse{
		Timestamps: make([]string, 0, len(times)/stride+1),
		Series:     make(map[string][]*float64, len(cols)),
	}
	for i := 0; i < len(times); i += stride {
		resp.Timestamps = append(resp.Timestamps, times[i].Format(time.RFC3339))
	}
	for _, name := range cols {
		floats, valid, err := sess.Table.Floats(name)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		resp.Series[name] = sampleFloats(floats, valid, stride)
	}
	writeJSON(w, resp)
}

// trackResponse is the map view payload: the full ground track plus the
// link-state segmentation over it.
type trackResponse struct {
	Link      string               `json:"link"`
	Threshold float64              `json:"threshold"`
	Lat       []*float64           `json:"lat"`
	Lng       []*float64           `json:"lng"`
	Alt       []*float64           `json:"alt"`
	Segments  []flightpath.Segment `json:"segments"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	link := r.URL.Query().Get("link")
	if link == "" {
		if links := telemetry.CommLinks(sess.Table.ColumnNames()); len(links) > 0 {
			link = links[0]
		}
	}
	threshold := report.DefaultOutageThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
		threshold = v
	}

	resp := trackResponse{Link: link, Threshold: threshold}
	for _, axis := range []struct {
		col  string
		dest *[]*float64
	}{
		{"POS_Latitude_deg", &resp.Lat},
		{"POS_Longitude_deg", &resp.Lng},
		{"POS_Altitude_ft", &resp.Alt},
	} {
		floats, valid, err := sess.Table.Floats(axis.col)
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		*axis.dest = sampleFloats(floats, valid, 1)
	}

	if link != "" {
		segs, err := flightpath.Segments(sess.Table, link, threshold)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		resp.Segments = segs
	} else if n := sess.Table.NumRows(); n > 0 {
		// No comm columns at all: the whole track is one link-OK segment.
		resp.Segments = []flightpath.Segment{{Start: 0, End: n}}
	}
	writeJSON(w, resp)
}

// scatterResponse is the 3D view payload, downsampled by stride.
type scatterResponse struct {
	Stride int        `json:"stride"`
	X      []*float64 `json:"x"`
	Y      []*float64 `json:"y"`
	Z      []*float64 `json:"z"`
	Color  []*float64 `json:"color,omitempty"`
}

func (s *Server) handleScatter(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	q := r.URL.Query()
	xCol, yCol, zCol := q.Get("x"), q.Get("y"), q.Get("z")
	if xCol == "" || yCol == "" || zCol == "" {
		writeError(w, http.StatusBadRequest, "x, y and z parameters are required")
		return
	}
	stride, err := strideParam(r, defaultScatterStride)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	resp := scatterResponse{Stride: stride}
	for _, axis := range []struct {
		col  string
		dest *[]*float64
	}{
		{xCol, &resp.X},
		{yCol, &resp.Y},
		{zCol, &resp.Z},
	} {
		floats, valid, err := sess.Table.Floats(axis.col)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		*axis.dest = sampleFloats(floats, valid, stride)
	}
	if colorCol := q.Get("color"); colorCol != "" {
		floats, valid, err := sess.Table.Floats(colorCol)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		resp.Color = sampleFloats(floats, valid, stride)
	}
	writeJSON(w, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	sum, err := flightpath.Stats(sess.Table)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, sum)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "cleaned_"+sess.FileName))
	if err := sess.Table.WriteCSV(w); err != nil {
		logging.FromContext(r.Context()).Error("csv export failed", "error", err)
	}
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	sum, err := flightpath.Stats(sess.Table)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="telemetry_report.pdf"`)
	if err := report.Write(w, sess.FileName, sess.Table, sess.Report, sum); err != nil {
		logging.FromContext(r.Context()).Error("pdf export failed", "error", err)
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// sampleFloats returns every stride-th value as a pointer slice with nil for
// missing cells, which encodes to JSON null.
func sampleFloats(floats []float64, valid []bool, stride int) []*float64 {
	out := make([]*float64, 0, len(floats)/stride+1)
	for i := 0; i < len(floats); i += stride {
		if !valid[i] {
			out = append(out, nil)
			continue
		}
		v := floats[i]
		out = append(out, &v)
	}
	return out
}

func strideParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("stride")
	if raw == "" {
		return def, nil
	}
	stride, err := strconv.Atoi(raw)
	if err != nil || stride < 1 {
		return 0, fmt.Errorf("invalid stride: %q", raw)
	}
	return stride, nil
}
