package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/qyrowren/flightdeck/internal/config"
	"github.com/qyrowren/flightdeck/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			RequestTimeout: 10 * time.Second,
		},
		Upload: config.UploadConfig{
			MaxFileSize:   10 * 1024 * 1024,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
		},
		Session: config.SessionConfig{TTL: time.Minute, SweepInterval: time.Minute},
		Data:    config.DataConfig{Dir: t.TempDir()},
		Rate:    config.RateLimitConfig{Enabled: false},
	}
}

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	sessions := store.New(cfg.Session.TTL, cfg.Session.SweepInterval)
	t.Cleanup(sessions.Close)

	s, err := NewServer(cfg, sessions)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.samples.Close)
	return s, cfg
}

func telemetryCSV(rows int) string {
	var sb strings.Builder
	sb.WriteString("Timestamp,POS_Latitude_deg,POS_Longitude_deg,POS_Altitude_ft,GNC_Roll_deg,COMM_TCDL_Margin_dB,PL_GMTI_Status\n")
	for i := 0; i < rows; i++ {
		margin := 10.0
		if i%7 == 0 {
			margin = 1.0
		}
		fmt.Fprintf(&sb, "2024-03-01 08:%02d:%02d,%.4f,%.4f,%.1f,%.2f,%.1f,TRACKING\n",
			i/60, i%60, 14.0+float64(i)*0.001, 121.0+float64(i)*0.001, 5000.0+float64(i), float64(i%10), margin)
	}
	return sb.String()
}

func multipartBody(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func uploadFile(t *testing.T, s *Server, fileName, content string) uploadResponse {
	t.Helper()
	body, contentType := multipartBody(t, fileName, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestUploadAndReport(t *testing.T) {
	s, _ := newTestServer(t)
	resp := uploadFile(t, s, "flight.csv", telemetryCSV(60))

	if resp.SessionID == "" {
		t.Fatal("no session id")
	}
	if resp.Rows != 60 {
		t.Errorf("rows = %d, want 60", resp.Rows)
	}
	if resp.Report.Status != "success" {
		t.Errorf("status = %s", resp.Report.Status)
	}

	rec := get(t, s, "/api/session/"+resp.SessionID+"/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"GNC"`) {
		t.Errorf("report missing subsystem: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"PL_GMTI"`) {
		t.Errorf("report missing payload: %s", rec.Body.String())
	}
}

func TestUploadRejectsBadFile(t *testing.T) {
	s, _ := newTestServer(t)

	body, contentType := multipartBody(t, "bad.csv", "Timestamp,GNC_Roll_deg\n2024-01-01 00:00:00,1.0\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing essential columns") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if s.sessions.Len() != 0 {
		t.Error("failed upload must not create a session")
	}
}

func TestUploadWithoutFile(t *testing.T) {
	s, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestColumnsAndSeries(t *testing.T) {
	s, _ := newTestServer(t)
	resp := uploadFile(t, s, "flight.csv", telemetryCSV(60))

	rec := get(t, s, "/api/session/"+resp.SessionID+"/columns")
	if rec.Code != http.StatusOK {
		t.Fatalf("columns status = %d", rec.Code)
	}
	var cols map[string][]columnInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &cols); err != nil {
		t.Fatal(err)
	}
	byName := map[string]columnInfo{}
	for _, c := range cols["columns"] {
		byName[c.Name] = c
	}
	if c := byName["GNC_Roll_deg"]; c.Class != "subsystem" || !c.Numeric {
		t.Errorf("GNC_Roll_deg = %+v", c)
	}
	if c := byName["PL_GMTI_Status"]; c.Class != "payload" || c.Numeric {
		t.Errorf("PL_GMTI_Status = %+v", c)
	}

	rec = get(t, s, "/api/session/"+resp.SessionID+"/series?col=GNC_Roll_deg&stride=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("series status = %d: %s", rec.Code, rec.Body.String())
	}
	var series seriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &series); err != nil {
		t.Fatal(err)
	}
	if len(series.Timestamps) != 30 {
		t.Errorf("timestamps = %d, want 30", len(series.Timestamps))
	}
	if len(series.Series["GNC_Roll_deg"]) != 30 {
		t.Errorf("series length = %d, want 30", len(series.Series["GNC_Roll_deg"]))
	}

	rec = get(t, s, "/api/session/"+resp.SessionID+"/series?col=PL_GMTI_Status")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("text column series status = %d, want 400", rec.Code)
	}

	rec = get(t, s, "/api/session/"+resp.SessionID+"/series?col=GNC_Roll_deg&stride=zero")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad stride status = %d, want 400", rec.Code)
	}
}

func TestTrackSegmentation(t *testing.T) {
	s, _ := newTestServer(t)
	resp := uploadFile(t, s, "flight.csv", telemetryCSV(60))

	rec := get(t, s, "/api/session/"+resp.SessionID+"/track?link=COMM_TCDL_Margin_dB&threshold=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("track status = %d: %s", rec.Code, rec.Body.String())
	}
	var track trackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &track); err != nil {
		t.Fatal(err)
	}
	if len(track.Lat) != 60 || len(track.Lng) != 60 {
		t.Errorf("track lengths = %d/%d, want 60", len(track.Lat), len(track.Lng))
	}
	if len(track.Segments) < 2 {
		t.Fatalf("expected alternating segments, got %d", len(track.Segments))
	}
	var sawOutage bool
	last := 0
	for _, seg := range track.Segments {
		if seg.Start != last {
			t.Errorf("segment gap: start %d after end %d", seg.Start, last)
		}
		last = seg.End
		if seg.Outage {
			sawOutage = true
		}
	}
	if last != 60 {
		t.Errorf("segments end at %d, want 60", last)
	}
	if !sawOutage {
		t.Error("no outage segment found")
	}

	rec = get(t, s, "/api/session/"+resp.SessionID+"/track?link=NOPE_dB")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown link status = %d, want 400", rec.Code)
	}
}

func TestScatterDownsamples(t *testing.T) {
	s, _ := newTestServer(t)
	resp := uploadFile(t, s, "flight.csv", telemetryCSV(60))

	rec := get(t, s, "/api/session/"+resp.SessionID+
		"/scatter?x=POS_Longitude_deg&y=POS_Latitude_deg&z=POS_Altitude_ft&color=GNC_Roll_deg")
	if rec.Code != http.StatusOK {
		t.Fatalf("scatter status = %d: %s", rec.Code, rec.Body.String())
	}
	var scatter scatterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &scatter); err != nil {
		t.Fatal(err)
	}
	if scatter.Stride != defaultScatterStride {
		t.Errorf("stride = %d, want %d", scatter.Stride, defaultScatterStride)
	}
	if len(scatter.X) != 3 {
		t.Errorf("points = %d, want 3 (60 rows / stride 20)", len(scatter.X))
	}
	if len(scatter.Color) != len(scatter.X) {
		t.Errorf("color length %d != x length %d", len(scatter.Color), len(scatter.X))
	}

	rec = get(t, s, "/api/session/"+resp.SessionID+"/scatter?x=POS_Longitude_deg")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing axes status = %d, want 400", rec.Code)
	}
}

func TestSummaryExportAndPDF(t *testing.T) {
	s, _ := newTestServer(t)
	resp := uploadFile(t, s, "flight.csv", telemetryCSV(60))

	rec := get(t, s, "/api/session/"+resp.SessionID+"/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	var sum map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum["rows"].(float64) != 60 {
		t.Errorf("summary rows = %v", sum["rows"])
	}

	rec = get(t, s, "/api/session/"+resp.SessionID+"/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("export content type = %s", ct)
	}
	firstLine, _, _ := strings.Cut(rec.Body.String(), "\n")
	if !strings.HasPrefix(firstLine, "Timestamp,") {
		t.Errorf("export header = %s", firstLine)
	}

	rec = get(t, s, "/api/session/"+resp.SessionID+"/report.pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf status = %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("pdf body does not start with %PDF")
	}
}

func TestDeleteSession(t *testing.T) {
	s, _ := newTestServer(t)
	resp := uploadFile(t, s, "flight.csv", telemetryCSV(10))

	req := httptest.NewRequest(http.MethodDelete, "/api/session/"+resp.SessionID, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = get(t, s, "/api/session/"+resp.SessionID+"/report")
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted session status = %d, want 404", rec.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/session/no-such-id/report")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSamples(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.Data.Dir, "sample.csv"), []byte(telemetryCSV(20)), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Data.Dir, "notes.txt"), []byte("not a sample"), 0o644); err != nil {
		t.Fatal(err)
	}

	sessions := store.New(cfg.Session.TTL, cfg.Session.SweepInterval)
	t.Cleanup(sessions.Close)
	s, err := NewServer(cfg, sessions)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.samples.Close)

	rec := get(t, s, "/api/samples")
	if rec.Code != http.StatusOK {
		t.Fatalf("samples status = %d", rec.Code)
	}
	var listing map[string][]SampleFile
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing["samples"]) != 1 || listing["samples"][0].Name != "sample.csv" {
		t.Fatalf("samples = %+v", listing["samples"])
	}

	body := strings.NewReader(`{"name":"sample.csv"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/samples/load", body)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Rows != 20 || resp.FileName != "sample.csv" {
		t.Errorf("loaded sample = %+v", resp)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/samples/load", strings.NewReader(`{"name":"../../../etc/passwd"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("traversal status = %d, want 404", rec.Code)
	}
}

func TestRateLimiterStops(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateLimitConfig{Enabled: true, PerMinute: 2}
	sessions := store.New(cfg.Session.TTL, cfg.Session.SweepInterval)
	t.Cleanup(sessions.Close)

	s, err := NewServer(cfg, sessions)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if rec := get(t, s, "/api/samples"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := get(t, s, "/api/samples")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// Shutdown stops the cleanup goroutine; repeating it is a no-op.
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/samples")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "cdn.plot.ly") {
		t.Errorf("csp = %s", csp)
	}
}
