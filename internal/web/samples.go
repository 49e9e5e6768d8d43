package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/qyrowren/flightdeck/internal/logging"
)

// SampleFile describes one generator-produced CSV in the data directory.
type SampleFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// sampleCatalog tracks the CSV files in the data directory. An fsnotify
// watcher keeps the listing fresh so generator runs show up on the dashboard
// without a restart; if the directory cannot be watched the catalog degrades
// to rescanning on demand.
type sampleCatalog struct {
	dir     string
	mu      sync.RWMutex
	files   map[string]SampleFile
	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

func newSampleCatalog(dir string) (*sampleCatalog, error) {
	c := &sampleCatalog{
		dir:   dir,
		files: make(map[string]SampleFile),
		done:  make(chan struct{}),
	}
	if err := c.rescan(); err != nil {
		return nil, fmt.Errorf("scanning data dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("sample watcher unavailable, falling back to rescans", "error", err)
		return c, nil
	}
	if err := watcher.Add(dir); err != nil {
		slog.Warn("cannot watch data dir, falling back to rescans", "dir", dir, "error", err)
		watcher.Close()
		return c, nil
	}
	c.watcher = watcher
	go c.watch()
	return c, nil
}

// rescan rebuilds the listing from a directory walk.
func (c *sampleCatalog) rescan() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			// The generator has not produced anything yet.
			return nil
		}
		return err
	}

	files := make(map[string]SampleFile)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files[entry.Name()] = SampleFile{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		}
	}

	c.mu.Lock()
	c.files = files
	c.mu.Unlock()
	return nil
}

func (c *sampleCatalog) watch() {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".csv") {
				continue
			}
			switch {
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				c.add(event.Name)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				c.remove(event.Name)
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("sample watcher error", "error", err)
		}
	}
}

func (c *sampleCatalog) add(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	name := filepath.Base(path)
	c.mu.Lock()
	c.files[name] = SampleFile{Name: name, Size: info.Size(), Modified: info.ModTime()}
	c.mu.Unlock()
}

func (c *sampleCatalog) remove(path string) {
	c.mu.Lock()
	delete(c.files, filepath.Base(path))
	c.mu.Unlock()
}

// List returns the known sample files sorted by name.
func (c *sampleCatalog) List() []SampleFile {
	c.mu.RLock()
	out := make([]SampleFile, 0, len(c.files))
	for _, f := range c.files {
		out = append(out, f)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Open returns a reader for a sample by name. The name is reduced to its base
// so a crafted request cannot escape the data directory.
func (c *sampleCatalog) Open(name string) (*os.File, error) {
	name = filepath.Base(name)
	if !strings.HasSuffix(name, ".csv") {
		return nil, fmt.Errorf("not a csv file: %s", name)
	}
	return os.Open(filepath.Join(c.dir, name))
}

// Close stops the watcher goroutine. Idempotent.
func (c *sampleCatalog) Close() {
	c.once.Do(func() {
		close(c.done)
		if c.watcher != nil {
			c.watcher.Close()
		}
	})
}

func (s *Server) handleListSamples(w http.ResponseWriter, r *http.Request) {
	if s.samples.watcher == nil {
		if err := s.samples.rescan(); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, map[string]any{"samples": s.samples.List()})
}

// handleLoadSample validates a sample file from the data directory as if it
// had been uploaded, producing a regular session.
func (s *Server) handleLoadSample(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "request body must be JSON with a name field")
		return
	}

	file, err := s.samples.Open(req.Name)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("sample not found: %s", filepath.Base(req.Name)))
		return
	}
	defer file.Close()

	if err := s.limiter.acquire(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	defer s.limiter.release()

	table, rep := s.validator.Validate(file)
	if rep.Failed() {
		writeJSONStatus(w, http.StatusUnprocessableEntity, map[string]any{"report": rep})
		return
	}

	sess := s.sessions.Put(filepath.Base(req.Name), table, rep)
	logging.FromContext(r.Context()).Info("sample loaded",
		"session_id", sess.ID,
		"file", sess.FileName,
		"rows", table.NumRows(),
	)
	writeJSON(w, uploadResponse{
		SessionID: sess.ID,
		FileName:  sess.FileName,
		Rows:      table.NumRows(),
		Report:    rep,
	})
}
