package api

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ivlev/storyeditor/internal/engine"
	"github.com/ivlev/storyeditor/internal/render"
	"github.com/ivlev/storyeditor/internal/scene"
	"github.com/ivlev/storyeditor/internal/source"
	"github.com/ivlev/storyeditor/internal/trim"
)

const (
	maxUploadBytes     = 64 << 20
	msgCouldNotCompose = "could not create image"
	defaultJobTTL      = time.Hour
)

var errOutsideMediaDir = errors.New("path is outside the media directory")

type Handler struct {
	Project *engine.StoryProject

	mu sync.Mutex
	// JobTTL is how long finished trims stay queryable. Guarded by mu.
	JobTTL time.Duration
	jobs   map[string]*trim.Job
}

func NewHandler(p *engine.StoryProject) *Handler {
	return &Handler{Project: p, JobTTL: defaultJobTTL, jobs: make(map[string]*trim.Job)}
}

// HandleCompose flattens an uploaded background and an optional YAML scene
// into a PNG. Form fields: "background" (file) and "scene" (text).
func (h *Handler) HandleCompose(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return errBadRequest("Invalid multipart form", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("background")
	if err != nil {
		return errBadRequest("Missing background file", err)
	}
	defer file.Close()

	sf := &scene.File{}
	if raw := r.FormValue("scene"); raw != "" {
		if sf, err = scene.Parse([]byte(raw)); err != nil {
			return errBadRequest("Invalid scene", err)
		}
	}

	path, err := spool(file, filepath.Ext(hdr.Filename))
	if err != nil {
		return err
	}
	defer os.Remove(path)

	bg, err := h.Project.Open(path)
	if err != nil {
		return errUnprocessable(msgCouldNotCompose, err)
	}
	defer bg.Close()

	ctx := r.Context()
	width, height, err := bg.Dimensions(ctx)
	if err != nil {
		return errUnprocessable(msgCouldNotCompose, err)
	}
	sess, err := sf.Session(float64(width), float64(height))
	if err != nil {
		return errBadRequest("Invalid scene: "+err.Error(), err)
	}
	sess.SetReferenceWidth(float64(h.Project.Config.ReferenceWidth))
	snap, err := sess.Snapshot()
	if err != nil {
		return err
	}

	out, err := h.Project.Compose(ctx, bg, snap)
	if err != nil {
		if errors.Is(err, engine.ErrCouldNotCreateImage) || errors.Is(err, source.ErrDecode) {
			return errUnprocessable(msgCouldNotCompose, err)
		}
		return err
	}
	defer render.Release(out)

	w.Header().Set(headerContentType, contentTypePNG)
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, out); err != nil {
		slog.Warn("PNG write aborted", "error", err, "path", r.URL.Path)
	}
	return nil
}

// spool copies an upload to a temp file so decoders and ffmpeg can read it
// by path. The extension is kept because it selects the background type.
func spool(src io.Reader, ext string) (string, error) {
	f, err := os.CreateTemp("", "storyeditor_upload_*"+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

type createTrimRequest struct {
	Input   string `json:"input"`
	StartMs *int64 `json:"start_ms"`
	EndMs   *int64 `json:"end_ms"`
}

type trimResponse struct {
	ID       string  `json:"id"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
	StartMs  int64   `json:"start_ms"`
	EndMs    int64   `json:"end_ms"`
	Output   string  `json:"output,omitempty"`
	Error    string  `json:"error,omitempty"`
}

func toTrimResponse(j *trim.Job) trimResponse {
	st := j.Status()
	resp := trimResponse{
		ID:       st.ID,
		State:    st.State.String(),
		Progress: st.Progress,
		StartMs:  j.Range.StartMs,
		EndMs:    j.Range.EndMs,
		Output:   st.Output,
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	return resp
}

// HandleCreateTrim starts an asynchronous trim of a file on the server.
// Omitted bounds keep the default selection.
func (h *Handler) HandleCreateTrim(w http.ResponseWriter, r *http.Request) error {
	var req createTrimRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return errBadRequest("Invalid request payload: "+err.Error(), err)
	}
	if req.Input == "" {
		return errBadRequest("Missing required field (input)", nil)
	}
	input, err := mediaPath(h.Project.Config.MediaDir, req.Input)
	if err != nil {
		return errForbidden("Input must be inside the media directory", err)
	}

	rng, err := h.Project.TrimRange(r.Context(), input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errNotFound("Input clip not found")
		}
		return errUnprocessable("Could not read clip", err)
	}
	start, end := rng.StartMs, rng.EndMs
	if req.StartMs != nil {
		start = *req.StartMs
	}
	if req.EndMs != nil {
		end = *req.EndMs
	}
	rng.Select(start, end)

	// The job outlives the request.
	job, err := h.Project.Trim(context.Background(), input, rng, nil)
	if err != nil {
		if errors.Is(err, trim.ErrBusy) {
			return errConflict("A trim is already running", err)
		}
		return err
	}

	h.mu.Lock()
	h.pruneLocked(time.Now())
	h.jobs[job.ID] = job
	h.mu.Unlock()

	respondJSON(w, http.StatusAccepted, toTrimResponse(job))
	return nil
}

func (h *Handler) job(r *http.Request) (*trim.Job, error) {
	id := chi.URLParam(r, paramID)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pruneLocked(time.Now())
	j, ok := h.jobs[id]
	if !ok {
		return nil, errNotFound("Trim not found")
	}
	return j, nil
}

// pruneLocked forgets trims that ended more than JobTTL ago.
func (h *Handler) pruneLocked(now time.Time) {
	for id, j := range h.jobs {
		st := j.Status()
		if st.State.Terminal() && now.Sub(st.Ended) > h.JobTTL {
			delete(h.jobs, id)
		}
	}
}

// mediaPath resolves input against dir and rejects anything that escapes it.
// Relative inputs are taken relative to dir.
func mediaPath(dir, input string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	p := input
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideMediaDir
	}
	return p, nil
}

func (h *Handler) HandleGetTrim(w http.ResponseWriter, r *http.Request) error {
	j, err := h.job(r)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, toTrimResponse(j))
	return nil
}

// HandleCancelTrim stops a running trim. Cancelling a finished trim is a
// no-op.
func (h *Handler) HandleCancelTrim(w http.ResponseWriter, r *http.Request) error {
	j, err := h.job(r)
	if err != nil {
		return err
	}
	j.Cancel()
	w.WriteHeader(http.StatusNoContent)
	return nil
}
