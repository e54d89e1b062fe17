package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/collections"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
	"github.com/sirdesai22/sportsfest-sync/internal/workers"
)

// maxBody bounds a request; image size limits are enforced by the
// collections, this only stops runaway uploads.
const maxBody = 16 << 20

var errBadRequest = errors.New("bad request")

// decode reads a JSON body, or a multipart form whose "data" field holds the
// JSON and whose "file" field holds an optional upload.
func decode(w http.ResponseWriter, r *http.Request, dst any) (*collections.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return nil, fmt.Errorf("%w: decode body: %v", errBadRequest, err)
		}
		return nil, nil
	}

	if err := r.ParseMultipartForm(maxBody); err != nil {
		return nil, fmt.Errorf("%w: parse form: %v", errBadRequest, err)
	}
	if data := r.FormValue("data"); data != "" {
		if err := json.Unmarshal([]byte(data), dst); err != nil {
			return nil, fmt.Errorf("%w: decode data: %v", errBadRequest, err)
		}
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read file: %v", errBadRequest, err)
	}
	defer file.Close()
	b, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read file: %v", errBadRequest, err)
	}
	return &collections.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        b,
	}, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id: %v", errBadRequest, err)
	}
	return id, nil
}

func pathSeq(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %v", errBadRequest, err)
	}
	return id, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, collections.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, remote.ErrNotFound), errors.Is(err, workers.ErrDLQNotFound):
		return http.StatusNotFound
	case errors.Is(err, collections.ErrPartial):
		return http.StatusMultiStatus
	case errors.Is(err, collections.ErrMutation), errors.Is(err, collections.ErrFetch):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]any{"error": err.Error()}
	var verr *collections.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}
	writeJSON(w, status, body)
}

// respond writes v with status on success. A partially applied operation
// still returns the committed row alongside the error.
func respond(w http.ResponseWriter, status int, v any, err error) {
	switch {
	case err == nil:
		writeJSON(w, status, v)
	case errors.Is(err, collections.ErrPartial):
		writeJSON(w, http.StatusMultiStatus, map[string]any{"data": v, "error": err.Error()})
	default:
		writeError(w, statusFor(err), err)
	}
}
