package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/collections"
	"github.com/sirdesai22/sportsfest-sync/internal/newsfeed"
)

const adminListLimit = 100

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	if private[entity] && !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}
	v, release, ok := s.open(r.Context(), entity)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown entity %q", entity))
		return
	}
	defer release()
	writeJSON(w, http.StatusOK, v.Snapshot())
}

// --- Clubs ---

func (s *Server) handleCreateClub(w http.ResponseWriter, r *http.Request) {
	var in collections.ClubInput
	file, err := decode(w, r, &in)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	in.Logo = file
	clubs, release := s.reg.Clubs(r.Context())
	defer release()
	club, err := clubs.Create(r.Context(), in)
	respond(w, http.StatusCreated, club, err)
}

func (s *Server) handleUpdateClub(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	var p collections.ClubPatch
	file, err := decode(w, r, &p)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	p.Logo = file
	clubs, release := s.reg.Clubs(r.Context())
	defer release()
	club, err := clubs.Update(r.Context(), id, p)
	respond(w, http.StatusOK, club, err)
}

func (s *Server) handleDeleteClub(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	clubs, release := s.reg.Clubs(r.Context())
	defer release()
	respondDeleted(w, clubs.Delete(r.Context(), id))
}

// --- Fixtures ---

func (s *Server) handleCreateFixture(w http.ResponseWriter, r *http.Request) {
	var in collections.FixtureInput
	file, err := decode(w, r, &in)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	in.Image = file
	fixtures, release := s.reg.Fixtures(r.Context())
	defer release()
	fx, err := fixtures.Create(r.Context(), in)
	respond(w, http.StatusCreated, fx, err)
}

func (s *Server) handleUpdateFixture(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	var p collections.FixturePatch
	file, err := decode(w, r, &p)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	p.Image = file
	fixtures, release := s.reg.Fixtures(r.Context())
	defer release()
	fx, err := fixtures.Update(r.Context(), id, p)
	respond(w, http.StatusOK, fx, err)
}

func (s *Server) handleFixtureStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if _, err := decode(w, r, &body); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	fixtures, release := s.reg.Fixtures(r.Context())
	defer release()
	fx, err := fixtures.SetStatus(r.Context(), id, body.Status)
	respond(w, http.StatusOK, fx, err)
}

func (s *Server) handleDeleteFixture(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	fixtures, release := s.reg.Fixtures(r.Context())
	defer release()
	respondDeleted(w, fixtures.Delete(r.Context(), id))
}

// --- Results ---

func (s *Server) handleCreateResult(w http.ResponseWriter, r *http.Request) {
	var in collections.ResultInput
	if _, err := decode(w, r, &in); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	results, release := s.reg.Results(r.Context())
	defer release()
	res, err := results.AddResultAndCompleteFixture(r.Context(), in)
	respond(w, http.StatusCreated, res, err)
}

func (s *Server) handleUpdateResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	var p collections.ResultPatch
	if _, err := decode(w, r, &p); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	results, release := s.reg.Results(r.Context())
	defer release()
	res, err := results.Update(r.Context(), id, p)
	respond(w, http.StatusOK, res, err)
}

// handleDeleteResult takes the owning fixture from ?fixture_id when the
// caller has it; otherwise it is looked up.
func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	fixtureID := uuid.Nil
	if raw := r.URL.Query().Get("fixture_id"); raw != "" {
		if fixtureID, err = uuid.Parse(raw); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("fixture_id: %w", err))
			return
		}
	}
	results, release := s.reg.Results(r.Context())
	defer release()
	respondDeleted(w, results.Delete(r.Context(), id, fixtureID))
}

// --- Media ---

func (s *Server) handleCreateMedia(w http.ResponseWriter, r *http.Request) {
	var in collections.MediaInput
	file, err := decode(w, r, &in)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	in.File = file
	media, release := s.reg.Media(r.Context())
	defer release()
	item, err := media.Create(r.Context(), in)
	respond(w, http.StatusCreated, item, err)
}

func (s *Server) handleUpdateMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	var p collections.MediaPatch
	if _, err := decode(w, r, &p); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	media, release := s.reg.Media(r.Context())
	defer release()
	item, err := media.Update(r.Context(), id, p)
	respond(w, http.StatusOK, item, err)
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	media, release := s.reg.Media(r.Context())
	defer release()
	respondDeleted(w, media.Delete(r.Context(), id))
}

// --- Press ---

func (s *Server) handleCreatePress(w http.ResponseWriter, r *http.Request) {
	var in collections.PressInput
	file, err := decode(w, r, &in)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	in.Image = file
	press, release := s.reg.Press(r.Context())
	defer release()
	item, err := press.Create(r.Context(), in)
	respond(w, http.StatusCreated, item, err)
}

func (s *Server) handleUpdatePress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	var p collections.PressPatch
	file, err := decode(w, r, &p)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	p.Image = file
	press, release := s.reg.Press(r.Context())
	defer release()
	item, err := press.Update(r.Context(), id, p)
	respond(w, http.StatusOK, item, err)
}

func (s *Server) handleDeletePress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	press, release := s.reg.Press(r.Context())
	defer release()
	respondDeleted(w, press.Delete(r.Context(), id))
}

func (s *Server) handleImportNews(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if r.ContentLength > 0 {
		if _, err := decode(w, r, &body); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
	}
	if body.URL == "" {
		body.URL = s.newsURL
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, errors.New("no feed url given or configured"))
		return
	}
	press, release := s.reg.Press(r.Context())
	defer release()
	n, err := newsfeed.NewImporter(press).Import(r.Context(), body.URL)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": n})
}

// --- Messages ---

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var in collections.MessageInput
	if _, err := decode(w, r, &in); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	messages, release := s.reg.Messages(r.Context())
	defer release()
	msg, err := messages.Create(r.Context(), in)
	respond(w, http.StatusCreated, msg, err)
}

func (s *Server) handleMessageStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if _, err := decode(w, r, &body); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	messages, release := s.reg.Messages(r.Context())
	defer release()
	msg, err := messages.SetStatus(r.Context(), id, body.Status)
	respond(w, http.StatusOK, msg, err)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	messages, release := s.reg.Messages(r.Context())
	defer release()
	respondDeleted(w, messages.Delete(r.Context(), id))
}

// --- Sync admin ---

func (s *Server) handleOutbox(w http.ResponseWriter, r *http.Request) {
	if s.outbox == nil {
		writeError(w, http.StatusNotFound, errors.New("store has no outbox"))
		return
	}
	rows, err := s.outbox(r.Context(), adminListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleDLQ(w http.ResponseWriter, r *http.Request) {
	rows, err := s.dlq.Recent(r.Context(), adminListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id, err := pathSeq(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := s.replayer.Retry(r.Context(), id); err != nil {
		writeError(w, statusFor(err), fmt.Errorf("retry failed: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retried"})
}

func respondDeleted(w http.ResponseWriter, err error) {
	respond(w, http.StatusOK, map[string]string{"status": "deleted"}, err)
}
