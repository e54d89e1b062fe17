package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
		},
	}
}

// handleWatch streams the entity's state: the current snapshot on connect,
// then a fresh one after every change. Snapshots a slow client has not
// taken yet are replaced by newer ones.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
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

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	latest := make(chan any, 1)
	push := func(st any) {
		for {
			select {
			case latest <- st:
				return
			default:
			}
			select {
			case <-latest:
			default:
			}
		}
	}
	cancelWatch := v.Watch(push)
	defer cancelWatch()
	push(v.Snapshot())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Printf("📡 websocket watching %s", entity)
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-latest:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(st); err != nil {
				log.Printf("❌ websocket write %s: %v", entity, err)
				return
			}
		}
	}
}
