package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Maidono/internal/orchestrator"
)

// Webhook передаёт запрос диспетчеру.
// POST /*
//
// Ответ — только статус. Запрос, который не слушает ни одна action,
// уходит в статическое веб-приложение.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	outcome, _ := h.dispatcher.Dispatch(r.Context(), orchestrator.NewRequest(r))

	if outcome == orchestrator.OutcomeNotFound {
		h.static.ServeHTTP(w, r)
		return
	}
	w.WriteHeader(outcome.StatusCode())
}

// Health отвечает "ok <uptime>".
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok " + time.Since(h.startedAt).Round(time.Millisecond).String()))
}

// StaticHandler отдаёт веб-приложение: "/" — index, "/assets/..." — файлы.
// Остальные запросы и методы кроме GET/HEAD получают 404.
type StaticHandler struct {
	index  string
	assets http.Handler
}

// NewStaticHandler создаёт StaticHandler. Пустые пути отключают
// соответствующую часть.
func NewStaticHandler(index, assetsDir string) *StaticHandler {
	s := &StaticHandler{index: index}
	if assetsDir != "" {
		s.assets = http.StripPrefix("/assets/", http.FileServer(http.Dir(assetsDir)))
	}
	return s
}

func (s *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case r.URL.Path == "/" && s.index != "":
		http.ServeFile(w, r, s.index)
	case strings.HasPrefix(r.URL.Path, "/assets/") && s.assets != nil:
		s.assets.ServeHTTP(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
