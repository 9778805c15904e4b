package web

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/gridform/internal/dataservice"
	"github.com/JonMunkholm/gridform/internal/logging"
	"github.com/JonMunkholm/gridform/internal/page"
	"github.com/JonMunkholm/gridform/internal/procedure"
	"github.com/JonMunkholm/gridform/internal/rpc"
)

// saveStatuser is implemented by executors that bound concurrent saves.
type saveStatuser interface {
	SaveStatus() (procedure.SaveLimiterStatus, bool)
}

// handleHealth reports liveness, the number of loaded pages and, when
// available, save slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "ok",
		"pages":  page.Count(),
	}
	if ss, ok := s.exec.(saveStatuser); ok {
		if st, ok := ss.SaveStatus(); ok {
			resp["saves"] = st
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleCall runs one remote call. The response is always an envelope;
// failures are reported through ErrorCode and ErrorMsg.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	callID := uuid.NewString()
	ctx := logging.WithCallID(r.Context(), callID)
	pageName := chi.URLParam(r, "page")
	logger := logging.WithFields(ctx, "page", pageName, "ip", clientIP(r))

	env, err := s.runCall(w, r.WithContext(ctx), pageName)
	if err != nil {
		msg := procedure.MapError(err)
		logger.Error("call failed", "error", err, "code", msg.Code)
		writeJSON(w, r, http.StatusOK, errorEnvelope(err, callID))
		return
	}

	env[dataservice.FieldCallID] = callID
	writeJSON(w, r, http.StatusOK, env)
}

func (s *Server) runCall(w http.ResponseWriter, r *http.Request, pageName string) (dataservice.Envelope, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", procedure.ErrMalformedCall, err)
	}

	req, err := rpc.DecodeRequest(r.PostForm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", procedure.ErrMalformedCall, err)
	}

	p, ok := page.Get(pageName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", procedure.ErrUnknownPage, pageName)
	}

	start := time.Now()
	env, err := s.exec.Execute(r.Context(), p, procedure.Call{
		FuncName: req.FuncName,
		Params:   req.Params,
		SaveData: req.SaveData,
	})
	if err != nil {
		return nil, err
	}
	if env == nil {
		env = dataservice.Envelope{dataservice.FieldErrorCode: ""}
	}

	logging.FromContext(r.Context()).Info("call completed",
		"page", pageName,
		"func", req.FuncName,
		"rows", len(req.SaveData),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return env, nil
}

// handleListPages returns every registered page, sorted by group then name.
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages := page.All()
	infos := make([]page.Info, len(pages))
	for i, p := range pages {
		infos[i] = p.Info()
	}
	writeJSON(w, r, http.StatusOK, infos)
}

// handlePageSchema returns the compiled column descriptors of a page.
func (s *Server) handlePageSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	p, ok := page.Get(name)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", procedure.ErrUnknownPage, name), http.StatusNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// clientIP returns the request's remote host without the port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
