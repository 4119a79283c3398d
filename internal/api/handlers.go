package api

import (
	"net/http"
	"strconv"

	"github.com/xtding233/reroll-odds/internal/service"
)

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

// parseRequest reads a service.Request from query parameters. Range checks
// are left to the service so every transport reports them the same way.
func parseRequest(r *http.Request) (service.Request, string) {
	var req service.Request
	req.Set = r.URL.Query().Get("set")

	required := []struct {
		key string
		dst *int
	}{
		{"level", &req.Level},
		{"cost", &req.Cost},
	}
	for _, f := range required {
		v, ok, msg := parseInt(r, f.key)
		if msg != "" {
			return req, msg
		}
		if !ok {
			return req, "missing param " + f.key
		}
		*f.dst = v
	}

	optional := []struct {
		key string
		dst *int
	}{
		{"purchased_target", &req.PurchasedTarget},
		{"purchased_other", &req.PurchasedOther},
		{"trials", &req.Trials},
	}
	for _, f := range optional {
		v, _, msg := parseInt(r, f.key)
		if msg != "" {
			return req, msg
		}
		*f.dst = v
	}

	pointers := []struct {
		key string
		dst **int
	}{
		{"rerolls", &req.Rerolls},
		{"gold", &req.Gold},
		{"max_copies", &req.MaxCopies},
	}
	for _, f := range pointers {
		v, ok, msg := parseInt(r, f.key)
		if msg != "" {
			return req, msg
		}
		if ok {
			*f.dst = &v
		}
	}
	return req, ""
}

// GET /distribution?level=9&cost=5&rerolls=20[&gold=..][&purchased_target=..]
// [&purchased_other=..][&max_copies=3][&trials=..][&set=..]
func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, msg := parseRequest(r)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
		return
	}
	resp, err := s.eval.Evaluate(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /tables[?set=..]
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	view, err := s.eval.Tables(r.URL.Query().Get("set"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.eval.Tables(""); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{Err: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
