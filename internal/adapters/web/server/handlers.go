package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lcalzada-xor/eapolsupd/internal/adapters/reporting"
	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := s.Auth.Login(r.Context(), domain.Credentials{Username: req.Username, Password: req.Password})
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = s.Auth.Logout(r.Context(), bearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

type endpointView struct {
	Name          string `json:"name"`
	BSSID         string `json:"bssid"`
	IsPreAuth     bool   `json:"is_preauth"`
	FramesReceived uint64 `json:"frames_received"`
	FramesDropped  uint64 `json:"frames_dropped"`
	FramesSent     uint64 `json:"frames_sent"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ifName, wireless, linkActive, authenticated, ssid, _ := s.Source.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"interface":     ifName,
		"wireless":      wireless,
		"link_active":   linkActive,
		"authenticated": authenticated,
		"ssid":          ssid,
	})
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	_, _, _, _, _, eps := s.Source.Snapshot()
	views := make([]endpointView, 0, len(eps))
	for _, ep := range eps {
		views = append(views, endpointView{
			Name:           ep.Name,
			BSSID:          ep.BSSID.String(),
			IsPreAuth:      ep.IsPreAuth,
			FramesReceived: ep.Stats.FramesReceived,
			FramesDropped:  ep.Stats.FramesDropped,
			FramesSent:     ep.Stats.FramesSent,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

type controlRequest struct {
	Command       string         `json:"command"`
	Force         bool           `json:"force"`
	Configuration map[string]any `json:"configuration"`
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cmd, ok := parseControlCommand(req.Command)
	if !ok {
		http.Error(w, "unknown command", http.StatusBadRequest)
		return
	}

	dict := domain.ControlDict{"command": cmd, "force": req.Force}
	if req.Configuration != nil {
		dict["Configuration"] = req.Configuration
	}

	if err := s.Source.HandleControl(r.Context(), cmd, dict); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseControlCommand(s string) (domain.ControlCommand, bool) {
	switch s {
	case "run":
		return domain.ControlCommandRun, true
	case "stop":
		return domain.ControlCommandStop, true
	case "take_control":
		return domain.ControlCommandTakeControl, true
	case "retry":
		return domain.ControlCommandRetry, true
	default:
		return 0, false
	}
}

func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "session history unavailable", http.StatusServiceUnavailable)
		return
	}

	ifName := s.Source.IfName()
	events, err := s.Store.ListEvents(r.Context(), ifName, time.Time{})
	if err != nil {
		http.Error(w, "failed to load session history", http.StatusInternalServerError)
		return
	}

	pdf, err := reporting.GenerateSessionReport(ifName, events)
	if err != nil {
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=session-report.pdf")
	if err := pdf.Output(w); err != nil {
		http.Error(w, "failed to write report", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
