package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soyeahso/intentd/internal/config"
)

// safeConfigPrefixes lists the config paths reachable over RPC. Everything
// else, including auth secrets and TLS keys, is denied.
var safeConfigPrefixes = []string{
	"gateway.port",
	"gateway.bind",
	"gateway.customBindHost",
	"gateway.allowedOrigins",
	"logging",
	"donation",
	"index.kind",
	"metrics",
}

func isAllowedConfigPath(key string) bool {
	for _, prefix := range safeConfigPrefixes {
		if key == prefix || strings.HasPrefix(key, prefix+".") {
			return true
		}
	}
	return false
}

func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/", handleNotFound)
}

func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("config.get", s.rpcConfigGet)
	s.Handle("config.set", s.rpcConfigSet)
	s.Handle("donation.donate", s.rpcDonationDonate)
	s.Handle("donation.submit", s.rpcDonationSubmit)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		Hosts:    s.clients.CountMode(ModeHost),
		UptimeMs: s.Uptime().Milliseconds(),
		Donor:    s.currentDonor() != nil,
	})
}

type configGetParams struct {
	Key string `json:"key"`
}

// configPath validates an RPC config key and splits it.
func configPath(rc *RequestContext, key, deniedMsg string) ([]string, bool) {
	if key == "" {
		rc.RespondError("invalid_params", "key is required")
		return nil, false
	}
	if !isAllowedConfigPath(key) {
		rc.RespondError("forbidden", deniedMsg+key)
		return nil, false
	}
	path, err := config.ParseConfigPath(key)
	if err != nil {
		rc.RespondError("invalid_params", err.Error())
		return nil, false
	}
	return path, true
}

func (s *Server) rpcConfigGet(rc *RequestContext) {
	var p configGetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	path, ok := configPath(rc, p.Key, "access denied for config path: ")
	if !ok {
		return
	}

	s.mu.RLock()
	val, found := config.GetValueAtPath(s.configRaw, path)
	s.mu.RUnlock()
	if !found {
		rc.RespondError("not_found", "key not found: "+p.Key)
		return
	}
	rc.Respond(map[string]any{"key": p.Key, "value": val})
}

type configSetParams struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (s *Server) rpcConfigSet(rc *RequestContext) {
	var p configSetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	path, ok := configPath(rc, p.Key, "cannot modify config path: ")
	if !ok {
		return
	}

	s.mu.Lock()
	config.SetValueAtPath(s.configRaw, path, p.Value)
	s.mu.Unlock()

	rc.Respond(map[string]any{"key": p.Key, "value": p.Value})
}

// rpcDonationDonate asks the donor to resolve and donate a room. The
// response only acknowledges the request; the outcome follows as a
// donation.outcome event.
func (s *Server) rpcDonationDonate(rc *RequestContext) {
	donor := s.currentDonor()
	if donor == nil {
		rc.RespondError("unavailable", "donation service not configured")
		return
	}
	var p DonateParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Token == "" || p.AccountID == "" {
		rc.RespondError("invalid_params", "token and accountId are required")
		return
	}

	donor.DonateRoom(context.Background(), p.Token, p.AccountID)
	rc.Respond(map[string]any{"accepted": true, "token": p.Token, "accountId": p.AccountID})
}

func (s *Server) rpcDonationSubmit(rc *RequestContext) {
	donor := s.currentDonor()
	if donor == nil {
		rc.RespondError("unavailable", "donation service not configured")
		return
	}
	var p SubmitParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Conversation == nil {
		rc.RespondError("invalid_params", "conversation is required")
		return
	}

	conv := *p.Conversation
	donor.Donate(context.Background(), conv)
	rc.Respond(map[string]any{"accepted": true, "key": conv.Key()})
}
