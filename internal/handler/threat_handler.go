package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"threat-intel-service/internal/model"
	"threat-intel-service/internal/service"
	"threat-intel-service/internal/util"
	"threat-intel-service/internal/ws"
)

// ThreatHandler handles HTTP requests for the threat dashboard.
type ThreatHandler struct {
	svc      *service.ThreatService
	hub      *ws.Hub
	emit     func() model.AttackEvent
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewThreatHandler creates the dashboard handler. emit generates one attack
// for a freshly connected observer; nil disables the initial frame.
func NewThreatHandler(svc *service.ThreatService, hub *ws.Hub, emit func() model.AttackEvent, logger *zap.Logger) *ThreatHandler {
	return &ThreatHandler{
		svc:  svc,
		hub:  hub,
		emit: emit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Observers connect from arbitrary dashboard origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// RegisterRoutes registers all dashboard API routes.
func (h *ThreatHandler) RegisterRoutes(router chi.Router) {
	router.Get("/campaigns", h.GetCampaigns)
	router.Get("/campaigns/{campaignID}", h.GetCampaign)
	router.Get("/events/{eventID}/campaign", h.GetCampaignForEvent)

	router.Route("/analytics", func(r chi.Router) {
		r.Get("/bots", h.GetBotDetection)
		r.Get("/peak-hours", h.GetPeakHours)
		r.Get("/status-codes", h.GetStatusCodes)
		r.Get("/geo-distribution", h.GetGeoDistribution)
	})
}

// Health reports service liveness and headline counters.
func (h *ThreatHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.svc.Health(h.hub.ClientCount()))
}

// GetCampaigns runs a detection cycle over the current event window once
// enough events are buffered, and returns the newly detected campaigns.
func (h *ThreatHandler) GetCampaigns(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	buffered := h.svc.EventCount()
	if required := h.svc.MinEventsForDetection(); buffered < required {
		h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"campaigns": []model.Campaign{},
			"message":   fmt.Sprintf("Need %d more attacks to detect campaigns", required-buffered),
		})
		return
	}

	campaigns, err := h.svc.RunDetection(r.Context())
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns":              campaigns,
		"total_detected":         len(campaigns),
		"total_attacks_analyzed": buffered,
	})
	h.logger.Info("campaign detection served",
		util.Int("campaigns", len(campaigns)),
		util.Duration("duration", time.Since(startTime)),
	)
}

// GetCampaign returns one registered campaign by id.
func (h *ThreatHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	campaign, err := h.svc.GetCampaign(campaignID)
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			h.respondWithError(w, http.StatusNotFound, err)
			return
		}
		h.respondWithError(w, http.StatusInternalServerError, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, campaign)
}

// GetCampaignForEvent returns the campaign id an event belongs to.
func (h *ThreatHandler) GetCampaignForEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	campaignID, err := h.svc.CampaignForEvent(eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotAssigned) {
			h.respondWithError(w, http.StatusNotFound, err)
			return
		}
		h.respondWithError(w, http.StatusInternalServerError, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"event_id":    eventID,
		"campaign_id": campaignID,
	})
}

func (h *ThreatHandler) GetBotDetection(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.svc.BotReport())
}

func (h *ThreatHandler) GetPeakHours(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.svc.PeakHours())
}

func (h *ThreatHandler) GetStatusCodes(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.svc.StatusCodes())
}

func (h *ThreatHandler) GetGeoDistribution(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.svc.GeoDistribution())
}

// WebSocket upgrades the connection and attaches the observer to the hub.
func (h *ThreatHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", util.ErrorField(err))
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)
	client.Start()

	client.Send(ws.Message{
		Type: ws.MessageTypeWelcome,
		Data: map[string]string{
			"message":   "Connected to Cyber Threat Dashboard",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})

	// Seed the new observer with one attack so the map is never empty.
	if h.emit != nil {
		client.Send(ws.Message{Type: ws.MessageTypeAttack, Data: h.emit()})
	}
}

func (h *ThreatHandler) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", util.ErrorField(err))
	}
}

func (h *ThreatHandler) respondWithError(w http.ResponseWriter, status int, err error) {
	h.respondWithJSON(w, status, map[string]string{"error": err.Error()})
}
