package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"lead-intake/internal/models"
	"lead-intake/internal/service"
	"lead-intake/internal/util"
)

const (
	msgSuccess          = "So'rovingiz muvaffaqiyatli qabul qilindi!"
	msgMethodNotAllowed = "Faqat POST metodi qo'llaniladi."
	msgRateLimited      = "Juda ko'p so'rov. Iltimos, 1 daqiqa kuting."
	msgSpam             = "Spam aniqlandi."
	msgMissingFields    = "Barcha maydonlarni to'ldiring."
	msgBadRequest       = "Noto'g'ri so'rov formati."
	msgServerError      = "Server xatosi. Iltimos, keyinroq urinib ko'ring."
	msgDeliveryFailed   = "Xabar yuborishda xatolik. Iltimos, keyinroq urinib ko'ring."
	msgNotFound         = "Sahifa topilmadi."
)

// Response is the body of every contact endpoint reply
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LeadSubmitter is the service the handler drives
type LeadSubmitter interface {
	Submit(ctx context.Context, clientID string, sub *models.Submission) (*models.Lead, error)
	Policy() service.Policy
}

// LeadHandler serves the contact form endpoint
type LeadHandler struct {
	leads        LeadSubmitter
	logger       *zap.Logger
	maxBodyBytes int64
}

func NewLeadHandler(leads LeadSubmitter, logger *zap.Logger, maxBodyBytes int64) *LeadHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 * 1024
	}
	return &LeadHandler{
		leads:        leads,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// RegisterRoutes mounts the contact endpoint; chi answers other methods via MethodNotAllowed
func (h *LeadHandler) RegisterRoutes(router chi.Router) {
	router.Post("/contact", h.SubmitLead)
	router.Options("/contact", h.Preflight)
}

// SubmitLead handles a contact form submission
func (h *LeadHandler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	var sub models.Submission
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&sub); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Errorf("decode submission: %w", err), msgBadRequest)
		return
	}

	clientID := ClientIdentifier(r)
	lead, err := h.leads.Submit(r.Context(), clientID, &sub)
	if err != nil {
		h.respondWithError(w, getStatusCode(err), err, h.userMessage(err))
		return
	}

	h.respondWithJSON(w, http.StatusOK, Response{Success: true, Message: msgSuccess})
	h.logger.Debug("Lead submitted via HTTP",
		util.String("lead_id", lead.ID.String()),
		util.String("request_id", middleware.GetReqID(r.Context())),
		util.Duration("duration", time.Since(startTime)),
	)
}

// Preflight answers a bare OPTIONS request with 200 and no body
func (h *LeadHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ClientIdentifier returns the caller's address. middleware.RealIP has already
// replaced RemoteAddr with the forwarded address when one was present.
func ClientIdentifier(r *http.Request) string {
	addr := r.RemoteAddr
	if addr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func (h *LeadHandler) userMessage(err error) string {
	policy := h.leads.Policy()
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return msgRateLimited
	case errors.Is(err, service.ErrSpamDetected):
		return msgSpam
	case errors.Is(err, service.ErrMissingFields):
		return msgMissingFields
	case errors.Is(err, service.ErrInvalidName):
		return fmt.Sprintf("Ism kamida %d ta belgidan iborat bo'lsin.", policy.NameMinLength)
	case errors.Is(err, service.ErrInvalidPhone):
		return fmt.Sprintf("Telefon raqam %s formatida bo'lsin.", policy.PhoneFormatHint())
	case errors.Is(err, service.ErrInvalidMessage):
		return fmt.Sprintf("Izoh kamida %d ta belgidan iborat bo'lsin.", policy.MessageMinLength)
	case errors.Is(err, service.ErrInvalidInput):
		return msgBadRequest
	case errors.Is(err, service.ErrDeliveryFailed):
		return msgDeliveryFailed
	default:
		return msgServerError
	}
}

// getStatusCode determines the HTTP status code for a pipeline error
func getStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *LeadHandler) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, data, h.logger)
}

// respondWithError logs the internal error and sends only the user-facing message
func (h *LeadHandler) respondWithError(w http.ResponseWriter, statusCode int, err error, message string) {
	log := h.logger.Info
	if statusCode >= http.StatusInternalServerError {
		log = h.logger.Error
	}
	log("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)
	h.respondWithJSON(w, statusCode, Response{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}
