package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/imunetrack/imunetrack-api/internal/api/shared"
	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/service"
)

// VaccineHandler serves the vaccine catalog.
type VaccineHandler struct {
	vaccineService service.VaccineService
	logger         *slog.Logger
}

// NewVaccineHandler creates a VaccineHandler.
func NewVaccineHandler(vaccineService service.VaccineService, logger *slog.Logger) *VaccineHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for VaccineHandler")
	}
	return &VaccineHandler{
		vaccineService: vaccineService,
		logger:         logger.With(slog.String("component", "vaccine_handler")),
	}
}

// ListVaccines handles GET /api/vaccines. ?name= returns the single matching
// vaccine; ?doses= filters by dose count.
func (h *VaccineHandler) ListVaccines(w http.ResponseWriter, r *http.Request) {
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		vaccine, err := h.vaccineService.GetVaccineByName(r.Context(), name)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to retrieve vaccine")
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, vaccineToResponse(vaccine))
		return
	}

	doses, err := queryInt(r, "doses")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var vaccines []*domain.Vaccine
	if doses != nil {
		vaccines, err = h.vaccineService.ListVaccinesByDoseCount(r.Context(), *doses)
	} else {
		vaccines, err = h.vaccineService.ListVaccines(r.Context())
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list vaccines")
		return
	}

	resp := make([]VaccineResponse, 0, len(vaccines))
	for _, v := range vaccines {
		resp = append(resp, vaccineToResponse(v))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// CreateVaccine handles POST /api/vaccines.
func (h *VaccineHandler) CreateVaccine(w http.ResponseWriter, r *http.Request) {
	var req VaccineRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	vaccine, err := h.vaccineService.CreateVaccine(r.Context(), req.Name, req.DoseCount)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create vaccine")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, vaccineToResponse(vaccine))
}

// GetVaccine handles GET /api/vaccines/{vaccineID}.
func (h *VaccineHandler) GetVaccine(w http.ResponseWriter, r *http.Request) {
	vaccineID, err := getPathID(r, "vaccineID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	vaccine, err := h.vaccineService.GetVaccine(r.Context(), vaccineID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve vaccine")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, vaccineToResponse(vaccine))
}

// UpdateVaccine handles PUT /api/vaccines/{vaccineID}.
func (h *VaccineHandler) UpdateVaccine(w http.ResponseWriter, r *http.Request) {
	vaccineID, err := getPathID(r, "vaccineID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateVaccineRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Name == nil && req.DoseCount == nil {
		HandleAPIError(w, r, domain.NewValidationError("", "at least one field must be provided", nil), "")
		return
	}

	vaccine, err := h.vaccineService.UpdateVaccine(r.Context(), vaccineID, service.VaccineUpdate{
		Name:      req.Name,
		DoseCount: req.DoseCount,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update vaccine")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, vaccineToResponse(vaccine))
}

// DeleteVaccine handles DELETE /api/vaccines/{vaccineID}. The vaccine's dose
// records are removed with it.
func (h *VaccineHandler) DeleteVaccine(w http.ResponseWriter, r *http.Request) {
	vaccineID, err := getPathID(r, "vaccineID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.vaccineService.DeleteVaccine(r.Context(), vaccineID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete vaccine")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
