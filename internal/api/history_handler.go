package api

import (
	"log/slog"
	"net/http"

	"github.com/imunetrack/imunetrack-api/internal/api/shared"
	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/platform/logger"
	"github.com/imunetrack/imunetrack-api/internal/service"
	"github.com/imunetrack/imunetrack-api/internal/store"
)

// HistoryHandler serves a user's vaccination history. Every route is nested
// under /api/users/{userID}, and records of other users are reported as not
// found.
type HistoryHandler struct {
	doseService service.DoseService
	logger      *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(doseService service.DoseService, logger *slog.Logger) *HistoryHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for HistoryHandler")
	}
	return &HistoryHandler{
		doseService: doseService,
		logger:      logger.With(slog.String("component", "history_handler")),
	}
}

// ListHistory handles GET /api/users/{userID}/history with the optional
// year, month, vaccine_id and status filters.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	filter, err := historyFilter(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	records, err := h.doseService.ListDoseRecords(r.Context(), userID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list vaccination history")
		return
	}

	resp := make([]DoseRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, doseRecordToResponse(rec))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

func historyFilter(r *http.Request) (store.DoseRecordFilter, error) {
	var filter store.DoseRecordFilter
	var err error

	if filter.Year, err = queryInt(r, "year"); err != nil {
		return filter, err
	}
	if filter.Month, err = queryInt(r, "month"); err != nil {
		return filter, err
	}
	if filter.VaccineID, err = queryInt64(r, "vaccine_id"); err != nil {
		return filter, err
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := parseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	return filter, nil
}

// CreateRecord handles POST /api/users/{userID}/history.
func (h *HistoryHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req DoseRecordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var status domain.DoseStatus
	if req.Status != "" {
		if status, err = parseStatus(req.Status); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	}

	record, err := h.doseService.CreateDoseRecord(r.Context(), userID, service.NewDoseRecord{
		VaccineID:    req.VaccineID,
		DoseNumber:   req.DoseNumber,
		Status:       status,
		AppliedOn:    timePtr(req.AppliedOn),
		ExpectedOn:   timePtr(req.ExpectedOn),
		Lot:          req.Lot,
		Site:         req.Site,
		Professional: req.Professional,
		Notes:        req.Notes,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create dose record")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, doseRecordToResponse(record))
}

// Statistics handles GET /api/users/{userID}/history/statistics.
func (h *HistoryHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	stats, err := h.doseService.Statistics(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, statisticsToResponse(stats))
}

// recordPath extracts the user and record IDs shared by the single-record
// routes. It writes the error response itself.
func recordPath(w http.ResponseWriter, r *http.Request) (userID, recordID int64, ok bool) {
	userID, err := getPathID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return 0, 0, false
	}
	recordID, err = getPathID(r, "recordID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return 0, 0, false
	}
	return userID, recordID, true
}

// GetRecord handles GET /api/users/{userID}/history/{recordID}.
func (h *HistoryHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	userID, recordID, ok := recordPath(w, r)
	if !ok {
		return
	}

	record, err := h.doseService.GetDoseRecord(r.Context(), recordID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve dose record")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, doseRecordToResponse(record))
}

// UpdateRecord handles PUT /api/users/{userID}/history/{recordID}.
func (h *HistoryHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	userID, recordID, ok := recordPath(w, r)
	if !ok {
		return
	}

	var req UpdateDoseRecordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	upd := service.DoseRecordUpdate{
		DoseNumber:   req.DoseNumber,
		AppliedOn:    timePtr(req.AppliedOn),
		ExpectedOn:   timePtr(req.ExpectedOn),
		Lot:          req.Lot,
		Site:         req.Site,
		Professional: req.Professional,
		Notes:        req.Notes,
	}
	if req.Status != nil {
		status, err := parseStatus(*req.Status)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		upd.Status = &status
	}

	record, err := h.doseService.UpdateDoseRecord(r.Context(), recordID, userID, upd)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update dose record")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, doseRecordToResponse(record))
}

// ApplyDose handles PATCH /api/users/{userID}/history/{recordID}/apply.
func (h *HistoryHandler) ApplyDose(w http.ResponseWriter, r *http.Request) {
	userID, recordID, ok := recordPath(w, r)
	if !ok {
		return
	}

	var req ApplyDoseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	record, err := h.doseService.MarkDoseApplied(r.Context(), recordID, userID, service.Application{
		AppliedOn:    req.AppliedOn.Time,
		Lot:          req.Lot,
		Site:         req.Site,
		Professional: req.Professional,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to apply dose")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("dose applied via API",
		slog.Int64("record_id", record.ID))
	shared.RespondWithJSON(w, r, http.StatusOK, doseRecordToResponse(record))
}

// DeleteRecord handles DELETE /api/users/{userID}/history/{recordID}.
func (h *HistoryHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	userID, recordID, ok := recordPath(w, r)
	if !ok {
		return
	}

	if err := h.doseService.DeleteDoseRecord(r.Context(), recordID, userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete dose record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
