/**
 * @description
 * This file contains the HTTP handlers for the scan endpoints: processing a
 * credential at the entrance kiosk, querying the ledger, the stats projection,
 * and the one-shot manual override. Handlers parse requests, call the
 * application service, and map domain sentinels to HTTP statuses.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/juanelvasco/piletaTIP-sub000/internal/app"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
	"github.com/juanelvasco/piletaTIP-sub000/internal/store"
)

// Handlers holds the application service that handlers will use, plus the
// facility's time zone for interpreting date query parameters.
type Handlers struct {
	service  *app.Service
	location *time.Location
}

// NewHandlers creates a new instance of Handlers. A nil location means the
// facility runs on UTC.
func NewHandlers(service *app.Service, location *time.Location) *Handlers {
	if location == nil {
		location = time.UTC
	}
	return &Handlers{service: service, location: location}
}

// ProcessScanHandler handles a credential scan at the entrance kiosk.
// Status mapping: 200 granted, 403 denied for a known member, 404 when the
// credential itself is not recognized. The decision body is the same shape in
// all three cases.
func (h *Handlers) ProcessScanHandler(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := GetOperatorID(r.Context())
	if !ok {
		http.Error(w, "Could not get operator ID from context", http.StatusInternalServerError)
		return
	}

	var req domain.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=process_scan outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	decision, err := h.service.ProcessScan(r.Context(), operatorID, req)
	if err != nil {
		if errors.Is(err, app.ErrEmptyCredential) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, app.ErrScanRateLimited) {
			h.writeError(w, http.StatusTooManyRequests, "Too many scans; slow down")
			return
		}
		log.Printf("level=error component=api endpoint=process_scan msg=\"scan processing failed\" operator_id=%s err=%v", operatorID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to process scan")
		return
	}

	status := http.StatusOK
	if !decision.Granted {
		status = http.StatusForbidden
		if decision.ReasonCode != nil && *decision.ReasonCode == domain.ReasonCredentialInvalid {
			status = http.StatusNotFound
		}
	}
	h.writeJSON(w, status, decision)
}

// ListScansHandler returns a page of ledger entries, newest first.
// Filters: date_from, date_to (inclusive day boundaries), outcome, search,
// page, page_size.
func (h *Handlers) ListScansHandler(w http.ResponseWriter, r *http.Request) {
	opts := domain.ScanListOptions{
		Outcome: strings.TrimSpace(r.URL.Query().Get("outcome")),
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
	}

	var err error
	if opts.DateFrom, err = h.parseDateParam(r, "date_from", false); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.DateTo, err = h.parseDateParam(r, "date_to", true); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Outcome != "" && opts.Outcome != domain.OutcomeGranted && opts.Outcome != domain.OutcomeDenied {
		h.writeError(w, http.StatusBadRequest, "outcome must be 'granted' or 'denied'")
		return
	}
	opts.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	opts.PageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))

	page, err := h.service.ListScans(r.Context(), opts)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_scans msg=\"ledger query failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to list scans")
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// GetScanHandler returns one ledger entry by id.
func (h *Handlers) GetScanHandler(w http.ResponseWriter, r *http.Request) {
	scanID, ok := h.parseIDParam(w, r, "scanID")
	if !ok {
		return
	}

	scan, err := h.service.GetScan(r.Context(), scanID)
	if err != nil {
		if errors.Is(err, store.ErrScanNotFound) {
			h.writeError(w, http.StatusNotFound, "Scan not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_scan msg=\"scan lookup failed\" scan_id=%s err=%v", scanID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch scan")
		return
	}
	h.writeJSON(w, http.StatusOK, scan)
}

// ScanStatsHandler returns ledger totals by outcome and reason over an
// optional date range.
func (h *Handlers) ScanStatsHandler(w http.ResponseWriter, r *http.Request) {
	dateFrom, err := h.parseDateParam(r, "date_from", false)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dateTo, err := h.parseDateParam(r, "date_to", true)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.service.ScanStats(r.Context(), dateFrom, dateTo)
	if err != nil {
		log.Printf("level=error component=api endpoint=scan_stats msg=\"stats query failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to compute scan stats")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// OverrideScanHandler retroactively denies a previously granted scan.
// Exactly once per scan: a second attempt, or an attempt on a denied scan,
// returns 409.
func (h *Handlers) OverrideScanHandler(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := GetOperatorID(r.Context())
	if !ok {
		http.Error(w, "Could not get operator ID from context", http.StatusInternalServerError)
		return
	}
	scanID, ok := h.parseIDParam(w, r, "scanID")
	if !ok {
		return
	}

	var req domain.OverrideScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	scan, err := h.service.OverrideScan(r.Context(), scanID, operatorID, req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidOverrideReason) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, store.ErrScanNotFound) {
			h.writeError(w, http.StatusNotFound, "Scan not found")
			return
		}
		if errors.Is(err, store.ErrScanNotOverridable) {
			h.writeError(w, http.StatusConflict, "Scan was not granted or has already been overridden")
			return
		}
		log.Printf("level=error component=api endpoint=override_scan msg=\"override failed\" scan_id=%s err=%v", scanID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to override scan")
		return
	}

	log.Printf("level=info component=api endpoint=override_scan outcome=overridden scan_id=%s operator_id=%s", scanID, operatorID)
	h.writeJSON(w, http.StatusOK, scan)
}

// parseIDParam reads a UUID path parameter, writing a 400 on failure.
func (h *Handlers) parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid id in URL")
		return uuid.Nil, false
	}
	return id, true
}

// parseDateParam reads a YYYY-MM-DD query parameter as a facility-local day
// and converts it to the UTC instant used by the store. Upper bounds are
// pushed to the end of the day so the range is inclusive.
func (h *Handlers) parseDateParam(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, h.location)
	if err != nil {
		return nil, errors.New(name + " must be formatted as YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	t = t.UTC()
	return &t, nil
}

// writeJSON is a helper for writing JSON responses.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
