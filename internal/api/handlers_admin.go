/**
 * @description
 * This file contains the HTTP handlers for the administrative surface: member
 * registration and suspension, subscription sales and payment, health
 * certificate issuance, and the plan catalog.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/juanelvasco/piletaTIP-sub000/internal/app"
	"github.com/juanelvasco/piletaTIP-sub000/internal/domain"
	"github.com/juanelvasco/piletaTIP-sub000/internal/store"
)

// CreateMemberHandler registers a new member and issues their credential.
func (h *Handlers) CreateMemberHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member, err := h.service.CreateMember(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidMemberData) || errors.Is(err, app.ErrInvalidRole) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, store.ErrDuplicateNationalID) {
			h.writeError(w, http.StatusConflict, "A member with this national id already exists")
			return
		}
		log.Printf("level=error component=api endpoint=create_member msg=\"member creation failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to create member")
		return
	}
	h.writeJSON(w, http.StatusCreated, member)
}

// GetMemberHandler returns a member by id.
func (h *Handlers) GetMemberHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.parseIDParam(w, r, "memberID")
	if !ok {
		return
	}

	member, err := h.service.GetMember(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, store.ErrMemberNotFound) {
			h.writeError(w, http.StatusNotFound, "Member not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_member msg=\"member lookup failed\" member_id=%s err=%v", memberID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch member")
		return
	}
	h.writeJSON(w, http.StatusOK, member)
}

// SuspendMemberHandler bans a member until reinstated.
func (h *Handlers) SuspendMemberHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.parseIDParam(w, r, "memberID")
	if !ok {
		return
	}

	var req domain.SuspendMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SuspendMember(r.Context(), memberID, req.Reason); err != nil {
		if errors.Is(err, store.ErrMemberNotFound) {
			h.writeError(w, http.StatusNotFound, "Member not found")
			return
		}
		log.Printf("level=error component=api endpoint=suspend_member msg=\"suspension failed\" member_id=%s err=%v", memberID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to suspend member")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "suspended"})
}

// ReinstateMemberHandler lifts a suspension.
func (h *Handlers) ReinstateMemberHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.parseIDParam(w, r, "memberID")
	if !ok {
		return
	}

	if err := h.service.ReinstateMember(r.Context(), memberID); err != nil {
		if errors.Is(err, store.ErrMemberNotFound) {
			h.writeError(w, http.StatusNotFound, "Member not found")
			return
		}
		log.Printf("level=error component=api endpoint=reinstate_member msg=\"reinstatement failed\" member_id=%s err=%v", memberID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to reinstate member")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reinstated"})
}

// RotateCredentialHandler issues a fresh credential, invalidating the old QR code.
func (h *Handlers) RotateCredentialHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.parseIDParam(w, r, "memberID")
	if !ok {
		return
	}

	member, err := h.service.RotateCredential(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, store.ErrMemberNotFound) {
			h.writeError(w, http.StatusNotFound, "Member not found")
			return
		}
		log.Printf("level=error component=api endpoint=rotate_credential msg=\"rotation failed\" member_id=%s err=%v", memberID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to rotate credential")
		return
	}
	h.writeJSON(w, http.StatusOK, member)
}

// SetCurrentSubscriptionHandler reassigns the member's current subscription.
// This endpoint is the only writer of that pointer.
func (h *Handlers) SetCurrentSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.parseIDParam(w, r, "memberID")
	if !ok {
		return
	}

	var req struct {
		SubscriptionID string `json:"subscription_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	subscriptionID, err := uuid.Parse(req.SubscriptionID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "subscription_id must be a valid UUID")
		return
	}

	if err := h.service.SetCurrentSubscription(r.Context(), memberID, subscriptionID); err != nil {
		if errors.Is(err, store.ErrMemberNotFound) {
			h.writeError(w, http.StatusNotFound, "Member not found")
			return
		}
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			h.writeError(w, http.StatusNotFound, "Subscription not found")
			return
		}
		if errors.Is(err, app.ErrSubscriptionOwnership) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=set_current_subscription msg=\"reassignment failed\" member_id=%s err=%v", memberID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to set current subscription")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// CreateSubscriptionHandler sells a subscription. It starts unpaid and
// inactive; payment is a separate transition.
func (h *Handlers) CreateSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.service.CreateSubscription(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrMemberNotFound) {
			h.writeError(w, http.StatusNotFound, "Member not found")
			return
		}
		if errors.Is(err, store.ErrPlanNotFound) {
			h.writeError(w, http.StatusNotFound, "Plan not found")
			return
		}
		if errors.Is(err, app.ErrPlanInactive) {
			h.writeError(w, http.StatusBadRequest, "Plan is inactive; an explicit price is required")
			return
		}
		log.Printf("level=error component=api endpoint=create_subscription msg=\"subscription creation failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to create subscription")
		return
	}
	h.writeJSON(w, http.StatusCreated, sub)
}

// GetSubscriptionHandler returns a subscription by id.
func (h *Handlers) GetSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	subscriptionID, ok := h.parseIDParam(w, r, "subscriptionID")
	if !ok {
		return
	}

	sub, err := h.service.GetSubscription(r.Context(), subscriptionID)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			h.writeError(w, http.StatusNotFound, "Subscription not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_subscription msg=\"subscription lookup failed\" subscription_id=%s err=%v", subscriptionID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch subscription")
		return
	}
	h.writeJSON(w, http.StatusOK, sub)
}

// PaySubscriptionHandler marks a subscription paid. Paying twice is a conflict.
func (h *Handlers) PaySubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	subscriptionID, ok := h.parseIDParam(w, r, "subscriptionID")
	if !ok {
		return
	}

	var req domain.PaySubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.service.MarkSubscriptionPaid(r.Context(), subscriptionID, req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidPaymentMethod) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			h.writeError(w, http.StatusNotFound, "Subscription not found")
			return
		}
		if errors.Is(err, store.ErrSubscriptionAlreadyPaid) {
			h.writeError(w, http.StatusConflict, "Subscription has already been paid")
			return
		}
		log.Printf("level=error component=api endpoint=pay_subscription msg=\"payment failed\" subscription_id=%s err=%v", subscriptionID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to mark subscription paid")
		return
	}
	h.writeJSON(w, http.StatusOK, sub)
}

// CreateCertificateHandler issues or renews a member's health certificate.
func (h *Handlers) CreateCertificateHandler(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := GetOperatorID(r.Context())
	if !ok {
		http.Error(w, "Could not get operator ID from context", http.StatusInternalServerError)
		return
	}

	var req domain.CreateCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cert, err := h.service.CreateOrRenewCertificate(r.Context(), operatorID, req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidValidityDays) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, store.ErrMemberNotFound) {
			h.writeError(w, http.StatusNotFound, "Member not found")
			return
		}
		log.Printf("level=error component=api endpoint=create_certificate msg=\"certificate issuance failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to issue certificate")
		return
	}
	h.writeJSON(w, http.StatusCreated, cert)
}

// RenewCertificateHandler renews an existing certificate by its own id.
func (h *Handlers) RenewCertificateHandler(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := GetOperatorID(r.Context())
	if !ok {
		http.Error(w, "Could not get operator ID from context", http.StatusInternalServerError)
		return
	}
	certificateID, ok := h.parseIDParam(w, r, "certificateID")
	if !ok {
		return
	}

	var req struct {
		ValidityDays int    `json:"validity_days"`
		Notes        string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cert, err := h.service.RenewCertificateByID(r.Context(), certificateID, operatorID, req.ValidityDays, req.Notes)
	if err != nil {
		if errors.Is(err, app.ErrInvalidValidityDays) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, store.ErrCertificateNotFound) {
			h.writeError(w, http.StatusNotFound, "Certificate not found")
			return
		}
		log.Printf("level=error component=api endpoint=renew_certificate msg=\"renewal failed\" certificate_id=%s err=%v", certificateID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to renew certificate")
		return
	}
	h.writeJSON(w, http.StatusOK, cert)
}

// ListPlansHandler returns the plan catalog.
func (h *Handlers) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	plans, err := h.service.ListPlans(r.Context(), includeInactive)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_plans msg=\"catalog query failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to list plans")
		return
	}
	h.writeJSON(w, http.StatusOK, plans)
}

// CreatePlanHandler adds a plan to the catalog.
func (h *Handlers) CreatePlanHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.UpsertPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidPlanData) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=create_plan msg=\"plan creation failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to create plan")
		return
	}
	h.writeJSON(w, http.StatusCreated, plan)
}

// UpdatePlanHandler rewrites a catalog entry.
func (h *Handlers) UpdatePlanHandler(w http.ResponseWriter, r *http.Request) {
	planID, ok := h.parseIDParam(w, r, "planID")
	if !ok {
		return
	}

	var req domain.UpsertPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.service.UpdatePlan(r.Context(), planID, req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidPlanData) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, store.ErrPlanNotFound) {
			h.writeError(w, http.StatusNotFound, "Plan not found")
			return
		}
		if errors.Is(err, app.ErrLastActivePlan) {
			h.writeError(w, http.StatusConflict, "Cannot deactivate the last active plan")
			return
		}
		log.Printf("level=error component=api endpoint=update_plan msg=\"plan update failed\" plan_id=%s err=%v", planID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to update plan")
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

// DeletePlanHandler removes a catalog entry.
func (h *Handlers) DeletePlanHandler(w http.ResponseWriter, r *http.Request) {
	planID, ok := h.parseIDParam(w, r, "planID")
	if !ok {
		return
	}

	if err := h.service.DeletePlan(r.Context(), planID); err != nil {
		if errors.Is(err, store.ErrPlanNotFound) {
			h.writeError(w, http.StatusNotFound, "Plan not found")
			return
		}
		if errors.Is(err, app.ErrLastActivePlan) {
			h.writeError(w, http.StatusConflict, "Cannot delete the last active plan")
			return
		}
		log.Printf("level=error component=api endpoint=delete_plan msg=\"plan deletion failed\" plan_id=%s err=%v", planID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to delete plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettingsHandler returns the facility settings singleton.
func (h *Handlers) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=get_settings msg=\"settings lookup failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch settings")
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}
