package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/internal/platform/plan"
	"github.com/servostack/paydesk/internal/transport/httpapi/middleware"
)

// PlanService defines the plan operations PlanHandler needs
type PlanService interface {
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*plan.Plan, error)
}

// PlanHandler serves the authenticated user's plans
type PlanHandler struct {
	plans PlanService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(plans PlanService) *PlanHandler {
	return &PlanHandler{plans: plans}
}

// PlanResponse is a plan with its renewal cost rendered for display and
// the window the next approved renewal would cover
type PlanResponse struct {
	*plan.Plan
	RenewalCostDisplay string      `json:"renewalCostDisplay"`
	NextRenewalWindow  plan.Window `json:"nextRenewalWindow"`
}

// GetPlans handles GET /plans
func (h *PlanHandler) GetPlans(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	plans, err := h.plans.ListByUserID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}

	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanResponse{
			Plan:               p,
			RenewalCostDisplay: p.RenewalCost.String(),
			NextRenewalWindow:  p.RenewalWindow(),
		})
	}

	respondData(w, http.StatusOK, out)
}
