// internal/app/features/admin/rules.go
package admin

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.uber.org/zap"
)

type rulesInput struct {
	MinimumAge         int      `json:"minimum_age"`
	MaximumAge         int      `json:"maximum_age"`
	MinimumWeight      int      `json:"minimum_weight"`
	DonationInterval   int      `json:"donation_interval"`
	HealthRequirements []string `json:"health_requirements"`
}

func (in rulesInput) validate() (models.DonationRules, map[string]string) {
	bad := map[string]string{}
	if in.MinimumAge <= 0 {
		bad["minimum_age"] = "Minimum age must be greater than zero."
	}
	if in.MaximumAge < in.MinimumAge {
		bad["maximum_age"] = "Maximum age cannot be below the minimum age."
	}
	if in.MinimumWeight <= 0 {
		bad["minimum_weight"] = "Minimum weight must be greater than zero."
	}
	if in.DonationInterval <= 0 {
		bad["donation_interval"] = "Donation interval must be at least one day."
	}

	reqs := make([]string, 0, len(in.HealthRequirements))
	for _, s := range in.HealthRequirements {
		if s = strings.TrimSpace(htmlsanitize.PlainText(s)); s != "" {
			reqs = append(reqs, s)
		}
	}

	return models.DonationRules{
		ID:                 models.DonationRulesID,
		MinimumAge:         in.MinimumAge,
		MaximumAge:         in.MaximumAge,
		MinimumWeight:      in.MinimumWeight,
		DonationInterval:   in.DonationInterval,
		HealthRequirements: reqs,
	}, bad
}

// HandleSaveRules handles PUT /admin/rules. The whole document is
// replaced; an empty health requirement list reads back as the defaults.
func (h *Handler) HandleSaveRules(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var in rulesInput
	if err := uierrors.DecodeJSON(r, &in); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}
	rules, bad := in.validate()
	if len(bad) > 0 {
		uierrors.Fields(w, "Please correct the highlighted fields.", bad)
		return
	}
	rules.UpdatedByName = sess.Name

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Settings.SaveDonationRules(ctx, rules); err != nil {
		h.ErrLog.Render(w, r, "save donation rules", err)
		return
	}
	saved, err := h.Settings.GetDonationRules(ctx)
	if err != nil {
		h.ErrLog.Render(w, r, "reload donation rules", err)
		return
	}

	h.Log.Info("donation rules updated",
		zap.String("admin_id", sess.AccountID.Hex()),
		zap.Int("donation_interval", saved.DonationInterval))
	uierrors.JSON(w, http.StatusOK, saved)
}
