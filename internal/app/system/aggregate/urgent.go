package aggregate

import (
	"sort"
	"strconv"

	"github.com/dalemusser/bloodlink/internal/domain/models"
)

// UnknownUrgencyPolicy is the priority given to a request whose urgency is
// non-empty but not one of the known levels. Such requests are counted as
// urgent rather than dropped.
// TODO: confirm with product whether unknown urgencies should be excluded instead.
const UnknownUrgencyPolicy = models.UrgencyModerate

// UrgentNeed is an outstanding need for one blood type, summed over all
// pending moderate, high and critical requests.
type UrgentNeed struct {
	BloodType        string `json:"blood_type"`
	TotalUnitsNeeded int    `json:"total_units_needed"`
	RequestCount     int    `json:"request_count"`
	Priority         string `json:"priority"`
}

// severity ranks priorities; lower is more severe.
func severity(p string) int {
	switch p {
	case models.UrgencyCritical:
		return 1
	case models.UrgencyHigh:
		return 2
	case models.UrgencyModerate:
		return 3
	}
	return 4
}

// urgentPriority maps a normalized urgency to the priority it contributes,
// reporting false for urgencies that are not urgent at all.
func urgentPriority(urgency string) (string, bool) {
	switch urgency {
	case "", models.UrgencyLow:
		return "", false
	case models.UrgencyModerate, models.UrgencyHigh, models.UrgencyCritical:
		return urgency, true
	}
	return UnknownUrgencyPolicy, true
}

// outstanding returns a recipient's in-flight requests: current_requests
// plus any pending history entries that have no counterpart there. The two
// arrays normally hold the same record twice, so a history entry is matched
// by id, or by (date, blood type, units) for records written before ids.
func outstanding(a models.Account) []models.RequestRecord {
	out := make([]models.RequestRecord, 0, len(a.CurrentRequests))
	ids := make(map[string]bool)
	legacy := make(map[string]int)

	for _, r := range a.CurrentRequests {
		out = append(out, r)
		if r.ID != "" {
			ids[r.ID] = true
		} else {
			legacy[legacyKey(r)]++
		}
	}

	for _, r := range a.RequestHistory {
		if r.Status != models.RequestPending {
			continue
		}
		if r.ID != "" {
			if ids[r.ID] {
				continue
			}
		} else if k := legacyKey(r); legacy[k] > 0 {
			legacy[k]--
			continue
		}
		out = append(out, r)
	}
	return out
}

func legacyKey(r models.RequestRecord) string {
	return r.EffectiveDate() + "|" + r.BloodType + "|" + strconv.Itoa(r.Units)
}

// UrgentNeeds groups every outstanding moderate, high or critical request by
// blood type. Requests without a blood type or units are ignored. The result
// is ordered by priority (critical first), then total units descending, then
// blood type.
func UrgentNeeds(accounts []models.Account) []UrgentNeed {
	byType := make(map[string]*UrgentNeed)

	for _, rec := range recipients(accounts) {
		for _, r := range outstanding(rec) {
			if r.BloodType == "" || r.Units <= 0 {
				continue
			}
			prio, ok := urgentPriority(r.Urgency)
			if !ok {
				continue
			}

			n := byType[r.BloodType]
			if n == nil {
				n = &UrgentNeed{BloodType: r.BloodType, Priority: prio}
				byType[r.BloodType] = n
			}
			n.TotalUnitsNeeded += r.Units
			n.RequestCount++
			if severity(prio) < severity(n.Priority) {
				n.Priority = prio
			}
		}
	}

	out := make([]UrgentNeed, 0, len(byType))
	for _, n := range byType {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := severity(out[i].Priority), severity(out[j].Priority)
		if si != sj {
			return si < sj
		}
		if out[i].TotalUnitsNeeded != out[j].TotalUnitsNeeded {
			return out[i].TotalUnitsNeeded > out[j].TotalUnitsNeeded
		}
		return out[i].BloodType < out[j].BloodType
	})
	return out
}
