// internal/domain/models/records.go
package models

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Donation statuses.
const (
	DonationScheduled = "scheduled"
	DonationCompleted = "completed"
	DonationRejected  = "rejected"
)

// Request statuses.
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestFulfilled = "fulfilled"
)

// Request urgencies.
const (
	UrgencyLow      = "low"
	UrgencyModerate = "moderate"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// ValidUrgency reports whether u is one of the four urgency levels.
func ValidUrgency(u string) bool {
	switch u {
	case UrgencyLow, UrgencyModerate, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Location values written on request history entries.
const (
	LocationPendingAssignment = "Pending Assignment"
	LocationNotApplicable     = "N/A"
)

// DateLayout is the calendar-date format used for appointment and request
// dates (the same YYYY-MM-DD form the client displays).
const DateLayout = "2006-01-02"

// FormatDate renders t as YYYY-MM-DD in t's location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 timestamps.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// DonationRecord is one entry in a donor's donation history.
// Status moves scheduled -> completed | rejected exactly once.
type DonationRecord struct {
	ID       string `bson:"id" json:"id"`
	Date     string `bson:"date" json:"date"`
	Location string `bson:"location" json:"location"` // bank name at booking time
	BankID   string `bson:"bank_id,omitempty" json:"bank_id,omitempty"`
	Status   string `bson:"status" json:"status"`
}

// RequestRecord is a recipient's blood request. The same record (same ID)
// appears in current_requests while pending and in request_history forever.
type RequestRecord struct {
	ID          string    `bson:"id" json:"id"`
	BloodType   string    `bson:"blood_type" json:"blood_type"`
	Units       int       `bson:"units" json:"units"`
	Urgency     string    `bson:"urgency" json:"urgency"`
	RequestDate string    `bson:"request_date" json:"request_date"`
	Date        string    `bson:"date" json:"date"`
	Location    string    `bson:"location,omitempty" json:"location,omitempty"`
	Status      string    `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt   time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
}

// EffectiveDate returns Date, falling back to RequestDate.
func (r RequestRecord) EffectiveDate() string {
	if r.Date != "" {
		return r.Date
	}
	return r.RequestDate
}

// requestRecordWire is the tolerant on-disk shape of a request. Older
// documents used camelCase keys and the units/quantity and
// urgency/priority spellings interchangeably.
type requestRecordWire struct {
	ID             string        `bson:"id"`
	BloodType      string        `bson:"blood_type"`
	BloodTypeCamel string        `bson:"bloodType"`
	Type           string        `bson:"type"`
	Units          bson.RawValue `bson:"units"`
	Quantity       bson.RawValue `bson:"quantity"`
	Urgency        bson.RawValue `bson:"urgency"`
	Priority       bson.RawValue `bson:"priority"`
	RequestDate    string        `bson:"request_date"`
	RequestDateCam string        `bson:"requestDate"`
	Date           string        `bson:"date"`
	Location       string        `bson:"location"`
	Status         string        `bson:"status"`
	CreatedAt      time.Time     `bson:"created_at"`
}

// UnmarshalBSON folds legacy field variants into one normalized record.
// Units are coerced to a non-negative integer (unparseable -> 0) and the
// urgency is lower-cased.
func (r *RequestRecord) UnmarshalBSON(data []byte) error {
	var w requestRecordWire
	if err := bson.Unmarshal(data, &w); err != nil {
		return err
	}

	units := rawUnits(w.Units)
	if units == 0 {
		units = rawUnits(w.Quantity)
	}
	urgency := rawString(w.Urgency)
	if urgency == "" {
		urgency = rawString(w.Priority)
	}

	*r = RequestRecord{
		ID:          w.ID,
		BloodType:   firstNonEmpty(w.BloodType, w.BloodTypeCamel, w.Type),
		Units:       units,
		Urgency:     strings.ToLower(strings.TrimSpace(urgency)),
		RequestDate: firstNonEmpty(w.RequestDate, w.RequestDateCam),
		Date:        w.Date,
		Location:    w.Location,
		Status:      w.Status,
		CreatedAt:   w.CreatedAt,
	}
	return nil
}

// ParseUnits is a lenient integer parse: leading whitespace and sign are
// accepted, parsing stops at the first non-digit, and anything that does
// not start with a number (or is negative) yields 0.
func ParseUnits(s string) int {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 || neg {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func rawUnits(v bson.RawValue) int {
	var n int64
	switch v.Type {
	case bsontype.Int32:
		n = int64(v.Int32())
	case bsontype.Int64:
		n = v.Int64()
	case bsontype.Double:
		n = int64(v.Double())
	case bsontype.String:
		return ParseUnits(v.StringValue())
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return int(n)
}

func rawString(v bson.RawValue) string {
	if v.Type == bsontype.String {
		return v.StringValue()
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
