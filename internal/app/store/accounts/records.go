package accountstore

import (
	"context"
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Writes to the embedded request and donation arrays. Every transition is
// a single conditional update: the filter requires the entry to still be
// in its source state, so a stale or repeated call matches nothing and
// returns false rather than overwriting a terminal record.

// PushDonation appends a donation to a donor's history.
// Returns false if no donor with that id exists.
func (s *Store) PushDonation(ctx context.Context, donorID primitive.ObjectID, d models.DonationRecord) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": donorID, "role": models.RoleDonor},
		bson.M{
			"$push": bson.M{"donation_history": d},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// PushRequest appends a request to both current_requests and
// request_history in one update. The current copy carries no status or
// location; the history copy is pending at "Pending Assignment".
func (s *Store) PushRequest(ctx context.Context, recipientID primitive.ObjectID, r models.RequestRecord) (bool, error) {
	current := r
	current.Status = ""
	current.Location = ""

	history := r
	history.Status = models.RequestPending
	history.Location = models.LocationPendingAssignment

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": recipientID, "role": models.RoleRecipient},
		bson.M{
			"$push": bson.M{
				"current_requests": current,
				"request_history":  history,
			},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// ResolveRequest moves the pending history entry addressed by ref to
// status at location, and removes the matching entry from
// current_requests, in one write. Returns false if no pending entry
// matched.
func (s *Store) ResolveRequest(ctx context.Context, recipientID primitive.ObjectID, ref, status, location string) (bool, error) {
	elem := requestMatch(ref)
	elem["status"] = models.RequestPending

	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":             recipientID,
			"request_history": bson.M{"$elemMatch": elem},
		},
		bson.M{
			"$set": bson.M{
				"request_history.$.status":   status,
				"request_history.$.location": location,
				"updated_at":                 time.Now().UTC(),
			},
			"$pull": bson.M{"current_requests": requestMatch(ref)},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// CompleteDonation marks the scheduled donation addressed by ref as
// completed, increments total_donations and sets last_donation to date.
// Returns false if no scheduled entry matched.
func (s *Store) CompleteDonation(ctx context.Context, donorID primitive.ObjectID, ref, date string) (bool, error) {
	elem := donationMatch(ref)
	elem["status"] = models.DonationScheduled

	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":              donorID,
			"donation_history": bson.M{"$elemMatch": elem},
		},
		bson.M{
			"$set": bson.M{
				"donation_history.$.status": models.DonationCompleted,
				"last_donation":             date,
				"updated_at":                time.Now().UTC(),
			},
			"$inc": bson.M{"total_donations": 1},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// RejectDonation marks the scheduled donation addressed by ref as
// rejected. Counters are untouched. Returns false if no scheduled entry
// matched.
func (s *Store) RejectDonation(ctx context.Context, donorID primitive.ObjectID, ref string) (bool, error) {
	elem := donationMatch(ref)
	elem["status"] = models.DonationScheduled

	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":              donorID,
			"donation_history": bson.M{"$elemMatch": elem},
		},
		bson.M{"$set": bson.M{
			"donation_history.$.status": models.DonationRejected,
			"updated_at":                time.Now().UTC(),
		}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// requestMatch is the array-element condition for a request ref. Legacy
// refs match entries without an id by date and blood type, under any of
// the field spellings older documents used.
func requestMatch(ref string) bson.M {
	id, date, bloodType, legacy := models.ParseRequestRef(ref)
	if !legacy {
		return bson.M{"id": id}
	}
	return bson.M{"$and": bson.A{
		noID(),
		bson.M{"$or": bson.A{
			bson.M{"date": date},
			bson.M{"request_date": date},
			bson.M{"requestDate": date},
		}},
		bson.M{"$or": bson.A{
			bson.M{"blood_type": bloodType},
			bson.M{"bloodType": bloodType},
			bson.M{"type": bloodType},
		}},
	}}
}

// donationMatch is the array-element condition for a donation ref.
func donationMatch(ref string) bson.M {
	id, date, legacy := models.ParseDonationRef(ref)
	if !legacy {
		return bson.M{"id": id}
	}
	return bson.M{"$and": bson.A{noID(), bson.M{"date": date}}}
}

func noID() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"id": bson.M{"$exists": false}},
		bson.M{"id": ""},
	}}
}
