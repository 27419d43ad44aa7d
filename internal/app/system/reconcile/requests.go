package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/system/mailer"
	"github.com/dalemusser/bloodlink/internal/app/system/normalize"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/app/system/txn"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Approval describes a committed approval.
type Approval struct {
	RecipientID primitive.ObjectID   `json:"recipient_id"`
	Request     models.RequestRecord `json:"request"`
	BankID      primitive.ObjectID   `json:"bank_id"`
	BankName    string               `json:"bank_name"`
	Remaining   int                  `json:"remaining_units"`
}

// ApproveRequest fulfils a pending request from a bank: the bank loses
// the requested units and the request becomes approved at that bank,
// together or not at all.
//
// With transactions the body re-reads both documents on every retry and
// any failed guard aborts with no writes. Without them the bank debit is
// re-credited if the recipient write does not land.
func (w *Workflow) ApproveRequest(ctx context.Context, s Session, recipientID primitive.ObjectID, ref string, bankID primitive.ObjectID) (Approval, error) {
	if err := s.require(models.RoleAdmin); err != nil {
		return Approval{}, err
	}

	var out Approval
	var recipient models.Account
	_, err := txn.Transactional(ctx, w.db, w.log, func(ctx context.Context, inTxn bool) error {
		bank, err := w.loadBank(ctx, bankID)
		if err != nil {
			return err
		}
		acct, err := w.loadAccount(ctx, recipientID, models.RoleRecipient)
		if err != nil {
			return err
		}
		req, err := pendingRequest(acct, ref)
		if err != nil {
			return err
		}
		if !models.ValidBloodType(req.BloodType) {
			return &ValidationError{Fields: map[string]string{"blood_type": "request has no valid blood type"}}
		}

		short := &InsufficientInventoryError{
			BankName:  bank.Name,
			BloodType: req.BloodType,
			Available: bank.Units(req.BloodType),
			Requested: req.Units,
		}
		if short.Available < req.Units {
			return short
		}

		ok, err := w.banks.DecUnitsIfAvailable(ctx, bank.ID, req.BloodType, req.Units)
		if err != nil {
			return fmt.Errorf("debit inventory: %w", err)
		}
		if !ok {
			return short
		}

		ok, err = w.accounts.ResolveRequest(ctx, recipientID, ref, models.RequestApproved, bank.Name)
		if err != nil || !ok {
			if !inTxn {
				w.recredit(ctx, bank.ID, req.BloodType, req.Units)
			}
			if err != nil {
				return fmt.Errorf("approve request: %w", err)
			}
			return ErrAlreadyProcessed
		}

		req.Status = models.RequestApproved
		req.Location = bank.Name
		out = Approval{
			RecipientID: recipientID,
			Request:     req,
			BankID:      bank.ID,
			BankName:    bank.Name,
			Remaining:   short.Available - req.Units,
		}
		recipient = *acct
		return nil
	})
	if err != nil {
		return Approval{}, err
	}

	w.log.Info("request approved",
		zap.String("recipient_id", recipientID.Hex()),
		zap.String("request", ref),
		zap.String("bank", out.BankName),
		zap.String("blood_type", out.Request.BloodType),
		zap.Int("units", out.Request.Units),
		zap.String("admin_id", s.AccountID.Hex()))

	data := mailer.RequestApprovedData{
		RecipientName:  recipient.FullName,
		RecipientEmail: recipient.Email,
		Units:          out.Request.Units,
		BloodType:      out.Request.BloodType,
		BankName:       out.BankName,
	}
	mailer.Dispatch(w.log, "request approved email", timeouts.Notify(), func(ctx context.Context) error {
		return w.notifier.SendTemplatedEmail(ctx, w.templates.RequestApproved, data.Params())
	})
	return out, nil
}

// recredit puts back units taken by an approval whose recipient write
// failed. Runs on a detached context so a cancelled request still
// restores stock.
func (w *Workflow) recredit(ctx context.Context, bankID primitive.ObjectID, bloodType string, units int) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	if _, err := w.banks.IncUnits(cctx, bankID, bloodType, units); err != nil {
		w.log.Error("failed to re-credit inventory after aborted approval",
			zap.String("bank_id", bankID.Hex()),
			zap.String("blood_type", bloodType),
			zap.Int("units", units),
			zap.Error(err))
	}
}

// RejectRequest closes a pending request without touching inventory.
func (w *Workflow) RejectRequest(ctx context.Context, s Session, recipientID primitive.ObjectID, ref string) error {
	if err := s.require(models.RoleAdmin); err != nil {
		return err
	}
	acct, err := w.loadAccount(ctx, recipientID, models.RoleRecipient)
	if err != nil {
		return err
	}
	if _, err := pendingRequest(acct, ref); err != nil {
		return err
	}

	ok, err := w.accounts.ResolveRequest(ctx, recipientID, ref, models.RequestRejected, models.LocationNotApplicable)
	if err != nil {
		return fmt.Errorf("reject request: %w", err)
	}
	if !ok {
		return ErrAlreadyProcessed
	}
	w.log.Info("request rejected",
		zap.String("recipient_id", recipientID.Hex()),
		zap.String("request", ref),
		zap.String("admin_id", s.AccountID.Hex()))
	return nil
}

func pendingRequest(a *models.Account, ref string) (models.RequestRecord, error) {
	i := a.FindRequest(ref)
	if i < 0 {
		return models.RequestRecord{}, ErrRequestNotFound
	}
	req := a.RequestHistory[i]
	if req.Status != models.RequestPending {
		return models.RequestRecord{}, ErrAlreadyProcessed
	}
	return req, nil
}

// RequestInput is a recipient's new request.
type RequestInput struct {
	BloodType string `json:"blood_type"`
	Units     int    `json:"units"`
	Urgency   string `json:"urgency"`
}

// Validate normalizes the input in place and reports every bad field.
func (in *RequestInput) Validate() error {
	in.BloodType = normalize.BloodType(in.BloodType)
	in.Urgency = normalize.Urgency(in.Urgency)

	ve := &ValidationError{}
	if !models.ValidBloodType(in.BloodType) {
		ve.add("blood_type", "blood type must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
	}
	if in.Units <= 0 {
		ve.add("units", "units must be greater than zero")
	}
	if !models.ValidUrgency(in.Urgency) {
		ve.add("urgency", "urgency must be low, moderate, high or critical")
	}
	return ve.orNil()
}

// SubmitRequest records a new pending request in both current_requests
// and request_history. Anything above low urgency alerts the admins.
func (w *Workflow) SubmitRequest(ctx context.Context, s Session, in RequestInput, now time.Time) (models.RequestRecord, error) {
	if err := in.Validate(); err != nil {
		return models.RequestRecord{}, err
	}
	if err := s.require(models.RoleRecipient); err != nil {
		return models.RequestRecord{}, err
	}

	today := models.FormatDate(now)
	rec := models.RequestRecord{
		ID:          uuid.NewString(),
		BloodType:   in.BloodType,
		Units:       in.Units,
		Urgency:     in.Urgency,
		RequestDate: today,
		Date:        today,
		Status:      models.RequestPending,
		Location:    models.LocationPendingAssignment,
		CreatedAt:   now.UTC(),
	}

	ok, err := w.accounts.PushRequest(ctx, s.AccountID, rec)
	if err != nil {
		return models.RequestRecord{}, fmt.Errorf("submit request: %w", err)
	}
	if !ok {
		return models.RequestRecord{}, ErrAccountNotFound
	}

	w.log.Info("request submitted",
		zap.String("recipient_id", s.AccountID.Hex()),
		zap.String("request_id", rec.ID),
		zap.String("blood_type", rec.BloodType),
		zap.Int("units", rec.Units),
		zap.String("urgency", rec.Urgency))

	if rec.Urgency != models.UrgencyLow {
		title, msg := mailer.BuildRequestAlert(s.Name, rec.Units, rec.BloodType, rec.Urgency)
		mailer.Dispatch(w.log, "admin alert", timeouts.Notify(), func(ctx context.Context) error {
			return w.notifier.SendAdminAlert(ctx, title, msg)
		})
	}
	return rec, nil
}
