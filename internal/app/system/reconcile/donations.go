package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/system/eligibility"
	"github.com/dalemusser/bloodlink/internal/app/system/mailer"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/app/system/txn"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Confirmation describes a completed donation.
type Confirmation struct {
	DonorID  primitive.ObjectID    `json:"donor_id"`
	Donation models.DonationRecord `json:"donation"`
	BankID   primitive.ObjectID    `json:"bank_id"`
	BankName string                `json:"bank_name"`
}

// ConfirmDonation completes a scheduled donation: the donor's counter and
// last donation date move forward and the bank gains one unit of the
// donor's blood type.
//
// The donor write is guarded on the appointment still being scheduled,
// so only one confirmation can credit the bank. On deployments without
// transactions a failed bank credit leaves the donor updated; the error
// is returned and logged.
func (w *Workflow) ConfirmDonation(ctx context.Context, s Session, donorID primitive.ObjectID, ref string) (Confirmation, error) {
	if err := s.require(models.RoleAdmin); err != nil {
		return Confirmation{}, err
	}

	var out Confirmation
	var donor models.Account
	_, err := txn.Transactional(ctx, w.db, w.log, func(ctx context.Context, inTxn bool) error {
		acct, err := w.loadAccount(ctx, donorID, models.RoleDonor)
		if err != nil {
			return err
		}
		d, err := scheduledDonation(acct, ref)
		if err != nil {
			return err
		}
		if !models.ValidBloodType(acct.BloodType) {
			return &ValidationError{Fields: map[string]string{"blood_type": "donor has no valid blood type"}}
		}
		bank, err := w.bankForDonation(ctx, d)
		if err != nil {
			return err
		}

		ok, err := w.accounts.CompleteDonation(ctx, donorID, ref, d.Date)
		if err != nil {
			return fmt.Errorf("complete donation: %w", err)
		}
		if !ok {
			return ErrAlreadyProcessed
		}

		ok, err = w.banks.IncUnits(ctx, bank.ID, acct.BloodType, 1)
		if err == nil && !ok {
			err = ErrBankNotFound
		}
		if err != nil {
			if !inTxn {
				w.log.Error("donation completed but inventory not credited",
					zap.String("donor_id", donorID.Hex()),
					zap.String("donation", ref),
					zap.String("bank_id", bank.ID.Hex()),
					zap.Error(err))
			}
			return fmt.Errorf("credit inventory: %w", err)
		}

		d.Status = models.DonationCompleted
		out = Confirmation{DonorID: donorID, Donation: d, BankID: bank.ID, BankName: bank.Name}
		donor = *acct
		return nil
	})
	if err != nil {
		return Confirmation{}, err
	}

	w.log.Info("donation confirmed",
		zap.String("donor_id", donorID.Hex()),
		zap.String("donation", ref),
		zap.String("bank", out.BankName),
		zap.String("blood_type", donor.BloodType),
		zap.String("admin_id", s.AccountID.Hex()))

	data := mailer.DonationConfirmedData{
		DonorName:    donor.FullName,
		DonorEmail:   donor.Email,
		DonationDate: out.Donation.Date,
		BankName:     out.Donation.Location,
	}
	mailer.Dispatch(w.log, "donation confirmed email", timeouts.Notify(), func(ctx context.Context) error {
		return w.notifier.SendTemplatedEmail(ctx, w.templates.DonationConfirmed, data.Params())
	})
	return out, nil
}

// bankForDonation resolves the bank recorded at booking. Records without
// a bank id fall back to the bank whose name matches the location, which
// must be unique.
func (w *Workflow) bankForDonation(ctx context.Context, d models.DonationRecord) (*models.BloodBank, error) {
	if d.BankID != "" {
		oid, err := primitive.ObjectIDFromHex(d.BankID)
		if err != nil {
			return nil, ErrBankNotFound
		}
		return w.loadBank(ctx, oid)
	}

	matches, err := w.banks.FindByName(ctx, d.Location)
	if err != nil {
		return nil, fmt.Errorf("find bank by name: %w", err)
	}
	if len(matches) != 1 {
		return nil, ErrBankNotFound
	}
	return &matches[0], nil
}

// RejectDonation closes a scheduled donation without touching counters
// or inventory.
func (w *Workflow) RejectDonation(ctx context.Context, s Session, donorID primitive.ObjectID, ref string) error {
	if err := s.require(models.RoleAdmin); err != nil {
		return err
	}
	acct, err := w.loadAccount(ctx, donorID, models.RoleDonor)
	if err != nil {
		return err
	}
	if _, err := scheduledDonation(acct, ref); err != nil {
		return err
	}

	ok, err := w.accounts.RejectDonation(ctx, donorID, ref)
	if err != nil {
		return fmt.Errorf("reject donation: %w", err)
	}
	if !ok {
		return ErrAlreadyProcessed
	}
	w.log.Info("donation rejected",
		zap.String("donor_id", donorID.Hex()),
		zap.String("donation", ref),
		zap.String("admin_id", s.AccountID.Hex()))
	return nil
}

func scheduledDonation(a *models.Account, ref string) (models.DonationRecord, error) {
	i := a.FindDonation(ref)
	if i < 0 {
		return models.DonationRecord{}, ErrDonationNotFound
	}
	d := a.DonationHistory[i]
	if d.Status != models.DonationScheduled {
		return models.DonationRecord{}, ErrAlreadyProcessed
	}
	return d, nil
}

// NotEligibleError carries the donor's standing when booking is refused.
type NotEligibleError struct {
	Result eligibility.Result
}

func (e *NotEligibleError) Error() string {
	if e.Result.NextEligible == "" {
		return ErrNotEligible.Error()
	}
	return fmt.Sprintf("%s: next eligible on %s", ErrNotEligible, e.Result.NextEligible)
}

func (e *NotEligibleError) Is(target error) bool { return target == ErrNotEligible }

// BookDonation schedules an appointment for today at a bank. Donors
// inside the donation interval are refused before anything is written.
func (w *Workflow) BookDonation(ctx context.Context, s Session, bankID primitive.ObjectID, now time.Time) (models.DonationRecord, error) {
	if err := s.require(models.RoleDonor); err != nil {
		return models.DonationRecord{}, err
	}
	donor, err := w.loadAccount(ctx, s.AccountID, models.RoleDonor)
	if err != nil {
		return models.DonationRecord{}, err
	}
	rules, err := w.settings.GetDonationRules(ctx)
	if err != nil {
		return models.DonationRecord{}, fmt.Errorf("load donation rules: %w", err)
	}
	if res := eligibility.ForAccount(*donor, rules, now); !res.Eligible {
		return models.DonationRecord{}, &NotEligibleError{Result: res}
	}

	bank, err := w.loadBank(ctx, bankID)
	if err != nil {
		return models.DonationRecord{}, err
	}

	rec := models.DonationRecord{
		ID:       uuid.NewString(),
		Date:     models.FormatDate(now),
		Location: bank.Name,
		BankID:   bank.ID.Hex(),
		Status:   models.DonationScheduled,
	}
	ok, err := w.accounts.PushDonation(ctx, donor.ID, rec)
	if err != nil {
		return models.DonationRecord{}, fmt.Errorf("book donation: %w", err)
	}
	if !ok {
		return models.DonationRecord{}, ErrAccountNotFound
	}

	w.log.Info("donation booked",
		zap.String("donor_id", donor.ID.Hex()),
		zap.String("donation_id", rec.ID),
		zap.String("bank", bank.Name),
		zap.String("date", rec.Date))
	return rec, nil
}

// DonorEligibility evaluates a donor against the current rules.
func (w *Workflow) DonorEligibility(ctx context.Context, donorID primitive.ObjectID, now time.Time) (eligibility.Result, error) {
	donor, err := w.loadAccount(ctx, donorID, models.RoleDonor)
	if err != nil {
		return eligibility.Result{}, err
	}
	rules, err := w.settings.GetDonationRules(ctx)
	if err != nil {
		return eligibility.Result{}, fmt.Errorf("load donation rules: %w", err)
	}
	return eligibility.ForAccount(*donor, rules, now), nil
}
