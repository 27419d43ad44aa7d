// Package reconcile is the request/inventory workflow: approving and
// rejecting blood requests, confirming and rejecting donations, booking
// appointments and submitting requests.
//
// Every state change is a guarded write. A request leaves pending, and a
// donation leaves scheduled, at most once; bank stock is never taken
// below zero. Approval and confirmation touch two documents and run
// inside txn.Transactional.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	accountstore "github.com/dalemusser/bloodlink/internal/app/store/accounts"
	bankstore "github.com/dalemusser/bloodlink/internal/app/store/banks"
	settingsstore "github.com/dalemusser/bloodlink/internal/app/store/settings"
	"github.com/dalemusser/bloodlink/internal/app/system/aggregate"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/geocode"
	"github.com/dalemusser/bloodlink/internal/app/system/mailer"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Session is the acting account.
type Session struct {
	AccountID primitive.ObjectID
	Name      string
	Email     string
	Role      string
}

// SessionFrom converts the signed-in user.
func SessionFrom(u *auth.SessionUser) (Session, error) {
	if u == nil {
		return Session{}, ErrForbidden
	}
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: bad session id", ErrForbidden)
	}
	return Session{AccountID: oid, Name: u.Name, Email: u.Email, Role: u.Role}, nil
}

func (s Session) require(role string) error {
	if s.Role != role {
		return fmt.Errorf("%w: %s only", ErrForbidden, role)
	}
	return nil
}

// Templates names the email templates sent after state changes.
type Templates struct {
	RequestApproved   string
	DonationConfirmed string
}

// Options configures a Workflow. Nil collaborators are replaced with
// no-ops (notifier, geocoder) or zap.NewNop (logger).
type Options struct {
	Notifier  mailer.Notifier
	Geocoder  geocode.Resolver
	Templates Templates
	Logger    *zap.Logger
}

// Workflow runs the reconciliation operations.
type Workflow struct {
	db        *mongo.Database
	accounts  *accountstore.Store
	banks     *bankstore.Store
	settings  *settingsstore.Store
	notifier  mailer.Notifier
	geocoder  geocode.Resolver
	templates Templates
	log       *zap.Logger
}

// New builds a Workflow over db.
func New(db *mongo.Database, opts Options) *Workflow {
	if opts.Notifier == nil {
		opts.Notifier = mailer.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Templates.RequestApproved == "" {
		opts.Templates.RequestApproved = mailer.DefaultRequestApprovedTemplate
	}
	if opts.Templates.DonationConfirmed == "" {
		opts.Templates.DonationConfirmed = mailer.DefaultDonationConfirmedTemplate
	}
	return &Workflow{
		db:        db,
		accounts:  accountstore.New(db),
		banks:     bankstore.New(db),
		settings:  settingsstore.New(db),
		notifier:  opts.Notifier,
		geocoder:  opts.Geocoder,
		templates: opts.Templates,
		log:       opts.Logger,
	}
}

// Snapshot loads every account, every bank and the donation rules.
func (w *Workflow) Snapshot(ctx context.Context) (aggregate.Snapshot, error) {
	accounts, err := w.accounts.List(ctx)
	if err != nil {
		return aggregate.Snapshot{}, fmt.Errorf("load accounts: %w", err)
	}
	banks, err := w.banks.List(ctx)
	if err != nil {
		return aggregate.Snapshot{}, fmt.Errorf("load banks: %w", err)
	}
	rules, err := w.settings.GetDonationRules(ctx)
	if err != nil {
		return aggregate.Snapshot{}, fmt.Errorf("load donation rules: %w", err)
	}
	return aggregate.Snapshot{Accounts: accounts, Banks: banks, Rules: rules}, nil
}

// Rules returns the donation rules, defaults filled.
func (w *Workflow) Rules(ctx context.Context) (models.DonationRules, error) {
	return w.settings.GetDonationRules(ctx)
}

// Account loads one account.
func (w *Workflow) Account(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return w.loadAccount(ctx, id, "")
}

func (w *Workflow) loadAccount(ctx context.Context, id primitive.ObjectID, role string) (*models.Account, error) {
	a, err := w.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if role != "" && a.Role != role {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

func (w *Workflow) loadBank(ctx context.Context, id primitive.ObjectID) (*models.BloodBank, error) {
	b, err := w.banks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBankNotFound
		}
		return nil, fmt.Errorf("load bank: %w", err)
	}
	return b, nil
}
