package ride

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caram-platform/caram-ledger/internal/wallet"
)

// ErrInvalidInput rejects malformed settlement requests.
var ErrInvalidInput = errors.New("invalid ride input")

// Service runs ride settlements: one paid transition per platform ride
// id, serialized so concurrent retries cannot double-settle.
type Service struct {
	rides    Repository
	wallets  *wallet.Service
	contacts wallet.ContactDirectory
	engine   *Engine
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires the ride settlement service.
func NewService(rides Repository, wallets *wallet.Service, contacts wallet.ContactDirectory, engine *Engine, logger *slog.Logger) *Service {
	return &Service{
		rides:    rides,
		wallets:  wallets,
		contacts: contacts,
		engine:   engine,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// PayInput is one settlement request from the ride platform.
type PayInput struct {
	CompanyID  string
	RideID     string
	RiderID    string
	DriverID   string
	Fare       decimal.Decimal
	WalletPaid decimal.Decimal
	CashPaid   decimal.Decimal
	Commission decimal.Decimal
	Penalties  []Penalty
	Mode       string
}

// PayResult is the settlement outcome returned to the platform.
type PayResult struct {
	RideID  string
	Outcome Outcome
}

// Pay settles a ride. The draft-to-paid transition for a given ride id
// is race-free: requests for the same ride id run one at a time, and a
// paid ride rejects re-settlement.
func (s *Service) Pay(ctx context.Context, in PayInput) (PayResult, error) {
	if in.RideID == "" || !in.Fare.IsPositive() || in.WalletPaid.IsNegative() {
		return PayResult{}, ErrInvalidInput
	}
	mode, err := ParseMode(in.Mode)
	if err != nil {
		return PayResult{}, err
	}

	rider, err := s.contacts.Lookup(ctx, in.CompanyID, in.RiderID)
	if err != nil {
		return PayResult{}, err
	}
	driver, err := s.contacts.Lookup(ctx, in.CompanyID, in.DriverID)
	if err != nil {
		return PayResult{}, err
	}

	unlock := s.lockRide(in.CompanyID + "/" + in.RideID)
	defer unlock()

	existing, err := s.rides.FindByRideID(ctx, in.CompanyID, in.RideID)
	switch {
	case err == nil:
		if existing.State == StatePaid {
			return PayResult{}, ErrAlreadyPaid
		}
	case errors.Is(err, ErrNotFound):
		existing = Ride{
			ID:         uuid.NewString(),
			CompanyID:  in.CompanyID,
			RideID:     in.RideID,
			RiderID:    rider.ID,
			DriverID:   driver.ID,
			Fare:       in.Fare,
			WalletPaid: in.WalletPaid,
			CashPaid:   in.CashPaid,
			Commission: in.Commission,
			Mode:       mode,
			State:      StateDraft,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.rides.Create(ctx, existing); err != nil {
			return PayResult{}, err
		}
	default:
		return PayResult{}, err
	}

	riderWallet, err := s.wallets.Ensure(ctx, in.CompanyID, rider.ID, "")
	if err != nil {
		return PayResult{}, err
	}
	driverWallet, err := s.wallets.Ensure(ctx, in.CompanyID, driver.ID, "")
	if err != nil {
		return PayResult{}, err
	}

	riderPenalty, driverPenalty := AggregatePenalties(in.Penalties)
	outcome, err := s.engine.Settle(ctx, mode, SettlementInput{
		CompanyID:      in.CompanyID,
		RideID:         in.RideID,
		RiderID:        rider.ID,
		DriverID:       driver.ID,
		RiderWalletID:  riderWallet.ID,
		DriverWalletID: driverWallet.ID,
		Fare:           in.Fare,
		WalletPaid:     in.WalletPaid,
		CashPaid:       in.CashPaid,
		Commission:     in.Commission,
		RiderPenalty:   riderPenalty,
		DriverPenalty:  driverPenalty,
	})
	if err != nil {
		return PayResult{}, err
	}

	if err := s.rides.MarkPaid(ctx, existing.ID, time.Now().UTC()); err != nil {
		return PayResult{}, err
	}
	s.logger.Info("ride settled",
		"ride_id", in.RideID, "mode", string(mode), "case", outcome.Case,
		"rider_delta", outcome.RiderDelta.String(), "driver_delta", outcome.DriverDelta.String())

	return PayResult{RideID: in.RideID, Outcome: outcome}, nil
}

func (s *Service) lockRide(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
