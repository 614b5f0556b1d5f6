package ride

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/caram-platform/caram-ledger/internal/accounting"
	"github.com/caram-platform/caram-ledger/internal/wallet"
)

// Case tags reported in the settlement outcome.
const (
	CaseCashOnly       = "CASH_ONLY"
	CaseCashExceed     = "CASH_EXCEED"
	CaseWalletOnly     = "WALLET_ONLY"
	CaseWalletPlusCash = "WALLET_PLUS_CASH"
)

// SettlementInput is the resolved per-mode computation input. Penalties
// are already aggregated per party.
type SettlementInput struct {
	CompanyID      string
	RideID         string
	RiderID        string
	DriverID       string
	RiderWalletID  string
	DriverWalletID string
	Fare           decimal.Decimal
	WalletPaid     decimal.Decimal
	CashPaid       decimal.Decimal
	Commission     decimal.Decimal
	RiderPenalty   decimal.Decimal
	DriverPenalty  decimal.Decimal
}

// Outcome reports the ledger effects of one settlement.
type Outcome struct {
	Case               string
	RiderDelta         decimal.Decimal
	DriverDelta        decimal.Decimal
	CommissionInvoiced bool
	PenaltiesApplied   bool
}

type settleFunc func(ctx context.Context, in SettlementInput) (Outcome, error)

// stepRef tags the ledger entries a settlement step creates. A settlement
// that failed partway leaves its ride in draft; on retry each step checks
// for its tag and skips work that already happened, so no economic event
// ever produces a second entry or document.
func stepRef(rideID, step string) string {
	return "ride/" + rideID + "/" + step
}

// Engine computes the ledger and document effects of a ride settlement.
// Each payment mode has exactly one handler; dispatch is by table, not
// branching, so a new mode is a compile-time addition.
type Engine struct {
	ledger   *wallet.Ledger
	factory  *accounting.Factory
	handlers map[PaymentMode]settleFunc
}

// NewEngine wires the settlement engine over the wallet ledger and the
// accounting document factory.
func NewEngine(ledger *wallet.Ledger, factory *accounting.Factory) *Engine {
	e := &Engine{ledger: ledger, factory: factory}
	e.handlers = map[PaymentMode]settleFunc{
		ModeCashOnly:   e.settleCashOnly,
		ModeCashExceed: e.settleCashExceed,
		ModeWalletPaid: e.settleWalletPaid,
		ModeWalletCash: e.settleWalletCash,
	}
	return e
}

// AggregatePenalties sums positive penalty amounts per party. Malformed
// or non-positive entries are ignored.
func AggregatePenalties(penalties []Penalty) (rider, driver decimal.Decimal) {
	rider, driver = decimal.Zero, decimal.Zero
	for _, p := range penalties {
		if !p.Amount.IsPositive() {
			continue
		}
		switch p.Party {
		case "rider":
			rider = rider.Add(p.Amount)
		case "driver":
			driver = driver.Add(p.Amount)
		}
	}
	return rider, driver
}

// Settle dispatches to the handler for the ride's payment mode.
func (e *Engine) Settle(ctx context.Context, mode PaymentMode, in SettlementInput) (Outcome, error) {
	handler, ok := e.handlers[mode]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	return handler(ctx, in)
}

// settleCashOnly: the fare moved hand to hand, only the platform's cut
// flows through the ledger. The driver is invoiced for commission plus
// any driver penalty.
func (e *Engine) settleCashOnly(ctx context.Context, in SettlementInput) (Outcome, error) {
	if err := e.collectCommission(ctx, in); err != nil {
		return Outcome{}, err
	}
	if err := e.collectRiderPenalty(ctx, in); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Case:               CaseCashOnly,
		RiderDelta:         decimal.Zero,
		DriverDelta:        in.Commission.Neg(),
		CommissionInvoiced: in.Commission.IsPositive(),
		PenaltiesApplied:   in.RiderPenalty.IsPositive() || in.DriverPenalty.IsPositive(),
	}, nil
}

// settleCashExceed: the rider overpaid in cash; the excess is parked in
// the rider's wallet and mirrored out of the driver's, with no cash or
// bank documents since the money never touched the company.
func (e *Engine) settleCashExceed(ctx context.Context, in SettlementInput) (Outcome, error) {
	extra := in.CashPaid.Sub(in.Fare)
	riderDelta := decimal.Zero
	if extra.IsPositive() {
		riderDelta = extra
		if err := e.depositOnce(ctx, wallet.DepositInput{
			WalletID:    in.RiderWalletID,
			Amount:      extra,
			Description: fmt.Sprintf("Ride %s overpayment credit", in.RideID),
			PayerID:     in.RiderID,
			Reference:   stepRef(in.RideID, "overpayment-in"),
		}); err != nil {
			return Outcome{}, err
		}
		if err := e.depositOnce(ctx, wallet.DepositInput{
			WalletID:    in.DriverWalletID,
			Amount:      extra.Neg(),
			Description: fmt.Sprintf("Ride %s overpayment owed to rider", in.RideID),
			PayerID:     in.DriverID,
			Reference:   stepRef(in.RideID, "overpayment-out"),
		}); err != nil {
			return Outcome{}, err
		}
	}
	if err := e.collectCommission(ctx, in); err != nil {
		return Outcome{}, err
	}
	if err := e.collectRiderPenalty(ctx, in); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Case:               CaseCashExceed,
		RiderDelta:         riderDelta,
		DriverDelta:        in.Commission.Neg(),
		CommissionInvoiced: in.Commission.IsPositive(),
		PenaltiesApplied:   in.RiderPenalty.IsPositive() || in.DriverPenalty.IsPositive(),
	}, nil
}

// settleWalletPaid: the whole fare came from the rider's wallet. The
// rider withdrawal is balance-guarded and runs before any document is
// created; the matching driver credit and a balanced transfer entry
// follow, then the commission invoice.
func (e *Engine) settleWalletPaid(ctx context.Context, in SettlementInput) (Outcome, error) {
	if err := e.transferWallet(ctx, in, in.WalletPaid); err != nil {
		return Outcome{}, err
	}
	if err := e.collectCommission(ctx, in); err != nil {
		return Outcome{}, err
	}
	if err := e.collectRiderPenalty(ctx, in); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Case:               CaseWalletOnly,
		RiderDelta:         in.Fare.Neg(),
		DriverDelta:        in.Fare.Sub(in.Commission),
		CommissionInvoiced: in.Commission.IsPositive(),
		PenaltiesApplied:   in.RiderPenalty.IsPositive() || in.DriverPenalty.IsPositive(),
	}, nil
}

// settleWalletCash: part wallet, part cash. The wallet part transfers as
// in wallet_paid; cash beyond the remaining fare is banked into the
// rider's wallet with payment documents.
func (e *Engine) settleWalletCash(ctx context.Context, in SettlementInput) (Outcome, error) {
	if in.WalletPaid.IsPositive() {
		if err := e.transferWallet(ctx, in, in.WalletPaid); err != nil {
			return Outcome{}, err
		}
	}
	diff := in.Fare.Sub(in.WalletPaid)
	if in.CashPaid.GreaterThan(diff) {
		due := in.CashPaid.Sub(diff)
		if err := e.depositOnce(ctx, wallet.DepositInput{
			WalletID:      in.RiderWalletID,
			Amount:        due,
			Description:   fmt.Sprintf("Ride %s cash surplus credit", in.RideID),
			PayerID:       in.RiderID,
			CreatePayment: true,
			MethodType:    accounting.MethodCash,
			PostPayment:   true,
			Reference:     stepRef(in.RideID, "cash-surplus-in"),
		}); err != nil {
			return Outcome{}, err
		}
		if err := e.depositOnce(ctx, wallet.DepositInput{
			WalletID:      in.DriverWalletID,
			Amount:        due.Neg(),
			Description:   fmt.Sprintf("Ride %s cash surplus owed to rider", in.RideID),
			PayerID:       in.DriverID,
			CreatePayment: true,
			MethodType:    accounting.MethodCash,
			PostPayment:   true,
			Reference:     stepRef(in.RideID, "cash-surplus-out"),
		}); err != nil {
			return Outcome{}, err
		}
	}
	if err := e.collectCommission(ctx, in); err != nil {
		return Outcome{}, err
	}
	if err := e.collectRiderPenalty(ctx, in); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Case:               CaseWalletPlusCash,
		RiderDelta:         in.WalletPaid.Neg(),
		DriverDelta:        in.WalletPaid.Sub(in.Commission),
		CommissionInvoiced: in.Commission.IsPositive(),
		PenaltiesApplied:   in.RiderPenalty.IsPositive() || in.DriverPenalty.IsPositive(),
	}, nil
}

// transferWallet moves the wallet-paid amount rider to driver: guarded
// rider debit, driver credit, then one balanced transfer entry that both
// ledger entries are re-pointed at. Each leg resumes from its step tag,
// so a retried settlement reuses the entries and the transfer document
// instead of moving the fare twice.
func (e *Engine) transferWallet(ctx context.Context, in SettlementInput, amount decimal.Decimal) error {
	outTag := stepRef(in.RideID, "transfer-out")
	riderEntry, found, err := e.ledger.FindEntryByReference(ctx, in.RiderWalletID, outTag)
	if err != nil {
		return err
	}
	if !found {
		riderEntry, err = e.ledger.Withdraw(ctx, wallet.WithdrawInput{
			WalletID:       in.RiderWalletID,
			Amount:         amount,
			Description:    fmt.Sprintf("Ride %s fare paid from wallet", in.RideID),
			PayerID:        in.RiderID,
			EnforceBalance: true,
			Reference:      outTag,
		})
		if err != nil {
			return err
		}
	}

	inTag := stepRef(in.RideID, "transfer-in")
	driverEntry, found, err := e.ledger.FindEntryByReference(ctx, in.DriverWalletID, inTag)
	if err != nil {
		return err
	}
	if !found {
		driverEntry, err = e.ledger.Deposit(ctx, wallet.DepositInput{
			WalletID:    in.DriverWalletID,
			Amount:      amount,
			Description: fmt.Sprintf("Ride %s fare received from rider wallet", in.RideID),
			PayerID:     in.DriverID,
			Reference:   inTag,
		})
		if err != nil {
			return err
		}
	}

	ref := riderEntry.Ref
	if ref.Kind != wallet.RefTransferEntry {
		transfer, err := e.factory.WalletTransfer(ctx, in.CompanyID, in.RiderID, in.DriverID, amount, in.RideID)
		if err != nil {
			return err
		}
		ref = wallet.TransferRef(transfer.ID)
		if err := e.ledger.Repoint(ctx, riderEntry.ID, ref); err != nil {
			return err
		}
	}
	if driverEntry.Ref != ref {
		return e.ledger.Repoint(ctx, driverEntry.ID, ref)
	}
	return nil
}

// depositOnce runs a tagged deposit step, skipping it when an entry with
// the same reference already exists on the wallet.
func (e *Engine) depositOnce(ctx context.Context, in wallet.DepositInput) error {
	_, found, err := e.ledger.FindEntryByReference(ctx, in.WalletID, in.Reference)
	if err != nil || found {
		return err
	}
	_, err = e.ledger.Deposit(ctx, in)
	return err
}

// collectCommission invoices the driver for commission plus any driver
// penalty and debits the driver wallet for the total. The debit is not
// balance-guarded: the platform's cut is collectible even when it drives
// the wallet negative.
func (e *Engine) collectCommission(ctx context.Context, in SettlementInput) error {
	tag := stepRef(in.RideID, "commission")
	if _, found, err := e.ledger.FindEntryByReference(ctx, in.DriverWalletID, tag); err != nil || found {
		return err
	}
	total := in.Commission.Add(in.DriverPenalty)
	_, err := e.ledger.Withdraw(ctx, wallet.WithdrawInput{
		WalletID:      in.DriverWalletID,
		Amount:        total,
		Commission:    in.Commission,
		Fine:          in.DriverPenalty,
		Description:   fmt.Sprintf("Ride %s commission", in.RideID),
		PayerID:       in.DriverID,
		CreateInvoice: true,
		Reference:     tag,
	})
	return err
}

// collectRiderPenalty invoices the rider when a rider-side fine exists.
func (e *Engine) collectRiderPenalty(ctx context.Context, in SettlementInput) error {
	if !in.RiderPenalty.IsPositive() {
		return nil
	}
	tag := stepRef(in.RideID, "rider-penalty")
	if _, found, err := e.ledger.FindEntryByReference(ctx, in.RiderWalletID, tag); err != nil || found {
		return err
	}
	_, err := e.ledger.Withdraw(ctx, wallet.WithdrawInput{
		WalletID:      in.RiderWalletID,
		Amount:        in.RiderPenalty,
		Commission:    decimal.Zero,
		Fine:          in.RiderPenalty,
		Description:   fmt.Sprintf("Ride %s rider penalty", in.RideID),
		PayerID:       in.RiderID,
		CreateInvoice: true,
		Reference:     tag,
	})
	return err
}
