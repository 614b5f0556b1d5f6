package wallet

import "github.com/shopspring/decimal"

// PostedBalance derives a wallet balance from its ledger entries:
// sum(issued) - sum(used) over posted entries only. Pure function of the
// entry set; an empty history yields zero. This is the authoritative value
// written back to the wallet after every posted mutation.
func PostedBalance(entries []LedgerEntry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		if e.Status != StatusPosted {
			continue
		}
		balance = balance.Add(e.Issued).Sub(e.Used)
	}
	return balance
}
