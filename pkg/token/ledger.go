// Package token declares the fungible-token ledger interface for moving
// the balances that create/remove position and swap involve, without
// implementing one: the host supplies a concrete Ledger (a PSP22-style
// token contract binding, an ERC-20 adapter, an in-memory ledger for
// tests). pkg/clmm does not call it; its commands return the token
// amounts involved and move no balances themselves.
package token

import (
	"context"

	"github.com/johnayoung/go-invariant-clmm/pkg/clmm"
	"github.com/johnayoung/go-invariant-clmm/pkg/numeric"
)

// Ledger moves balances of a single fungible token between accounts. Every
// method is expected to be atomic with respect to the caller's own
// bookkeeping; a Ledger that partially applies a transfer and then errors
// violates the contract this package assumes.
type Ledger interface {
	// Transfer moves amount from the caller's own balance to to.
	Transfer(ctx context.Context, token clmm.TokenId, to clmm.AccountId, amount numeric.TokenAmount) error

	// TransferFrom moves amount from from to to, spending an allowance
	// from previously authorized to the caller.
	TransferFrom(ctx context.Context, token clmm.TokenId, from, to clmm.AccountId, amount numeric.TokenAmount) error

	// BalanceOf reports account's current balance of token.
	BalanceOf(ctx context.Context, token clmm.TokenId, account clmm.AccountId) (numeric.TokenAmount, error)
}
