/*
Package wallet manages the wallet aggregate: creation, per-currency
accounts, bank accounts and balance reads.

The wallet itself never moves money. Deposits, transfers and refunds live in
the payment, transfer and refund services; this package only owns the
aggregate's lifecycle and lookup surface.

Usage:

	svc := wallet.NewService(repo, cache, publisher, wallet.Config{})

	// Create (idempotent per user)
	result, err := svc.CreateWallet(ctx, userID)

	// Balances across all currencies
	summary, err := svc.GetBalance(ctx, userID)

	// Bank accounts are exposed masked
	view, err := svc.AddBankAccount(ctx, userID, input)

Every mutation runs inside the repository's unit of work and invalidates the
wallet cache after commit. Domain events raised by a mutation are published
only once the commit succeeds.
*/
package wallet
