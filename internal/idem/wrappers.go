package idem

// Domain-specific wrappers over Run with fixed kind values. They add no
// behavior; they exist so call sites read as what they do.

// RunDrawOutcome guards the recording of a draw outcome (success/failure of
// an application), which consumes or accrues points for the target entity.
func RunDrawOutcome[T any](l *Ledger, entityID string, fn func() (T, error)) (Outcome[T], error) {
	return Run(l, Key(KindDrawOutcome, entityID), fn)
}

// RunBudgetChange guards a budget mutation (fee deduction, refund).
func RunBudgetChange[T any](l *Ledger, entityID string, fn func() (T, error)) (Outcome[T], error) {
	return Run(l, Key(KindBudgetChange, entityID), fn)
}

// RunRebalance guards a portfolio rebalance (moving budget between states).
func RunRebalance[T any](l *Ledger, entityID string, fn func() (T, error)) (Outcome[T], error) {
	return Run(l, Key(KindRebalance, entityID), fn)
}
