// Package coordinator reconciles the computed push topic set with the last
// persisted set and drives the provider's subscribe/unsubscribe calls.
//
// Lifecycle:
//
//	IDLE --attempt--> WAITING_FOR_TOKEN --token ready--> RECONCILED
//
// While no device token is available the coordinator re-polls on a one-shot
// timer, at most MaxAttempts times in total (5 by default, 2s apart), and
// then waits for an external trigger. RECONCILED is terminal for the
// coordinator's lifetime.
package coordinator
