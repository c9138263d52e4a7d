// Package task owns the lifecycle of generation tasks after submission.
// Status reports arrive from two independent sources, client polling and
// provider webhooks, in any order. Reconcile folds each report into the
// authoritative record so that terminal states are absorbing and in-flight
// progress never moves backwards. Store implementations apply Reconcile
// atomically per task id, and Poller applies the same rule to a client's
// local view while it waits for a task to finish.
package task
