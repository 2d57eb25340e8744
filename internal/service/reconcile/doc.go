// Package reconcile turns classified messages into durable rows.
//
// The service layer owns the write rules: one message upsert keyed by
// (chat_id, message_id), at most one derived promotion row keyed by the
// message's internal id, placeholder rows for known non-offer outcomes, and
// monetary rounding. It depends on the repository interface defined in this
// package and should never import from collector/ or status/.
//
// The Postgres implementation lives in repository/postgres/.
package reconcile
