// Package models defines the core domain records for Taskbay.
//
// # Models
//
//   - Account: an authenticated identity; any account may post jobs
//   - Worker: the worker capability of an account, created on registration
//   - Client: lazily-created rating aggregate for a job poster
//   - Job: a posted task with its escrow amount and lifecycle flags
//   - Event: one audit-trail entry per committed state transition
//
// # Design Principles
//
//  1. **Role separation via capability records**: Worker and Client are not
//     subtypes of Account. One account may post jobs and later register as a
//     worker; each capability is its own record keyed by the account ID.
//  2. **One-way latches**: the Job booleans (Completed, Paid, Disputed,
//     WorkerRated, ClientRated) only ever transition false -> true. The
//     storage layer never exposes a way to clear them.
//  3. **Integer money**: amounts are int64 minor units. Arbitration splits
//     use integer division and must be remainder-safe, which float amounts
//     cannot guarantee.
//  4. **Avoid circular references**: records reference each other by ID
//     strings / int64 keys, never by pointer.
package models
