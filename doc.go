// Package accounts implements the account lifecycle for the learnhub
// platform: registration, email confirmation, login, logout, and password
// recovery.
//
// Lifecycle:
//   - Users are created unconfirmed. A single-use confirmation token is
//     issued at registration and mailed to the user; confirming it is a
//     terminal transition, there is no path back to unconfirmed.
//   - Login is only reachable from a confirmed account and returns a
//     stateless JWT session token carrying identity and role claims.
//   - Password recovery is an orthogonal, repeatable sub-flow backed by the
//     same single-use token store.
//
// Single-use tokens:
//   - ActionToken records are purpose scoped and time boxed. Consumption is
//     a compare-and-swap update on the consumed_at column, so a token can
//     never authorize the same transition twice, even under concurrent
//     requests.
//
// Collaborators (store, hasher, token issuer, notifier) are injected through
// small interfaces; the Bun-backed repositories in this package are the
// default store implementation.
package accounts
