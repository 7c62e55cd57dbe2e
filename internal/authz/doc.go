// Package authz implements the role- and organization-scoped access
// decision of the pipeline.
//
// Core concepts:
//
//   - Tier: every role carries an implicit scope tier
//     (standard < department_admin < division_admin < super_admin).
//
//   - Division boundary: below super_admin the division boundary is
//     absolute. There is no cross-division exception for any other tier.
//
//   - Department scope: inside the requester's division, division_admin
//     and above see every department; everyone else only their own.
//
// Decisions are pure functions over the loaded role table: no I/O, no
// retries, deterministic for a given input. Unknown roles fail closed.
package authz
