// Package access turns a request into an access decision.
//
// Authorize evaluates, in a fixed order and stopping at the first failure:
//
//  1. kill switch off: Bypassed, with no I/O
//  2. CSRF origin check failed: Forbidden("csrf")
//  3. no valid session credential: Unauthenticated
//  4. identity not linked to a profile: Forbidden("no-profile-linked")
//  5. profile disabled: Forbidden("account-disabled"), even for superusers
//  6. superuser: Authorized
//  7. required apps empty or intersecting the granted apps: Authorized,
//     otherwise Forbidden("app-access-denied")
//
// Authenticate stops after step 4 and checks the active flag directly against the
// store, bypassing the entitlement cache.
package access
