// Package auth keeps a single client side authentication session in sync with
// an external identity provider and exposes the credential actions that move
// it.
//
// Session lifecycle:
//   - The session starts Unresolved. Only the provider observer can resolve it,
//     to Anonymous or Authenticated. Observer writes are authoritative and each
//     notification fully replaces the previous one.
//   - Credential actions (Register, SignIn, SignInFederated) settle an
//     optimistic Confirming session that carries the identity but is not
//     authenticated until the observer confirms it. SignOut and UpdateProfile
//     write through the same transition table.
//   - Every confirmed new authentication bumps the session epoch, which lets
//     the route guard drop destinations recorded before an earlier sign-in.
//
// Results:
//   - Actions never panic and never return bare errors; they return a Result
//     whose Kind classifies the failure and whose Err is a go-errors rich error
//     carrying the operation and provider code as metadata.
//
// Activity sinks:
//   - ActivitySink receives best-effort audit events for logins, registrations,
//     logouts, profile updates, password resets and observer driven session
//     changes. Sink errors are logged, never returned.
//
// Feature gates:
//   - Signup, federated sign-in and password reset can be switched off through
//     a go-featuregate gate; a disabled feature yields KindDisabled.
package auth
