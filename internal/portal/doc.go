// Package portal provides the HTTP client for the patient portal queue API.
//
// # Overview
//
// The client is the snapshot fetcher of portalwatch: one call performs one
// request against a queue endpoint and returns a normalized queue.Snapshot.
// It never returns partial data; any failure yields a *FetchError and the
// caller keeps whatever it displayed before.
//
// # API Endpoints
//
//   - GET  /api/queue/consultation?agendaId=<id>
//   - POST /api/queue/emergency     {"patientIds": [...]}
//   - POST /api/queue/telemedicine  {"patientIds": [...]}
//
// Every endpoint answers with the same envelope:
//
//	{"success": true, "message": "", "data": [ {...record...} ]}
//
// A missing or false success flag is a failure. An empty data array is not:
// it means nobody is queued and produces a zero-length snapshot.
//
// # Error Handling
//
// FetchError.Kind tells the failures apart:
//
//   - network: dial errors, timeouts, token source failures
//   - server: HTTP status >= 400
//   - envelope: undecodable body, absent/false success flag, duplicate
//     identities in one response
//
// Query.Validate returns ErrMissingContext when a screen is opened without
// the agenda id or patient ids it needs. That error is not a FetchError and
// is not retried.
//
// # Authentication
//
// The portal login flow issues an opaque bearer token. portalwatch never
// refreshes it; a TokenSource hands the current value to AuthHeaders on each
// request. FileToken re-reads its file every time so an external helper can
// rotate the token in place.
package portal
