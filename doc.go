// Package joalistay is the session core of the JoaliStay booking front end:
// it keeps the client held credentials, talks to the booking backend and
// decides which pages the current user may open.
//
// Session:
//   - SessionManager is the single owner of a session. AuthService writes it
//     on login, logout and refresh, Gateway clears it when the backend answers
//     401. Everything else reads snapshots or subscribes to changes.
//   - Values live in a Storage. The storage package provides in-memory,
//     SQLite and Redis media plus prefixed views for per visitor sessions.
//
// Gateway:
//   - Every backend call goes through Gateway, which adds the bearer token,
//     turns error responses into categorized errors and forces the login
//     route every time a token is rejected.
//
// Guards:
//   - Guard and BookingGuard settle synchronously. Role checks only shape
//     navigation. The backend authorizes every call again, so neither guard
//     is a security boundary.
package joalistay
