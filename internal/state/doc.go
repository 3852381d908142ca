// Package state holds logjam's session state and submission state machine.
//
// # Overview
//
// Store is the single owner of everything the UI shows: the form fields
// (log text, selected platform, selected version), the option lists, the
// validation errors, the chart descriptors returned by the backend, the
// submit phase and the status banners. The startup loader and HTTP
// completions run on goroutines while the UI reads snapshots, so every
// method takes the store's mutex.
//
//	Loader goroutine:             UI (Bubble Tea update loop):
//	┌──────────────────┐         ┌────────────────────────┐
//	│ FetchPlatforms() │         │ SetLogText / Cycle*    │
//	│ AppendPlatforms()│────────→│ BeginSubmit → cmd      │
//	│ FetchVersions()  │ (mutex) │ FinishSubmit ← msg     │
//	│ AppendVersions() │         │ Snapshot() → View()    │
//	└──────────────────┘         └────────────────────────┘
//
// # Option Lists
//
// Both lists start with a placeholder at index 0 ("All Platforms",
// "All Versions") whose value is nil, meaning no filter. Server entries are
// appended in order and never replaced or de-duplicated. Prefer selects
// filters by name as soon as a matching entry exists.
//
// # Submission State Machine
//
//	Idle → Validating ─┬→ Submitting ─┬→ Success   → Idle
//	                   │              ├→ NoResults → Idle
//	                   │              └→ Failed    → Idle
//	                   └→ Rejected → Idle
//
// BeginSubmit validates. An empty or whitespace-only log text produces
// exactly one error, "Log text is required", and no ticket; existing charts
// are left untouched. A valid form clears the chart list, cancels any
// in-flight ticket and issues a new one whose context carries the submit
// timeout and a fresh request ID.
//
// FinishSubmit accepts the response for a ticket. Only the most recently
// issued ticket is honoured; anything else reports OutcomeSuperseded and
// changes nothing, so a slow stale response can never replace newer charts.
// A response whose first chart has a zero second value (the backend's match
// count), or an empty response, is NoResults. Errors become an error banner:
//
//	Error getting occurrences: 500 Internal Server Error
//	Error getting occurrences: request timed out
//
// Submit chains both halves synchronously for the headless mode.
//
// # Snapshots
//
// Snapshot returns deep copies of every slice and option value. Generation
// changes whenever the chart list is replaced or cleared, which lets the UI
// rebuild its pies (and assign colours) once per result set instead of on
// every render.
package state
