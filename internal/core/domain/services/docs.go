// Package services provides domain services that coordinate the parcel and agent
// aggregates for the dispatch workflows.
//
// The package includes:
//   - AccessGuard: role and ownership checks gating every parcel operation
//   - StatusMachine: applies legal transitions and keeps agent lists and counters in step
//   - LocationTracker: accepts agent position reports for en-route parcels
//
// Services are stateless values; persistence and notification happen in the
// application layer around them.
package services
