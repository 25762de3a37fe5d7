// Package kernel provides the shared value objects of the parcel tracking domain.
//
// The package includes:
//   - UUID: identifiers for parcels, agents and users
//   - Location: a range-checked WGS84 coordinate with haversine distance
//   - Address: a pickup or delivery point (street line, city/state/zip, Location)
//
// All values are immutable and their zero values fail Validate, so aggregates can
// detect values that bypassed the constructors.
package kernel
