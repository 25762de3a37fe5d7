// Package parcel provides the Parcel aggregate root and the value objects it is
// built from: tracking numbers, QR payloads, item and payment descriptions, the
// status machine and the status history.
//
// The package includes:
//   - Parcel: the aggregate root owning lifecycle, history and agent location
//   - Status: the transition table, the single authority on legal status changes
//   - TrackingNumber: the human-readable label identifier (GF + base36 time + random)
//   - Item, Payment: validated booking details
//   - QRContent: the opaque payload bound into a parcel's QR code
//
// Key business rules:
//   - Parcel lifecycle: Pending -> Assigned -> PickedUp -> InTransit -> Delivered
//   - PickedUp and InTransit parcels may fail; Pending parcels may be cancelled
//   - Assigned parcels may be reassigned to another agent
//   - Delivered, Failed and Cancelled are terminal
//   - Every accepted transition appends exactly one history entry
package parcel
