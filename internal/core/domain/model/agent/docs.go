// Package agent provides the Agent aggregate: the delivery agent profile the
// dispatch core assigns parcels to.
//
// The package includes:
//   - Agent: identity, active flag, delivery counters and the list of parcels
//     the agent currently holds
//
// Key business rules:
//   - An agent's ID equals the user ID of its identity claims
//   - Only active agents can take new parcels
//   - A parcel appears at most once in an agent's list
//   - Delivered and failed parcels leave the list and bump the counters
package agent
