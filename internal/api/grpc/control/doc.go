// Package control implements the gRPC transport for the sentinel control API.
//
// Messages are well-known protobuf types: requests and replies are
// google.protobuf.Struct documents and timestamps inside them use the canonical
// JSON form of google.protobuf.Timestamp. The service descriptor is declared by
// hand, so no generated code is needed on either side.
package control
