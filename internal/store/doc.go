// Package store is the entry point to casstore. A Store combines a
// backend with the digest engine and a codec:
//
//   - Write hashes a value with digest.Digest, encodes it with the codec
//     and puts the bytes under the value's type tag
//   - Get and GetAll fetch by hash or scan a partition and decode
//   - Delete and DeleteAll pass through to the backend
//
// The Raw variants skip hashing and the codec. WriteRaw trusts the hash
// it is given: the store never re-hashes raw content, so a wrong hash
// is stored as-is and later reads by the correct hash miss.
//
// Errors fall into three families that callers can tell apart with
// errors.As: *digest.EncodeError (the value has no canonical encoding),
// *CodecError (bytes could not be encoded or decoded), and
// *backend.Error (storage failed).
//
// A Store is owned by one goroutine at a time and performs each call
// synchronously as a single backend operation.
package store
