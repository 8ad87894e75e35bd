// Package identity authenticates registry callers over HTTP.
//
// A caller is an Ethereum style account. Mutating requests carry three headers:
//
//   - X-Registry-Address: the claimed account, 0x prefixed hex
//   - X-Registry-Timestamp: unix seconds at signing time
//   - X-Registry-Signature: 65 byte recoverable secp256k1 signature, hex encoded
//
// The signature covers the EIP-191 personal message
//
//	METHOD \n PATH \n TIMESTAMP \n hex(sha256(body))
//
// so the same payload can be signed by a browser wallet with personal_sign.
// The server recovers the signer from the signature and rejects the request
// unless it equals the claimed address and the timestamp is within the
// allowed clock skew.
package identity
