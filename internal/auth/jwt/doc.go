// Package jwt verifies the gateway's signed credentials and exposes the
// claims the filter chain needs.
//
// A Codec classifies a token as valid, expired or invalid. Verification is
// pure: it depends only on the token, the configured KeySet and the wall
// clock read at call time. Keys come from a static public key, an HMAC
// secret, a JWKS document fetched at startup, or a Vault KV secret.
package jwt
