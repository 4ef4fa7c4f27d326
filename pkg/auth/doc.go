// Package auth implements the gateway's authentication core: extraction of
// bearer credentials from requests, the signed session token codec, and the
// session resolver that turns a verified token into a Principal.
//
// Sessions are stateless. All authority lives in the token's HMAC signature
// and claims; nothing is persisted server-side and expiry is the only
// kill-switch.
package auth
