// Package jwt implements a JSON Web Token handler: it turns a claim set and
// signing/encrypting credentials into a JWS or JWE compact string (Build)
// and, conversely, parses such a string, verifies its signature, decrypts it
// if needed, and validates its semantic claims (Validate). This package
// contains a compliant implementation of RFC7519
// (https://datatracker.ietf.org/doc/html/rfc7519).
package jwt
