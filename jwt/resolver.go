package jwt

import "github.com/halimath/jwtguard/jwk"

// keyID and its hasKeyID interface (headercache.go) already cover any key
// exposing an ID() string method, which every jwk.Key implementation does
// via jwk.KeyDescription — so the resolver reuses it directly instead of
// re-declaring a jwk-specific lookup.

// SigningKeyResolver produces the preferred verification key for a token,
// or nil if none can be singled out. ValidationParameters.IssuerSigningKeyResolver
// lets a caller override the built-in kid/x5t resolution order of §4.5;
// when it yields nil the Validator falls back to trying every configured
// key.
type SigningKeyResolver interface {
	Resolve(token *CompactToken, params *ValidationParameters) any
}

// DefaultSigningKeyResolver implements the resolution order: kid against
// issuerSigningKey then issuerSigningKeys; failing that, x5t against
// issuerSigningKey's id, then its thumbprint if it's an X.509 key, then
// issuerSigningKeys by id or, for X.509 keys, by thumbprint.
var DefaultSigningKeyResolver SigningKeyResolver = defaultSigningKeyResolver{}

type defaultSigningKeyResolver struct{}

func (defaultSigningKeyResolver) Resolve(token *CompactToken, params *ValidationParameters) any {
	h := token.Header()

	if h.KeyID != "" {
		if params.IssuerSigningKey != nil {
			if id, ok := keyID(params.IssuerSigningKey); ok && id == h.KeyID {
				return params.IssuerSigningKey
			}
		}
		if found := jwkSet(params.IssuerSigningKeys).First(jwk.WithID(h.KeyID)); found != nil {
			return found
		}
		return nil
	}

	if h.X5T != "" {
		if params.IssuerSigningKey != nil {
			if id, ok := keyID(params.IssuerSigningKey); ok && id == h.X5T {
				return params.IssuerSigningKey
			}
			if x5k, ok := params.IssuerSigningKey.(*jwk.X509Key); ok && x5k.Thumbprint() == h.X5T {
				return params.IssuerSigningKey
			}
		}
		if found := jwkSet(params.IssuerSigningKeys).First(func(k jwk.Key) bool {
			if k.ID() == h.X5T {
				return true
			}
			x5k, ok := k.(*jwk.X509Key)
			return ok && x5k.Thumbprint() == h.X5T
		}); found != nil {
			return found
		}
		return nil
	}

	return nil
}

// jwkSet narrows a ValidationParameters candidate list down to the entries
// that are jwk.Key implementations, so the kid/x5t lookups above can reuse
// jwk.Set's filtering instead of re-walking the slice by hand. Raw crypto
// keys (e.g. a bare *rsa.PublicKey) carry no "kid"/"x5t" of their own and so
// are never addressable this way; they still participate in the multi-key
// trial via candidateKeys.
func jwkSet(keys []any) jwk.Set {
	set := make(jwk.Set, 0, len(keys))
	for _, k := range keys {
		if jk, ok := k.(jwk.Key); ok {
			set = append(set, jk)
		}
	}
	return set
}

// KeysFromSet flattens a jwk.Set (as decoded from a JWKS document) into the
// []any shape ValidationParameters.IssuerSigningKeys expects.
func KeysFromSet(set jwk.Set) []any {
	keys := make([]any, len(set))
	for i, k := range set {
		keys[i] = k
	}
	return keys
}

// candidateKeys returns the full configured key set in the order the
// multi-key trial attempts them: issuerSigningKey first, then
// issuerSigningKeys.
func candidateKeys(params *ValidationParameters) []any {
	var keys []any
	if params.IssuerSigningKey != nil {
		keys = append(keys, params.IssuerSigningKey)
	}
	keys = append(keys, params.IssuerSigningKeys...)
	return keys
}
