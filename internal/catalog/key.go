package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// SignatureVersion is stamped into every signature payload. Bump it (and add
// a new schema table) instead of editing signatureFields, otherwise keys
// already handed out for identifier-less items change.
const SignatureVersion = 1

// signatureFields is the v1 descriptor schema hashed into "sig:" keys.
var signatureFields = map[Family][]string{
	FamilyTradingCard: {"game", "set_name", "number", "language", "printing"},
	FamilyVideoGame:   {"platform", "region", "edition"},
	FamilyMusic:       {"artist", "album", "year"},
	FamilySneakers:    {"brand", "model", "colorway", "sku", "size"},
	FamilyLego:        {"theme", "year"},
	FamilyGeneric:     {"brand", "model"},
}

// ResolveKey derives the catalog key from normalized identifiers. The first
// present identifier in priority order wins; without any, a signature key is
// derived from the category and the family's descriptor fields in params.
func ResolveKey(category string, ids Identifiers, params map[string]any) string {
	for _, r := range slotRules {
		if v := *r.get(&ids); v != "" {
			return r.namespace + ":" + v
		}
	}
	return "sig:" + signatureHash(category, ids, params)
}

// SignaturePayload is the canonical map hashed for "sig:" keys. Exposed for
// auditing which fields an identifier-less key depends on.
func SignaturePayload(category string, ids Identifiers, params map[string]any) map[string]any {
	payload := map[string]any{
		"v":   SignatureVersion,
		"cat": NormalizeCategory(category),
	}
	for k, v := range ids.Map() {
		payload[k] = v
	}
	for _, field := range signatureFields[FamilyOf(category)] {
		if v := strings.ToLower(scalarString(params[field])); v != "" {
			payload["d_"+field] = v
		}
	}
	return payload
}

func signatureHash(category string, ids Identifiers, params map[string]any) string {
	// encoding/json sorts map keys, which makes the serialization canonical.
	raw, err := json.Marshal(SignaturePayload(category, ids, params))
	if err != nil {
		raw = []byte(NormalizeCategory(category))
	}
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])[:16]
}
