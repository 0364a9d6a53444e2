package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// InputChecksum computes a hex-encoded SHA-256 over the canonical JSON form
// of the scoring inputs. Map keys are emitted in sorted order so two
// semantically identical inputs always hash the same regardless of the
// ordering the document arrived with.
func InputChecksum(inputs map[string]float64, configVersion string) string {
	var sb strings.Builder
	sb.WriteString(configVersion)
	sb.WriteByte('\n')
	sb.WriteString(canonicalJSON(inputs))
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// canonicalJSON renders a flat numeric map as JSON with sorted keys.
func canonicalJSON(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		sb.Write(kb)
		sb.WriteByte(':')
		// %g drops trailing zeros, keeping 2 and 2.0 identical on the wire.
		sb.WriteString(fmt.Sprintf("%g", m[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}
