package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content fingerprints. The version suffix allows the
// encoding to change without colliding with old hashes.
const (
	DomainAutomaton = "tioga/automaton/v1"
	DomainModel     = "tioga/model/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content hash of one automaton.
func Fingerprint(a *Automaton) (string, error) {
	canonical, err := MarshalCanonical(canonicalAutomaton(a))
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal %q: %w", a.Name, err)
	}
	return hashWithDomain(DomainAutomaton, canonical), nil
}

// modelHash hashes the sorted name→fingerprint map.
func modelHash(m *Model) (string, error) {
	obj := make(map[string]any, len(m.names))
	for _, name := range m.names {
		fp, err := Fingerprint(m.automata[name])
		if err != nil {
			return "", err
		}
		obj[name] = fp
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainModel, canonical), nil
}
