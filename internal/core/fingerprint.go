package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the content identity of a mail piece from its image
// locator key and delivery date. The same inputs always hash to the same
// fingerprint; it is the sole dedup key across repeated ingest runs.
func Fingerprint(locatorKey, deliveryDate string) string {
	sum := sha256.Sum256([]byte(locatorKey + "|" + deliveryDate))
	return hex.EncodeToString(sum[:])
}

// RecordID builds the persisted row id for one tile of a message. A single
// digest can yield several mail pieces, so the message id alone is not
// unique; a fingerprint prefix disambiguates.
func RecordID(messageID, fingerprint string) string {
	suffix := fingerprint
	if len(suffix) > 12 {
		suffix = suffix[:12]
	}
	return messageID + ":" + suffix
}
