package syncer

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/fjod/cart-sync/internal/domain"
)

// fingerprint hashes the serialized aggregate. It exists to detect
// no-op changes (hydration replays, cancelled edits) and skip redundant
// sync calls; values are only ever compared against fingerprints from
// the same process, so a fast non-cryptographic hash is plenty.
func fingerprint(cart domain.CartAggregate) string {
	data, err := json.Marshal(cart)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
