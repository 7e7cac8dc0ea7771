package history

import (
	"crypto/md5"
	"encoding/hex"
)

// Key derives the stable identifier both stores index by. Two requests
// naming the same platform and problem title always collide to the same key.
func Key(site, problemTitle string) string {
	sum := md5.Sum([]byte(site + ":" + problemTitle))
	return hex.EncodeToString(sum[:])
}
