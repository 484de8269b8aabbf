package classifier

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
)

// TicketIssuer allocates tracking ticket identifiers for classified
// messages. The key is the source message id; implementations may ignore it.
type TicketIssuer interface {
	Issue(key string) string
}

// RandomIssuer issues a fresh random ticket on every call. Suitable for
// exploratory one-off classification where the same message is never
// classified twice.
type RandomIssuer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomIssuer creates a random issuer seeded with seed.
func NewRandomIssuer(seed int64) *RandomIssuer {
	return &RandomIssuer{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomIssuer) Issue(string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("JIRA-%d", 100000+r.rng.Intn(900000))
}

// DeterministicIssuer derives the ticket from a hash of the key, so the same
// source message always yields the same ticket across runs and restarts.
// Required wherever a message may be classified more than once, notably the
// reply subsystem.
type DeterministicIssuer struct{}

func (DeterministicIssuer) Issue(key string) string {
	sum := md5.Sum([]byte(key))
	v, _ := strconv.ParseUint(hex.EncodeToString(sum[:])[:6], 16, 64)
	return fmt.Sprintf("JIRA-%d", 613400+v%1000)
}
