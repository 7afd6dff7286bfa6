package app

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/peerwave/signaling/internal/domain"
)

// namePool is the finite pool display names are drawn from. A name is held
// for the lifetime of one connection and returns to the pool on disconnect.
var namePool = []string{
	"kitten", "puppy", "bunny", "panda", "koala", "fox", "otter", "hedgehog",
	"squirrel", "hamster", "chick", "duckling", "fawn", "foal", "lamb", "calf",
	"porcupine", "raccoon", "skunk", "mole", "mouse", "ferret", "weasel",
	"beaver", "seahorse", "starfish", "dolphin", "whale", "narwhal", "penguin",
	"flamingo", "pelican", "swallow", "sparrow", "robin", "toucan", "parrot",
	"canary", "cockatoo", "heron",
}

// UnknownName is returned for sessions that never joined a room.
const UnknownName = "unknown"

// pickName draws uniformly at random from the pool, skipping names already
// in use anywhere in the process. When the pool is exhausted it synthesizes
// a fallback from the session id and a high-resolution timestamp, which
// cannot collide with pool names or with other fallbacks.
func pickName(inUse func(string) bool, sid domain.SessionID) string {
	free := make([]string, 0, len(namePool))
	for _, n := range namePool {
		if !inUse(n) {
			free = append(free, n)
		}
	}
	if len(free) == 0 {
		return fallbackName(sid)
	}
	return free[randomIndex(len(free))]
}

func fallbackName(sid domain.SessionID) string {
	short := string(sid)
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("guest-%s-%d", short, time.Now().UnixNano())
}

// randomIndex returns a cryptographically secure random index for a slice of
// the given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		// crypto/rand failure means the platform is broken; fall back to
		// the first candidate rather than crash the relay.
		log.Error().Err(err).Str("module", "app").Msg("random index")
		return 0
	}
	return int(n.Int64())
}
