package assignment

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/explrms/secretSanta/internal/boxes"
)

var (
	ErrInsufficientParticipants = errors.New("at least two participants are required")
	ErrIncompleteProfiles       = errors.New("some participants have not filled the survey")
	ErrAlreadyShuffled          = errors.New("box is already shuffled")
	errNoValidCycle             = errors.New("no valid assignment after resampling")
)

const maxAttempts = 16

// IncompleteProfilesError lists the participants whose survey is still empty.
type IncompleteProfilesError struct {
	UserIDs []int64
}

func (e *IncompleteProfilesError) Error() string {
	return fmt.Sprintf("%s: %v", ErrIncompleteProfiles, e.UserIDs)
}

func (e *IncompleteProfilesError) Is(target error) bool {
	return target == ErrIncompleteProfiles
}

// NewRand returns a ChaCha8 source seeded from the system CSPRNG.
func NewRand() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("seed assignment rng: %v", err))
	}
	return rand.New(rand.NewChaCha8(seed))
}

// Assign maps every giver to a receiver. The participants are permuted uniformly and each
// one gives to the next position in the permutation, wrapping around at the end.
func Assign(participants []boxes.Participation, rng *rand.Rand) (map[int64]int64, error) {
	for _, p := range participants {
		if !p.Open() {
			return nil, ErrAlreadyShuffled
		}
	}
	if len(participants) < 2 {
		return nil, ErrInsufficientParticipants
	}
	var incomplete []int64
	for _, p := range participants {
		if !p.HasProfile() {
			incomplete = append(incomplete, p.UserID)
		}
	}
	if len(incomplete) > 0 {
		sort.Slice(incomplete, func(i, j int) bool { return incomplete[i] < incomplete[j] })
		return nil, &IncompleteProfilesError{UserIDs: incomplete}
	}

	ids := make([]int64, len(participants))
	for i, p := range participants {
		ids[i] = p.UserID
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		pairs := cycle(ids)
		if Valid(ids, pairs) {
			return pairs, nil
		}
	}
	return nil, errNoValidCycle
}

func cycle(ids []int64) map[int64]int64 {
	pairs := make(map[int64]int64, len(ids))
	for i, giver := range ids {
		pairs[giver] = ids[(i+1)%len(ids)]
	}
	return pairs
}

// Valid checks that pairs is a bijection over ids without anyone drawing themselves.
func Valid(ids []int64, pairs map[int64]int64) bool {
	if len(pairs) != len(ids) {
		return false
	}
	members := make(map[int64]bool, len(ids))
	for _, id := range ids {
		members[id] = true
	}
	received := make(map[int64]bool, len(ids))
	for giver, receiver := range pairs {
		if giver == receiver || !members[giver] || !members[receiver] || received[receiver] {
			return false
		}
		received[receiver] = true
	}
	return true
}
