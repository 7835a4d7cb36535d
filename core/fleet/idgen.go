package fleet

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces candidate robot ids. The store checks uniqueness and
// asks again on collision.
type IDGenerator interface {
	NewID(fleetSize int) (string, error)
}

// SerialIDGenerator builds ids shaped like R{n}D{0..99}, where n is the
// position the new robot will take in the fleet.
type SerialIDGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSerialIDGenerator returns a generator seeded with seed. A zero seed uses
// the current time.
func NewSerialIDGenerator(seed int64) *SerialIDGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SerialIDGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *SerialIDGenerator) NewID(fleetSize int) (string, error) {
	g.mu.Lock()
	d := g.rng.Intn(100)
	g.mu.Unlock()
	return fmt.Sprintf("R%dD%d", fleetSize+1, d), nil
}

// UUIDGenerator builds ids from random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(int) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return "R-" + strings.ToUpper(id.String()[:8]), nil
}

// NewIDGenerator returns the generator registered under strategy: "serial"
// (default) or "uuid".
func NewIDGenerator(strategy string, seed int64) (IDGenerator, error) {
	switch strategy {
	case "", "serial":
		return NewSerialIDGenerator(seed), nil
	case "uuid":
		return UUIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
