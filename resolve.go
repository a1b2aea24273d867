package main

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
)

// uniformIndex draws a uniformly distributed index in [0, n) from
// crypto/rand, rejection-sampling to avoid modulo bias.
func uniformIndex(n int) int {
	if n <= 1 {
		return 0
	}

	// Values below the threshold would make the top residue classes
	// overrepresented, so redraw on them.
	threshold := uint32((1 << 32) % uint64(n))
	var buf [4]byte

	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v >= threshold {
			return int(v % uint32(n))
		}
	}
}

// candidatePool builds the deduplicated set of restaurants eligible for a
// randomized pick: the match set when more than one restaurant matched,
// otherwise the union of both participants' picks. A restaurant appearing
// in both sets enters the pool once, so a popular choice is not
// double-weighted. Pool order is first-seen order, which the wheel relies
// on for its slice layout.
func candidatePool(sess *Session) []string {
	if sess.Result != nil && len(sess.Result.Matches) > 1 {
		return append([]string(nil), sess.Result.Matches...)
	}

	seen := make(map[string]bool, 2*selectionSize)
	pool := make([]string, 0, 2*selectionSize)
	for _, sel := range []*Selection{sess.Person1, sess.Person2} {
		if sel == nil {
			continue
		}
		for _, id := range sel.Restaurants {
			if seen[id] {
				continue
			}
			seen[id] = true
			pool = append(pool, id)
		}
	}
	return pool
}

// resolveByMatch settles the session on the sole common restaurant.
// Only legal when exactly one restaurant matched.
func resolveByMatch(res *Result) error {
	if res == nil || len(res.Matches) != 1 {
		return ErrAmbiguousMatch
	}

	res.Winner = res.Matches[0]
	res.Method = MethodMatch
	return nil
}

// resolveRandom draws a uniform winner from the pool. Re-invocation
// overwrites the previous winner; participants may re-roll at will.
func resolveRandom(res *Result, pool []string) error {
	if len(pool) == 0 {
		return fmt.Errorf("%w: empty candidate pool", ErrValidation)
	}

	res.Winner = pool[uniformIndex(len(pool))]
	res.Method = MethodRandom
	return nil
}

// resolveByWheel applies a wheel spin outcome reported by the client.
// The wheel itself is presentation; the server only checks that the
// reported slice addresses the pool it handed out.
func resolveByWheel(res *Result, pool []string, slice int) error {
	if len(pool) == 0 {
		return fmt.Errorf("%w: empty candidate pool", ErrValidation)
	}
	if slice < 0 || slice >= len(pool) {
		return fmt.Errorf("%w: wheel slice %d out of range [0,%d)", ErrValidation, slice, len(pool))
	}

	res.Winner = pool[slice]
	res.Method = MethodWheel
	return nil
}

// resolveManual records a winner a participant picked by hand. The pick
// must come from the candidate pool.
func resolveManual(res *Result, pool []string, id string) error {
	for _, c := range pool {
		if c == id {
			res.Winner = id
			res.Method = MethodChoice
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not in the candidate pool", ErrValidation, id)
}

// wheelSlice maps a final wheel angle (degrees, arbitrary sign and
// magnitude) to the slice index under a pointer fixed at 0°. The circle
// is partitioned into n equal slices in pool order, so uniformly random
// angles yield uniformly random slices regardless of animation easing.
func wheelSlice(angle float64, n int) int {
	if n <= 0 {
		return 0
	}

	deg := math.Mod(angle, 360)
	if deg < 0 {
		deg += 360
	}

	idx := int(deg / (360 / float64(n)))
	if idx >= n { // deg arbitrarily close to 360
		idx = n - 1
	}
	return idx
}

// spinAngle produces a uniformly random final angle for server-driven
// spins, independent of any prior spin.
func spinAngle() float64 {
	return float64(uniformIndex(360_000)) / 1000
}
