// Package beacon implements verification of randomness beacon outputs
// published by a drand network: deterministic round timing, a freshness (TTL)
// check and BLS verification of round signatures chained to the previous
// round.
package beacon

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/veriphys/go-pbt/core/result/failure"
)

const (
	// GenesisSeconds is the unix time at which round 1 of the default beacon
	// network was published.
	GenesisSeconds uint64 = 1595431050
	// PeriodSeconds is the cadence at which the beacon publishes rounds.
	PeriodSeconds uint64 = 30
	// TTLMillis is the maximum allowed staleness of a round. Signatures
	// referencing a round whose nominal time is further in the past are
	// rejected.
	TTLMillis uint64 = 60000
)

type InvalidRoundError struct {
	failure.NamedWithStackTrace
	round uint64
}

func NewInvalidRoundError(round uint64) InvalidRoundError {
	return InvalidRoundError{failure.NamedWithCurrentStackTrace("InvalidRound"), round}
}

func (ire InvalidRoundError) Round() uint64 {
	return ire.round
}

func (ire InvalidRoundError) Error() string {
	return fmt.Sprintf("round %d precedes the beacon genesis round", ire.round)
}

// TimeOfRound returns the unix millisecond time at which the given round is
// published. Round numbering starts at 1; round 0 does not exist and yields
// an InvalidRoundError rather than wrapping below genesis.
func TimeOfRound(round uint64) (uint64, error) {
	if round == 0 {
		return 0, NewInvalidRoundError(round)
	}
	return (GenesisSeconds + PeriodSeconds*(round-1)) * 1000, nil
}

// IsWithinTTL reports whether a round is fresh enough at the given unix
// millisecond time. A round whose nominal time is still in the future is
// always fresh - the local clock may lag the beacon and rejecting valid
// near-future rounds would only hurt honest callers.
func IsWithinTTL(round uint64, nowMillis uint64) (bool, error) {
	roundTime, err := TimeOfRound(round)
	if err != nil {
		return false, err
	}
	if nowMillis < roundTime {
		return true, nil
	}
	return nowMillis-roundTime <= TTLMillis, nil
}

// RoundDigest computes the message a beacon signature for the given round
// signs: SHA-256 over the previous round's signature followed by the round
// number as an 8 byte big-endian integer. Chaining the previous signature in
// ties each round to its position in the beacon sequence.
func RoundDigest(prevSig []byte, round uint64) []byte {
	h := sha256.New()
	h.Write(prevSig)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], round)
	h.Write(buf[:])
	return h.Sum(nil)
}
