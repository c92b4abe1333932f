package utils

import (
	"golang.org/x/crypto/sha3"
)

// CommitmentSize is the digest length every commitment must have.
const CommitmentSize = 32

// ComputeCommitment derives the commitment digest for a move and salt using
// legacy keccak256 over move‖salt. A reveal is accepted only if recomputing
// this digest reproduces the stored commitment exactly.
func ComputeCommitment(move, salt []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(move)
	h.Write(salt)
	return h.Sum(nil)
}
