package attestation

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"betledger/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// MerkleVerifier accepts an attestation whose leaf is included under the
// published root of its voting round
type MerkleVerifier struct {
	mu    sync.RWMutex
	roots map[uint64]common.Hash
}

// RootsFile is the YAML shape of published voting round roots
type RootsFile struct {
	Roots []struct {
		VotingRound uint64 `yaml:"votingRound"`
		Root        string `yaml:"root"`
	} `yaml:"roots"`
}

// NewMerkleVerifier creates a verifier with the given round roots
func NewMerkleVerifier(roots map[uint64]common.Hash) *MerkleVerifier {
	v := &MerkleVerifier{roots: make(map[uint64]common.Hash, len(roots))}
	for round, root := range roots {
		v.roots[round] = root
	}
	return v
}

// LoadMerkleVerifier reads round roots from a YAML file
func LoadMerkleVerifier(path string) (*MerkleVerifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roots file: %w", err)
	}

	var file RootsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse roots file: %w", err)
	}

	roots := make(map[uint64]common.Hash, len(file.Roots))
	for _, r := range file.Roots {
		b, err := hexToHash(r.Root)
		if err != nil {
			return nil, fmt.Errorf("voting round %d: %w", r.VotingRound, err)
		}
		roots[r.VotingRound] = b
	}

	log.WithFields(log.Fields{
		"path":   path,
		"rounds": len(roots),
	}).Info("Loaded attestation roots")
	return NewMerkleVerifier(roots), nil
}

// AddRoot publishes the root of a voting round
func (v *MerkleVerifier) AddRoot(round uint64, root common.Hash) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.roots[round] = root
}

// Verify recomputes the root from the attestation leaf and the proof path
func (v *MerkleVerifier) Verify(ctx context.Context, attestation *entities.Attestation, proof *entities.AttestationProof) (bool, error) {
	if proof == nil {
		return false, nil
	}

	v.mu.RLock()
	root, ok := v.roots[attestation.VotingRound]
	v.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("no root published for voting round %d", attestation.VotingRound)
	}

	leaf, err := Leaf(attestation)
	if err != nil {
		return false, err
	}
	return ProcessProof(leaf, proof.MerkleProof) == root, nil
}

// Leaf hashes the attestation digest once more so leaves never collide with inner nodes
func Leaf(a *entities.Attestation) (common.Hash, error) {
	digest, err := Digest(a)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(digest.Bytes()), nil
}

// ProcessProof folds the proof into leaf using sorted-pair hashing
func ProcessProof(leaf common.Hash, proof []common.Hash) common.Hash {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a.Bytes(), b.Bytes())
}

// Tree is a sorted-pair Merkle tree over attestation leaves
type Tree struct {
	levels [][]common.Hash
}

// BuildTree builds a tree; an odd node is promoted to the next level unchanged
func BuildTree(leaves []common.Hash) *Tree {
	if len(leaves) == 0 {
		return &Tree{}
	}
	level := append([]common.Hash(nil), leaves...)
	levels := [][]common.Hash{level}
	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}
}

// Root returns the tree root, or the zero hash for an empty tree
func (t *Tree) Root() common.Hash {
	if len(t.levels) == 0 {
		return common.Hash{}
	}
	return t.levels[len(t.levels)-1][0]
}

// Proof returns the sibling path of leaf i
func (t *Tree) Proof(i int) ([]common.Hash, error) {
	if len(t.levels) == 0 || i < 0 || i >= len(t.levels[0]) {
		return nil, fmt.Errorf("leaf %d out of range", i)
	}
	var proof []common.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := i ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		i /= 2
	}
	return proof, nil
}

func hexToHash(s string) (common.Hash, error) {
	b := common.FromHex(s)
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("root %q is not 32 bytes", s)
	}
	return common.BytesToHash(b), nil
}
