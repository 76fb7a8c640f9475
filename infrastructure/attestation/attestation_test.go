package attestation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"betledger/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAttestation(teams string, result uint8) *entities.Attestation {
	return &entities.Attestation{
		AttestationType: "MatchResult",
		SourceID:        "sportradar",
		VotingRound:     812345,
		RequestBody: entities.MatchResultRequest{
			Date:  1720009222,
			Sport: 0,
			Teams: teams,
		},
		ResponseBody: entities.MatchResultResponse{Timestamp: 1720016422, Result: result},
	}
}

func TestDigest(t *testing.T) {
	a, err := Digest(testAttestation("Italy - Brazil", 1))
	require.NoError(t, err)
	b, err := Digest(testAttestation("Italy - Brazil", 1))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := Digest(testAttestation("Italy - Brazil", 2))
	require.NoError(t, err)
	assert.NotEqual(t, a, other, "result is part of the digest")

	bad := testAttestation("Italy - Brazil", 1)
	bad.RequestBody.Date = -1
	_, err = Digest(bad)
	assert.Error(t, err)
}

func TestMerkleVerifier(t *testing.T) {
	ctx := context.Background()
	attestations := []*entities.Attestation{
		testAttestation("Italy - Brazil", 1),
		testAttestation("Spain - France", 0),
		testAttestation("Nadal - Federer", 1),
		testAttestation("Lakers - Celtics", 0),
		testAttestation("Japan - Korea", 2),
	}
	leaves := make([]common.Hash, len(attestations))
	for i, a := range attestations {
		leaf, err := Leaf(a)
		require.NoError(t, err)
		leaves[i] = leaf
	}
	tree := BuildTree(leaves)
	verifier := NewMerkleVerifier(map[uint64]common.Hash{812345: tree.Root()})

	for i, a := range attestations {
		proof, err := tree.Proof(i)
		require.NoError(t, err)
		ok, err := verifier.Verify(ctx, a, &entities.AttestationProof{MerkleProof: proof})
		require.NoError(t, err)
		assert.True(t, ok, "leaf %d", i)
	}

	t.Run("tampered result", func(t *testing.T) {
		proof, err := tree.Proof(0)
		require.NoError(t, err)
		ok, err := verifier.Verify(ctx, testAttestation("Italy - Brazil", 2), &entities.AttestationProof{MerkleProof: proof})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("wrong proof", func(t *testing.T) {
		proof, err := tree.Proof(1)
		require.NoError(t, err)
		ok, err := verifier.Verify(ctx, attestations[0], &entities.AttestationProof{MerkleProof: proof})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown round", func(t *testing.T) {
		a := testAttestation("Italy - Brazil", 1)
		a.VotingRound = 1
		_, err := verifier.Verify(ctx, a, &entities.AttestationProof{})
		assert.Error(t, err)
	})

	t.Run("missing proof", func(t *testing.T) {
		ok, err := verifier.Verify(ctx, attestations[0], nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestLoadMerkleVerifier(t *testing.T) {
	leaf, err := Leaf(testAttestation("Italy - Brazil", 1))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "roots.yaml")
	content := "roots:\n  - votingRound: 812345\n    root: \"" + leaf.Hex() + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	verifier, err := LoadMerkleVerifier(path)
	require.NoError(t, err)

	// a single-leaf tree has an empty proof
	ok, err := verifier.Verify(context.Background(), testAttestation("Italy - Brazil", 1), &entities.AttestationProof{})
	require.NoError(t, err)
	assert.True(t, ok)

	badPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("roots:\n  - votingRound: 1\n    root: \"0x1234\"\n"), 0o600))
	_, err = LoadMerkleVerifier(badPath)
	assert.Error(t, err)
}

func TestSignatureVerifier(t *testing.T) {
	ctx := context.Background()
	trustedKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	strangerKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	verifier := NewSignatureVerifier([]common.Address{crypto.PubkeyToAddress(trustedKey.PublicKey)})
	a := testAttestation("Italy - Brazil", 1)

	sig, err := Sign(a, trustedKey)
	require.NoError(t, err)

	t.Run("trusted signer", func(t *testing.T) {
		ok, err := verifier.Verify(ctx, a, &entities.AttestationProof{Signature: sig})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("27/28 recovery id", func(t *testing.T) {
		legacy := append([]byte(nil), sig...)
		legacy[64] += 27
		ok, err := verifier.Verify(ctx, a, &entities.AttestationProof{Signature: legacy})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("untrusted signer", func(t *testing.T) {
		other, err := Sign(a, strangerKey)
		require.NoError(t, err)
		ok, err := verifier.Verify(ctx, a, &entities.AttestationProof{Signature: other})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("signature over another result", func(t *testing.T) {
		ok, err := verifier.Verify(ctx, testAttestation("Italy - Brazil", 0), &entities.AttestationProof{Signature: sig})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed signature", func(t *testing.T) {
		ok, err := verifier.Verify(ctx, a, &entities.AttestationProof{Signature: []byte{1, 2, 3}})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestParseSigners(t *testing.T) {
	addrs, err := ParseSigners([]string{"0x00000000000000000000000000000000000000aa", " 0x00000000000000000000000000000000000000Bb "})
	require.NoError(t, err)
	assert.Len(t, addrs, 2)

	_, err = ParseSigners([]string{"not-an-address"})
	assert.Error(t, err)
}
