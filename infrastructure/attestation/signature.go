package attestation

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"betledger/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureVerifier accepts an attestation signed by one of the trusted attesters
type SignatureVerifier struct {
	signers map[common.Address]struct{}
}

// NewSignatureVerifier creates a verifier trusting the given addresses
func NewSignatureVerifier(signers []common.Address) *SignatureVerifier {
	v := &SignatureVerifier{signers: make(map[common.Address]struct{}, len(signers))}
	for _, s := range signers {
		v.signers[s] = struct{}{}
	}
	return v
}

// ParseSigners parses hex addresses as configured in ATTESTATION_SIGNERS
func ParseSigners(hexAddrs []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(hexAddrs))
	for _, h := range hexAddrs {
		h = strings.TrimSpace(h)
		if !common.IsHexAddress(h) {
			return nil, fmt.Errorf("invalid signer address %q", h)
		}
		out = append(out, common.HexToAddress(h))
	}
	return out, nil
}

// Verify recovers the signer of the attestation digest and checks it is trusted
func (v *SignatureVerifier) Verify(ctx context.Context, attestation *entities.Attestation, proof *entities.AttestationProof) (bool, error) {
	if proof == nil || len(proof.Signature) != crypto.SignatureLength {
		return false, nil
	}

	digest, err := Digest(attestation)
	if err != nil {
		return false, err
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, proof.Signature)
	// Accept both the {0,1} and the {27,28} recovery id conventions
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return false, nil
	}
	_, trusted := v.signers[crypto.PubkeyToAddress(*pub)]
	return trusted, nil
}

// Sign produces a signature the verifier accepts; used by attester tooling and tests
func Sign(attestation *entities.Attestation, key *ecdsa.PrivateKey) ([]byte, error) {
	digest, err := Digest(attestation)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign attestation: %w", err)
	}
	return sig, nil
}
