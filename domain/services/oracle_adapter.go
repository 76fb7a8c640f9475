package services

import (
	"context"
	"fmt"

	"betledger/config"
	"betledger/domain/entities"
	"betledger/domain/eventid"
	"betledger/domain/interfaces"
	"betledger/domain/ledgererr"

	log "github.com/sirupsen/logrus"
)

type oracleAdapter struct {
	config         *config.Config
	sportEventRepo interfaces.SportEventRepository
	settlement     interfaces.SettlementService
	verifier       interfaces.AttestationVerifier
}

// NewOracleAdapter creates the adapter that turns attestations into finalizations
func NewOracleAdapter(
	sportEventRepo interfaces.SportEventRepository,
	settlement interfaces.SettlementService,
	verifier interfaces.AttestationVerifier,
) interfaces.OracleAdapter {
	return &oracleAdapter{
		config:         config.Get(),
		sportEventRepo: sportEventRepo,
		settlement:     settlement,
		verifier:       verifier,
	}
}

// SubmitAttestation finalizes the attested event once its proof verifies
func (s *oracleAdapter) SubmitAttestation(ctx context.Context, attestation *entities.Attestation, proof *entities.AttestationProof) (*entities.SportEvent, error) {
	uid, err := eventid.FromAttestation(attestation)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.ReasonMismatchedEvent, err, "cannot derive uid from attestation")
	}

	event, err := s.sportEventRepo.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get sport event: %w", err)
	}
	if event == nil {
		return nil, ledgererr.New(ledgererr.ReasonMismatchedEvent, "attestation refers to unknown event %s", uid.Hex())
	}
	if event.IsFinalized() {
		return nil, ledgererr.New(ledgererr.ReasonAlreadyFinalized, "event %s was already finalized", uid.Hex())
	}

	ok, err := s.verifier.Verify(ctx, attestation, proof)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.ReasonInvalidProof, err, "attestation for %s could not be verified", uid.Hex())
	}
	if !ok {
		return nil, ledgererr.New(ledgererr.ReasonInvalidProof, "attestation for %s rejected", uid.Hex())
	}

	log.WithFields(log.Fields{
		"uid":         uid.Hex(),
		"votingRound": attestation.VotingRound,
		"sourceId":    attestation.SourceID,
	}).Debug("Attestation verified")

	return s.settlement.Finalize(ctx, uid, attestation.ResultChoiceID(), false)
}

// ManualFinalize lets an operator record a result without a proof
func (s *oracleAdapter) ManualFinalize(ctx context.Context, operator string, uid entities.EventUID, resultChoiceID int) (*entities.SportEvent, error) {
	if !s.IsOperator(operator) {
		return nil, ledgererr.New(ledgererr.ReasonUnauthorized, "%q may not override results", operator)
	}

	log.WithFields(log.Fields{
		"uid":      uid.Hex(),
		"operator": operator,
		"result":   resultChoiceID,
	}).Warn("Manual result override")

	return s.settlement.Finalize(ctx, uid, resultChoiceID, true)
}

// IsOperator checks if identity may run privileged operations
func (s *oracleAdapter) IsOperator(identity string) bool {
	return s.config.IsOperator(identity)
}
