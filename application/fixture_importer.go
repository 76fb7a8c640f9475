package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"betledger/domain/entities"
	"betledger/domain/eventid"
	"betledger/domain/ledgererr"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// TitleSeparator joins the team names of a fixture into the event title
const TitleSeparator = " - "

// FixtureFile is the YAML document read by the importer
type FixtureFile struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// Fixture describes one event to register
type Fixture struct {
	Teams     []string        `yaml:"teams"`
	StartTime FixtureTime     `yaml:"startTime"`
	Gender    string          `yaml:"gender"`
	Sport     string          `yaml:"sport"`
	Choices   []FixtureChoice `yaml:"choices"`
	SeedPool  int64           `yaml:"seedPool"`
	UID       string          `yaml:"uid,omitempty"`
}

// FixtureChoice is one outcome of a fixture with its seed weight
type FixtureChoice struct {
	Label         string `yaml:"label"`
	InitialWeight int64  `yaml:"initialWeight"`
}

// FixtureTime is an epoch second that also accepts RFC 3339 timestamps
type FixtureTime int64

// UnmarshalYAML decodes either an integer or a timestamp scalar
func (t *FixtureTime) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: startTime must be a scalar", node.Line)
	}
	if secs, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*t = FixtureTime(secs)
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid startTime %q: %w", node.Line, node.Value, err)
	}
	*t = FixtureTime(parsed.Unix())
	return nil
}

// Title joins the teams into the event title
func (f Fixture) Title() string {
	return strings.Join(f.Teams, TitleSeparator)
}

// Params converts the fixture into registration inputs
func (f Fixture) Params() (entities.SportEventParams, error) {
	sport, err := parseSport(f.Sport)
	if err != nil {
		return entities.SportEventParams{}, ledgererr.Wrap(ledgererr.ReasonInvalidSport, err, "fixture %q", f.Title())
	}
	gender, err := parseGender(f.Gender)
	if err != nil {
		return entities.SportEventParams{}, ledgererr.Wrap(ledgererr.ReasonInvalidGender, err, "fixture %q", f.Title())
	}

	params := entities.SportEventParams{
		Title:     f.Title(),
		StartTime: int64(f.StartTime),
		SportID:   sport,
		GenderID:  gender,
		SeedPool:  f.SeedPool,
	}
	for _, c := range f.Choices {
		params.ChoiceLabels = append(params.ChoiceLabels, c.Label)
		params.InitialWeights = append(params.InitialWeights, c.InitialWeight)
	}
	return params, nil
}

func parseSport(value string) (uint8, error) {
	if n, err := strconv.ParseUint(value, 10, 8); err == nil {
		return uint8(n), nil
	}
	sport, err := entities.ParseSport(value)
	return uint8(sport), err
}

func parseGender(value string) (uint8, error) {
	if n, err := strconv.ParseUint(value, 10, 8); err == nil {
		return uint8(n), nil
	}
	gender, err := entities.ParseGender(value)
	return uint8(gender), err
}

// parseUID decodes a 0x-prefixed 32-byte uid
func parseUID(value string) (entities.EventUID, error) {
	b, err := hexutil.Decode(value)
	if err != nil {
		return entities.EventUID{}, err
	}
	if len(b) != common.HashLength {
		return entities.EventUID{}, fmt.Errorf("uid %q has %d bytes, want %d", value, len(b), common.HashLength)
	}
	return common.BytesToHash(b), nil
}

// ParseFixtures decodes a fixture document
func ParseFixtures(r io.Reader) ([]Fixture, error) {
	var file FixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	return file.Fixtures, nil
}

// EventCreator registers sport events
type EventCreator interface {
	CreateSportEvent(ctx context.Context, params entities.SportEventParams) (*entities.SportEvent, error)
}

// FixtureOutcome is the result of importing one fixture
type FixtureOutcome struct {
	Title string
	UID   entities.EventUID
	Err   error
}

// ImportReport summarizes an import run
type ImportReport struct {
	Created    []FixtureOutcome
	Duplicates []FixtureOutcome
	Rejected   []FixtureOutcome
}

// FixtureImporter registers the events described by fixture files
type FixtureImporter struct {
	creator EventCreator
}

// NewFixtureImporter creates an importer writing through creator
func NewFixtureImporter(creator EventCreator) *FixtureImporter {
	return &FixtureImporter{creator: creator}
}

// ImportFile reads and imports a fixture file
func (i *FixtureImporter) ImportFile(ctx context.Context, path string) (*ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer f.Close()

	fixtures, err := ParseFixtures(f)
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, fixtures), nil
}

// Import registers each fixture in its own transaction. Fixtures whose event
// already exists are skipped; invalid ones are rejected without stopping the run.
func (i *FixtureImporter) Import(ctx context.Context, fixtures []Fixture) *ImportReport {
	report := &ImportReport{}
	for _, fx := range fixtures {
		outcome := i.importOne(ctx, fx)
		switch {
		case outcome.Err == nil:
			report.Created = append(report.Created, outcome)
		case errors.Is(outcome.Err, ledgererr.ErrDuplicateEvent):
			report.Duplicates = append(report.Duplicates, outcome)
		default:
			report.Rejected = append(report.Rejected, outcome)
		}
	}

	log.WithFields(log.Fields{
		"created":    len(report.Created),
		"duplicates": len(report.Duplicates),
		"rejected":   len(report.Rejected),
	}).Info("Fixture import finished")
	return report
}

func (i *FixtureImporter) importOne(ctx context.Context, fx Fixture) FixtureOutcome {
	outcome := FixtureOutcome{Title: fx.Title()}

	params, err := fx.Params()
	if err != nil {
		outcome.Err = err
		return outcome
	}

	derived, err := eventid.Derive(params.SportID, params.GenderID, params.StartTime, params.Title)
	if err != nil {
		outcome.Err = ledgererr.Wrap(ledgererr.ReasonInvalidStartTime, err, "fixture %q", outcome.Title)
		return outcome
	}
	outcome.UID = derived
	if fx.UID != "" {
		declared, err := parseUID(fx.UID)
		if err != nil {
			outcome.Err = ledgererr.Wrap(ledgererr.ReasonInvalidUID, err, "fixture %q", outcome.Title)
			return outcome
		}
		if declared != derived {
			outcome.Err = ledgererr.New(ledgererr.ReasonMismatchedEvent,
				"fixture %q declares uid %s but derives %s", outcome.Title, declared.Hex(), derived.Hex())
			return outcome
		}
	}

	event, err := i.creator.CreateSportEvent(ctx, params)
	if err != nil {
		log.WithError(err).WithField("title", outcome.Title).Warn("Fixture not imported")
		outcome.Err = err
		return outcome
	}

	log.WithFields(log.Fields{
		"uid":   event.UID.Hex(),
		"title": event.Title,
	}).Debug("Fixture imported")
	return outcome
}
