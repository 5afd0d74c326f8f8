package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"scanledger/core/audit"
	"scanledger/core/block"
	"scanledger/core/scan"
	"scanledger/core/storage"
	"scanledger/core/validation"
	"scanledger/types/ids"
)

// ErrMalformedStore is wrapped when the persisted document exists but cannot
// be read back as a ledger.
var ErrMalformedStore = errors.New("malformed ledger store")

// Store runs every ledger operation as a full read-modify-write of the
// backend's document. There is no locking: two stores over the same
// document silently overwrite each other's changes.
type Store struct {
	backend    storage.Backend
	log        zerolog.Logger
	audit      audit.AuditLogger
	now        func() time.Time
	retainName bool
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l.With().Str("component", "ledger").Logger() }
}

func WithAuditLogger(a audit.AuditLogger) Option {
	return func(s *Store) { s.audit = a }
}

// WithClock sets the source of block timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetainName controls whether Record keeps the plaintext patient name.
func WithRetainName(retain bool) Option {
	return func(s *Store) { s.retainName = retain }
}

func NewStore(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		log:        zerolog.Nop(),
		audit:      audit.NopAuditLogger{},
		now:        time.Now,
		retainName: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the storage medium the store reads and writes.
func (s *Store) Backend() storage.Backend {
	return s.backend
}

// RetainsName reports whether Record keeps plaintext names.
func (s *Store) RetainsName() bool {
	return s.retainName
}

// Load reads the whole ledger. A missing document is an empty ledger; a
// document that does not parse or match the ledger schema is an error and
// nothing is returned.
func (s *Store) Load() ([]block.Block, error) {
	data, err := s.backend.Read()
	if errors.Is(err, storage.ErrNotFound) {
		s.log.Debug().Msg("[LEDGER] no ledger document yet, starting empty")
		return []block.Block{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if err := validation.ValidateLedgerDocument(data); err != nil {
		s.log.Error().Err(err).Msg("[LEDGER] stored document failed validation")
		return nil, fmt.Errorf("%w: %w", ErrMalformedStore, err)
	}
	var chain []block.Block
	if err := json.Unmarshal(data, &chain); err != nil {
		s.log.Error().Err(err).Msg("[LEDGER] stored document could not be decoded")
		return nil, fmt.Errorf("%w: %w", ErrMalformedStore, err)
	}
	if chain == nil {
		chain = []block.Block{}
	}
	return chain, nil
}

// Save overwrites the document with chain, indented four spaces.
func (s *Store) Save(chain []block.Block) error {
	if chain == nil {
		chain = []block.Block{}
	}
	data, err := json.MarshalIndent(chain, "", "    ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.backend.Write(data); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	s.log.Debug().Int("blocks", len(chain)).Msg("[LEDGER] ledger saved")
	return nil
}

// Append validates tx, links it onto the stored chain and saves. The new
// block is returned.
func (s *Store) Append(tx block.Transaction) (block.Block, error) {
	if err := validation.ValidateTransaction(tx); err != nil {
		s.auditFailure(audit.EventBlockAppended, "", err)
		return block.Block{}, err
	}
	chain, err := s.Load()
	if err != nil {
		s.auditFailure(audit.EventBlockAppended, "", err)
		return block.Block{}, err
	}
	chain = block.Append(chain, tx, s.now())
	if err := s.Save(chain); err != nil {
		s.auditFailure(audit.EventBlockAppended, "", err)
		return block.Block{}, err
	}
	added := chain[len(chain)-1]

	s.log.Info().
		Int("position", added.Position).
		Str("digest", added.Digest).
		Msg("[LEDGER] block appended")
	ev := audit.NewEvent(audit.EventBlockAppended, added.Digest, audit.ResultSuccess)
	ev.Metadata = map[string]string{
		"position":       strconv.Itoa(added.Position),
		"plaintext_name": strconv.FormatBool(added.Transaction.HasPlaintextName()),
	}
	s.audit.LogEvent(ev)
	return added, nil
}

// Record builds a transaction for a named patient, honoring the store's
// name-retention setting, and appends it.
func (s *Store) Record(name string, scanType block.ScanType, part block.BodyPart, cost block.Cost, visit block.Date) (block.Block, error) {
	return s.Append(block.NewTransaction(name, scanType, part, cost, visit, s.retainName))
}

// FindByPatientName returns blocks whose plaintext patient name matches name,
// ignoring case. A blank name returns nothing.
func (s *Store) FindByPatientName(name string) ([]block.Block, error) {
	chain, err := s.Load()
	if err != nil {
		return nil, err
	}
	found := block.FindByPatientName(chain, name)

	query := strings.TrimSpace(name)
	if query == "" {
		return found, nil
	}
	result := audit.ResultSuccess
	if len(found) == 0 {
		result = audit.ResultNoMatch
	}
	ev := audit.NewEvent(audit.EventPatientSearch, ids.PatientDigest(query), result)
	ev.Metadata = map[string]string{"hits": strconv.Itoa(len(found))}
	s.audit.LogEvent(ev)
	s.log.Debug().Int("hits", len(found)).Msg("[LEDGER] patient search")
	return found, nil
}

// Delete removes the block at position and saves the renumbered chain.
// Digests and links are not repaired. Returns false, and writes nothing,
// when no block has that position.
func (s *Store) Delete(position int) (bool, error) {
	chain, err := s.Load()
	if err != nil {
		s.auditFailure(audit.EventBlockDeleted, strconv.Itoa(position), err)
		return false, err
	}
	out, removed := block.DeleteAt(chain, position)
	if !removed {
		s.log.Info().Int("position", position).Msg("[LEDGER] no block at position, nothing deleted")
		s.audit.LogEvent(audit.NewEvent(audit.EventBlockDeleted, strconv.Itoa(position), audit.ResultNoMatch))
		return false, nil
	}
	if err := s.Save(out); err != nil {
		s.auditFailure(audit.EventBlockDeleted, strconv.Itoa(position), err)
		return false, err
	}

	s.log.Warn().
		Int("position", position).
		Int("remaining", len(out)).
		Msg("[LEDGER] block deleted; links were not repaired")
	ev := audit.NewEvent(audit.EventBlockDeleted, strconv.Itoa(position), audit.ResultSuccess)
	ev.Metadata = map[string]string{"remaining": strconv.Itoa(len(out))}
	s.audit.LogEvent(ev)
	return true, nil
}

// Verify loads the chain and scans it.
func (s *Store) Verify() (scan.Report, error) {
	chain, err := s.Load()
	if err != nil {
		s.auditFailure(audit.EventChainVerified, "", err)
		return scan.Report{}, err
	}
	report := scan.ScanChain(chain)

	result := audit.ResultSuccess
	if !report.Intact() {
		result = audit.ResultFailure
	}
	ev := audit.NewEvent(audit.EventChainVerified, report.Fingerprint, result)
	ev.Metadata = map[string]string{
		"blocks":   strconv.Itoa(report.Blocks),
		"findings": strconv.Itoa(len(report.Findings)),
	}
	s.audit.LogEvent(ev)
	s.log.Info().
		Int("blocks", report.Blocks).
		Bool("intact", report.Intact()).
		Msg("[LEDGER] chain verified")
	return report, nil
}

func (s *Store) auditFailure(eventType, entity string, err error) {
	ev := audit.NewEvent(eventType, entity, audit.ResultFailure)
	ev.Reason = err.Error()
	s.audit.LogEvent(ev)
}
