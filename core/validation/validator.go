package validation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"scanledger/core/block"
)

//go:embed schemas/transaction.schema.json
var transactionSchemaJSON []byte

//go:embed schemas/ledger.schema.json
var ledgerSchemaJSON []byte

// ErrInvalidDocument is wrapped when a ledger document does not match the
// ledger schema.
var ErrInvalidDocument = errors.New("invalid ledger document")

var (
	schemaOnce        sync.Once
	schemaErr         error
	transactionSchema *gojsonschema.Schema
	ledgerSchema      *gojsonschema.Schema
)

func loadSchemas() error {
	schemaOnce.Do(func() {
		transactionSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(transactionSchemaJSON))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("transaction schema: %w", schemaErr)
			return
		}
		ledgerSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(ledgerSchemaJSON))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("ledger schema: %w", schemaErr)
		}
	})
	return schemaErr
}

func validate(schema *gojsonschema.Schema, doc []byte) ([]string, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	var problems []string
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

// ValidateTransactionPayload checks a raw transaction payload against the
// transaction schema.
func ValidateTransactionPayload(payload []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	problems, err := validate(transactionSchema, payload)
	if err != nil {
		AuditValidationError("transaction_parse", err.Error())
		return fmt.Errorf("%w: invalid JSON: %v", block.ErrInvalidTransaction, err)
	}
	if len(problems) > 0 {
		AuditValidationError("transaction_schema", strings.Join(problems, "; "))
		return fmt.Errorf("%w: payload failed schema validation: %s", block.ErrInvalidTransaction, strings.Join(problems, "; "))
	}
	return nil
}

// ParseTransactionPayload validates payload and decodes it into a Transaction.
func ParseTransactionPayload(payload []byte) (block.Transaction, error) {
	var tx block.Transaction
	if err := ValidateTransactionPayload(payload); err != nil {
		return tx, err
	}
	if err := json.Unmarshal(payload, &tx); err != nil {
		return tx, fmt.Errorf("%w: %v", block.ErrInvalidTransaction, err)
	}
	if err := tx.Validate(); err != nil {
		AuditValidationError("transaction_fields", err.Error())
		return tx, err
	}
	return tx, nil
}

// ValidateTransaction runs a typed transaction through the payload schema,
// the same check a raw payload gets.
func ValidateTransaction(tx block.Transaction) error {
	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("could not marshal transaction to JSON: %w", err)
	}
	if err := ValidateTransactionPayload(payload); err != nil {
		return err
	}
	return tx.Validate()
}

// ValidateLedgerDocument checks a persisted ledger document's shape.
func ValidateLedgerDocument(doc []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	problems, err := validate(ledgerSchema, doc)
	if err != nil {
		AuditValidationError("ledger_parse", err.Error())
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(problems) > 0 {
		AuditValidationError("ledger_schema", fmt.Sprintf("%d problem(s)", len(problems)))
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
	}
	return nil
}
