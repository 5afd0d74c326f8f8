package block

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"scanledger/types/ids"
)

// ErrInvalidTransaction is wrapped by every Transaction.Validate failure.
var ErrInvalidTransaction = errors.New("invalid transaction")

// ScanType is the imaging modality billed for a visit.
type ScanType string

const (
	ScanCT         ScanType = "CT Scan"
	ScanXRay       ScanType = "X-Ray"
	ScanMRI        ScanType = "MRI"
	ScanUltrasound ScanType = "Ultrasound"
)

// ScanTypes lists the accepted scan types in display order.
var ScanTypes = []ScanType{ScanCT, ScanXRay, ScanMRI, ScanUltrasound}

// Valid reports whether s is one of ScanTypes.
func (s ScanType) Valid() bool {
	for _, v := range ScanTypes {
		if s == v {
			return true
		}
	}
	return false
}

// BodyPart is the scanned region.
type BodyPart string

const (
	BodyHead    BodyPart = "Head"
	BodyChest   BodyPart = "Chest"
	BodyAbdomen BodyPart = "Abdomen"
	BodySpine   BodyPart = "Spine"
	BodyLeg     BodyPart = "Leg"
	BodyArm     BodyPart = "Arm"
	BodyPelvis  BodyPart = "Pelvis"
)

// BodyParts lists the accepted body parts in display order.
var BodyParts = []BodyPart{BodyHead, BodyChest, BodyAbdomen, BodySpine, BodyLeg, BodyArm, BodyPelvis}

// Valid reports whether b is one of BodyParts.
func (b BodyPart) Valid() bool {
	for _, v := range BodyParts {
		if b == v {
			return true
		}
	}
	return false
}

// ParseScanType matches s against ScanTypes ignoring case.
func ParseScanType(s string) (ScanType, error) {
	for _, v := range ScanTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown scan type %q", ErrInvalidTransaction, s)
}

// ParseBodyPart matches s against BodyParts ignoring case.
func ParseBodyPart(s string) (BodyPart, error) {
	for _, v := range BodyParts {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown body part %q", ErrInvalidTransaction, s)
}

// Cost is a non-negative amount in dollars, kept to cents.
// It is stored as a JSON number with two fractional digits.
type Cost struct {
	decimal.Decimal
}

// NewCost rounds d to cents.
func NewCost(d decimal.Decimal) Cost {
	return Cost{d.Round(2)}
}

// CostFromFloat converts a float amount, rounding to cents.
func CostFromFloat(f float64) Cost {
	return NewCost(decimal.NewFromFloat(f))
}

// ParseCost parses a decimal string such as "125.50".
func ParseCost(s string) (Cost, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Cost{}, fmt.Errorf("%w: cost %q: %v", ErrInvalidTransaction, s, err)
	}
	return NewCost(d), nil
}

// String renders the cost with exactly two fractional digits.
func (c Cost) String() string {
	return c.StringFixed(2)
}

func (c Cost) MarshalJSON() ([]byte, error) {
	return []byte(c.StringFixed(2)), nil
}

// UnmarshalJSON accepts both numbers and quoted decimal strings and rounds
// to cents, so a decoded cost equals what MarshalJSON writes back.
func (c *Cost) UnmarshalJSON(data []byte) error {
	if err := c.Decimal.UnmarshalJSON(data); err != nil {
		return err
	}
	*c = NewCost(c.Decimal)
	return nil
}

func (c Cost) MarshalText() ([]byte, error) {
	return []byte(c.StringFixed(2)), nil
}

func (c *Cost) UnmarshalText(text []byte) error {
	if err := c.Decimal.UnmarshalText(text); err != nil {
		return err
	}
	*c = NewCost(c.Decimal)
	return nil
}

// DateLayout is the calendar date format used for visit dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	t time.Time
}

// NewDate builds a Date in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: visit date %q: %v", ErrInvalidTransaction, s, err)
	}
	return Date{t: t}, nil
}

func (d Date) Time() time.Time { return d.t }
func (d Date) IsZero() bool    { return d.t.IsZero() }

func (d Date) String() string {
	return d.t.Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Transaction is one billed scan. NameDigest is the pseudonymous patient
// identifier; PatientName is the deprecated plaintext field some ledgers
// carry so that search by name works. It is passed through untouched.
type Transaction struct {
	NameDigest  string   `json:"name_digest" yaml:"name_digest"`
	ScanType    ScanType `json:"scan_type" yaml:"scan_type"`
	BodyPart    BodyPart `json:"body_part" yaml:"body_part"`
	Cost        Cost     `json:"cost" yaml:"cost"`
	VisitDate   Date     `json:"visit_date" yaml:"visit_date"`
	PatientName *string  `json:"patient_name,omitempty" yaml:"patient_name,omitempty"`
}

// NewTransaction pseudonymizes name and builds a transaction. The name is
// trimmed and lower-cased; when retainName is set the lower-cased plaintext
// is also kept in PatientName.
func NewTransaction(name string, scan ScanType, part BodyPart, cost Cost, visit Date, retainName bool) Transaction {
	normalized := strings.ToLower(strings.TrimSpace(name))
	tx := Transaction{
		NameDigest: ids.PatientDigest(normalized),
		ScanType:   scan,
		BodyPart:   part,
		Cost:       cost,
		VisitDate:  visit,
	}
	if retainName {
		tx.PatientName = &normalized
	}
	return tx
}

// HasPlaintextName reports whether the legacy plaintext field is present.
func (tx Transaction) HasPlaintextName() bool {
	return tx.PatientName != nil
}

// Validate checks the typed payload contract.
func (tx Transaction) Validate() error {
	if !ids.IsDigest(tx.NameDigest) {
		return fmt.Errorf("%w: name_digest must be a hex sha-256 digest", ErrInvalidTransaction)
	}
	if !tx.ScanType.Valid() {
		return fmt.Errorf("%w: unknown scan type %q", ErrInvalidTransaction, tx.ScanType)
	}
	if !tx.BodyPart.Valid() {
		return fmt.Errorf("%w: unknown body part %q", ErrInvalidTransaction, tx.BodyPart)
	}
	if tx.Cost.IsNegative() {
		return fmt.Errorf("%w: cost must not be negative", ErrInvalidTransaction)
	}
	if tx.VisitDate.IsZero() {
		return fmt.Errorf("%w: visit date is required", ErrInvalidTransaction)
	}
	return nil
}
