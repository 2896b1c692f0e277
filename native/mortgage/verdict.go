package mortgage

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrNotOracle rejects reports from any sender other than the
	// configured verdict-delivery address.
	ErrNotOracle = errors.New("mortgage engine: sender is not the credit oracle")
	// ErrUnknownWorkflow rejects reports whose workflow discriminator is
	// outside the supported set.
	ErrUnknownWorkflow = errors.New("mortgage engine: unknown report workflow")
	// ErrInvalidVerdict rejects verdict payloads that fail validation.
	ErrInvalidVerdict = errors.New("mortgage engine: invalid verdict payload")
)

// Workflow discriminates the report kinds the delivery channel can carry. The
// set is closed and versioned; unknown values fail rather than fall through.
type Workflow uint8

const (
	// WorkflowCreditVerdict carries an underwriting approve/reject decision.
	WorkflowCreditVerdict Workflow = 1
)

// ReportMetadata frames an oracle report. Sequence orders reports from the
// same oracle for audit trails; the engine itself only dispatches on
// Workflow.
type ReportMetadata struct {
	Workflow Workflow `json:"workflow"`
	Sequence uint64   `json:"sequence"`
}

// CreditVerdict is the JSON payload of a WorkflowCreditVerdict report.
// Addresses and fingerprints are hex encoded; amounts are 6-decimal USDC
// integers.
type CreditVerdict struct {
	Borrower        string   `json:"borrower"`
	Fingerprint     string   `json:"fingerprint"`
	Approved        bool     `json:"approved"`
	CollateralID    uint64   `json:"collateralId"`
	Limit           *big.Int `json:"limit"`
	TenureMonths    uint64   `json:"tenureMonths"`
	PeriodicPayment *big.Int `json:"periodicPayment"`
	Expiry          int64    `json:"expiry"`
}

// verdictTerms is the decoded, validated form consumed by the engine.
type verdictTerms struct {
	borrower        [20]byte
	fingerprint     [32]byte
	approved        bool
	collateralID    uint64
	limit           *big.Int
	tenureMonths    uint64
	periodicPayment *big.Int
	expiry          int64
}

// DeliverReport is the single trusted entry point for oracle reports. The
// sender must match the address fixed at construction; the embedded workflow
// discriminator routes the payload to its handler.
func (e *Engine) DeliverReport(sender [20]byte, meta ReportMetadata, payload []byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if sender != e.oracle {
		return ErrNotOracle
	}
	switch meta.Workflow {
	case WorkflowCreditVerdict:
		verdict := &CreditVerdict{}
		if err := json.Unmarshal(payload, verdict); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidVerdict, err)
		}
		terms, err := decodeVerdict(verdict)
		if err != nil {
			return err
		}
		return e.consumeVerdict(terms)
	default:
		return ErrUnknownWorkflow
	}
}

func decodeVerdict(v *CreditVerdict) (verdictTerms, error) {
	terms := verdictTerms{
		approved:     v.Approved,
		collateralID: v.CollateralID,
		tenureMonths: v.TenureMonths,
		expiry:       v.Expiry,
	}
	borrower, err := decodeHex20(v.Borrower)
	if err != nil {
		return terms, fmt.Errorf("%w: borrower: %v", ErrInvalidVerdict, err)
	}
	terms.borrower = borrower
	fingerprint, err := decodeHex32(v.Fingerprint)
	if err != nil {
		return terms, fmt.Errorf("%w: fingerprint: %v", ErrInvalidVerdict, err)
	}
	terms.fingerprint = fingerprint
	if !v.Approved {
		terms.limit = big.NewInt(0)
		terms.periodicPayment = big.NewInt(0)
		return terms, nil
	}
	if v.Limit == nil || v.Limit.Sign() <= 0 {
		return terms, fmt.Errorf("%w: approved limit must be positive", ErrInvalidVerdict)
	}
	if v.PeriodicPayment == nil || v.PeriodicPayment.Sign() <= 0 {
		return terms, fmt.Errorf("%w: periodic payment must be positive", ErrInvalidVerdict)
	}
	if v.TenureMonths == 0 {
		return terms, fmt.Errorf("%w: tenure must be positive", ErrInvalidVerdict)
	}
	if v.Expiry <= 0 {
		return terms, fmt.Errorf("%w: expiry must be set", ErrInvalidVerdict)
	}
	terms.limit = new(big.Int).Set(v.Limit)
	terms.periodicPayment = new(big.Int).Set(v.PeriodicPayment)
	return terms, nil
}

func decodeHex20(value string) ([20]byte, error) {
	var out [20]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return out, err
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("expected 20 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func decodeHex32(value string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
