package currency

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TimestampLayout is the layout of the timestamp field of a persisted conversion.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	resultTolerance = 1e-9
	codeRules       = "required,len=3,uppercase,alpha"
)

var validate = validator.New()

type (
	// Conversion is one currency conversion event. It is written to storage
	// once and never updated in place.
	Conversion struct {
		From      string  `validate:"required,len=3,uppercase,alpha"`
		To        string  `validate:"required,len=3,uppercase,alpha"`
		Amount    float64 `validate:"gt=0"`
		Result    float64
		Rate      float64 `validate:"gt=0"`
		Timestamp time.Time
	}

	// Pair is the from->to direction of a conversion.
	Pair struct {
		From string
		To   string
	}

	// Signature identifies conversions that represent the same logical
	// conversion regardless of when they were made.
	Signature struct {
		From   string
		To     string
		Amount float64
		Rate   float64
	}

	// Rates maps a currency code to its rate against the requested base.
	Rates map[string]float64

	conversionJSON struct {
		From      string   `json:"from_currency"`
		To        string   `json:"to_currency"`
		Amount    *float64 `json:"amount"`
		Result    *float64 `json:"result"`
		Rate      *float64 `json:"rate"`
		Timestamp string   `json:"timestamp"`
	}
)

func (p Pair) String() string {
	return p.From + "->" + p.To
}

func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (c Conversion) Pair() Pair {
	return Pair{From: c.From, To: c.To}
}

func (c Conversion) Signature() Signature {
	return Signature{From: c.From, To: c.To, Amount: c.Amount, Rate: c.Rate}
}

// NormalizeCode upper-cases and trims a currency code typed by the user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode reports whether code is a three letter uppercase currency code.
func ValidateCode(code string) error {
	if err := validate.Var(code, codeRules); err != nil {
		return fmt.Errorf("%w: %q is not a three letter currency code", ErrInvalidConversion, code)
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func (c Conversion) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConversion, err)
	}

	if !finite(c.Amount) || !finite(c.Rate) || !finite(c.Result) {
		return fmt.Errorf("%w: amount %v, rate %v and result %v must be finite", ErrInvalidConversion, c.Amount, c.Rate, c.Result)
	}

	expected := c.Amount * c.Rate
	if math.Abs(c.Result-expected) > resultTolerance*math.Max(1, math.Abs(expected)) {
		return fmt.Errorf("%w: result %v does not match amount * rate = %v", ErrInvalidConversion, c.Result, expected)
	}

	if c.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is not set", ErrInvalidConversion)
	}

	return nil
}

func (c Conversion) MarshalJSON() ([]byte, error) {
	return json.Marshal(conversionJSON{
		From:      c.From,
		To:        c.To,
		Amount:    &c.Amount,
		Result:    &c.Result,
		Rate:      &c.Rate,
		Timestamp: c.Timestamp.Format(TimestampLayout),
	})
}

func (c *Conversion) UnmarshalJSON(data []byte) error {
	var raw conversionJSON

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	missing := make([]string, 0, 6)

	if raw.From == "" {
		missing = append(missing, "from_currency")
	}
	if raw.To == "" {
		missing = append(missing, "to_currency")
	}
	if raw.Amount == nil {
		missing = append(missing, "amount")
	}
	if raw.Result == nil {
		missing = append(missing, "result")
	}
	if raw.Rate == nil {
		missing = append(missing, "rate")
	}
	if raw.Timestamp == "" {
		missing = append(missing, "timestamp")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	ts, err := time.ParseInLocation(TimestampLayout, raw.Timestamp, time.Local)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}

	*c = Conversion{
		From:      raw.From,
		To:        raw.To,
		Amount:    *raw.Amount,
		Result:    *raw.Result,
		Rate:      *raw.Rate,
		Timestamp: ts,
	}

	return nil
}

// EncodeConversion renders the persisted form of a conversion.
func EncodeConversion(c Conversion) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// DecodeConversion parses and validates a persisted conversion. Every failure
// wraps ErrDecode.
func DecodeConversion(data []byte) (Conversion, error) {
	var c Conversion

	if err := json.Unmarshal(data, &c); err != nil {
		return Conversion{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if err := c.Validate(); err != nil {
		return Conversion{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return c, nil
}
