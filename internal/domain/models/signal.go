package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Valid reports whether r is one of the known levels. Ingestion never rejects unknown values.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

type SignalType string

const (
	SignalBuy   SignalType = "buy"
	SignalSell  SignalType = "sell"
	SignalAlert SignalType = "alert"
)

func (t SignalType) Valid() bool {
	switch t {
	case SignalBuy, SignalSell, SignalAlert:
		return true
	}
	return false
}

// TokenAge is free-form ("2h", "3d") or a number of minutes.
// Numbers are kept as their decimal text.
type TokenAge string

// Minutes returns the age in minutes when it was given as a number.
func (a TokenAge) Minutes() (float64, bool) {
	v, err := strconv.ParseFloat(string(a), 64)
	return v, err == nil
}

// JSONObject holds raw JSON members keyed by name. It is stored as one JSON text column.
type JSONObject map[string]json.RawMessage

func (o JSONObject) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]json.RawMessage(o))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *JSONObject) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scan json object: unsupported type %T", src)
	}
	if len(b) == 0 || string(b) == "null" {
		*o = nil
		return nil
	}
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("scan json object: %w", err)
	}
	*o = m
	return nil
}

// Signal is one detected trading opportunity or wallet activity for a token.
// ID and Timestamp are always set once stored; every other field may be absent.
type Signal struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`

	TokenSymbol    *string  `json:"tokenSymbol,omitempty"`
	TokenAddress   *string  `json:"tokenAddress,omitempty"`
	WalletAddress  *string  `json:"walletAddress,omitempty"`
	WinPercentage  *float64 `json:"winPercentage,omitempty"`
	BuySize        *float64 `json:"buySize,omitempty"`
	EntryMarketCap *float64 `json:"entryMarketCap,omitempty"`
	CurrentROI     *float64 `json:"currentROI,omitempty"`

	TokenName             *string     `json:"tokenName,omitempty"`
	TokenImage            *string     `json:"tokenImage,omitempty"`
	HasImage              *bool       `json:"hasImage,omitempty"`
	MarketCap             *float64    `json:"marketCap,omitempty"`
	FDV                   *float64    `json:"fdv,omitempty"`
	PriceUSD              *float64    `json:"priceUSD,omitempty"`
	Volume24h             *float64    `json:"volume24h,omitempty"`
	LiquidityAmount       *float64    `json:"liquidityAmount,omitempty"`
	LiquidityRatio        *string     `json:"liquidityRatio,omitempty"`
	Age                   *TokenAge   `json:"age,omitempty"`
	TotalHolders          *int64      `json:"totalHolders,omitempty"`
	RiskLevel             *RiskLevel  `json:"riskLevel,omitempty"`
	FreshWalletPercentage *float64    `json:"freshWalletPercentage,omitempty"`
	FreshWallets1d        *string     `json:"freshWallets1d,omitempty"`
	FreshWallets7d        *string     `json:"freshWallets7d,omitempty"`
	LPPercentage          *float64    `json:"lpPercentage,omitempty"`
	PercentChange1h       *string     `json:"percentChange1h,omitempty"`
	Buys24h               *string     `json:"buys24h,omitempty"`
	Sells24h              *string     `json:"sells24h,omitempty"`
	TwitterURL            *string     `json:"twitterUrl,omitempty"`
	WebsiteURL            *string     `json:"websiteUrl,omitempty"`
	DexscreenerURL        *string     `json:"dexscreenerUrl,omitempty"`
	DefinedURL            *string     `json:"definedUrl,omitempty"`
	SignalType            *SignalType `json:"signalType,omitempty"`
	AlertType             *string     `json:"alertType,omitempty"`
	Source                *string     `json:"source,omitempty"`
	Analysis              JSONObject  `json:"analysis,omitempty"`

	// Extra keeps top-level members no field above knows about. They are written back flat.
	Extra JSONObject `json:"-"`
}

// signalJSON has the same fields as Signal without its JSON methods.
type signalJSON Signal

var (
	ErrNotObject = errors.New("signal must be a JSON object")
	ErrFieldType = errors.New("unsupported value type")
)

// UnmarshalJSON fills named fields from members whose key matches exactly; every other member
// goes to Extra. Numeric strings are accepted for number fields and numbers for text fields.
func (s *Signal) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return ErrNotObject
	}

	var v Signal
	for k, m := range raw {
		i, ok := byExternal[k]
		if !ok {
			if v.Extra == nil {
				v.Extra = JSONObject{}
			}
			v.Extra[k] = m
			continue
		}
		if err := decodeField(storageFields[i], &v, m); err != nil {
			return err
		}
	}
	*s = v
	return nil
}

func decodeField(f Field, s *Signal, m json.RawMessage) error {
	m = bytes.TrimSpace(m)
	if len(m) == 0 || string(m) == "null" {
		return nil
	}

	var val any
	switch f.Kind {
	case KindText:
		switch m[0] {
		case '"':
			var str string
			if err := json.Unmarshal(m, &str); err != nil {
				return fieldTypeError(f, m)
			}
			val = str
		case '{', '[', 't', 'f':
			return fieldTypeError(f, m)
		default:
			var n json.Number
			if err := json.Unmarshal(m, &n); err != nil {
				return fieldTypeError(f, m)
			}
			val = n.String()
		}
	case KindFloat:
		n, err := numberText(m)
		if err != nil {
			return fieldTypeError(f, m)
		}
		fv, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(fv) || math.IsInf(fv, 0) {
			return fieldTypeError(f, m)
		}
		val = fv
	case KindInt:
		n, err := numberText(m)
		if err != nil {
			return fieldTypeError(f, m)
		}
		iv, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			fv, ferr := strconv.ParseFloat(n, 64)
			if ferr != nil || fv != math.Trunc(fv) || math.Abs(fv) >= math.MaxInt64 {
				return fieldTypeError(f, m)
			}
			iv = int64(fv)
		}
		val = iv
	case KindBool:
		var bv bool
		if err := json.Unmarshal(m, &bv); err != nil {
			var str string
			if json.Unmarshal(m, &str) != nil {
				return fieldTypeError(f, m)
			}
			if bv, err = strconv.ParseBool(str); err != nil {
				return fieldTypeError(f, m)
			}
		}
		val = bv
	case KindJSON:
		var o JSONObject
		if err := json.Unmarshal(m, &o); err != nil || o == nil {
			return fieldTypeError(f, m)
		}
		val = o
	}
	f.set(s, val)
	return nil
}

func fieldTypeError(f Field, m json.RawMessage) error {
	return fmt.Errorf("%s: %w %s", f.External, ErrFieldType, m)
}

// numberText returns the text of a JSON number or of a string holding one.
func numberText(m json.RawMessage) (string, error) {
	if m[0] == '"' {
		var str string
		if err := json.Unmarshal(m, &str); err != nil {
			return "", err
		}
		return strings.TrimSpace(str), nil
	}
	var n json.Number
	if err := json.Unmarshal(m, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func (s Signal) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(signalJSON(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return b, nil
	}

	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		if !IsKnownField(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	for _, k := range keys {
		name, _ := json.Marshal(k)
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		if len(s.Extra[k]) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(s.Extra[k])
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeSignal parses a request or message body into a Signal.
func DecodeSignal(b []byte) (*Signal, error) {
	s := &Signal{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Clone returns a deep copy so stored records cannot be changed through returned pointers.
func (s *Signal) Clone() *Signal {
	if s == nil {
		return nil
	}
	c := &Signal{}
	for _, f := range storageFields {
		if v := f.get(s); v != nil {
			f.set(c, v)
		}
	}
	return c
}
