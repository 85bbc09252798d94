package models

import (
	"encoding/json"
	"strings"
	"unicode"
)

// FieldKind is the storage type of a field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindFloat
	KindInt
	KindBool
	KindJSON
)

// Field is one entry of the mapping between the external (camelCase) name of a Signal
// member and its column. Column is always ToSnake(External).
type Field struct {
	External string
	Column   string
	Kind     FieldKind
	Required bool
	// Internal fields are persisted but never appear as a named JSON member.
	Internal bool

	get func(*Signal) any
	set func(*Signal, any)
}

// Get returns the field value as string, float64, int64, bool or JSONObject; nil when absent.
func (f Field) Get(s *Signal) any { return f.get(s) }

// Set assigns v, which must be of the Go type matching Kind.
func (f Field) Set(s *Signal, v any) { f.set(s, v) }

var storageFields = []Field{
	{
		External: "id", Kind: KindText, Required: true,
		get: func(s *Signal) any { return s.ID },
		set: func(s *Signal, v any) { s.ID = v.(string) },
	},
	{
		External: "timestamp", Kind: KindInt, Required: true,
		get: func(s *Signal) any { return s.Timestamp },
		set: func(s *Signal, v any) { s.Timestamp = v.(int64) },
	},
	textField("tokenSymbol", func(s *Signal) **string { return &s.TokenSymbol }),
	textField("tokenAddress", func(s *Signal) **string { return &s.TokenAddress }),
	textField("walletAddress", func(s *Signal) **string { return &s.WalletAddress }),
	floatField("winPercentage", func(s *Signal) **float64 { return &s.WinPercentage }),
	floatField("buySize", func(s *Signal) **float64 { return &s.BuySize }),
	floatField("entryMarketCap", func(s *Signal) **float64 { return &s.EntryMarketCap }),
	floatField("currentROI", func(s *Signal) **float64 { return &s.CurrentROI }),
	textField("tokenName", func(s *Signal) **string { return &s.TokenName }),
	textField("tokenImage", func(s *Signal) **string { return &s.TokenImage }),
	{
		External: "hasImage", Kind: KindBool,
		get: func(s *Signal) any {
			if s.HasImage == nil {
				return nil
			}
			return *s.HasImage
		},
		set: func(s *Signal, v any) { b := v.(bool); s.HasImage = &b },
	},
	floatField("marketCap", func(s *Signal) **float64 { return &s.MarketCap }),
	floatField("fdv", func(s *Signal) **float64 { return &s.FDV }),
	floatField("priceUSD", func(s *Signal) **float64 { return &s.PriceUSD }),
	floatField("volume24h", func(s *Signal) **float64 { return &s.Volume24h }),
	floatField("liquidityAmount", func(s *Signal) **float64 { return &s.LiquidityAmount }),
	textField("liquidityRatio", func(s *Signal) **string { return &s.LiquidityRatio }),
	textField("age", func(s *Signal) **TokenAge { return &s.Age }),
	{
		External: "totalHolders", Kind: KindInt,
		get: func(s *Signal) any {
			if s.TotalHolders == nil {
				return nil
			}
			return *s.TotalHolders
		},
		set: func(s *Signal, v any) { n := v.(int64); s.TotalHolders = &n },
	},
	textField("riskLevel", func(s *Signal) **RiskLevel { return &s.RiskLevel }),
	floatField("freshWalletPercentage", func(s *Signal) **float64 { return &s.FreshWalletPercentage }),
	textField("freshWallets1d", func(s *Signal) **string { return &s.FreshWallets1d }),
	textField("freshWallets7d", func(s *Signal) **string { return &s.FreshWallets7d }),
	floatField("lpPercentage", func(s *Signal) **float64 { return &s.LPPercentage }),
	textField("percentChange1h", func(s *Signal) **string { return &s.PercentChange1h }),
	textField("buys24h", func(s *Signal) **string { return &s.Buys24h }),
	textField("sells24h", func(s *Signal) **string { return &s.Sells24h }),
	textField("twitterUrl", func(s *Signal) **string { return &s.TwitterURL }),
	textField("websiteUrl", func(s *Signal) **string { return &s.WebsiteURL }),
	textField("dexscreenerUrl", func(s *Signal) **string { return &s.DexscreenerURL }),
	textField("definedUrl", func(s *Signal) **string { return &s.DefinedURL }),
	textField("signalType", func(s *Signal) **SignalType { return &s.SignalType }),
	textField("alertType", func(s *Signal) **string { return &s.AlertType }),
	textField("source", func(s *Signal) **string { return &s.Source }),
	jsonField("analysis", false, func(s *Signal) *JSONObject { return &s.Analysis }),
	jsonField("extra", true, func(s *Signal) *JSONObject { return &s.Extra }),
}

var (
	byExternal = map[string]int{}
	byColumn   = map[string]int{}
)

func init() {
	for i := range storageFields {
		storageFields[i].Column = ToSnake(storageFields[i].External)
		if !storageFields[i].Internal {
			byExternal[storageFields[i].External] = i
		}
		byColumn[storageFields[i].Column] = i
	}
}

func textField[T ~string](name string, ref func(*Signal) **T) Field {
	return Field{
		External: name,
		Kind:     KindText,
		get: func(s *Signal) any {
			if p := *ref(s); p != nil {
				return string(*p)
			}
			return nil
		},
		set: func(s *Signal, v any) {
			t := T(v.(string))
			*ref(s) = &t
		},
	}
}

func floatField(name string, ref func(*Signal) **float64) Field {
	return Field{
		External: name,
		Kind:     KindFloat,
		get: func(s *Signal) any {
			if p := *ref(s); p != nil {
				return *p
			}
			return nil
		},
		set: func(s *Signal, v any) {
			f := v.(float64)
			*ref(s) = &f
		},
	}
}

func jsonField(name string, internal bool, ref func(*Signal) *JSONObject) Field {
	return Field{
		External: name,
		Kind:     KindJSON,
		Internal: internal,
		get: func(s *Signal) any {
			if o := *ref(s); o != nil {
				return o
			}
			return nil
		},
		set: func(s *Signal, v any) {
			src := v.(JSONObject)
			dst := make(JSONObject, len(src))
			for k, m := range src {
				dst[k] = append(json.RawMessage(nil), m...)
			}
			*ref(s) = dst
		},
	}
}

// Fields returns the full storage mapping, including internal columns, in column order.
func Fields() []Field {
	out := make([]Field, len(storageFields))
	copy(out, storageFields)
	return out
}

// Columns returns the column names in the same order as Fields.
func Columns() []string {
	cols := make([]string, len(storageFields))
	for i, f := range storageFields {
		cols[i] = f.Column
	}
	return cols
}

// IsKnownField reports whether name is a named external member of Signal.
func IsKnownField(name string) bool {
	_, ok := byExternal[name]
	return ok
}

// ToColumn maps an external field name to its column.
func ToColumn(external string) (string, bool) {
	i, ok := byExternal[external]
	if !ok {
		return "", false
	}
	return storageFields[i].Column, true
}

// ToExternal maps a column back to the external field name.
func ToExternal(column string) (string, bool) {
	i, ok := byColumn[column]
	if !ok || storageFields[i].Internal {
		return "", false
	}
	return storageFields[i].External, true
}

// ToSnake converts a camelCase identifier to snake_case. Runs of capitals are treated as
// one word ("priceUSD" -> "price_usd") and digits stay attached ("volume24h" -> "volume24h").
func ToSnake(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := rs[i-1]
				nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
