// Package testutil builds Signal fixtures shared by store, service and handler tests.
package testutil

import (
	"encoding/json"

	"SignalDesk/internal/domain/models"
)

func Ptr[T any](v T) *T { return &v }

// FullSignal returns a record with every external field set to a non-zero value.
func FullSignal(id string, ts int64) *models.Signal {
	return &models.Signal{
		ID:                    id,
		Timestamp:             ts,
		TokenSymbol:           Ptr("BONK"),
		TokenAddress:          Ptr("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"),
		WalletAddress:         Ptr("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"),
		WinPercentage:         Ptr(87.5),
		BuySize:               Ptr(2.25),
		EntryMarketCap:        Ptr(125000.0),
		CurrentROI:            Ptr(-12.5),
		TokenName:             Ptr("Bonk"),
		TokenImage:            Ptr("https://img.example.com/bonk.png"),
		HasImage:              Ptr(true),
		MarketCap:             Ptr(1500000.0),
		FDV:                   Ptr(1750000.0),
		PriceUSD:              Ptr(0.000021),
		Volume24h:             Ptr(320000.0),
		LiquidityAmount:       Ptr(88000.0),
		LiquidityRatio:        Ptr("5.8%"),
		Age:                   Ptr(models.TokenAge("3h")),
		TotalHolders:          Ptr(int64(1432)),
		RiskLevel:             Ptr(models.RiskMedium),
		FreshWalletPercentage: Ptr(14.2),
		FreshWallets1d:        Ptr("31"),
		FreshWallets7d:        Ptr("140"),
		LPPercentage:          Ptr(96.0),
		PercentChange1h:       Ptr("+4.2%"),
		Buys24h:               Ptr("812"),
		Sells24h:              Ptr("407"),
		TwitterURL:            Ptr("https://x.com/bonk_inu"),
		WebsiteURL:            Ptr("https://bonkcoin.com"),
		DexscreenerURL:        Ptr("https://dexscreener.com/solana/bonk"),
		DefinedURL:            Ptr("https://www.defined.fi/sol/bonk"),
		SignalType:            Ptr(models.SignalBuy),
		AlertType:             Ptr("whale_buy"),
		Source:                Ptr("tracker"),
		Analysis: models.JSONObject{
			"rugcheck": json.RawMessage(`{"score":412,"risks":["mutable metadata"]}`),
		},
	}
}

// MinimalSignal carries only an id and a timestamp.
func MinimalSignal(id string, ts int64) *models.Signal {
	return &models.Signal{ID: id, Timestamp: ts}
}
