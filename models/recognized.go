package models

import (
	"github.com/shopspring/decimal"
)

// RecognizedPosition is one row produced by the document-recognition
// backend. Field names follow its wire format: the share count arrives
// as "position" and the cost basis as "average_price".
type RecognizedPosition struct {
	Ticker   string          `json:"ticker"`
	Shares   decimal.Decimal `json:"position"`
	AvgPrice decimal.Decimal `json:"average_price"`
}

// RecognizedImport is the full payload returned by the recognition backend.
type RecognizedImport struct {
	Items []RecognizedPosition `json:"items"`
}
