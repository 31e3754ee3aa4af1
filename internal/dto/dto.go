package dto

import "time"

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// TransactionInput is one synced transaction from the aggregation provider.
type TransactionInput struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Date      time.Time `json:"date"`
	Merchant  string    `json:"merchant"`
	Category  string    `json:"category"`
}

type IngestRequest struct {
	Transactions []TransactionInput `json:"transactions"`
}

type IngestResponse struct {
	Received int `json:"received"`
	Stored   int `json:"stored"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}
