package model

import "time"

// EvaluationRecord is the journal entry written once per tick.
type EvaluationRecord struct {
	ID             string    `json:"id"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
	ChainName      string    `json:"chain_name"`
	QuoteMode      string    `json:"quote_mode"`
	ReferencePool  string    `json:"reference_pool"`
	HookPool       string    `json:"hook_pool"`
	BlockNumber    uint64    `json:"block_number"`
	AmountIn       string    `json:"amount_in"`
	ReferenceQuote string    `json:"reference_quote"`
	HookQuote      string    `json:"hook_quote"`
	MarketPrice    string    `json:"market_price"`
	GasCostWei     string    `json:"gas_cost_wei"`
	GasCostQuote   string    `json:"gas_cost_quote"`
	ProfitA        string    `json:"profit_buy_hook"`
	ProfitB        string    `json:"profit_sell_hook"`
	Direction      string    `json:"direction"`
	Suppressed     bool      `json:"suppressed"`
	ExecutionRef   string    `json:"execution_ref,omitempty"`
	Error          string    `json:"error,omitempty"`
}
