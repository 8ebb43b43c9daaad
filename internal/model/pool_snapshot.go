package model

// PoolSnapshot is the JSON form of a pool state read, with big values kept as
// decimal strings.
type PoolSnapshot struct {
	PoolID       string `json:"pool_id"`
	Currency0    string `json:"currency0"`
	Currency1    string `json:"currency1"`
	Fee          uint32 `json:"fee"`
	TickSpacing  int32  `json:"tick_spacing"`
	Hooks        string `json:"hooks"`
	BlockNumber  uint64 `json:"block_number"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
	ProtocolFee  uint32 `json:"protocol_fee"`
	LPFee        uint32 `json:"lp_fee"`
	Liquidity    string `json:"liquidity"`
	SpotPrice    string `json:"spot_price,omitempty"`
}
