package domain

// LookupRequest asks a provider for the nutrition of a named food.
// ServingSize/ServingUnit describe the serving the caller wants values for;
// lookup providers may ignore them and report their own serving instead.
type LookupRequest struct {
	ProductName string  `json:"productName" binding:"required"`
	Brand       string  `json:"brand,omitempty"`
	Source      string  `json:"source,omitempty"`
	ServingSize float64 `json:"servingSize,omitempty"`
	ServingUnit string  `json:"servingUnit,omitempty"`
}

// MatchResult represents the result of a product matching operation
type MatchResult struct {
	FdcID         int      `json:"fdcId"`
	Description   string   `json:"description"`
	MatchScore    float64  `json:"matchScore"`
	MatchedTokens []string `json:"matchedTokens,omitempty"`
}
