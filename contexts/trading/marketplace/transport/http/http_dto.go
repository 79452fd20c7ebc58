package httptransport

type ListingDTO struct {
	AssetContract string `json:"asset_contract"`
	AssetID       uint64 `json:"asset_id"`
	Seller        string `json:"seller"`
	Price         uint64 `json:"price"`
	ListedAt      string `json:"listed_at"`
	UpdatedAt     string `json:"updated_at"`
}

type CreateListingRequest struct {
	AssetContract string `json:"asset_contract"`
	AssetID       uint64 `json:"asset_id"`
	Price         uint64 `json:"price"`
}

type CreateListingResponse struct {
	Item ListingDTO `json:"item"`
}

type UpdateListingRequest struct {
	NewPrice uint64 `json:"new_price"`
}

type UpdateListingResponse struct {
	Item ListingDTO `json:"item"`
}

type BuyListingRequest struct {
	PaymentAmount uint64 `json:"payment_amount"`
}

type BuyListingResponse struct {
	AssetContract string `json:"asset_contract"`
	AssetID       uint64 `json:"asset_id"`
	Buyer         string `json:"buyer"`
	Seller        string `json:"seller"`
	Price         uint64 `json:"price"`
}

type WithdrawProceedsResponse struct {
	Amount uint64 `json:"amount"`
}

type GetListingResponse struct {
	Item ListingDTO `json:"item"`
}

type ListListingsResponse struct {
	Items      []ListingDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type GetProceedsResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
