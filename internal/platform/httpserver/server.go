package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	marketplace "github.com/easonnong/nft-marketplace/contexts/trading/marketplace"
	marketdomainerrors "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/domain/errors"
	markethttp "github.com/easonnong/nft-marketplace/contexts/trading/marketplace/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/easonnong/nft-marketplace/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	marketplace marketplace.Module
}

func New(
	marketplaceModule marketplace.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		marketplace: marketplaceModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /market/listings", s.handleListItem)
	s.mux.HandleFunc("GET /market/listings", s.handleListListings)
	s.mux.HandleFunc("GET /market/listings/{asset_contract}/{asset_id}", s.handleGetListing)
	s.mux.HandleFunc("PATCH /market/listings/{asset_contract}/{asset_id}", s.handleUpdateListing)
	s.mux.HandleFunc("DELETE /market/listings/{asset_contract}/{asset_id}", s.handleCancelListing)
	s.mux.HandleFunc("POST /market/listings/{asset_contract}/{asset_id}/buy", s.handleBuyItem)
	s.mux.HandleFunc("GET /market/proceeds", s.handleGetProceeds)
	s.mux.HandleFunc("POST /market/proceeds/withdraw", s.handleWithdrawProceeds)
}

func (s *Server) handleListItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	var req markethttp.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.ListItemHandler(r.Context(), caller, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeMarketError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}

	resp, err := s.marketplace.Handler.ListListingsHandler(
		r.Context(),
		query.Get("asset_contract"),
		query.Get("seller"),
		query.Get("cursor"),
		limit,
	)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	assetContract, assetID, ok := s.requireAssetPath(w, r)
	if !ok {
		return
	}

	resp, err := s.marketplace.Handler.GetListingHandler(r.Context(), assetContract, assetID)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	assetContract, assetID, ok := s.requireAssetPath(w, r)
	if !ok {
		return
	}

	var req markethttp.UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.UpdateListingHandler(r.Context(), caller, assetContract, assetID, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	assetContract, assetID, ok := s.requireAssetPath(w, r)
	if !ok {
		return
	}

	if err := s.marketplace.Handler.CancelListingHandler(r.Context(), caller, assetContract, assetID); err != nil {
		writeMarketDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBuyItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	assetContract, assetID, ok := s.requireAssetPath(w, r)
	if !ok {
		return
	}

	var req markethttp.BuyListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.BuyItemHandler(r.Context(), caller, assetContract, assetID, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProceeds(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	resp, err := s.marketplace.Handler.GetProceedsHandler(r.Context(), caller)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawProceeds(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	resp, err := s.marketplace.Handler.WithdrawProceedsHandler(r.Context(), caller)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := r.Header.Get("X-User-Id")
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return caller, true
}

func (s *Server) requireAssetPath(w http.ResponseWriter, r *http.Request) (string, uint64, bool) {
	assetContract := r.PathValue("asset_contract")
	assetID, err := strconv.ParseUint(r.PathValue("asset_id"), 10, 64)
	if err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_asset_id", "asset_id must be an unsigned integer")
		return "", 0, false
	}
	return assetContract, assetID, true
}

func writeMarketDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketdomainerrors.ErrNotListed):
		writeMarketError(w, http.StatusNotFound, "not_listed", err.Error())
	case errors.Is(err, marketdomainerrors.ErrAlreadyListed):
		writeMarketError(w, http.StatusConflict, "already_listed", err.Error())
	case errors.Is(err, marketdomainerrors.ErrNotOwner):
		writeMarketError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, marketdomainerrors.ErrNotApprovedForMarketplace):
		writeMarketError(w, http.StatusForbidden, "not_approved_for_marketplace", err.Error())
	case errors.Is(err, marketdomainerrors.ErrPriceMustBeAboveZero):
		writeMarketError(w, http.StatusBadRequest, "price_must_be_above_zero", err.Error())
	case errors.Is(err, marketdomainerrors.ErrPriceNotMet):
		writeMarketError(w, http.StatusConflict, "price_not_met", err.Error())
	case errors.Is(err, marketdomainerrors.ErrNoProceeds):
		writeMarketError(w, http.StatusConflict, "no_proceeds", err.Error())
	case errors.Is(err, marketdomainerrors.ErrTransferFailed):
		writeMarketError(w, http.StatusBadGateway, "transfer_failed", err.Error())
	case errors.Is(err, marketdomainerrors.ErrAssetNotFound):
		writeMarketError(w, http.StatusNotFound, "asset_not_found", err.Error())
	case errors.Is(err, marketdomainerrors.ErrInvalidListFilter):
		writeMarketError(w, http.StatusBadRequest, "invalid_list_filter", err.Error())
	case errors.Is(err, marketdomainerrors.ErrInvalidListingRequest):
		writeMarketError(w, http.StatusBadRequest, "invalid_listing_request", err.Error())
	default:
		writeMarketError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMarketError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, markethttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
