package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"arbsend/internal/journal"
	"arbsend/internal/transfer"
	"arbsend/internal/txbuilder"
)

const maxBodyBytes = 1 << 16

type Options struct {
	Listen    string
	AuthToken string
	// Signer enables POST /transfer. Without it the endpoint answers 503.
	Signer         txbuilder.Signer
	History        *journal.Store
	ConfirmTimeout time.Duration
	Logger         *slog.Logger
}

type Server struct {
	opts   Options
	svc    *transfer.Service
	logger *slog.Logger
}

func NewServer(svc *transfer.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{opts: opts, svc: svc, logger: logger}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/balance", s.withAuth(s.handleBalance))
	mux.HandleFunc("/gas", s.withAuth(s.handleGas))
	mux.HandleFunc("/transfer", s.withAuth(s.handleTransfer))
	mux.HandleFunc("/status", s.withAuth(s.handleStatus))
	mux.HandleFunc("/history", s.withAuth(s.handleHistory))
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxTimeout)
	}()
	s.logger.Info("api listening", "addr", s.opts.Listen)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AuthToken != "" {
			token := r.Header.Get("X-API-Key")
			if token == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
					token = strings.TrimSpace(auth[7:])
				}
			}
			if token != s.opts.AuthToken {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := map[string]interface{}{
		"status":   "ok",
		"chain_id": s.svc.ChainID().Uint64(),
	}
	if s.opts.Signer != nil {
		out["address"] = s.opts.Signer.Address().Hex()
	}
	writeJSON(w, http.StatusOK, out)
}

type balanceResponse struct {
	Address string `json:"address"`
	Wei     string `json:"wei"`
	ETH     string `json:"eth"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var addr common.Address
	if q := r.URL.Query().Get("address"); q != "" {
		parsed, err := txbuilder.ParseAddress(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		addr = parsed
	} else if s.opts.Signer != nil {
		addr = s.opts.Signer.Address()
	} else {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	bal, err := s.svc.Balance(r.Context(), addr)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Address: addr.Hex(), Wei: bal.String(), ETH: txbuilder.FormatEther(bal)})
}

type gasResponse struct {
	BasePriceWei    string `json:"base_price_wei"`
	PriceWei        string `json:"price_wei"`
	PriceGwei       string `json:"price_gwei"`
	GasLimit        uint64 `json:"gas_limit"`
	EstimatedFeeWei string `json:"estimated_fee_wei"`
	EstimatedFeeETH string `json:"estimated_fee_eth"`
}

func (s *Server) handleGas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q, err := s.svc.Quote(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gasResponse{
		BasePriceWei:    q.BasePrice.String(),
		PriceWei:        q.Price.String(),
		PriceGwei:       txbuilder.FormatGwei(q.Price),
		GasLimit:        q.BaseGasLimit,
		EstimatedFeeWei: q.EstimatedFee.String(),
		EstimatedFeeETH: txbuilder.FormatEther(q.EstimatedFee),
	})
}

type transferResponse struct {
	*transfer.Result
	Error string `json:"error,omitempty"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.opts.Signer == nil {
		writeError(w, http.StatusServiceUnavailable, "no signer configured")
		return
	}
	var req transfer.Request
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ConfirmTimeout = s.opts.ConfirmTimeout
	req.Approve = nil

	res, err := s.svc.Transfer(r.Context(), s.opts.Signer, req)
	if err == nil {
		writeJSON(w, http.StatusOK, transferResponse{Result: res})
		return
	}
	var cerr *txbuilder.ConfirmationIndeterminateError
	if errors.As(err, &cerr) {
		// broadcast went through; the caller must keep the hash
		writeJSON(w, http.StatusAccepted, transferResponse{Result: res, Error: err.Error()})
		return
	}
	s.writeFailure(w, err)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	hash, err := txbuilder.ParseHash(r.URL.Query().Get("hash"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	receipt, err := s.svc.Status(r.Context(), hash)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if receipt == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"tx_hash": hash.Hex(), "pending": true})
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.opts.History == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"entries": []journal.Entry{}})
		return
	}
	entries, err := s.opts.History.Entries()
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	var (
		verr *txbuilder.ValidationError
		ferr *txbuilder.InsufficientFundsError
		nerr *txbuilder.NetworkError
		serr *txbuilder.SubmissionError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &ferr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &serr), errors.As(err, &nerr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func readJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(b, v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
