package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xueqianLu/ethtrader/internal/errno"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 16

// StatusFor maps an error to the HTTP status reported to the caller.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errno.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errno.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errno.ErrLocked), errors.Is(err, errno.ErrNoSecret):
		return http.StatusServiceUnavailable
	case errors.Is(err, errno.ErrZeroReserve), errors.Is(err, errno.ErrCodec):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errno.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	code, msg := errno.Decode(err)
	writeJSON(w, log, StatusFor(err), ErrorResponse{Code: code, Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, errno.ErrBadRequest)
	}
	return nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q: %w", field, s, errno.ErrBadRequest)
	}
	return common.HexToAddress(s), nil
}

// parseWei parses a non-negative decimal integer.
func parseWei(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%s: invalid amount %q: %w", field, s, errno.ErrBadRequest)
	}
	return v, nil
}

func methodAllowed(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
