package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/metrics"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/validator"
)

const maxGenerateBody = 1 << 20

type generateResponse struct {
	Code string `json:"code"`
}

// POST /generateRust
func (h *ContractHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeGenerateRequest(r)
	if err != nil {
		h.logger.Warn("invalid generate request", "err", err)
		metrics.IncError("transport", "decode_request")
		writeErrorMessage(w, http.StatusInternalServerError, internalServerError)
		return
	}

	gen, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, publicMessage(err, req.Language))
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Code: gen.Code})
}

func (h *ContractHandler) decodeGenerateRequest(r *http.Request) (entity.GenerationRequest, error) {
	var req entity.GenerationRequest

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxGenerateBody))
	if err != nil {
		return req, fmt.Errorf("read body: %w", err)
	}
	if err := h.schemas.Validate(validator.SchemaGenerateRequest, raw); err != nil {
		return req, err
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decode body: %w", err)
	}
	return req, nil
}

// publicMessage maps a generation error to the text returned to clients.
// Details stay in the log.
func publicMessage(err error, language string) string {
	switch entity.KindOf(err) {
	case entity.ErrorKindUpstream:
		return fmt.Sprintf("Error generating %s code.", language)
	case entity.ErrorKindExtraction:
		return fmt.Sprintf("No %s code generated.", language)
	default:
		return internalServerError
	}
}

// GET /api/v1/generations?limit=N
func (h *ContractHandler) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", s))
			return
		}
		limit = n
	}

	list, err := h.generations.ListGenerations(r.Context(), limit)
	if err != nil {
		h.logger.Error("list generations failed", "err", err)
		writeErrorMessage(w, http.StatusInternalServerError, internalServerError)
		return
	}
	if list == nil {
		list = []*entity.Generation{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/v1/generations/{id}
func (h *ContractHandler) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	g, err := h.generations.GetGeneration(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrGenerationNotFound) {
			writeError(w, http.StatusNotFound, entity.ErrGenerationNotFound)
			return
		}
		h.logger.Error("get generation failed", "generation_id", id, "err", err)
		writeErrorMessage(w, http.StatusInternalServerError, internalServerError)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
