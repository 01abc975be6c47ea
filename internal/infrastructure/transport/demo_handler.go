package transport

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/validator"
)

const (
	maxDemoBody      = 1 << 20
	maxMultipartSize = 32 << 20
)

const (
	msgMissingName  = "Missing parameter name"
	msgFileNotFound = "File not found!"
)

// POST /handleSimpleTextRequest
func (h *ContractHandler) handleSimpleTextRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDemoBody))
	if err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, internalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// POST /handleJsonBody
func (h *ContractHandler) handleJSONBody(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxDemoBody))
	if err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, internalServerError)
		return
	}
	if err := h.schemas.Validate(validator.SchemaEchoJSON, raw); err != nil {
		h.logger.Debug("echo body rejected", "err", err)
		writeErrorMessage(w, http.StatusBadRequest, msgMissingName)
		return
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, msgMissingName)
		return
	}

	w.Header().Set("testHeader", "testHeaderValue")
	w.Header().Set("statusDescription", "Ok")
	writeJSON(w, http.StatusCreated, map[string]json.RawMessage{"name": body["name"]})
}

// GET /handleQueryParams?name=...
func (h *ContractHandler) handleQueryParams(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("name") == "" {
		writeErrorMessage(w, http.StatusBadRequest, msgMissingName)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Ok")
}

// POST /handleMultipartData
func (h *ContractHandler) handleMultipartData(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartSize); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, msgFileNotFound)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("multipart cleanup failed", "err", err)
		}
	}()

	data, ok, err := multipartEntry(r, "myFile")
	if err != nil {
		h.logger.Error("read uploaded file failed", "err", err)
		writeErrorMessage(w, http.StatusInternalServerError, internalServerError)
		return
	}
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, msgFileNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, base64.StdEncoding.EncodeToString(data))
}

// multipartEntry returns the bytes of the named part. File parts win over plain
// fields of the same name.
func multipartEntry(r *http.Request, name string) ([]byte, bool, error) {
	if headers := r.MultipartForm.File[name]; len(headers) > 0 {
		file, err := headers[0].Open()
		if err != nil {
			return nil, false, err
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}
	if values := r.MultipartForm.Value[name]; len(values) > 0 {
		return []byte(values[0]), true, nil
	}
	return nil, false, nil
}
