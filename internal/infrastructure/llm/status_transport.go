package llm

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
)

const maxErrorBody = 64 << 10

// statusTransport fails every response whose status is not 200 with an
// *entity.UpstreamError, so no reply body is decoded for it.
type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &entity.UpstreamError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body),
	}
}

// errorMessage returns error.message from an OpenAI error body, or the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return string(body)
}
