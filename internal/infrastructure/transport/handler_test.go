package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matrix-Ledger/smart-contract-generator-api/app/usecase"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/validator"
)

type stubGenerator struct {
	code  string
	err   error
	panic bool
	reqs  []entity.GenerationRequest
}

func (s *stubGenerator) Generate(_ context.Context, req entity.GenerationRequest) (*entity.Generation, error) {
	s.reqs = append(s.reqs, req)
	if s.panic {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	g := entity.NewGeneration(req, "gpt-4-0314")
	g.Succeed(s.code)
	return g, nil
}

type stubGenerations struct {
	items     []*entity.Generation
	lastLimit int
}

func (s *stubGenerations) GetGeneration(_ context.Context, id string) (*entity.Generation, error) {
	for _, g := range s.items {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, entity.ErrGenerationNotFound
}

func (s *stubGenerations) ListGenerations(_ context.Context, limit int) ([]*entity.Generation, error) {
	s.lastLimit = limit
	return s.items, nil
}

func newTestRouter(t *testing.T, gen usecase.ContractGenerator, gens usecase.GenerationsUseCase) *mux.Router {
	t.Helper()
	schemas, err := validator.NewSchemaValidator()
	require.NoError(t, err)

	h := NewContractHandler(gen, gens, schemas, slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry())
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestGenerateRustSuccess(t *testing.T) {
	gen := &stubGenerator{code: "fn main() {}"}
	r := newTestRouter(t, gen, nil)

	rec := do(r, http.MethodPost, "/generateRust", strings.NewReader(`{"description":"adder","language":"rust"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body generateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "fn main() {}", body.Code)

	require.Len(t, gen.reqs, 1)
	assert.Equal(t, entity.GenerationRequest{Description: "adder", Language: "rust"}, gen.reqs[0])
}

func TestGenerateRustErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		language string
		want     string
	}{
		{
			name:     "upstream",
			err:      &entity.UpstreamError{StatusCode: 401, Message: "bad key"},
			language: "rust",
			want:     "Error generating rust code.",
		},
		{
			name:     "no block",
			err:      &entity.ExtractionError{Language: "TypeScript", Err: entity.ErrNoCodeGenerated},
			language: "TypeScript",
			want:     "No TypeScript code generated.",
		},
		{
			name:     "unsupported language",
			err:      &entity.ExtractionError{Language: "Python", Err: entity.ErrUnsupportedLanguage},
			language: "Python",
			want:     "No Python code generated.",
		},
		{
			name:     "template",
			err:      &entity.TemplateLoadError{Name: "adder.rs", Err: io.ErrUnexpectedEOF},
			language: "rust",
			want:     "Internal Server Error",
		},
		{
			name:     "internal",
			err:      context.DeadlineExceeded,
			language: "rust",
			want:     "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, &stubGenerator{err: tt.err}, nil)
			body := `{"description":"d","language":"` + tt.language + `"}`

			rec := do(r, http.MethodPost, "/generateRust", strings.NewReader(body), "application/json")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec))
		})
	}
}

func TestGenerateRustBadBody(t *testing.T) {
	for _, body := range []string{`not json`, `{"language": 5}`, `[]`} {
		gen := &stubGenerator{code: "x"}
		r := newTestRouter(t, gen, nil)

		rec := do(r, http.MethodPost, "/generateRust", strings.NewReader(body), "application/json")
		assert.Equal(t, http.StatusInternalServerError, rec.Code, body)
		assert.Equal(t, "Internal Server Error", decodeError(t, rec), body)
		assert.Empty(t, gen.reqs, body)
	}
}

func TestGenerateRustRecoversPanic(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{panic: true}, nil)

	rec := do(r, http.MethodPost, "/generateRust", strings.NewReader(`{"description":"d","language":"rust"}`), "application/json")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec))
}

func TestSimpleTextRequest(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{}, nil)

	rec := do(r, http.MethodPost, "/handleSimpleTextRequest", strings.NewReader("hello there"), "text/plain")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	assert.Equal(t, "hello there", rec.Body.String())
}

func TestJSONBody(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{}, nil)

	rec := do(r, http.MethodPost, "/handleJsonBody", strings.NewReader(`{"name":"alice","extra":1}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "testHeaderValue", rec.Header().Get("testHeader"))
	assert.Equal(t, "Ok", rec.Header().Get("statusDescription"))
	assert.JSONEq(t, `{"name":"alice"}`, rec.Body.String())

	for _, body := range []string{`{}`, `{"name":""}`, `{"name":null}`, `{"name":false}`, `{"name":0}`, `garbage`} {
		rec := do(r, http.MethodPost, "/handleJsonBody", strings.NewReader(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Missing parameter name", decodeError(t, rec), body)
	}
}

func TestQueryParams(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{}, nil)

	rec := do(r, http.MethodGet, "/handleQueryParams?name=bob", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Ok", rec.Body.String())

	rec = do(r, http.MethodGet, "/handleQueryParams", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing parameter name", decodeError(t, rec))
}

func TestMultipartData(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("myFile", "hello.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(r, http.MethodPost, "/handleMultipartData", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "aGVsbG8=", rec.Body.String())

	buf.Reset()
	mw = multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	rec = do(r, http.MethodPost, "/handleMultipartData", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File not found!", decodeError(t, rec))

	rec = do(r, http.MethodPost, "/handleMultipartData", strings.NewReader("x"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{}, nil)

	rec := do(r, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
}

func TestHistoryRoutesDisabled(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{}, nil)

	rec := do(r, http.MethodGet, "/api/v1/generations", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryRoutes(t *testing.T) {
	g := entity.NewGeneration(entity.GenerationRequest{Description: "d", Language: "rust"}, "m")
	g.Succeed("fn main() {}")
	gens := &stubGenerations{items: []*entity.Generation{g}}
	r := newTestRouter(t, &stubGenerator{}, gens)

	rec := do(r, http.MethodGet, "/api/v1/generations?limit=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gens.lastLimit)

	var list []entity.Generation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, g.ID, list[0].ID)

	rec = do(r, http.MethodGet, "/api/v1/generations?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/generations/"+g.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got entity.Generation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "fn main() {}", got.Code)

	rec = do(r, http.MethodGet, "/api/v1/generations/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateWebSocket(t *testing.T) {
	gen := &stubGenerator{code: "fn main() {}"}
	srv := httptest.NewServer(newTestRouter(t, gen, nil))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/generate/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.WriteJSON(entity.GenerationRequest{Description: "adder", Language: "rust"}))

	var ev wsEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, eventAccepted, ev.Type)

	ev = wsEvent{}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, eventCompleted, ev.Type)
	assert.Equal(t, "fn main() {}", ev.Code)
	assert.NotEmpty(t, ev.GenerationID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	ev = wsEvent{}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, eventFailed, ev.Type)
	assert.Equal(t, "Internal Server Error", ev.Error)
}

func TestGenerateWebSocketFailure(t *testing.T) {
	gen := &stubGenerator{err: &entity.ExtractionError{Language: "rust", Err: entity.ErrNoCodeGenerated}}
	srv := httptest.NewServer(newTestRouter(t, gen, nil))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/generate/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.WriteJSON(entity.GenerationRequest{Description: "adder", Language: "rust"}))

	var ev wsEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, eventAccepted, ev.Type)

	ev = wsEvent{}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, eventFailed, ev.Type)
	assert.Equal(t, "No rust code generated.", ev.Error)
}

type blockingGenerator struct {
	started   chan struct{}
	cancelled chan struct{}
}

func (b *blockingGenerator) Generate(ctx context.Context, _ entity.GenerationRequest) (*entity.Generation, error) {
	close(b.started)
	<-ctx.Done()
	close(b.cancelled)
	return nil, ctx.Err()
}

func dialGenerateWS(t *testing.T, gen usecase.ContractGenerator) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(t, gen, nil))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/generate/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestGenerateWebSocketDisconnectCancelsGeneration(t *testing.T) {
	gen := &blockingGenerator{started: make(chan struct{}), cancelled: make(chan struct{})}
	conn := dialGenerateWS(t, gen)

	require.NoError(t, conn.WriteJSON(entity.GenerationRequest{Description: "adder", Language: "rust"}))

	var ev wsEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, eventAccepted, ev.Type)

	select {
	case <-gen.started:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not start")
	}

	require.NoError(t, conn.Close())

	select {
	case <-gen.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("generation was not cancelled after the client disconnected")
	}
}

func TestGenerateWebSocketReadLimit(t *testing.T) {
	gen := &stubGenerator{code: "fn main() {}"}
	conn := dialGenerateWS(t, gen)
	defer conn.Close()

	big := `{"description":"` + strings.Repeat("a", maxGenerateBody+1) + `","language":"rust"}`
	_ = conn.WriteMessage(websocket.TextMessage, []byte(big))

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.Empty(t, gen.reqs)
}

func TestMultipartDataPlainField(t *testing.T) {
	r := newTestRouter(t, &stubGenerator{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("myFile", "hello"))
	require.NoError(t, mw.Close())

	rec := do(r, http.MethodPost, "/handleMultipartData", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "aGVsbG8=", rec.Body.String())
}
