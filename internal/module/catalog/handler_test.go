package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/trpc"))
	return r
}

func perform(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope[T any] struct {
	Result struct {
		Data T `json:"data"`
	} `json:"result"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestHandler_Prompts(t *testing.T) {
	repo := newMockRepository(
		officePrompt(),
		&Prompt{ID: 2, Title: "Food truck", Category: "Food", PromptJSON: `{}`},
	)
	r := setupRouter(newTestService(repo, nil))

	t.Run("List", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/api/trpc/prompts.list", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp envelope[ListResult]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Result.Data.Total)
		assert.Equal(t, storedPrompt, resp.Result.Data.Prompts[0].PromptJSON)
	})

	t.Run("GetById", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/api/trpc/prompts.getById?id=2", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp envelope[Prompt]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Food truck", resp.Result.Data.Title)
	})

	t.Run("GetById with tRPC input", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/api/trpc/prompts.getById?input="+url.QueryEscape(`{"id":1}`), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Office pitch")
	})

	t.Run("GetById not found", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/api/trpc/prompts.getById?id=42", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		var body errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "NOT_FOUND", body.Code)
	})

	t.Run("GetById missing id", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/api/trpc/prompts.getById", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ListByCategory", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/api/trpc/prompts.listByCategory?category=food", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp envelope[ListResult]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Result.Data.Total)
	})

	t.Run("Unknown procedure", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/api/trpc/prompts.delete", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Wrong method", func(t *testing.T) {
		w := perform(r, http.MethodPost, "/api/trpc/prompts.list", `{}`)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandler_GenerateVariation(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		invoker := &MockInvoker{replies: []string{`{"scene":{"location":"beach"}}`}}
		r := setupRouter(newTestService(newMockRepository(officePrompt()), invoker))

		w := perform(r, http.MethodPost, "/api/trpc/generator.generateVariation",
			`{"promptId":1,"variations":{"location":true},"count":1}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp envelope[VariationResult]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Result.Data.Variations, 1)
		assert.Equal(t, "var-1", resp.Result.Data.Variations[0].ID)
		assert.JSONEq(t, `{"scene":{"location":"beach"}}`, string(resp.Result.Data.Variations[0].Data))
	})

	t.Run("Count out of range", func(t *testing.T) {
		r := setupRouter(newTestService(newMockRepository(officePrompt()), &MockInvoker{replies: []string{`{}`}}))
		w := perform(r, http.MethodPost, "/api/trpc/generator.generateVariation", `{"promptId":1,"count":9}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Malformed model output", func(t *testing.T) {
		r := setupRouter(newTestService(newMockRepository(officePrompt()), &MockInvoker{replies: []string{"nope"}}))
		w := perform(r, http.MethodPost, "/api/trpc/generator.generateVariation", `{"promptId":1}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)

		var body errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "LLM_ERROR", body.Code)
	})

	t.Run("Missing prompt id", func(t *testing.T) {
		r := setupRouter(newTestService(newMockRepository(officePrompt()), &MockInvoker{replies: []string{`{}`}}))
		w := perform(r, http.MethodPost, "/api/trpc/generator.generateVariation", `{"count":1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
