package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/checklist/internal/repository"
	"github.com/mesh-intelligence/checklist/internal/settings"
	"github.com/mesh-intelligence/checklist/internal/sqlite"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

type testServer struct {
	router *gin.Engine
	repo   *repository.Repository
	store  *sqlite.Backend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { store.Detach() })
	prefs := settings.NewFileStore(t.TempDir(), nil)
	t.Cleanup(func() { prefs.Close() })

	repo := repository.New(store, nil)
	router := BuildRouter(RouterDeps{
		Version:     "1.2.3",
		Repo:        repo,
		Settings:    prefs,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{router: router, repo: repo, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type projectBody struct {
	Project types.Project `json:"project"`
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[HealthResponse](t, rr)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, ServiceName, resp.Service)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "up", resp.Store)
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	require.NoError(t, s.store.Detach())
	rr = s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "down", decode[HealthResponse](t, rr).Store)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestProjectCRUD(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/v1/projects",
		`{"name":" Trip ","description":"Packing","steps":[{"name":"Passport"},{"name":"Tickets"}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[projectBody](t, rr).Project
	assert.Equal(t, " Trip ", created.Name)
	require.Len(t, created.Steps, 2)
	path := "/api/v1/projects/" + itoa(created.ProjectID)

	rr = s.do(t, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[struct {
		Projects []types.ProjectRecord `json:"projects"`
	}](t, rr)
	require.Len(t, list.Projects, 1)

	rr = s.do(t, http.MethodPut, path, `{"name":"Trip","description":"Updated","steps":[{"name":"Visa"}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[projectBody](t, rr).Project
	assert.Equal(t, "Updated", updated.Description)
	require.Len(t, updated.Steps, 1)
	assert.Equal(t, "Visa", updated.Steps[0].Name)

	rr = s.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProjectValidation(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/v1/projects", `{"name":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/v1/projects", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/projects/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, "/api/v1/projects/99", `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/projects/99/steps", `{"name":"x"}`).Code)
}

func TestStepsEndpoints(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	id, err := s.repo.InsertProjectWithSteps(ctx, "Trip", "", nil, false)
	require.NoError(t, err)
	base := "/api/v1/projects/" + itoa(id) + "/steps"

	rr := s.do(t, http.MethodPost, base, `{"name":"Passport","description":"valid"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	step := decode[struct {
		Step types.StepRecord `json:"step"`
	}](t, rr).Step
	assert.Equal(t, id, step.ProjectOwnerID)

	rr = s.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	steps := decode[struct {
		Steps []types.StepRecord `json:"steps"`
	}](t, rr).Steps
	require.Len(t, steps, 1)

	rr = s.do(t, http.MethodDelete, "/api/v1/steps/"+itoa(step.StepID), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	remaining, err := s.repo.Steps(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestTemplateEndpoints(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	id, err := s.repo.InsertProjectWithSteps(ctx, "Camping", "", []types.Step{{Name: "Tent"}}, false)
	require.NoError(t, err)

	rr := s.do(t, http.MethodPost, "/api/v1/projects/"+itoa(id)+"/template", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tpl := decode[projectBody](t, rr).Project
	assert.True(t, tpl.IsTemplate)
	assert.Equal(t, "Camping", tpl.Name)

	rr = s.do(t, http.MethodGet, "/api/v1/templates", "")
	require.Equal(t, http.StatusOK, rr.Code)
	headers := decode[struct {
		Templates []types.ProjectHeader `json:"templates"`
	}](t, rr).Templates
	require.Len(t, headers, 1)
	assert.Equal(t, tpl.ProjectID, headers[0].ProjectID)

	rr = s.do(t, http.MethodPost, "/api/v1/templates/"+itoa(tpl.ProjectID)+"/use", `{"name":"Camping 2026"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	copied := decode[projectBody](t, rr).Project
	assert.False(t, copied.IsTemplate)
	assert.Equal(t, "Camping 2026", copied.Name)
	require.Len(t, copied.Steps, 1)

	rr = s.do(t, http.MethodPost, "/api/v1/templates/"+itoa(tpl.ProjectID)+"/use", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "Camping", decode[projectBody](t, rr).Project.Name)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/templates/"+itoa(id)+"/use", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/templates/"+itoa(id), "").Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/templates/"+itoa(tpl.ProjectID), "").Code)
}

func TestStoreFailureBodyIsGeneric(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.Detach())

	rr := s.do(t, http.MethodGet, "/api/v1/projects", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"action could not be completed"}`, rr.Body.String())
}

func TestDarkModeEndpoints(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/api/v1/settings/dark-mode", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"enabled":false}`, rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/v1/settings/dark-mode", `{}`).Code)
	rr = s.do(t, http.MethodPut, "/api/v1/settings/dark-mode", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/settings/dark-mode", "")
	assert.JSONEq(t, `{"enabled":true}`, rr.Body.String())
}

func TestStreamProjects(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/stream/projects", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", mediaType)

	events := make(chan string, 8)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if data, ok := strings.CutPrefix(sc.Text(), "data:"); ok {
				events <- data
			}
		}
	}()

	next := func() string {
		select {
		case e, ok := <-events:
			require.True(t, ok, "stream closed")
			return e
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
		return ""
	}

	assert.JSONEq(t, `{"projects":[]}`, next())

	_, err = s.repo.InsertProjectWithSteps(context.Background(), "Trip", "", nil, false)
	require.NoError(t, err)
	for {
		if strings.Contains(next(), `"Trip"`) {
			break
		}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
