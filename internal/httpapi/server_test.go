package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"modelscan/internal/manager"
	"modelscan/pkg/types"
)

type mockService struct {
	models     []types.ModelFile
	status     types.StatusResponse
	ready      bool
	scanResp   types.ScanResponse
	scanErr    error
	verifyResp types.VerifyResponse
	verifyErr  error
	workflows  []types.WorkflowDescriptor
	resolveErr error
	registered types.RegisterWorkflowRequest
}

func (m *mockService) ListModels() []types.ModelFile { return append([]types.ModelFile(nil), m.models...) }
func (m *mockService) Model(digest string) (types.ModelFile, error) {
	for _, f := range m.models {
		if f.PartialDigest == digest || f.FullDigest == digest {
			return f, nil
		}
	}
	return types.ModelFile{}, manager.ErrModelNotFound(digest)
}
func (m *mockService) Search(term string) []types.ModelFile {
	var out []types.ModelFile
	for _, f := range m.models {
		if strings.Contains(f.Path, term) {
			out = append(out, f)
		}
	}
	return out
}
func (m *mockService) Verify(digest, level string) (types.VerifyResponse, error) {
	return m.verifyResp, m.verifyErr
}
func (m *mockService) Identify(digest string) (string, error) {
	if len(m.models) == 0 {
		return "", manager.ErrModelNotFound(digest)
	}
	return "full-" + digest, nil
}
func (m *mockService) Scan(ctx context.Context) (types.ScanResponse, error) {
	return m.scanResp, m.scanErr
}
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }
func (m *mockService) RegisterWorkflow(path, name string) (types.WorkflowDescriptor, error) {
	m.registered = types.RegisterWorkflowRequest{Path: path, Name: name}
	return types.WorkflowDescriptor{ID: "wf-1", Path: path, Name: name, Status: types.WorkflowNew}, nil
}
func (m *mockService) Workflows() []types.WorkflowDescriptor {
	return append([]types.WorkflowDescriptor(nil), m.workflows...)
}
func (m *mockService) Workflow(id string) (types.WorkflowDescriptor, []types.DependencyReference, error) {
	for _, w := range m.workflows {
		if w.ID == id {
			return w, nil, nil
		}
	}
	return types.WorkflowDescriptor{}, nil, manager.ErrWorkflowNotFound(id)
}
func (m *mockService) ResolveWorkflow(id string) (types.ResolveResponse, error) {
	if m.resolveErr != nil {
		return types.ResolveResponse{}, m.resolveErr
	}
	for _, w := range m.workflows {
		if w.ID == id {
			return types.ResolveResponse{Workflow: w}, nil
		}
	}
	return types.ResolveResponse{}, manager.ErrWorkflowNotFound(id)
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: []types.ModelFile{{PartialDigest: "d1"}, {PartialDigest: "d2"}}}
	r := NewMux(svc)
	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") { t.Fatalf("content-type=%s", ct) }
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil { t.Fatalf("json: %v", err) }
	if len(body.Models) != 2 { t.Fatalf("models len=%d", len(body.Models)) }
}

func TestModelByDigest(t *testing.T) {
	svc := &mockService{models: []types.ModelFile{{PartialDigest: "d1", Path: "/m/a.safetensors"}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models/d1", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models/nope", nil))
	if w.Code != http.StatusNotFound { t.Fatalf("status=%d", w.Code) }
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Code != http.StatusNotFound {
		t.Fatalf("error body: %s err=%v", w.Body.String(), err)
	}
}

func TestVerifyHandler_EmptyBodyAllowed(t *testing.T) {
	svc := &mockService{verifyResp: types.VerifyResponse{Valid: true}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/models/d1/verify", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d body=%s", w.Code, w.Body.String()) }
	var body types.VerifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || !body.Valid {
		t.Fatalf("body: %s err=%v", w.Body.String(), err)
	}
}

func TestVerifyHandler_BadJSON(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/models/d1/verify", bytes.NewBufferString("not-json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest { t.Fatalf("status=%d", w.Code) }
}

func TestVerifyHandler_WrongContentType(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/models/d1/verify", bytes.NewBufferString(`{"level":"full"}`))
	req.Header.Set("Content-Type", "text/plain")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType { t.Fatalf("status=%d", w.Code) }
}

func TestIdentifyHandler(t *testing.T) {
	svc := &mockService{models: []types.ModelFile{{PartialDigest: "d1"}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/models/d1/identify", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	var body types.IdentifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.FullDigest != "full-d1" {
		t.Fatalf("body: %s err=%v", w.Body.String(), err)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
	if w.Code != http.StatusBadRequest { t.Fatalf("status=%d", w.Code) }
}

func TestSearchHandler(t *testing.T) {
	svc := &mockService{models: []types.ModelFile{
		{PartialDigest: "d1", Path: "/m/flux1-dev.safetensors"},
		{PartialDigest: "d2", Path: "/m/sdxl-base.safetensors"},
	}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=flux", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || len(body.Models) != 1 {
		t.Fatalf("body: %s err=%v", w.Body.String(), err)
	}
}

func TestScanHandler(t *testing.T) {
	svc := &mockService{scanResp: types.ScanResponse{Scanned: 5, Indexed: 3}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	var body types.ScanResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Scanned != 5 {
		t.Fatalf("body: %s err=%v", w.Body.String(), err)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{Models: 10}}
	r := NewMux(svc)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil { t.Fatalf("json: %v", err) }
	if body.Models != 10 { t.Fatalf("unexpected body: %+v", body) }
}

func TestRegisterWorkflow(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewBufferString(`{"path":"/w/a.json","name":"a"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated { t.Fatalf("status=%d body=%s", w.Code, w.Body.String()) }
	if svc.registered.Path != "/w/a.json" || svc.registered.Name != "a" {
		t.Fatalf("registered: %+v", svc.registered)
	}
}

func TestRegisterWorkflow_PathRequired(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewBufferString(`{"name":"a"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest { t.Fatalf("status=%d", w.Code) }
}

func TestWorkflowDetail(t *testing.T) {
	svc := &mockService{workflows: []types.WorkflowDescriptor{{ID: "wf-1", Name: "a"}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/workflows/wf-1", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	var body types.WorkflowDetailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Workflow.ID != "wf-1" {
		t.Fatalf("body: %s err=%v", w.Body.String(), err)
	}
}

func TestResolveUnknownWorkflow404(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/workflows/nope/resolve", nil))
	if w.Code != http.StatusNotFound { t.Fatalf("status=%d", w.Code) }
}

func TestBodyTooLarge(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	big := make([]byte, (1<<20)+10)
	for i := range big { big[i] = 'a' }
	req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest { t.Fatalf("expected 400 for too-large body, got %d", w.Code) }
}

func TestHealthz(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
}

func TestReadyz(t *testing.T) {
	svc := &mockService{ready: true}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
}

func TestReadyz_NotReady(t *testing.T) {
	svc := &mockService{ready: false}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable { t.Fatalf("status=%d", w.Code) }
	if !strings.Contains(w.Body.String(), "scanning") { t.Fatalf("body=%q", w.Body.String()) }
}
