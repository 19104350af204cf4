package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"modelscan/internal/manager"
	"modelscan/internal/workflow"
)

func TestScan_BusyMaps409(t *testing.T) {
	svc := &mockService{scanErr: manager.ErrScanBusy()}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scan", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestResolve_GraphErrorMaps422(t *testing.T) {
	svc := &mockService{
		resolveErr: workflow.ErrGraph("neither a UI nor an API export"),
	}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/workflows/wf-1/resolve", nil))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestResolve_GenericErrorMaps500(t *testing.T) {
	svc := &mockService{resolveErr: mockHTTPError{msg: "boom", code: http.StatusInternalServerError}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/workflows/wf-1/resolve", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
