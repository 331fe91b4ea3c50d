package interfaces

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"envecom-simulator/internal/audit"
	compensation "envecom-simulator/internal/compensation/domain"
)

func newTestSimulationHandler(t *testing.T, strict bool) (*SimulationHandler, *recordingAudit) {
	t.Helper()
	recorder := &recordingAudit{}
	handler, err := NewSimulationHandler(newSimulationService(t, strict), recorder, quietLogger)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, recorder
}

func TestNewSimulationHandler_NilService(t *testing.T) {
	if _, err := NewSimulationHandler(nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestSimulationHandler_Simulate(t *testing.T) {
	handler, recorder := newTestSimulationHandler(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulations", strings.NewReader(scenarioJSON))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		ID         string                          `json:"id"`
		Report     compensation.CompensationReport `json:"report"`
		Projection compensation.Projection         `json:"projection"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" {
		t.Fatalf("expected simulation id")
	}
	if resp.Report.Summary.ReductionPct != 12.85 {
		t.Fatalf("reduction mismatch: got=%v want=12.85", resp.Report.Summary.ReductionPct)
	}
	if len(resp.Report.LineItems) != 2 || len(resp.Projection.Points) != 12 {
		t.Fatalf("unexpected report shape: items=%d points=%d", len(resp.Report.LineItems), len(resp.Projection.Points))
	}

	entry := recorder.last(t)
	if entry.Action != "simulation.create" || entry.Outcome != audit.OutcomeSuccess || entry.ResourceID != resp.ID {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestSimulationHandler_Errors(t *testing.T) {
	handler, _ := newTestSimulationHandler(t, false)
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"wrong method", http.MethodGet, "/api/v1/simulations", "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "/api/v1/simulations", "{", http.StatusBadRequest},
		{"export wrong method", http.MethodGet, "/api/v1/simulations/export.pdf", "", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodPost, "/api/v1/simulations/other", "{}", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: status mismatch: got=%d want=%d", tc.name, rec.Code, tc.status)
		}
	}
}

func TestSimulationHandler_StrictValidation(t *testing.T) {
	handler, recorder := newTestSimulationHandler(t, true)
	body := `{"uc":"5121900","tipo_ligacao":"quadri","consumo_total_kwh":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status mismatch: got=%d want=%d", rec.Code, http.StatusUnprocessableEntity)
	}
	var resp struct {
		Problems []compensation.FieldProblem `json:"problems"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Problems) != 3 {
		t.Fatalf("expected 3 problems, got %+v", resp.Problems)
	}
	if entry := recorder.last(t); entry.Outcome != audit.OutcomeRejected {
		t.Fatalf("expected rejected audit entry, got %+v", entry)
	}
}

func TestSimulationHandler_ExportPDF(t *testing.T) {
	handler, recorder := newTestSimulationHandler(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulations/export.pdf", strings.NewReader(scenarioJSON))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type mismatch: got=%s", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected pdf payload")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "relatorio-compensacao-5121900.pdf") {
		t.Fatalf("content disposition mismatch: got=%s", cd)
	}
	if entry := recorder.last(t); entry.Action != "simulation.export" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestSimulationHandler_ExportXLSXFromForm(t *testing.T) {
	handler, _ := newTestSimulationHandler(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulations/export.xlsx", strings.NewReader(scenarioForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != "resumo" || sheets[1] != "itens" || sheets[2] != "projecao" {
		t.Fatalf("sheet list mismatch: got=%v", sheets)
	}
	client, err := f.GetCellValue("resumo", "B3")
	if err != nil || client != "Francinete Ferreira" {
		t.Fatalf("client cell mismatch: got=%q err=%v", client, err)
	}
	label, err := f.GetCellValue("itens", "A3")
	if err != nil || label != compensation.LabelTUSD {
		t.Fatalf("item label mismatch: got=%q err=%v", label, err)
	}
	month, err := f.GetCellValue("projecao", "A13")
	if err != nil || month != "mês 12" {
		t.Fatalf("projection label mismatch: got=%q err=%v", month, err)
	}
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"valor": math.Inf(1)})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status mismatch: got=%d want=%d", rec.Code, http.StatusInternalServerError)
	}
	if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type: %s", ct)
	}
}

func TestSimulationHandler_HugeAmountIsMasked(t *testing.T) {
	handler, _ := newTestSimulationHandler(t, false)
	body := `{"tipo_ligacao":"mono","consumo_total_kwh":"1e308","tarifa_te":10,"tarifa_tusd":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Report compensation.CompensationReport `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Report.Consumption.TotalKWh != 0 || resp.Report.Summary.ReductionPct != 0 {
		t.Fatalf("expected masked amount, got %+v", resp.Report.Consumption)
	}
}
