package interfaces

import (
	"context"
	"io"
	"log"
	"net/url"
	"testing"

	"envecom-simulator/internal/audit"
	"envecom-simulator/internal/compensation/application"
	compensation "envecom-simulator/internal/compensation/domain"
)

var quietLogger = log.New(io.Discard, "", 0)

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Log(ctx context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingAudit) last(t *testing.T) audit.Entry {
	t.Helper()
	if len(r.entries) == 0 {
		t.Fatalf("expected an audit entry")
	}
	return r.entries[len(r.entries)-1]
}

type stubExtractor struct {
	calls  int
	got    application.Image
	result compensation.PartialBillInput
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, img application.Image) (compensation.PartialBillInput, error) {
	s.calls++
	s.got = img
	return s.result, s.err
}

func newSimulationService(t *testing.T, strict bool) *application.SimulationService {
	t.Helper()
	calc, err := compensation.NewCalculator(compensation.DefaultPolicy())
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	svc, err := application.NewSimulationService(calc, application.WithStrictValidation(strict), application.WithLogger(quietLogger))
	if err != nil {
		t.Fatalf("new simulation service: %v", err)
	}
	return svc
}

func newExtractionService(t *testing.T, extractor application.Extractor) *application.ExtractionService {
	t.Helper()
	svc, err := application.NewExtractionService(extractor, nil, application.ExtractionConfig{}, quietLogger)
	if err != nil {
		t.Fatalf("new extraction service: %v", err)
	}
	return svc
}

const scenarioJSON = `{
	"nome": "Francinete Ferreira",
	"uc": "5121900",
	"distribuidora": "ENEL",
	"mes_ref": "12/2025",
	"tipo_ligacao": "mono",
	"consumo_total_kwh": 188,
	"tarifa_te": 0.32766,
	"tarifa_tusd": 0.62154,
	"iluminacao_publica": 24.39
}`

func scenarioForm() url.Values {
	return url.Values{
		"nome":               {"Francinete Ferreira"},
		"uc":                 {"5121900"},
		"distribuidora":      {"ENEL"},
		"mes_ref":            {"12/2025"},
		"tipo_ligacao":       {"mono"},
		"consumo_total_kwh":  {"188"},
		"tarifa_te":          {"0,32766"},
		"tarifa_tusd":        {"0.62154"},
		"iluminacao_publica": {"24,39"},
	}
}
