package metrics

import (
	"testing"
	"time"
)

func TestObserveBeforeInit(t *testing.T) {
	ObserveSimulation("", time.Millisecond)
	ObserveCompensableEnergy(-1)
	ObserveExtraction(ResultError, time.Second)
	ObserveUploadSize(1024)
	IncImageOptimize("")
	ObserveReportExport("", "", time.Millisecond)
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()
	if simulationTotal == nil || exportTotal == nil {
		t.Fatalf("expected collectors to be registered")
	}
	ObserveSimulation(ResultSuccess, time.Millisecond)
	ObserveReportExport("pdf", ResultSuccess, time.Millisecond)
}
