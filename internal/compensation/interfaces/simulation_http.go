package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"net/url"
	"time"

	"envecom-simulator/internal/audit"
	"envecom-simulator/internal/compensation/application"
	compensation "envecom-simulator/internal/compensation/domain"
	"envecom-simulator/internal/observability/metrics"
)

const maxFormBytes = 1 << 20

// SimulationHandler serves the simulation API and report exports.
type SimulationHandler struct {
	service     *application.SimulationService
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewSimulationHandler constructs a handler.
func NewSimulationHandler(service *application.SimulationService, auditLogger audit.Logger, logger *log.Logger) (*SimulationHandler, error) {
	if service == nil {
		return nil, errors.New("simulation handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SimulationHandler{service: service, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP handles routes under /api/v1/simulations.
func (h *SimulationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/simulations":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleSimulate(w, r)
	case "/api/v1/simulations/export.pdf":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleExport(w, r, "pdf")
	case "/api/v1/simulations/export.xlsx":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleExport(w, r, "xlsx")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *SimulationHandler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	partial, err := decodeBill(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sim, err := h.service.Simulate(r.Context(), partial)
	if err != nil {
		logAudit(r, h.auditLogger, "simulation.create", "", audit.OutcomeRejected, map[string]any{"error": err.Error()})
		respondSimulationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
	logAudit(r, h.auditLogger, "simulation.create", sim.ID, audit.OutcomeSuccess, map[string]any{
		"uc":              sim.Report.Identification.ConsumerUnit,
		"tipo_ligacao":    sim.Report.Identification.Connection,
		"credito_total":   sim.Report.Summary.CreditTotal,
		"reducao_percent": sim.Report.Summary.ReductionPct,
	})
}

func (h *SimulationHandler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportExport(format, result, time.Since(start))
	}()

	partial, err := decodeBill(w, r)
	if err != nil {
		result = metrics.ResultInvalid
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sim, err := h.service.Simulate(r.Context(), partial)
	if err != nil {
		result = metrics.ResultInvalid
		respondSimulationError(w, err)
		return
	}

	var data []byte
	contentType := "application/pdf"
	if format == "xlsx" {
		contentType = xlsxContentType
		data, err = BuildReportXLSX(sim)
	} else {
		data, err = BuildReportPDF(sim)
	}
	if err != nil {
		result = metrics.ResultError
		h.logger.Printf("export %s error: %v", format, err)
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		logAudit(r, h.auditLogger, "simulation.export", sim.ID, audit.OutcomeError, map[string]any{"format": format})
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exportFilename(sim, format)}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	logAudit(r, h.auditLogger, "simulation.export", sim.ID, audit.OutcomeSuccess, map[string]any{"format": format, "bytes": len(data)})
}

var errInvalidJSON = errors.New("invalid json")

// decodeBill reads a bill from a JSON body or from form fields.
func decodeBill(w http.ResponseWriter, r *http.Request) (compensation.PartialBillInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" || mediaType == "" {
		var partial compensation.PartialBillInput
		if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
			return compensation.PartialBillInput{}, errInvalidJSON
		}
		return partial, nil
	}
	if err := r.ParseForm(); err != nil {
		return compensation.PartialBillInput{}, errors.New("invalid form")
	}
	return partialFromForm(r.PostForm), nil
}

// partialFromForm maps form fields to a partial bill. Empty numeric fields are absent.
func partialFromForm(values url.Values) compensation.PartialBillInput {
	text := func(key string) *compensation.LooseString {
		if !values.Has(key) {
			return nil
		}
		return compensation.String(values.Get(key))
	}
	amount := func(key string) *compensation.LooseFloat {
		return compensation.FloatFromText(values.Get(key))
	}
	return compensation.PartialBillInput{
		ClientName:     text("nome"),
		ConsumerUnit:   text("uc"),
		Distributor:    text("distribuidora"),
		ReferenceMonth: text("mes_ref"),
		Connection:     text("tipo_ligacao"),
		TotalKWh:       amount("consumo_total_kwh"),
		EnergyRate:     amount("tarifa_te"),
		TUSDRate:       amount("tarifa_tusd"),
		YellowFlagRate: amount("tarifa_bandeira_amarela"),
		RedFlagRate:    amount("tarifa_bandeira_vermelha"),
		PublicLighting: amount("iluminacao_publica"),
		Notes:          text("outros_itens_texto"),
	}
}

func respondSimulationError(w http.ResponseWriter, err error) {
	var verr *compensation.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    verr.Error(),
			"problems": verr.Problems,
		})
	case errors.Is(err, compensation.ErrUnknownConnectionClass):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
	default:
		http.Error(w, "simulation error", http.StatusInternalServerError)
	}
}

func exportFilename(sim *application.Simulation, format string) string {
	name := "relatorio-compensacao"
	if uc := sim.Report.Identification.ConsumerUnit; uc != "" {
		name += "-" + uc
	}
	return name + "." + format
}

// writeJSON encodes before writing the header so an encoding failure becomes a 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func logAudit(r *http.Request, logger audit.Logger, action, resourceID, outcome string, meta map[string]any) {
	if logger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = logger.Log(r.Context(), audit.Entry{
		Action:       action,
		ResourceType: "simulation",
		ResourceID:   resourceID,
		Outcome:      outcome,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
