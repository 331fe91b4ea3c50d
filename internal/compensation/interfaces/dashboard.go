package interfaces

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yuin/goldmark"

	"envecom-simulator/internal/audit"
	"envecom-simulator/internal/compensation/application"
	compensation "envecom-simulator/internal/compensation/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	msgExtractFailed      = "Falha na leitura. Tente manual."
	msgExtractUnavailable = "Leitura automática indisponível. Preencha os dados manualmente."
	msgExtractDone        = "Dados extraídos da fatura. Confira os valores antes de gerar o relatório."
	msgMissingFile        = "Selecione a fatura (imagem ou PDF) antes de enviar."
)

// exampleBill is the bill used by GET /?exemplo=1.
var exampleBill = compensation.BillInput{
	ClientName:     "Francinete Ferreira",
	ConsumerUnit:   "5121900",
	Distributor:    "ENEL",
	ReferenceMonth: "12/2025",
	Connection:     compensation.ClassSinglePhase,
	TotalKWh:       188,
	EnergyRate:     0.32766,
	TUSDRate:       0.62154,
	YellowFlagRate: 0.02165,
	RedFlagRate:    0.00782,
	PublicLighting: 24.39,
}

type formValues struct {
	ClientName     string
	ConsumerUnit   string
	Distributor    string
	ReferenceMonth string
	Connection     string
	TotalKWh       string
	EnergyRate     string
	TUSDRate       string
	YellowFlagRate string
	RedFlagRate    string
	PublicLighting string
	Notes          string
}

type formPage struct {
	Values         formValues
	Message        string
	Error          string
	Problems       []compensation.FieldProblem
	ExtractEnabled bool
}

type bar struct {
	Label  string
	Value  float64
	Height float64
}

type dashboardPage struct {
	Sim    *application.Simulation
	Values formValues
	Bars   []bar
	Notes  template.HTML
}

// DashboardHandler serves the input form and the rendered report.
type DashboardHandler struct {
	simulations *application.SimulationService
	extraction  *application.ExtractionService
	auditLogger audit.Logger
	logger      *log.Logger
	templates   *template.Template
	markdown    goldmark.Markdown
}

// NewDashboardHandler constructs a handler. extraction may be nil, which
// disables the upload form.
func NewDashboardHandler(simulations *application.SimulationService, extraction *application.ExtractionService, auditLogger audit.Logger, logger *log.Logger) (*DashboardHandler, error) {
	if simulations == nil {
		return nil, errors.New("dashboard handler: nil simulation service")
	}
	if logger == nil {
		logger = log.Default()
	}
	templates, err := template.New("dashboard").Funcs(template.FuncMap{
		"currency": FormatCurrency,
		"tariff":   FormatTariff,
		"percent":  FormatPercent,
		"kwh":      FormatKWh,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{
		simulations: simulations,
		extraction:  extraction,
		auditLogger: auditLogger,
		logger:      logger,
		templates:   templates,
		markdown:    goldmark.New(),
	}, nil
}

// ServeHTTP handles /, /simular and /extrair.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w)
			return
		}
		page := h.newFormPage()
		if r.URL.Query().Get("exemplo") == "1" {
			page.Values = formValuesFromInput(exampleBill)
		}
		h.render(w, http.StatusOK, "form.html", page)
	case "/simular":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleSimulate(w, r)
	case "/extrair":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleExtract(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *DashboardHandler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	values := formValuesFromForm(r.PostForm)
	sim, err := h.simulations.Simulate(r.Context(), partialFromForm(r.PostForm))
	if err != nil {
		logAudit(r, h.auditLogger, "simulation.create", "", audit.OutcomeRejected, map[string]any{"error": err.Error(), "source": "dashboard"})
		page := h.newFormPage()
		page.Values = values
		var verr *compensation.ValidationError
		switch {
		case errors.As(err, &verr):
			page.Error = "Corrija os campos destacados."
			page.Problems = verr.Problems
		case errors.Is(err, compensation.ErrUnknownConnectionClass):
			page.Error = "Tipo de ligação não reconhecido."
		default:
			page.Error = "Não foi possível gerar o relatório."
		}
		h.render(w, http.StatusUnprocessableEntity, "form.html", page)
		return
	}

	page := dashboardPage{Sim: sim, Values: values, Notes: h.renderNotes(sim.Report.Notes)}
	for _, point := range sim.Projection.Points {
		page.Bars = append(page.Bars, bar{
			Label:  point.Label,
			Value:  point.Accumulated,
			Height: sim.Projection.BarHeightPct(point),
		})
	}
	h.render(w, http.StatusOK, "dashboard.html", page)
	logAudit(r, h.auditLogger, "simulation.create", sim.ID, audit.OutcomeSuccess, map[string]any{"source": "dashboard"})
}

func (h *DashboardHandler) handleExtract(w http.ResponseWriter, r *http.Request) {
	page := h.newFormPage()
	if h.extraction == nil {
		page.Error = msgExtractUnavailable
		h.render(w, http.StatusOK, "form.html", page)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(h.extraction.MaxBytes())+maxFormBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		page.Error = "Arquivo muito grande ou envio inválido."
		h.render(w, http.StatusBadRequest, "form.html", page)
		return
	}
	defer r.MultipartForm.RemoveAll()

	current := url.Values(r.MultipartForm.Value)
	page.Values = formValuesFromForm(current)
	file, header, err := r.FormFile("fatura")
	if err != nil {
		page.Error = msgMissingFile
		h.render(w, http.StatusOK, "form.html", page)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, int64(h.extraction.MaxBytes())+1))
	if err != nil {
		page.Error = msgExtractFailed
		h.render(w, http.StatusOK, "form.html", page)
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	partial, err := h.extraction.Extract(r.Context(), data, mimeType)
	if err != nil {
		logAudit(r, h.auditLogger, "bill.extract", "", audit.OutcomeError, map[string]any{"source": "dashboard", "bytes": len(data), "error": err.Error()})
		page.Error = msgExtractFailed
		if errors.Is(err, compensation.ErrExtractorUnavailable) {
			page.Error = msgExtractUnavailable
		}
		h.render(w, http.StatusOK, "form.html", page)
		return
	}

	merged := compensation.MergeExtracted(partialFromForm(current).Resolve(), partial)
	page.Values = formValuesFromInput(merged)
	page.Message = msgExtractDone
	h.render(w, http.StatusOK, "form.html", page)
	logAudit(r, h.auditLogger, "bill.extract", "", audit.OutcomeSuccess, map[string]any{"source": "dashboard", "bytes": len(data)})
}

func (h *DashboardHandler) newFormPage() formPage {
	return formPage{ExtractEnabled: h.extraction != nil}
}

func (h *DashboardHandler) renderNotes(notes string) template.HTML {
	if notes == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(notes), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(notes))
	}
	return template.HTML(buf.String())
}

func (h *DashboardHandler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Printf("render %s error: %v", name, err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func formValuesFromInput(in compensation.BillInput) formValues {
	return formValues{
		ClientName:     in.ClientName,
		ConsumerUnit:   in.ConsumerUnit,
		Distributor:    in.Distributor,
		ReferenceMonth: in.ReferenceMonth,
		Connection:     string(in.Connection),
		TotalKWh:       formatInputNumber(in.TotalKWh),
		EnergyRate:     formatInputNumber(in.EnergyRate),
		TUSDRate:       formatInputNumber(in.TUSDRate),
		YellowFlagRate: formatInputNumber(in.YellowFlagRate),
		RedFlagRate:    formatInputNumber(in.RedFlagRate),
		PublicLighting: formatInputNumber(in.PublicLighting),
		Notes:          in.Notes,
	}
}

func formValuesFromForm(values url.Values) formValues {
	return formValues{
		ClientName:     values.Get("nome"),
		ConsumerUnit:   values.Get("uc"),
		Distributor:    values.Get("distribuidora"),
		ReferenceMonth: values.Get("mes_ref"),
		Connection:     values.Get("tipo_ligacao"),
		TotalKWh:       values.Get("consumo_total_kwh"),
		EnergyRate:     values.Get("tarifa_te"),
		TUSDRate:       values.Get("tarifa_tusd"),
		YellowFlagRate: values.Get("tarifa_bandeira_amarela"),
		RedFlagRate:    values.Get("tarifa_bandeira_vermelha"),
		PublicLighting: values.Get("iluminacao_publica"),
		Notes:          values.Get("outros_itens_texto"),
	}
}

func formatInputNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
