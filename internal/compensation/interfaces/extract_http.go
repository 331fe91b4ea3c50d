package interfaces

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"envecom-simulator/internal/audit"
	"envecom-simulator/internal/compensation/application"
	compensation "envecom-simulator/internal/compensation/domain"
)

// ExtractHandler reads bill fields from a base64 image.
type ExtractHandler struct {
	service     *application.ExtractionService
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewExtractHandler constructs a handler.
func NewExtractHandler(service *application.ExtractionService, auditLogger audit.Logger, logger *log.Logger) (*ExtractHandler, error) {
	if service == nil {
		return nil, errors.New("extract handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExtractHandler{service: service, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP handles POST /api/extract.
func (h *ExtractHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Método não permitido"})
		return
	}

	// Base64 inflates the payload by 4/3; leave room for the JSON envelope.
	limit := int64(h.service.MaxBytes())*4/3 + 64*1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	var req struct {
		Base64   string `json:"base64"`
		MIMEType string `json:"mimeType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Arquivo muito grande"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Base64) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Dados da imagem ausentes"})
		return
	}
	data, mimeType, err := decodeDataURL(req.Base64, req.MIMEType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Dados da imagem inválidos"})
		return
	}

	partial, err := h.service.Extract(r.Context(), data, mimeType)
	if err != nil {
		status, message := extractionErrorStatus(err)
		logAudit(r, h.auditLogger, "bill.extract", "", audit.OutcomeError, map[string]any{"mime": mimeType, "bytes": len(data), "error": err.Error()})
		writeJSON(w, status, map[string]string{"error": message})
		return
	}
	writeJSON(w, http.StatusOK, partial)
	logAudit(r, h.auditLogger, "bill.extract", "", audit.OutcomeSuccess, map[string]any{"mime": mimeType, "bytes": len(data)})
}

// decodeDataURL accepts raw base64 or a data URL. The media type embedded in a
// data URL is used when none is given.
func decodeDataURL(value, mimeType string) ([]byte, string, error) {
	value = strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(value, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", errors.New("malformed data url")
		}
		if mimeType == "" {
			mimeType, _, _ = strings.Cut(header, ";")
		}
		value = payload
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(value, "="))
		if err != nil {
			return nil, "", err
		}
	}
	return data, application.NormalizeMIMEType(mimeType), nil
}

func extractionErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, compensation.ErrEmptyImage):
		return http.StatusBadRequest, "Dados da imagem ausentes"
	case errors.Is(err, compensation.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "Arquivo muito grande"
	case errors.Is(err, compensation.ErrExtractorUnavailable):
		return http.StatusServiceUnavailable, "Leitura automática indisponível no servidor"
	default:
		return http.StatusBadGateway, "Falha na leitura. Tente manual."
	}
}
