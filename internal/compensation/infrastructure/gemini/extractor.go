package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"

	"google.golang.org/genai"

	"envecom-simulator/internal/compensation/application"
	compensation "envecom-simulator/internal/compensation/domain"
)

// DefaultModel is the Gemini model used for bill reading.
const DefaultModel = "gemini-3-flash-preview"

const prompt = `Analise esta fatura de energia e extraia os dados estritamente no formato JSON.
Campos necessários:
{
  "nome": "Nome completo do titular",
  "uc": "Número da Unidade Consumidora",
  "distribuidora": "Nome da concessionária (ex: ENEL, COELCE, CPFL)",
  "mes_ref": "Mês de referência no formato MM/AAAA",
  "tipo_ligacao": "mono, bi ou tri conforme o tipo de fornecimento",
  "consumo_total_kwh": número (consumo total medido no mês),
  "tarifa_te": número (valor unitário da Tarifa de Energia - TE),
  "tarifa_tusd": número (valor unitário da Tarifa TUSD),
  "tarifa_bandeira_amarela": número (valor unitário adicional de bandeira amarela se houver),
  "tarifa_bandeira_vermelha": número (valor unitário adicional de bandeira vermelha se houver),
  "iluminacao_publica": número (valor total da taxa de iluminação pública/CIP/Cosip)
}
Importante: Retorne APENAS o objeto JSON puro, sem formatação markdown ou textos explicativos.`

// generator is the subset of *genai.Models used by the extractor.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Extractor reads bill fields with a single Gemini call.
type Extractor struct {
	models generator
	model  string
	logger *log.Logger
}

var _ application.Extractor = (*Extractor)(nil)

// New creates a Gemini API client for apiKey.
func New(ctx context.Context, apiKey, model string, logger *log.Logger) (*Extractor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini extractor: empty api key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini extractor: create client: %w", err)
	}
	return newExtractor(client.Models, model, logger)
}

func newExtractor(models generator, model string, logger *log.Logger) (*Extractor, error) {
	if models == nil {
		return nil, errors.New("gemini extractor: nil models")
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{models: models, model: model, logger: logger}, nil
}

// Extract sends the image with the field prompt and decodes the answer.
func (e *Extractor) Extract(ctx context.Context, img application.Image) (compensation.PartialBillInput, error) {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = application.DefaultMIMEType
	}
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{Data: img.Data, MIMEType: mimeType}},
		},
	}}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		return compensation.PartialBillInput{}, fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil {
		return compensation.PartialBillInput{}, errEmptyResponse
	}
	partial, err := DecodeFields(resp.Text())
	if err != nil {
		return compensation.PartialBillInput{}, err
	}
	e.logger.Printf("gemini extraction: model=%s bytes=%d mime=%s", e.model, len(img.Data), mimeType)
	return partial, nil
}

// Unavailable is the extractor used when no API key is configured.
type Unavailable struct{}

// Extract always returns ErrExtractorUnavailable.
func (Unavailable) Extract(context.Context, application.Image) (compensation.PartialBillInput, error) {
	return compensation.PartialBillInput{}, compensation.ErrExtractorUnavailable
}
