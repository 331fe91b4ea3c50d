package compensation

import (
	"fmt"
	"strings"
)

// BillInput is the normalized bill record consumed by the calculator.
type BillInput struct {
	ClientName     string          `json:"nome"`
	ConsumerUnit   string          `json:"uc"`
	Distributor    string          `json:"distribuidora"`
	ReferenceMonth string          `json:"mes_ref"`
	Connection     ConnectionClass `json:"tipo_ligacao"`
	TotalKWh       float64         `json:"consumo_total_kwh"`
	EnergyRate     float64         `json:"tarifa_te"`
	TUSDRate       float64         `json:"tarifa_tusd"`
	YellowFlagRate float64         `json:"tarifa_bandeira_amarela"`
	RedFlagRate    float64         `json:"tarifa_bandeira_vermelha"`
	PublicLighting float64         `json:"iluminacao_publica"`
	Notes          string          `json:"outros_itens_texto"`
}

// PartialBillInput is a best-effort bill record where any field may be absent,
// as produced by the extraction service or a loosely typed client.
type PartialBillInput struct {
	ClientName     *LooseString `json:"nome,omitempty"`
	ConsumerUnit   *LooseString `json:"uc,omitempty"`
	Distributor    *LooseString `json:"distribuidora,omitempty"`
	ReferenceMonth *LooseString `json:"mes_ref,omitempty"`
	Connection     *LooseString `json:"tipo_ligacao,omitempty"`
	TotalKWh       *LooseFloat  `json:"consumo_total_kwh,omitempty"`
	EnergyRate     *LooseFloat  `json:"tarifa_te,omitempty"`
	TUSDRate       *LooseFloat  `json:"tarifa_tusd,omitempty"`
	YellowFlagRate *LooseFloat  `json:"tarifa_bandeira_amarela,omitempty"`
	RedFlagRate    *LooseFloat  `json:"tarifa_bandeira_vermelha,omitempty"`
	PublicLighting *LooseFloat  `json:"iluminacao_publica,omitempty"`
	Notes          *LooseString `json:"outros_itens_texto,omitempty"`
}

// Resolve applies the defaulting rules: absent or invalid numbers become 0,
// absent strings become empty and the connection class is normalized.
func (p PartialBillInput) Resolve() BillInput {
	class, _ := ParseConnectionClass(p.Connection.value())
	return BillInput{
		ClientName:     p.ClientName.value(),
		ConsumerUnit:   p.ConsumerUnit.value(),
		Distributor:    p.Distributor.value(),
		ReferenceMonth: p.ReferenceMonth.value(),
		Connection:     class,
		TotalKWh:       amountOf(p.TotalKWh),
		EnergyRate:     amountOf(p.EnergyRate),
		TUSDRate:       amountOf(p.TUSDRate),
		YellowFlagRate: amountOf(p.YellowFlagRate),
		RedFlagRate:    amountOf(p.RedFlagRate),
		PublicLighting: amountOf(p.PublicLighting),
		Notes:          p.Notes.value(),
	}
}

// Partial converts a complete input back into the partial form.
func (in BillInput) Partial() PartialBillInput {
	return PartialBillInput{
		ClientName:     String(in.ClientName),
		ConsumerUnit:   String(in.ConsumerUnit),
		Distributor:    String(in.Distributor),
		ReferenceMonth: String(in.ReferenceMonth),
		Connection:     String(string(in.Connection)),
		TotalKWh:       Float(in.TotalKWh),
		EnergyRate:     Float(in.EnergyRate),
		TUSDRate:       Float(in.TUSDRate),
		YellowFlagRate: Float(in.YellowFlagRate),
		RedFlagRate:    Float(in.RedFlagRate),
		PublicLighting: Float(in.PublicLighting),
		Notes:          String(in.Notes),
	}
}

// FieldProblem describes one field rejected by strict validation.
type FieldProblem struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every field rejected by strict validation.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, problem := range e.Problems {
		parts = append(parts, problem.Field+": "+problem.Reason)
	}
	return fmt.Sprintf("compensation: invalid input (%s)", strings.Join(parts, "; "))
}

// Problems reports fields that are missing where required or present but unusable.
// It backs the strict validation mode; the calculator never consults it.
func (p PartialBillInput) Problems() []FieldProblem {
	var problems []FieldProblem
	if p.ClientName.value() == "" {
		problems = append(problems, FieldProblem{Field: "nome", Reason: "required"})
	}
	if p.ConsumerUnit.value() == "" {
		problems = append(problems, FieldProblem{Field: "uc", Reason: "required"})
	}
	if _, ok := ParseConnectionClass(p.Connection.value()); !ok {
		problems = append(problems, FieldProblem{Field: "tipo_ligacao", Reason: "unknown connection class"})
	}
	numeric := []struct {
		name  string
		value *LooseFloat
	}{
		{"consumo_total_kwh", p.TotalKWh},
		{"tarifa_te", p.EnergyRate},
		{"tarifa_tusd", p.TUSDRate},
		{"tarifa_bandeira_amarela", p.YellowFlagRate},
		{"tarifa_bandeira_vermelha", p.RedFlagRate},
		{"iluminacao_publica", p.PublicLighting},
	}
	for _, field := range numeric {
		if field.value != nil && field.value.Invalid {
			problems = append(problems, FieldProblem{Field: field.name, Reason: "not a non-negative number"})
		}
	}
	return problems
}

// ValidateStrict returns a *ValidationError when Problems is not empty.
func (p PartialBillInput) ValidateStrict() error {
	if problems := p.Problems(); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// MergeExtracted folds an extraction result into the form values. Extracted
// strings replace the base only when present; the six numeric fields always
// take the coerced extracted value, so an amount the extractor did not find
// resets to 0.
func MergeExtracted(base BillInput, extracted PartialBillInput) BillInput {
	merged := base
	overrideString(&merged.ClientName, extracted.ClientName)
	overrideString(&merged.ConsumerUnit, extracted.ConsumerUnit)
	overrideString(&merged.Distributor, extracted.Distributor)
	overrideString(&merged.ReferenceMonth, extracted.ReferenceMonth)
	overrideString(&merged.Notes, extracted.Notes)
	if extracted.Connection != nil {
		if class, ok := ParseConnectionClass(extracted.Connection.value()); ok {
			merged.Connection = class
		}
	}
	merged.TotalKWh = amountOf(extracted.TotalKWh)
	merged.EnergyRate = amountOf(extracted.EnergyRate)
	merged.TUSDRate = amountOf(extracted.TUSDRate)
	merged.YellowFlagRate = amountOf(extracted.YellowFlagRate)
	merged.RedFlagRate = amountOf(extracted.RedFlagRate)
	merged.PublicLighting = amountOf(extracted.PublicLighting)
	return merged
}

func overrideString(dst *string, src *LooseString) {
	if src != nil {
		*dst = src.value()
	}
}

func amountOf(f *LooseFloat) float64 {
	if f == nil || f.Invalid {
		return 0
	}
	return f.Value
}
