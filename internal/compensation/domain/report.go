package compensation

// Line item labels, kept stable for external report renderers. LabelTUSD is
// the TUSD label under the default factor; see TUSDLabel.
const (
	LabelEnergy     = "Tarifa de Energia (TE)"
	LabelTUSD       = "TUSD (Ajustada -20%)"
	LabelYellowFlag = "Bandeira Amarela"
	LabelRedFlag    = "Bandeira Vermelha"
)

// CompensationReport is the result of one computation. It is never mutated
// after Compute returns; a new submission produces a new report.
type CompensationReport struct {
	Identification Identification `json:"identificacao"`
	Consumption    Consumption    `json:"consumo"`
	LineItems      []LineItem     `json:"itens_compensacao"`
	Summary        Summary        `json:"resumo"`
	Comparison     Comparison     `json:"comparativo"`
	Notes          string         `json:"observacoes,omitempty"`
}

// Identification echoes the identity fields of the bill.
type Identification struct {
	Client         string          `json:"cliente"`
	ConsumerUnit   string          `json:"uc"`
	Distributor    string          `json:"distribuidora"`
	ReferenceMonth string          `json:"mes_referencia"`
	Connection     ConnectionClass `json:"tipo_ligacao"`
}

// Consumption holds metered, floor and compensable energy in kWh.
type Consumption struct {
	TotalKWh       float64 `json:"total"`
	MinimumKWh     float64 `json:"minimo"`
	CompensableKWh float64 `json:"compensado"`
}

// LineItem is the credit produced by one tariff component.
type LineItem struct {
	Label string  `json:"descricao"`
	KWh   float64 `json:"consumo"`
	Rate  float64 `json:"tarifa"`
	Value float64 `json:"valor"`
}

// Summary splits the credit between the member and the association.
type Summary struct {
	CreditTotal      float64 `json:"valor_credito_total"`
	MemberShare      float64 `json:"economia_mensal_associado"`
	AssociationShare float64 `json:"repasse_envecom"`
	ReductionPct     float64 `json:"reducao_percentual"`
}

// Comparison contrasts the uncompensated invoice with what is owed.
type Comparison struct {
	CurrentInvoice float64 `json:"fatura_atual"`
	NewFinalTotal  float64 `json:"novo_total_final"`
}

// Item returns the line item with the given label.
func (r CompensationReport) Item(label string) (LineItem, bool) {
	for _, item := range r.LineItems {
		if item.Label == label {
			return item, true
		}
	}
	return LineItem{}, false
}
