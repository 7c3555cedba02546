package dataprocessing

// Injected column names
const (
	ColumnKind        = "Tipo"
	ColumnPeriod      = "Período"
	ColumnAgency      = "Agência"
	ColumnAccount     = "Conta"
	ColumnTaxID       = "CPF/CNPJ"
	ColumnCompany     = "Nome"
	ColumnCertificate = "Certificado"
)

// placeholderColumns are filled by a later stage and start empty
var placeholderColumns = []string{ColumnCertificate, "Vlr da Renda", "Valor de IOF", "Valor de IRRF"}

// canonicalColumns is the output schema, in order
var canonicalColumns = []string{
	ColumnPeriod,
	ColumnAgency,
	ColumnAccount,
	ColumnTaxID,
	ColumnCompany,
	ColumnKind,
	ColumnCertificate,
	"Data de Emissão",
	"Data de Vencto",
	"Taxa/ PCT",
	"Valor Principal",
	"Valor da Renda",
	"Valor de IOF(*)",
	"Valor de IRRF(*)",
	"Valor de Resgate",
	"Data de Pagto",
	"Vlr da Renda",
	"Valor de IOF",
	"Valor de IRRF",
	"Valor do Crédito",
	"Renda no Mês",
}

// sourceToCanonical renames report headers to business names
var sourceToCanonical = map[string]string{
	"Dt. Aplicação":          "Data de Emissão",
	"Dt. Vencto":             "Data de Vencto",
	"Taxa (%)":               "Taxa/ PCT",
	"Vlr Princ. (R$)":        "Valor Principal",
	"Renda Total(R$)":        "Valor da Renda",
	"Vlr. IOF (R$)":          "Valor de IOF(*)",
	"Vlr. IRRF (R$)":         "Valor de IRRF(*)",
	"Vlr. Bruto (R$)":        "Valor de Resgate",
	"Dt. Resgate / Carência": "Data de Pagto",
	"Vlr Líquido(R$)":        "Valor do Crédito",
	"Renda Bruta Per":        "Renda no Mês",
}

// CanonicalColumns returns a copy of the output schema
func CanonicalColumns() []string {
	return append([]string(nil), canonicalColumns...)
}

// CanonicalName maps a source header to its business name. Unknown names,
// including names that are already canonical, pass through unchanged.
func CanonicalName(name string) string {
	if canonical, ok := sourceToCanonical[name]; ok {
		return canonical
	}
	return name
}
