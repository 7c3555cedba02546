package domain

// SectionKind identifies one of the two known blocks of a treasury report.
// Label is the start sentinel found in the first column; Name is written to
// the Tipo column of every record of the section.
type SectionKind struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

var (
	// SectionApplications holds new deposits
	SectionApplications = SectionKind{Name: "Aplicações", Label: "Aplicações"}
	// SectionRedemptions holds redemptions and maturities
	SectionRedemptions = SectionKind{Name: "Resgates", Label: "Resgates / Vencimentos"}
)

// SectionKinds returns the known sections in output order
func SectionKinds() []SectionKind {
	return []SectionKind{SectionApplications, SectionRedemptions}
}

// SectionEndLabel closes every section
const SectionEndLabel = "Total"

// Field is one sub-field parsed out of a composite cell. When Matched is
// false, Value holds the field's "not found" marker.
type Field struct {
	Value   string `json:"value"`
	Matched bool   `json:"matched"`
}

// AccountIdentity is parsed from the "Agência/conta" cell
type AccountIdentity struct {
	Agency  Field `json:"agency"`
	Account Field `json:"account"`
}

// CompanyIdentity is parsed from the "Empresa/CNPJ" cell
type CompanyIdentity struct {
	Company Field `json:"company"`
	TaxID   Field `json:"tax_id"`
}

// Identity groups the account and company data injected into every record
type Identity struct {
	Account AccountIdentity `json:"account"`
	Company CompanyIdentity `json:"company"`
}
