package dataprocessing

import (
	"regexp"
	"strings"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// Labels of the identity cells in the report's first column
const (
	AccountLabel = "Agência/conta"
	CompanyLabel = "Empresa/CNPJ"
)

// Markers written when an identity field cannot be parsed
const (
	AgencyNotFound  = "Agencia não encontrada"
	AccountNotFound = "Conta não encontrada"
	CompanyNotFound = "Empresa não encontrada"
	TaxIDNotFound   = "CNPJ não encontrado"
)

var (
	// a run of exactly four digits, not part of a longer number
	agencyPattern  = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)
	accountPattern = regexp.MustCompile(`\d+-\d`)
)

// ParseAccountIdentity extracts agency and account from the "Agência/conta" cell
func ParseAccountIdentity(text string) domain.AccountIdentity {
	id := domain.AccountIdentity{
		Agency:  domain.Field{Value: AgencyNotFound},
		Account: domain.Field{Value: AccountNotFound},
	}

	if m := agencyPattern.FindStringSubmatch(text); m != nil {
		id.Agency = domain.Field{Value: m[1], Matched: true}
	}
	if m := accountPattern.FindString(text); m != "" {
		id.Account = domain.Field{Value: m, Matched: true}
	}
	return id
}

// ParseCompanyIdentity extracts company and tax id from the "Empresa/CNPJ"
// cell, laid out as "<label>: <company>|<tax id>".
func ParseCompanyIdentity(text string) domain.CompanyIdentity {
	id := domain.CompanyIdentity{
		Company: domain.Field{Value: CompanyNotFound},
		TaxID:   domain.Field{Value: TaxIDNotFound},
	}

	pipe := strings.Index(text, "|")
	if pipe < 0 {
		return id
	}

	if colon := strings.Index(text, ":"); colon >= 0 && colon < pipe {
		if company := strings.TrimSpace(text[colon+1 : pipe]); company != "" {
			id.Company = domain.Field{Value: company, Matched: true}
		}
	}
	if taxID := strings.TrimSpace(text[pipe+1:]); taxID != "" {
		id.TaxID = domain.Field{Value: taxID, Matched: true}
	}
	return id
}
