package llm

import (
	"context"
	"strconv"
	"strings"

	"github.com/htxdata/tdhca-extractor/constants"
	"github.com/htxdata/tdhca-extractor/internal/reconcile"
)

// ApplicationFields is the normalized shape we want from the model. Every
// field is a pointer so "not found" comes back as an explicit null rather
// than a zero value the reconciler could mistake for an answer.
type ApplicationFields struct {
	ApplicationNumber     *string `json:"application_number"`
	ProjectName           *string `json:"project_name"`
	StreetAddress         *string `json:"street_address"`
	City                  *string `json:"city"`
	County                *string `json:"county"`
	ZipCode               *string `json:"zip_code"`
	TotalUnits            *int    `json:"total_units"`
	DeveloperName         *string `json:"developer_name"`
	ApplicationDate       *string `json:"application_date"`        // YYYY-MM-DD
	TotalDevelopmentCost  *string `json:"total_development_cost"`  // decimal
	CreditAmountRequested *string `json:"credit_amount_requested"` // decimal
	TotalScore            *int    `json:"total_score"`
}

// ExtractRequest carries one document's text (or a bounded excerpt) to the
// model extractor.
type ExtractRequest struct {
	DocID string
	Text  string
	// ExcerptBytes bounds how much of Text is sent; 0 means the client default.
	ExcerptBytes int
}

// FieldExtractor is the interface the orchestrator depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (ApplicationFields, []byte /*rawJSON*/, error)
}

// Candidates converts the model response into reconciliation candidates.
// Nulls and empty strings produce no candidate; policyConfidence is the fixed
// confidence assigned to every model-extracted value.
func (f ApplicationFields) Candidates(policyConfidence float64) []reconcile.Candidate {
	var out []reconcile.Candidate
	addStr := func(field string, v *string) {
		if v == nil {
			return
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return
		}
		out = append(out, reconcile.Candidate{
			Field:      field,
			Value:      s,
			Source:     reconcile.SourceModel,
			Confidence: policyConfidence,
		})
	}
	addInt := func(field string, v *int) {
		if v == nil {
			return
		}
		out = append(out, reconcile.Candidate{
			Field:      field,
			Value:      strconv.Itoa(*v),
			Source:     reconcile.SourceModel,
			Confidence: policyConfidence,
		})
	}

	addStr(constants.FieldApplicationNumber, f.ApplicationNumber)
	addStr(constants.FieldProjectName, f.ProjectName)
	addStr(constants.FieldStreetAddress, f.StreetAddress)
	addStr(constants.FieldCity, f.City)
	addStr(constants.FieldCounty, f.County)
	addStr(constants.FieldZipCode, f.ZipCode)
	addInt(constants.FieldTotalUnits, f.TotalUnits)
	addStr(constants.FieldDeveloperName, f.DeveloperName)
	addStr(constants.FieldApplicationDate, f.ApplicationDate)
	addStr(constants.FieldTotalDevelopmentCost, f.TotalDevelopmentCost)
	addStr(constants.FieldCreditAmountRequested, f.CreditAmountRequested)
	addInt(constants.FieldTotalScore, f.TotalScore)
	return out
}
