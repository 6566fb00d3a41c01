package constants

// Canonical field names for one application record. These are the keys used
// across the pattern extractor, the LLM schema, reconciliation, and the
// results log, so they must stay stable.
const (
	FieldApplicationNumber     = "application_number"
	FieldProjectName           = "project_name"
	FieldStreetAddress         = "street_address"
	FieldCity                  = "city"
	FieldCounty                = "county"
	FieldZipCode               = "zip_code"
	FieldTotalUnits            = "total_units"
	FieldDeveloperName         = "developer_name"
	FieldApplicationDate       = "application_date"
	FieldTotalDevelopmentCost  = "total_development_cost"
	FieldCreditAmountRequested = "credit_amount_requested"
	FieldTotalScore            = "total_score"
)

// TargetFields lists every field a complete record should resolve, in report
// order.
var TargetFields = []string{
	FieldApplicationNumber,
	FieldProjectName,
	FieldStreetAddress,
	FieldCity,
	FieldCounty,
	FieldZipCode,
	FieldTotalUnits,
	FieldDeveloperName,
	FieldApplicationDate,
	FieldTotalDevelopmentCost,
	FieldCreditAmountRequested,
	FieldTotalScore,
}

// IsTargetField reports whether name is one of the canonical fields.
func IsTargetField(name string) bool {
	for _, f := range TargetFields {
		if f == name {
			return true
		}
	}
	return false
}
