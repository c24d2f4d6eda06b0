package pipeline

import (
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/record"
)

// Issue strings are part of the rejection contract; callers and stored
// audit trails match on them verbatim.
const (
	issueMissingPatientData    = "Missing required field: PatientData"
	issueMissingComplianceInfo = "Missing required field: ComplianceInfo"
	issueMissingPatientID      = "Missing required field: PatientID"
	issueConsentNotProvided    = "Patient consent not provided"
	issueInadequateEncryption  = "Inadequate encryption level"
	issueRetentionNotSpecified = "Data retention policy not specified"

	requiredEncryptionLevel = "AES-256"
)

// Validator applies the PIPEDA intake policy to a normalized record.
// Rules are evaluated independently so a rejection itemizes every
// violation, not just the first.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate collects policy violations in rule order. Consent, encryption
// and retention are checked against an empty mapping when ComplianceInfo
// is absent, so such records still report those violations individually.
func (v *Validator) Validate(r *record.Record) record.ComplianceResult {
	var issues []string

	if !r.HasPatientData() {
		issues = append(issues, issueMissingPatientData)
	}
	if !r.HasComplianceInfo() {
		issues = append(issues, issueMissingComplianceInfo)
	}
	if !r.HasPatientID() {
		issues = append(issues, issueMissingPatientID)
	}

	// Reads on a nil ComplianceInfo map behave as reads on an empty one.
	if consent, ok := r.ComplianceInfo["consentGiven"].(bool); !ok || !consent {
		issues = append(issues, issueConsentNotProvided)
	}
	if level, ok := r.ComplianceInfo["encryptionLevel"].(string); !ok || level != requiredEncryptionLevel {
		issues = append(issues, issueInadequateEncryption)
	}
	if _, ok := r.ComplianceInfo["dataRetention"]; !ok {
		issues = append(issues, issueRetentionNotSpecified)
	}

	return record.ComplianceResult{
		Compliant: len(issues) == 0,
		Issues:    issues,
	}
}
