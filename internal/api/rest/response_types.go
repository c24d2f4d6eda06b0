package rest

import (
	"github.com/google/uuid"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/errors"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

// Response labels and headers shared by the HTTP and Lambda entry
// points. The wire contract is fixed: downstream consumers match on
// these strings.
const (
	MessageProcessed      = "Healthcare record processed successfully"
	LabelComplianceFailed = "PIPEDA compliance validation failed"
	LabelProcessingFailed = "Healthcare data processing failed"

	ComplianceStatusCompliant = "PIPEDA_COMPLIANT"

	HeaderProcessingID = "X-Processing-ID"
	HeaderRequestID    = "X-Request-ID"
)

// SuccessResponse is the 200 body for a fully processed record.
type SuccessResponse struct {
	Message          string `json:"message"`
	ProcessingID     string `json:"processing_id"`
	PatientID        string `json:"patient_id"`
	ComplianceStatus string `json:"compliance_status"`
	BackupLocation   string `json:"backup_location"`
	Timestamp        string `json:"timestamp"`
}

// RejectionResponse is the 400 body for a record that failed
// compliance validation.
type RejectionResponse struct {
	Error        string   `json:"error"`
	Issues       []string `json:"issues"`
	ProcessingID string   `json:"processing_id"`
}

// FailureResponse is the 500 body for a record that failed during
// enrichment or persistence.
type FailureResponse struct {
	Error   string `json:"error"`
	ErrorID string `json:"error_id"`
	Message string `json:"message"`
}

// NewSuccessResponse builds the success envelope from a pipeline
// receipt. The timestamp echoes the record's lastModified so the
// response and the stored item agree.
func NewSuccessResponse(receipt *pipeline.Receipt) SuccessResponse {
	return SuccessResponse{
		Message:          MessageProcessed,
		ProcessingID:     receipt.ProcessingID,
		PatientID:        receipt.PatientID,
		ComplianceStatus: ComplianceStatusCompliant,
		BackupLocation:   receipt.BackupLocation,
		Timestamp:        receipt.Record.SystemMetadata.LastModified,
	}
}

// NewRejectionResponse builds the rejection envelope from a compliance
// error. The issue list and processing ID ride in the error details.
func NewRejectionResponse(appErr *errors.AppError) RejectionResponse {
	resp := RejectionResponse{
		Error:  LabelComplianceFailed,
		Issues: []string{},
	}
	if issues, ok := appErr.Details["issues"].([]string); ok {
		resp.Issues = issues
	}
	if pid, ok := appErr.Details["processing_id"].(string); ok {
		resp.ProcessingID = pid
	}
	return resp
}

// NewFailureResponse builds the failure envelope from an internal or
// external error. The pipeline attaches an error id on its failure
// path; a fresh one is minted here only for errors that never reached
// it.
func NewFailureResponse(appErr *errors.AppError) FailureResponse {
	resp := FailureResponse{
		Error:   LabelProcessingFailed,
		Message: appErr.Message,
	}
	if errorID, ok := appErr.Details["error_id"].(string); ok {
		resp.ErrorID = errorID
	} else {
		resp.ErrorID = uuid.NewString()
	}
	return resp
}
