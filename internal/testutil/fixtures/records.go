package fixtures

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/record"
)

// RecordBuilder builds healthcare record payloads for tests. The
// defaults form a fully compliant record; tests knock out or override
// fields to produce the shape under test.
type RecordBuilder struct {
	t      *testing.T
	fields map[string]any
}

// NewRecordBuilder creates a RecordBuilder with compliant defaults.
func NewRecordBuilder(t *testing.T) *RecordBuilder {
	t.Helper()
	return &RecordBuilder{
		t: t,
		fields: map[string]any{
			"PatientID": "PATIENT-001",
			"PatientData": map[string]any{
				"name":      "Jane Roe",
				"age":       json.Number("34"),
				"condition": "hypertension",
			},
			"ComplianceInfo": map[string]any{
				"consentGiven":    true,
				"encryptionLevel": "AES-256",
				"dataRetention":   "7 years",
			},
		},
	}
}

// WithPatientID sets the PatientID field.
func (b *RecordBuilder) WithPatientID(id string) *RecordBuilder {
	b.fields["PatientID"] = id
	return b
}

// WithPatientData replaces the PatientData value.
func (b *RecordBuilder) WithPatientData(data any) *RecordBuilder {
	b.fields["PatientData"] = data
	return b
}

// WithComplianceInfo replaces the whole ComplianceInfo mapping.
func (b *RecordBuilder) WithComplianceInfo(info map[string]any) *RecordBuilder {
	b.fields["ComplianceInfo"] = info
	return b
}

// WithComplianceField sets one key inside ComplianceInfo.
func (b *RecordBuilder) WithComplianceField(key string, value any) *RecordBuilder {
	info, ok := b.fields["ComplianceInfo"].(map[string]any)
	if !ok {
		info = map[string]any{}
		b.fields["ComplianceInfo"] = info
	}
	info[key] = value
	return b
}

// WithField sets an arbitrary top-level field.
func (b *RecordBuilder) WithField(key string, value any) *RecordBuilder {
	b.fields[key] = value
	return b
}

// Without removes a top-level field.
func (b *RecordBuilder) Without(key string) *RecordBuilder {
	delete(b.fields, key)
	return b
}

// JSON renders the payload as the raw bytes an entry point receives.
func (b *RecordBuilder) JSON() []byte {
	b.t.Helper()
	data, err := json.Marshal(b.fields)
	require.NoError(b.t, err)
	return data
}

// Wrapped renders the payload inside an API Gateway proxy envelope,
// with the record JSON-encoded under "body".
func (b *RecordBuilder) Wrapped() []byte {
	b.t.Helper()
	data, err := json.Marshal(map[string]any{"body": string(b.JSON())})
	require.NoError(b.t, err)
	return data
}

// Build normalizes the payload into a Record.
func (b *RecordBuilder) Build() *record.Record {
	b.t.Helper()
	r, err := record.NormalizePayload(b.JSON())
	require.NoError(b.t, err)
	return r
}

// Enriched wraps the built record with the given metadata block, the
// shape the persistence layer receives.
func (b *RecordBuilder) Enriched(meta record.SystemMetadata) *record.Enriched {
	b.t.Helper()
	return &record.Enriched{Record: *b.Build(), SystemMetadata: meta}
}
