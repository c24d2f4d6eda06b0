package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Top-level field names required by the intake contract.
const (
	FieldPatientID      = "PatientID"
	FieldPatientData    = "PatientData"
	FieldComplianceInfo = "ComplianceInfo"
	FieldSystemMetadata = "SystemMetadata"
)

// Record is an inbound healthcare record: a handful of contractually
// required fields plus an open-ended bag of everything else the sender
// included. The bag preserves unknown fields byte-for-byte in value terms,
// so a record can be re-serialized without losing sender data.
type Record struct {
	// PatientID holds the record key when the payload carried a non-empty
	// string under "PatientID". Any other value stays in Extra untouched.
	PatientID string

	// PatientData is the raw "PatientData" value in whatever shape the
	// sender used. Nil means absent (an explicit JSON null counts as
	// absent, since it carries no patient data).
	PatientData any

	// ComplianceInfo is the "ComplianceInfo" mapping. Nil when absent or
	// when the sender supplied a non-mapping value (which stays in Extra).
	ComplianceInfo map[string]any

	// Extra holds every other top-level field.
	Extra map[string]any
}

// ComplianceResult is the outcome of policy validation. Issues keeps the
// order rules were evaluated in.
type ComplianceResult struct {
	Compliant bool     `json:"compliant"`
	Issues    []string `json:"issues"`
}

// SystemMetadata is the block stamped onto a record during enrichment.
// Field names follow the stored document format.
type SystemMetadata struct {
	ProcessingID string `json:"processingId"`
	CreatedBy    string `json:"createdBy"`
	Region       string `json:"region"`
	LastModified string `json:"lastModified"`
	BackupStatus string `json:"backupStatus"`
	DataHash     string `json:"dataHash"`
}

func (m SystemMetadata) asMap() map[string]any {
	return map[string]any{
		"processingId": m.ProcessingID,
		"createdBy":    m.CreatedBy,
		"region":       m.Region,
		"lastModified": m.LastModified,
		"backupStatus": m.BackupStatus,
		"dataHash":     m.DataHash,
	}
}

// Enriched is a validated record plus the system metadata block and the
// compliance attestations merged during enrichment.
type Enriched struct {
	Record
	SystemMetadata SystemMetadata
}

// NormalizePayload turns an inbound payload into a Record. Two shapes are
// accepted: a wrapped envelope whose "body" field is a JSON-encoded string
// (the API-gateway shape), or the record itself as the top-level object.
// The presence of a "body" key selects the envelope interpretation.
func NormalizePayload(payload []byte) (*Record, error) {
	m, err := decodeObject(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if body, wrapped := m["body"]; wrapped {
		s, ok := body.(string)
		if !ok {
			return nil, fmt.Errorf("payload body is %T, expected JSON string", body)
		}
		if m, err = decodeObject([]byte(s)); err != nil {
			return nil, fmt.Errorf("decoding payload body: %w", err)
		}
	}
	return FromMap(m), nil
}

// FromMap builds a Record from a decoded top-level mapping. The mapping is
// not retained; required fields are lifted out and the rest is copied into
// Extra.
func FromMap(m map[string]any) *Record {
	r := &Record{Extra: make(map[string]any, len(m))}
	for k, v := range m {
		switch k {
		case FieldPatientID:
			if s, ok := v.(string); ok && s != "" {
				r.PatientID = s
				continue
			}
		case FieldPatientData:
			if v != nil {
				r.PatientData = v
				continue
			}
		case FieldComplianceInfo:
			if ci, ok := v.(map[string]any); ok && ci != nil {
				r.ComplianceInfo = ci
				continue
			}
		}
		r.Extra[k] = v
	}
	return r
}

// decodeObject decodes a JSON object keeping numbers as json.Number so
// re-serialization reproduces the sender's digits exactly.
func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// HasPatientData reports whether the payload carried a usable PatientData
// value.
func (r *Record) HasPatientData() bool {
	return r.PatientData != nil
}

// HasComplianceInfo reports whether the payload carried a ComplianceInfo
// mapping.
func (r *Record) HasComplianceInfo() bool {
	return r.ComplianceInfo != nil
}

// HasPatientID reports whether the payload carried a non-empty string
// PatientID.
func (r *Record) HasPatientID() bool {
	return r.PatientID != ""
}

// ToMap reassembles the full top-level mapping, inverse of FromMap.
func (r *Record) ToMap() map[string]any {
	m := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		m[k] = v
	}
	if r.PatientID != "" {
		m[FieldPatientID] = r.PatientID
	}
	if r.PatientData != nil {
		m[FieldPatientData] = r.PatientData
	}
	if r.ComplianceInfo != nil {
		m[FieldComplianceInfo] = r.ComplianceInfo
	}
	return m
}

// Clone returns a deep copy. Mutating the copy's maps never touches the
// original.
func (r *Record) Clone() *Record {
	c := &Record{PatientID: r.PatientID}
	c.PatientData = deepCopyValue(r.PatientData)
	if r.ComplianceInfo != nil {
		c.ComplianceInfo = deepCopyMap(r.ComplianceInfo)
	}
	c.Extra = deepCopyMap(r.Extra)
	return c
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

func (r *Record) UnmarshalJSON(data []byte) error {
	m, err := decodeObject(data)
	if err != nil {
		return err
	}
	*r = *FromMap(m)
	return nil
}

// ToMap folds the metadata block over the reassembled record. A
// sender-supplied SystemMetadata field is replaced, never merged.
func (e *Enriched) ToMap() map[string]any {
	m := e.Record.ToMap()
	m[FieldSystemMetadata] = e.SystemMetadata.asMap()
	return m
}

func (e *Enriched) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

// MarshalIndent renders the enriched record as pretty-printed JSON, the
// format the backup store receives.
func (e *Enriched) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(e.ToMap(), "", "  ")
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = deepCopyValue(v)
	}
	return c
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = deepCopyValue(e)
		}
		return c
	default:
		return v
	}
}
