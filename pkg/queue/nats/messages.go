package nats

import (
	"encoding/json"
	"fmt"

	"github.com/tunogya/groundhog/pkg/model"
)

// Subject constants
const (
	SubjectSteps   = "groundhog.steps"
	SubjectReports = "groundhog.reports"
)

// Subjects lists every subject carried by the stream
func Subjects() []string {
	return []string{SubjectSteps, SubjectReports}
}

// StepBatchMsg carries consecutive steps of one run
type StepBatchMsg struct {
	RunID  string       `json:"run_id"`
	Period int          `json:"period"`
	Source string       `json:"source"`
	Steps  []model.Step `json:"steps"`
}

// ReportMsg closes a run. Report is nil when the stream ended without one.
type ReportMsg struct {
	RunID    string        `json:"run_id"`
	Status   string        `json:"status"`
	Readings int           `json:"readings"`
	Report   *model.Report `json:"report,omitempty"`
}

// Encode serializes a message to JSON bytes
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeStepBatch deserializes a StepBatchMsg from JSON bytes
func DecodeStepBatch(data []byte) (*StepBatchMsg, error) {
	var msg StepBatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode step batch: %w", err)
	}
	return &msg, nil
}

// DecodeReport deserializes a ReportMsg from JSON bytes
func DecodeReport(data []byte) (*ReportMsg, error) {
	var msg ReportMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	if msg.Status == model.RunFinished && msg.Report == nil {
		return nil, fmt.Errorf("finished run %s carries no report", msg.RunID)
	}
	return &msg, nil
}
