package questions

import (
	"codewhisperer/worksheet"
)

const (
	ErrFetchQuestions = "Failed to fetch questions"
	ErrFetchQuestion  = "Failed to fetch question"
	ErrCreateQuestion = "Failed to create question"
	ErrUpdateQuestion = "Failed to update question"
	ErrDeleteQuestion = "Failed to delete question"
	ErrResetQuestion  = "Failed to reset question"
	ErrSelectQuestion = "Failed to select question"
	ErrUploadImage    = "Failed to upload image"
	ErrRunWorksheet   = "Failed to run worksheet"
	ErrNoFile         = "Failed to get file"

	maxImageSize = 5 << 20
)

// RunRequest is a practice run of a worksheet
type RunRequest struct {
	Worksheet worksheet.Graph `json:"worksheet"`
}

// RunResponse carries the per-case results; Halt is set when execution stopped early
type RunResponse struct {
	worksheet.Evaluation
	Halt *HaltInfo `json:"halt,omitempty"`
}

type HaltInfo struct {
	CaseIndex int    `json:"case_index"`
	NodeID    string `json:"node_id,omitempty"`
	Message   string `json:"message"`
}
