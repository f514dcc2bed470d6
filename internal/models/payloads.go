package models

// These structs define the JSON payloads returned by the merge HTTP function.
// A successful merge answers with the PDF itself, so only failures carry a
// JSON body.

// MergeErrorResponse is the body written when a merge request fails.
type MergeErrorResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	FileIndex *int   `json:"fileIndex,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	Rejected  int    `json:"rejected,omitempty"`
}

// MergeSummary describes a completed merge request.
type MergeSummary struct {
	Filename  string `json:"filename"`
	FileCount int    `json:"fileCount"`
	Rejected  int    `json:"rejected"`
	Bytes     int    `json:"bytes"`
}

// MergeRequest is a decoded merge upload: the candidate files in upload
// order and the free-text output name.
type MergeRequest struct {
	OutputName string
	Files      []Candidate
}
