package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RejectionReason classifies why a candidate was refused before any network
// call was made.
type RejectionReason int

const (
	RejectNone RejectionReason = iota
	RejectWrongExtension
	RejectTooLarge
)

func (r RejectionReason) String() string {
	switch r {
	case RejectWrongExtension:
		return "wrong extension"
	case RejectTooLarge:
		return "too large"
	default:
		return "accepted"
	}
}

// FlowConfig describes one upload flow variant. The standard and test flows
// share all behavior except these fields.
type FlowConfig struct {
	SizeCeilingBytes    int64
	RequiresAuthHeader  bool
	AuthToken           string
	PostSuccessRoute    string
	SkipsPaymentGate    bool
	OversizedContactURL string // empty means oversized is a plain error
	ExportFileName      string
	ExportURLHeader     string
}

// StandardFlow is the monetized flow: 100 MiB ceiling, anonymous submit,
// oversized files routed to the contact channel, payment gate before results.
func StandardFlow() FlowConfig {
	return FlowConfig{
		SizeCeilingBytes:    100 * 1024 * 1024,
		RequiresAuthHeader:  false,
		PostSuccessRoute:    "/preview",
		SkipsPaymentGate:    false,
		OversizedContactURL: "https://wa.me/5511973964702",
		ExportFileName:      "instagram-nao-seguem-volta.csv",
		ExportURLHeader:     "Link",
	}
}

// TestFlow is the test area: 150 MiB ceiling, bearer token on submit, no
// payment gate, oversized treated as a generic error.
func TestFlow(token string) FlowConfig {
	return FlowConfig{
		SizeCeilingBytes:   150 * 1024 * 1024,
		RequiresAuthHeader: true,
		AuthToken:          token,
		PostSuccessRoute:   "/test/results",
		SkipsPaymentGate:   true,
		ExportFileName:     "nao_seguem_de_volta.csv",
		ExportURLHeader:    "Url",
	}
}

// Candidate is a validated file staged for submission.
type Candidate struct {
	Name      string
	Path      string
	SizeBytes int64
}

// SessionState is the staged per-run state consumed by the downstream
// stages. It is erased wholesale by ClearSession.
type SessionState struct {
	UploadedFile     string
	FileSize         int64
	AnalysisID       string
	Results          *AnalysisResult
	PaymentCompleted bool
	TestMode         bool
}

// SubmissionError classifies a failed submit. StatusCode and Body are set
// for transport failures and non-success HTTP statuses; Message is set when
// the server answered 200 with success=false.
type SubmissionError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("submission failed (status %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("submission failed: %s", e.Body)
}

// Orchestrator validates, submits and stages one upload at a time. At most
// one submission is in flight; a second Submit while one is running is
// refused rather than queued.
type Orchestrator struct {
	serverURL  string
	flow       FlowConfig
	httpClient *http.Client

	mu        sync.Mutex
	inFlight  bool
	candidate *Candidate
	session   SessionState
}

// NewOrchestrator creates an orchestrator for one flow variant.
func NewOrchestrator(serverURL string, flow FlowConfig) *Orchestrator {
	return &Orchestrator{
		serverURL:  strings.TrimSuffix(serverURL, "/"),
		flow:       flow,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// SelectFile validates the file at path and stages it as the candidate. On
// rejection the previously staged candidate, if any, is left untouched; on
// success it is replaced.
func (o *Orchestrator) SelectFile(path string) (RejectionReason, error) {
	info, err := os.Stat(path)
	if err != nil {
		return RejectNone, err
	}

	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".zip") {
		return RejectWrongExtension, nil
	}
	if info.Size() > o.flow.SizeCeilingBytes {
		return RejectTooLarge, nil
	}

	o.mu.Lock()
	o.candidate = &Candidate{Name: name, Path: path, SizeBytes: info.Size()}
	o.mu.Unlock()
	return RejectNone, nil
}

// Candidate returns the currently staged candidate, or nil.
func (o *Orchestrator) Candidate() *Candidate {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.candidate
}

// OversizedContact returns the differentiated contact route for oversized
// rejections, or empty when the flow treats oversized as a plain error.
func (o *Orchestrator) OversizedContact() string {
	return o.flow.OversizedContactURL
}

// Submit sends the staged candidate as multipart form data with an auxiliary
// fileName field. Exactly one network round trip is made; no retry. On
// success the result and record id are staged into the session.
func (o *Orchestrator) Submit(ctx context.Context) (*AnalysisResult, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, fmt.Errorf("a submission is already in progress")
	}
	if o.candidate == nil {
		o.mu.Unlock()
		return nil, fmt.Errorf("no file staged for submission")
	}
	candidate := o.candidate
	o.inFlight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	file, err := os.Open(candidate.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", candidate.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %v", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %v", err)
	}
	if err := writer.WriteField("fileName", candidate.Name); err != nil {
		return nil, fmt.Errorf("failed to add fileName field: %v", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.serverURL+"/process-instagram", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if o.flow.RequiresAuthHeader {
		req.Header.Set("Authorization", "Bearer "+o.flow.AuthToken)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, &SubmissionError{Body: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var envelope Envelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if !envelope.Success {
		message := envelope.Error
		if message == "" {
			message = "Erro no processamento"
		}
		return nil, &SubmissionError{Message: message}
	}

	results := envelope.Results
	if results == nil {
		return nil, &SubmissionError{Message: "resposta sem resultados"}
	}
	// The list length is authoritative over any count the server reported
	results.NotFollowingBack = len(results.NotFollowingBackList)

	o.mu.Lock()
	o.session = SessionState{
		UploadedFile: candidate.Name,
		FileSize:     candidate.SizeBytes,
		AnalysisID:   envelope.AnalysisID,
		Results:      results,
		TestMode:     o.flow.SkipsPaymentGate,
	}
	o.mu.Unlock()

	return results, nil
}

// Session returns a copy of the staged state.
func (o *Orchestrator) Session() SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// CompletePayment flips the payment gate after the payment stage has run.
func (o *Orchestrator) CompletePayment() {
	o.mu.Lock()
	o.session.PaymentCompleted = true
	o.mu.Unlock()
}

// ResultsReady reports whether the results stage may render: results must be
// staged, and on the monetized flow the payment gate must be completed.
func (o *Orchestrator) ResultsReady() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.Results == nil {
		return false
	}
	return o.session.TestMode || o.session.PaymentCompleted
}

// ClearSession erases the staged candidate, flags and results. Clearing an
// already empty orchestrator yields the same empty state.
func (o *Orchestrator) ClearSession() {
	o.mu.Lock()
	o.candidate = nil
	o.session = SessionState{}
	o.mu.Unlock()
}

// ExportCSV writes the staged gap list to dir using the flow's file name and
// header, one username,url row per entry. The results gate applies.
func (o *Orchestrator) ExportCSV(dir string) (string, error) {
	if !o.ResultsReady() {
		return "", fmt.Errorf("results are not unlocked yet")
	}

	session := o.Session()
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"Username", o.flow.ExportURLHeader}); err != nil {
		return "", fmt.Errorf("failed to build CSV: %v", err)
	}
	for _, ref := range session.Results.NotFollowingBackList {
		if err := w.Write([]string{ref.Username, ref.URL}); err != nil {
			return "", fmt.Errorf("failed to build CSV: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to build CSV: %v", err)
	}

	outPath := filepath.Join(dir, o.flow.ExportFileName)
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV: %v", err)
	}
	return outPath, nil
}
