// errors.go
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error envelope returned by every failing endpoint.
// Details carries a diagnostic string for support purposes and is omitted
// when empty.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AnalysisEnvelope is the success envelope of the analysis endpoint.
type AnalysisEnvelope struct {
	Success    bool            `json:"success"`
	AnalysisID string          `json:"analysisId"`
	Results    *AnalysisResult `json:"results"`
}

// Generic messages surfaced to users. Diagnostics go into Details, never
// into Error.
const (
	MsgNoFile        = "Nenhum arquivo enviado"
	MsgInternalError = "Erro interno do servidor"
)

// Helper functions for consistent error responses
func RespondWithError(c *gin.Context, statusCode int, message, details string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, message, "")
}

// RespondInternalError collapses any downstream failure into a generic 500
// with the diagnostic preserved in details.
func RespondInternalError(c *gin.Context, err error) {
	RespondWithError(c, http.StatusInternalServerError, MsgInternalError, err.Error())
}

// RespondAnalysis shapes and returns the success envelope.
func RespondAnalysis(c *gin.Context, analysisID string, results *AnalysisResult) {
	c.JSON(http.StatusOK, AnalysisEnvelope{
		Success:    true,
		AnalysisID: analysisID,
		Results:    results,
	})
}
