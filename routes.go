// Package main declares the main package of the application
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Rejection reasons produced by upload validation.
const (
	RejectWrongExtension = "wrong_extension"
	RejectTooLarge       = "too_large"
)

// healthCheck responds with server status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"service": "unfollow-insight",
	})
}

// registerRoutes sets up all the API endpoints for the server
func registerRoutes(r *gin.Engine) {
	// Health check endpoint (no session required)
	r.GET("/", healthCheck)
	r.GET("/health", healthCheck)

	// Analysis API consumed by the uploader client and external frontends.
	// The CORS preflight for this route is answered by CORSMiddleware.
	r.POST("/process-instagram", processInstagram)

	// Web flow stages. Upload stages create the session state; downstream
	// stages are gated on the fields they require. The GET handlers describe
	// the stage for clients arriving through a gate redirect.
	r.GET("/upload", uploadInfo(false))
	r.POST("/upload", uploadStage(false))
	r.GET("/test/upload", uploadInfo(true))
	r.POST("/test/upload", uploadStage(true))

	r.GET("/preview", requireUpload(), previewStage)
	r.GET("/payment", requireUpload(), paymentStage)
	r.POST("/payment", requireUpload(), checkoutStage)
	r.GET("/results", requirePayment(), resultsStage)
	r.GET("/results/export", requirePayment(), exportStage)
	r.GET("/test/results", requireUpload(), testResultsStage)
	r.GET("/test/results/export", requireUpload(), testExportStage)
	r.POST("/new-analysis", newAnalysisStage)
}

// processInstagram accepts exactly one uploaded file plus its declared name,
// produces an AnalysisResult, persists it, and responds with the envelope.
func processInstagram(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondBadRequest(c, MsgNoFile)
		return
	}
	defer file.Close()

	fileName := c.PostForm("fileName")
	if fileName == "" {
		fileName = header.Filename
	}

	// Full read into memory. Client-side ceilings are advisory only and no
	// server-side cap is enforced here.
	data, err := io.ReadAll(file)
	if err != nil {
		RespondInternalError(c, err)
		return
	}

	log.Printf("Processando arquivo: %s, tamanho: %d bytes", fileName, len(data))

	record, result, err := runAnalysis(c.Request.Context(), fileName, data)
	if err != nil {
		log.Printf("Erro no processamento: %v", err)
		RespondInternalError(c, err)
		return
	}

	log.Printf("Análise salva com ID: %s", record.ID)
	RespondAnalysis(c, record.ID, result)
}

// runAnalysis executes the configured analyzer and inserts one row. Insertion
// failure is a hard failure with no partial-state cleanup; nothing else was
// mutated.
func runAnalysis(ctx context.Context, fileName string, data []byte) (*Analysis, *AnalysisResult, error) {
	result, err := analyzer.Analyze(ctx, fileName, data)
	if err != nil {
		return nil, nil, err
	}
	result.Normalize()

	record, err := newAnalysis(result, fileName)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Create(record).Error; err != nil {
		return nil, nil, fmt.Errorf("falha ao salvar análise no banco de dados: %v", err)
	}
	return record, result, nil
}

// validateCandidate applies the upload constraints. The extension check is a
// case-sensitive suffix match; an empty return means the candidate is accepted.
func validateCandidate(name string, size, ceiling int64) string {
	if !strings.HasSuffix(name, ".zip") {
		return RejectWrongExtension
	}
	if size > ceiling {
		return RejectTooLarge
	}
	return ""
}

// uploadStage validates and processes a file submitted through the web flow,
// then stages the result for the downstream stages. The standard flow routes
// oversized files to the contact channel; the test flow raises the ceiling,
// skips the payment gate and treats oversized files as a plain error.
func uploadStage(testFlow bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ceiling := serverConfig.Upload.CeilingBytes()
		maxMB := serverConfig.Upload.MaxFileSizeMB
		if testFlow {
			ceiling = serverConfig.Upload.TestCeilingBytes()
			maxMB = serverConfig.Upload.TestMaxFileSizeMB
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			RespondBadRequest(c, MsgNoFile)
			return
		}
		defer file.Close()

		switch validateCandidate(header.Filename, header.Size, ceiling) {
		case RejectWrongExtension:
			RespondBadRequest(c, "Por favor, selecione um arquivo .zip")
			return
		case RejectTooLarge:
			if !testFlow {
				// Oversized accounts get the contact channel, not a hard error
				c.JSON(http.StatusOK, gin.H{
					"oversized":   true,
					"message":     "Para contas grandes precisamos de um processamento maior",
					"contact_url": serverConfig.Upload.ContactURL,
				})
				return
			}
			RespondBadRequest(c, fmt.Sprintf("O arquivo é muito grande. Máximo %dMB na área de teste.", maxMB))
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			RespondInternalError(c, err)
			return
		}

		record, result, err := runAnalysis(c.Request.Context(), header.Filename, data)
		if err != nil {
			log.Printf("Erro no processamento: %v", err)
			RespondInternalError(c, err)
			return
		}

		state := &FlowState{
			UploadedFile:     header.Filename,
			FileSize:         header.Size,
			AnalysisID:       record.ID,
			TotalFollowing:   result.TotalFollowing,
			TotalFollowers:   result.TotalFollowers,
			NotFollowingBack: result.NotFollowingBack,
			TestMode:         testFlow,
		}
		if err := saveFlowState(c, state); err != nil {
			RespondInternalError(c, err)
			return
		}

		next := "/preview"
		if testFlow {
			next = "/test/results"
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"analysisId": record.ID,
			"next":       next,
		})
	}
}

// uploadInfo describes the upload stage. Gate redirects land here when a
// session has no completed upload.
func uploadInfo(testFlow bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		maxMB := serverConfig.Upload.MaxFileSizeMB
		if testFlow {
			maxMB = serverConfig.Upload.TestMaxFileSizeMB
		}
		c.JSON(http.StatusOK, gin.H{
			"message":     "Envie seu arquivo .zip de dados do Instagram",
			"max_size_mb": maxMB,
			"method":      "POST",
		})
	}
}

// previewStage shows the headline counts before the payment stage.
func previewStage(c *gin.Context) {
	state := flowStateFromContext(c)
	n := state.NotFollowingBack
	c.JSON(http.StatusOK, gin.H{
		"total_following":    state.TotalFollowing,
		"total_followers":    state.TotalFollowers,
		"not_following_back": n,
		"message":            fmt.Sprintf("%d pessoas não te seguem de volta", n),
		"next":               "/payment",
	})
}

// paymentStage shows the checkout summary.
func paymentStage(c *gin.Context) {
	state := flowStateFromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"price_cents":        serverConfig.Payment.PriceCents,
		"not_following_back": state.NotFollowingBack,
		"methods":            []string{PaymentMethodPix, PaymentMethodCard},
	})
}

// checkoutStage charges through the payment gateway and marks the session as
// paid. The results stage stays locked until this succeeds.
func checkoutStage(c *gin.Context) {
	method := c.PostForm("method")
	if method == "" {
		RespondBadRequest(c, "Método de pagamento é obrigatório")
		return
	}

	receipt, err := gateway.Charge(c.Request.Context(), serverConfig.Payment.PriceCents, method)
	if err != nil {
		if _, ok := err.(*PaymentError); ok {
			RespondBadRequest(c, err.Error())
			return
		}
		RespondInternalError(c, err)
		return
	}

	state := flowStateFromContext(c)
	state.PaymentCompleted = true
	if err := saveFlowState(c, state); err != nil {
		RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"receipt": receipt,
		"next":    "/results",
	})
}

// loadResults reloads the persisted result for the staged analysis. The
// session carries only the record id; the gap list lives in the database.
func loadResults(state *FlowState) (*AnalysisResult, error) {
	var record Analysis
	if err := db.First(&record, "id = ?", state.AnalysisID).Error; err != nil {
		return nil, fmt.Errorf("falha ao carregar análise %s: %v", state.AnalysisID, err)
	}
	return record.Result()
}

// resultsStage renders the full follow-back gap for a paid session.
func resultsStage(c *gin.Context) {
	state := flowStateFromContext(c)
	result, err := loadResults(state)
	if err != nil {
		RespondInternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"analysisId": state.AnalysisID,
		"results":    result,
	})
}

// exportStage streams the gap list as a CSV download.
func exportStage(c *gin.Context) {
	serveCSV(c, flowStateFromContext(c), ExportFileName, ExportHeaderLink)
}

// testResultsStage renders results for the test flow, which has no payment
// gate. Standard-flow sessions are sent back to the preview stage.
func testResultsStage(c *gin.Context) {
	state := flowStateFromContext(c)
	if !state.TestMode {
		c.Redirect(http.StatusSeeOther, "/preview")
		return
	}
	result, err := loadResults(state)
	if err != nil {
		RespondInternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"analysisId": state.AnalysisID,
		"results":    result,
		"test_mode":  true,
	})
}

// testExportStage is the test flow CSV download.
func testExportStage(c *gin.Context) {
	state := flowStateFromContext(c)
	if !state.TestMode {
		c.Redirect(http.StatusSeeOther, "/preview")
		return
	}
	serveCSV(c, state, TestExportFileName, ExportHeaderURL)
}

// serveCSV writes the gap list as an attachment.
func serveCSV(c *gin.Context, state *FlowState, fileName, urlHeader string) {
	result, err := loadResults(state)
	if err != nil {
		RespondInternalError(c, err)
		return
	}
	data, err := buildCSV(result.NotFollowingBackList, urlHeader)
	if err != nil {
		RespondInternalError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "text/csv", data)
}

// newAnalysisStage erases all staged state so the user can start over.
// Clearing twice in a row yields the same empty state as clearing once.
func newAnalysisStage(c *gin.Context) {
	if err := clearFlowState(c); err != nil {
		RespondInternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
