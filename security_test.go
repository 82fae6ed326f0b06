package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// TestValidateCandidate tests the upload validation rules
func TestValidateCandidate(t *testing.T) {
	ceiling := int64(100 * 1024 * 1024)

	tests := []struct {
		name     string
		fileName string
		size     int64
		expected string
	}{
		{
			name:     "Valid zip under ceiling",
			fileName: "instagram-export.zip",
			size:     1024,
			expected: "",
		},
		{
			name:     "Valid zip exactly at ceiling",
			fileName: "export.zip",
			size:     ceiling,
			expected: "",
		},
		{
			name:     "Wrong extension",
			fileName: "export.tar.gz",
			size:     1024,
			expected: RejectWrongExtension,
		},
		{
			name:     "Uppercase extension rejected",
			fileName: "export.ZIP",
			size:     1024,
			expected: RejectWrongExtension,
		},
		{
			name:     "No extension",
			fileName: "export",
			size:     1024,
			expected: RejectWrongExtension,
		},
		{
			name:     "Over ceiling",
			fileName: "export.zip",
			size:     ceiling + 1,
			expected: RejectTooLarge,
		},
		{
			name:     "Wrong extension wins over size",
			fileName: "export.rar",
			size:     ceiling + 1,
			expected: RejectWrongExtension,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateCandidate(tt.fileName, tt.size, ceiling)
			if result != tt.expected {
				t.Errorf("validateCandidate(%q, %d) = %q, want %q", tt.fileName, tt.size, result, tt.expected)
			}
		})
	}
}

// gateTestRouter builds a router with a cookie session store, a seeding
// endpoint and the gated stages, so tests can stage arbitrary flow state.
func gateTestRouter(t *testing.T, seed *FlowState) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	store := cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))
	r.Use(sessions.Sessions("flowsession", store))

	r.POST("/seed", func(c *gin.Context) {
		if err := saveFlowState(c, seed); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	r.GET("/preview", requireUpload(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"stage": "preview"})
	})
	r.GET("/results", requirePayment(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"stage": "results"})
	})

	return r
}

// seedSession runs the seeding request and returns the session cookies.
func seedSession(t *testing.T, r *gin.Engine) []*http.Cookie {
	t.Helper()

	req, _ := http.NewRequest("POST", "/seed", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to seed session, got status %d", w.Code)
	}
	return w.Result().Cookies()
}

func TestRequireUploadRedirectsWithoutUpload(t *testing.T) {
	r := gateTestRouter(t, &FlowState{})

	// No session cookie at all
	req, _ := http.NewRequest("GET", "/preview", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("Expected status 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/upload" {
		t.Errorf("Expected redirect to /upload, got '%s'", loc)
	}
}

func TestRequireUploadPassesWithUpload(t *testing.T) {
	seed := &FlowState{
		UploadedFile: "export.zip",
		AnalysisID:   "abc-123",
	}
	r := gateTestRouter(t, seed)
	cookies := seedSession(t, r)

	req, _ := http.NewRequest("GET", "/preview", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestRequirePaymentRedirectsWithoutPayment(t *testing.T) {
	seed := &FlowState{
		UploadedFile: "export.zip",
		AnalysisID:   "abc-123",
	}
	r := gateTestRouter(t, seed)
	cookies := seedSession(t, r)

	// Upload done but payment pending, results must not render
	req, _ := http.NewRequest("GET", "/results", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("Expected status 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/payment" {
		t.Errorf("Expected redirect to /payment, got '%s'", loc)
	}
}

func TestRequirePaymentRedirectsToUploadWithoutUpload(t *testing.T) {
	r := gateTestRouter(t, &FlowState{})

	req, _ := http.NewRequest("GET", "/results", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("Expected status 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/upload" {
		t.Errorf("Expected redirect to /upload, got '%s'", loc)
	}
}

func TestRequirePaymentPassesWhenPaid(t *testing.T) {
	seed := &FlowState{
		UploadedFile:     "export.zip",
		AnalysisID:       "abc-123",
		PaymentCompleted: true,
	}
	r := gateTestRouter(t, seed)
	cookies := seedSession(t, r)

	req, _ := http.NewRequest("GET", "/results", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestClearFlowStateIdempotent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	store := cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))
	r.Use(sessions.Sessions("flowsession", store))
	r.POST("/clear", func(c *gin.Context) {
		if err := clearFlowState(c); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/state", func(c *gin.Context) {
		state := loadFlowState(c)
		c.JSON(http.StatusOK, state)
	})

	// Clearing twice in a row must behave the same as clearing once
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("POST", "/clear", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Clear %d failed with status %d", i+1, w.Code)
		}
	}

	req, _ := http.NewRequest("GET", "/state", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "{}" {
		t.Errorf("Expected empty state, got %s", body)
	}
}
