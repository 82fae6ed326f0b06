// main.go
package main

import (
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

var (
	db           *gorm.DB
	serverConfig *ServerConfig
	analyzer     FollowGraphAnalyzer
	gateway      PaymentGateway
)

func main() {
	var err error

	// Load server configuration
	serverConfig, err = LoadConfig("config.json")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the SQLite database connection
	db, err = gorm.Open(sqlite.Open(serverConfig.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Perform automatic schema migration
	db.AutoMigrate(&Analysis{})

	// Select the analyzer implementation once at startup. The two modes are
	// never mixed within a running server.
	analyzer = buildAnalyzer(serverConfig)
	gateway = NewSimulatedGateway(serverConfig.Payment)

	// Create a new Gin router for handling HTTP requests
	r := gin.Default()

	// Add security middleware
	r.Use(SecurityHeadersMiddleware())
	r.Use(CORSMiddleware())
	r.Use(LoggingMiddleware())
	r.Use(RateLimitMiddleware(serverConfig.Security.RateLimitRequests, time.Duration(serverConfig.Security.RateLimitWindow)*time.Second))

	// Set up session middleware using the secret key
	store := cookie.NewStore([]byte(serverConfig.Security.SecretKey))
	store.Options(sessions.Options{
		MaxAge:   serverConfig.Security.SessionMaxAge,
		Path:     "/",
		HttpOnly: true,
		Secure:   serverConfig.Security.EnableHTTPS,
	})
	r.Use(sessions.Sessions("flowsession", store))

	// Register all the API routes
	registerRoutes(r)

	log.Printf("Analyzer mode: %s", serverConfig.Analyzer.Mode)

	// Run the Gin server on the configured interface
	if serverConfig.Security.EnableHTTPS && serverConfig.Security.CertFile != "" && serverConfig.Security.KeyFile != "" {
		log.Printf("Starting HTTPS server on %s", serverConfig.Server.Interface)
		if err := r.RunTLS(serverConfig.Server.Interface, serverConfig.Security.CertFile, serverConfig.Security.KeyFile); err != nil {
			log.Fatalf("Failed to run HTTPS server: %v", err)
		}
	} else {
		log.Printf("Starting HTTP server on %s", serverConfig.Server.Interface)
		if err := r.Run(serverConfig.Server.Interface); err != nil {
			log.Fatalf("Failed to run server: %v", err)
		}
	}
}

// buildAnalyzer wires the configured FollowGraphAnalyzer implementation.
func buildAnalyzer(config *ServerConfig) FollowGraphAnalyzer {
	switch config.Analyzer.Mode {
	case AnalyzerModeArchive:
		return NewArchiveAnalyzer()
	default:
		return NewGenerativeAnalyzer(NewCompletionClient(config.Generator))
	}
}
