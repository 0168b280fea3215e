package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"lawsuitdraft-backend/handlers"
	"lawsuitdraft-backend/llm"
	"lawsuitdraft-backend/repository"
	"lawsuitdraft-backend/service"
	"lawsuitdraft-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	// Initialize storage
	docStorage, err := storage.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository()

	// Initialize the extractor factory for the configured provider
	factory, err := initExtractorFactory()
	if err != nil {
		log.Fatal("Failed to initialize LLM provider:", err)
	}

	// Initialize services
	extractionService := service.NewExtractionService(
		service.WithExtractorFactory(factory),
		service.WithExtractionCache(llm.NewExtractionCache()),
	)

	sessionService := service.NewSessionService(
		service.WithSessionRepository(sessionRepo),
		service.WithExtractionService(extractionService),
		service.WithSessionStorage(docStorage),
	)

	documentService := service.NewDocumentService(
		service.WithDocumentStorage(docStorage),
		service.WithTemplatePath(templatePath()),
	)

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessionService, documentService, maxUploadSize())

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Session endpoints
		api.POST("/sessions", sessionHandler.CreateSession)
		api.GET("/sessions/:id", sessionHandler.GetSession)
		api.PUT("/sessions/:id/fields", sessionHandler.UpdateFields)
		api.POST("/sessions/:id/document", sessionHandler.GenerateDocument)
		api.DELETE("/sessions/:id", sessionHandler.DeleteSession)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// initExtractorFactory wires the LLM_PROVIDER choice into a per-request
// factory. A request-supplied api_key always wins over the configured one;
// with neither, extraction is refused before any network call.
func initExtractorFactory() (service.ExtractorFactory, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "dashscope"
	}
	model := os.Getenv("LLM_MODEL")
	timeout := llmTimeout()

	switch provider {
	case "dashscope":
		defaultKey := os.Getenv("DASHSCOPE_API_KEY")
		return func(apiKey string) (llm.FieldExtractor, string, error) {
			key := apiKey
			if key == "" {
				key = defaultKey
			}
			if key == "" {
				return nil, "", service.ErrMissingAPIKey
			}
			chat := llm.NewDashScope(key,
				llm.WithDashScopeModel(model),
				llm.WithDashScopeHTTPClient(&http.Client{Timeout: timeout}),
			)
			return llm.NewExtractor(chat), key, nil
		}, nil

	case "gemini":
		defaultKey := os.Getenv("GEMINI_API_KEY")
		var defaultClient *genai.Client
		if defaultKey != "" {
			client, err := genai.NewClient(context.Background(), option.WithAPIKey(defaultKey))
			if err != nil {
				return nil, err
			}
			defaultClient = client
			log.Println("Gemini client initialized")
		} else {
			log.Println("Warning: GEMINI_API_KEY not set")
		}
		return func(apiKey string) (llm.FieldExtractor, string, error) {
			if apiKey != "" && apiKey != defaultKey {
				client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
				if err != nil {
					return nil, "", err
				}
				return llm.NewExtractor(llm.NewGemini(client, llm.WithGeminiModel(model))), apiKey, nil
			}
			if defaultClient == nil {
				return nil, "", service.ErrMissingAPIKey
			}
			return llm.NewExtractor(llm.NewGemini(defaultClient, llm.WithGeminiModel(model))), defaultKey, nil
		}, nil

	default:
		log.Fatalf("Unknown LLM_PROVIDER: %s (want dashscope or gemini)", provider)
		return nil, nil
	}
}

func llmTimeout() time.Duration {
	raw := os.Getenv("LLM_TIMEOUT")
	if raw == "" {
		return 120 * time.Second
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		log.Printf("Warning: invalid LLM_TIMEOUT %q, using 120s", raw)
		return 120 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

func templatePath() string {
	path := os.Getenv("TEMPLATE_PATH")
	if path == "" {
		path = "templates/lawsuit_template.docx"
	}
	return path
}

func maxUploadSize() int64 {
	raw := os.Getenv("MAX_UPLOAD_SIZE")
	if raw == "" {
		return 0 // handler default
	}
	size, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || size <= 0 {
		log.Printf("Warning: invalid MAX_UPLOAD_SIZE %q, using default", raw)
		return 0
	}
	return size
}
