package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/mirror/internal/config"
	"github.com/agenthands/mirror/internal/core"
	"github.com/agenthands/mirror/internal/llm"
	"github.com/agenthands/mirror/internal/moods"
	"github.com/agenthands/mirror/internal/store"
)

// userIDHeader is set by the authenticating proxy in front of this service.
const userIDHeader = "X-User-ID"

type Server struct {
	Letters *core.Letters
	Moods   *moods.Converter
	Logger  *zap.Logger
}

// New assembles the full service from config: Supabase-backed stores, the
// configured LLM gateway, the analysis pipeline, and the mood converter.
func New(logger *zap.Logger) (*Server, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	client, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		return nil, err
	}

	supa, err := store.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey, logger)
	if err != nil {
		return nil, err
	}

	analyzer := core.NewAnalyzer(client, cfg.Prompts, logger)
	letters := core.NewLetters(analyzer, supa, supa, logger)

	converter, err := moods.NewConverter(client, cfg.Prompts.Moods, logger)
	if err != nil {
		return nil, err
	}

	return &Server{
		Letters: letters,
		Moods:   converter,
		Logger:  logger,
	}, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/insights/letter", s.GetLetter)
	r.POST("/api/insights/generate-letter", s.RegenerateLetter)
	r.POST("/api/moods/feelings", s.ConvertMoods)

	return r
}

func (s *Server) GetLetter(c *gin.Context) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	resp, err := s.Letters.GetOrCreateLetter(c.Request.Context(), userID, time.Now().UTC())
	if err != nil {
		s.Logger.Error("insight letter failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build insight letter"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) RegenerateLetter(c *gin.Context) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	resp, err := s.Letters.ForceRegenerate(c.Request.Context(), userID, time.Now().UTC())
	if err != nil {
		s.Logger.Error("letter regeneration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to regenerate letter"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

type convertMoodsRequest struct {
	Moods []string `json:"moods"`
}

func (s *Server) ConvertMoods(c *gin.Context) {
	var req convertMoodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	conversions := s.Moods.Convert(c.Request.Context(), req.Moods)
	c.JSON(http.StatusOK, gin.H{"feelings": conversions})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
