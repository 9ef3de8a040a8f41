package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/agenthands/daybrief/internal/config"
	"github.com/agenthands/daybrief/internal/core"
	"github.com/agenthands/daybrief/internal/core/cluster"
	"github.com/agenthands/daybrief/internal/core/compliance"
	"github.com/agenthands/daybrief/internal/core/dedupe"
	"github.com/agenthands/daybrief/internal/core/entity"
	"github.com/agenthands/daybrief/internal/core/insight"
	"github.com/agenthands/daybrief/internal/core/model"
	"github.com/agenthands/daybrief/internal/fetch"
	"github.com/agenthands/daybrief/internal/llm"
	"github.com/agenthands/daybrief/internal/store"
)

// Server exposes the digest pipeline over HTTP and drives the daily
// schedule. Concurrent runs are serialized by the pipeline's run lock.
type Server struct {
	Pipeline *core.Pipeline
	Registry *fetch.Registry
	Vault    *store.VaultWriter
	Ledger   core.EntityLedger

	cfg    *config.Config
	cron   *cron.Cron
	logger *log.Logger
}

// NewServer wires the full pipeline from configuration.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger := log.Default()

	rules, err := compliance.LoadRules(cfg.Compliance.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load compliance rules: %w", err)
	}

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	var ledger core.EntityLedger
	switch cfg.State.Ledger {
	case "graph":
		ledger, err = store.NewGraphLedger(ctx, cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password)
		if err != nil {
			return nil, fmt.Errorf("init graph ledger: %w", err)
		}
	case "file", "":
		ledger = store.NewFileLedger(cfg.State.Dir)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.State.Ledger)
	}

	registry, err := fetch.NewRegistry(cfg.Sources, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("init fetchers: %w", err)
	}

	pipeline := &core.Pipeline{
		Dedupe: dedupe.NewDeduplicator(
			cfg.Processing.DedupThreshold,
			time.Duration(cfg.Processing.TimeWindowHours)*time.Hour,
			cfg.SourcePriority,
		),
		Cluster:    cluster.NewEngine(cfg.SourceCategories(), cfg.CategoryKeywords()),
		Tracker:    entity.NewTracker(entity.WatchlistExtractor(cfg.EntityWatchlist())),
		Insight:    insight.NewStore(cfg.Processing.InsightWindowDays, cfg.Processing.DedupThreshold),
		Rules:      rules,
		Summarizer: llm.NewDigestSummarizer(llmClient, cfg.LLM.SummaryPrompt),
		Ledger:     ledger,
		History:    store.NewFileHistory(cfg.State.Dir),
		Lock:       store.NewRunLock(cfg.State.Dir),
		Logger:     logger,
	}

	return &Server{
		Pipeline: pipeline,
		Registry: registry,
		Vault:    store.NewVaultWriter(cfg.Vault.Dir),
		Ledger:   ledger,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/run", s.TriggerRun)
	r.GET("/entities", s.ListEntities)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// StartCron schedules the daily run; a blank schedule disables it.
func (s *Server) StartCron() error {
	if s.cfg.Server.Cron == "" {
		return nil
	}
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.cfg.Server.Cron, func() {
		if _, err := s.RunOnce(context.Background(), nil); err != nil {
			s.logger.Printf("[server] scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.cfg.Server.Cron, err)
	}
	s.cron.Start()
	s.logger.Printf("[server] scheduled daily run: %s", s.cfg.Server.Cron)
	return nil
}

func (s *Server) StopCron() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce executes one full digest run. When batch is nil the configured
// sources are fetched first.
func (s *Server) RunOnce(ctx context.Context, batch []model.Record) (*core.RunResult, error) {
	if batch == nil {
		batch = s.Registry.FetchAll(ctx)
	}
	result, err := s.Pipeline.Run(ctx, batch)
	if err != nil {
		return nil, err
	}
	if err := s.Vault.Write(result); err != nil {
		return nil, fmt.Errorf("write vault notes: %w", err)
	}
	return result, nil
}

// TriggerRunRequest optionally injects a record batch instead of fetching.
type TriggerRunRequest struct {
	Records []model.Record `json:"records"`
}

func (s *Server) TriggerRun(c *gin.Context) {
	var req TriggerRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	result, err := s.RunOnce(c.Request.Context(), req.Records)
	if err != nil {
		s.logger.Printf("[server] run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":            result.Date.Format("2006-01-02"),
		"merged":          result.Merged,
		"rejected":        result.Rejected,
		"public_produced": result.PublicProduced,
		"deep_dive":       result.DeepDive.Title,
		"decisions":       len(result.Decisions),
	})
}

func (s *Server) ListEntities(c *gin.Context) {
	ledger, err := s.Ledger.Load(c.Request.Context())
	if err != nil {
		s.logger.Printf("[server] load ledger failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load entities"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entities": ledger})
}
