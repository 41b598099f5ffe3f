package sbom

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/Jeffail/tunny"
	"github.com/deepfence/trustier/scanner/trusty"
	"github.com/deepfence/trustier/utils"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type scanJob struct {
	ctx    context.Context
	bom    *cdx.BOM
	config utils.Config
}

type scanOutcome struct {
	result *ScanResult
	err    error
}

type HTTPServer struct {
	config     utils.Config
	workerPool *tunny.Pool
	router     *gin.Engine
}

// NewHTTPServer builds the router. Scans go through a single worker so the
// rate limit holds across concurrent uploads.
func NewHTTPServer(config utils.Config) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	s := &HTTPServer{
		config:     config,
		workerPool: tunny.NewFunc(1, processScanJob),
		router:     gin.New(),
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.router.GET("/healthz", s.healthHandler)
	s.router.POST("/sbom", s.sbomHandler)
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Close() {
	s.workerPool.Close()
}

func RunHTTPServer(ctx context.Context, config utils.Config) error {
	if config.Port == "" {
		return fmt.Errorf("http-server mode requires port to be set")
	}

	s := NewHTTPServer(config)
	defer s.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", config.Port).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func processScanJob(jobInterface interface{}) interface{} {
	job, ok := jobInterface.(scanJob)
	if !ok {
		log.Error().Msg("Error processing scan job")
		return scanOutcome{err: fmt.Errorf("invalid scan job")}
	}

	fetcher := trusty.NewFetcher(trusty.NewClient(job.config), job.config)
	result, err := Scan(job.ctx, job.bom, fetcher)
	if err != nil {
		log.Error().Err(err).Str("scan_id", result.ScanID).Str("serial_number", job.bom.SerialNumber).Msg("Error processing SBOM")
	} else {
		log.Info().
			Str("scan_id", result.ScanID).
			Int("fetched", result.Summary.Fetched).
			Int("failed", result.Summary.Failed).
			Msg("Scan completed")
	}
	return scanOutcome{result: result, err: err}
}

func (s *HTTPServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) sbomHandler(c *gin.Context) {
	config := s.config
	if v := c.Query("ratelimit"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ratelimit should be 0 or more milliseconds"})
			return
		}
		config.RateLimitMs = ms
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentSize)
	bom, err := Load(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("serial_number", bom.SerialNumber).Msg("SBOM is valid")

	ctx := c.Request.Context()
	res, err := s.workerPool.ProcessCtx(ctx, scanJob{ctx: ctx, bom: bom, config: config})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	outcome := res.(scanOutcome)
	if outcome.err != nil {
		status := http.StatusBadGateway
		if errors.Is(outcome.err, context.Canceled) || errors.Is(outcome.err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": outcome.err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome.result)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
