package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ot-job-monitor/internal/monitor"
)

// runStatus keeps the outcome of the latest scheduled check for /health.
type runStatus struct {
	mu       sync.RWMutex
	last     monitor.Result
	lastErr  string
	finished time.Time
}

func newRunStatus() *runStatus {
	return &runStatus{}
}

func (s *runStatus) record(res monitor.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = res
	s.finished = time.Now()
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
}

func (s *runStatus) snapshot() gin.H {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.finished.IsZero() {
		return gin.H{"last_run": nil}
	}
	return gin.H{
		"last_run": gin.H{
			"run_id":      s.last.RunID,
			"finished_at": s.finished.UTC().Format(time.RFC3339),
			"total":       s.last.Total,
			"matched":     s.last.Matched,
			"unmatched":   s.last.Unmatched,
			"sent":        s.last.Sent,
			"partial":     s.last.Partial,
			"error":       s.lastErr,
		},
	}
}

func newRouter(reg *prometheus.Registry, status *runStatus) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "OT Job Monitor is running!",
			"status":  "healthy",
		})
	})

	r.GET("/health", func(c *gin.Context) {
		body := status.snapshot()
		body["status"] = "healthy"
		c.JSON(http.StatusOK, body)
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return r
}
