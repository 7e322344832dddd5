// Package web is the operator HTTP API.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/court-scheduler/internal/auth"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/runner"
	"github.com/example/court-scheduler/internal/status"
	"github.com/example/court-scheduler/internal/tasks"
)

// Runner accepts tasks and stops cooperatively.
type Runner interface {
	Register(ctx context.Context, task reservation.Task) (runner.Ack, error)
	Stop()
	Pending() int
}

// History is the durable task record. It is optional.
type History interface {
	Get(ctx context.Context, id string) (tasks.Record, error)
	ListRecent(ctx context.Context, limit int) ([]tasks.Record, error)
}

type Server struct {
	Auth    *auth.Store
	Runner  Runner
	Status  status.Store
	History History

	// Location is the site's time zone for request dates.
	Location *time.Location
	// ListLimit caps GET /api/tasks. Defaults to 50.
	ListLimit int
}

// Handler builds the gin engine with every route.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())
	s.RegisterRoutes(&r.RouterGroup)
	return r
}

func (s *Server) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok\n")
	})
	r.POST("/login", s.login)
	r.POST("/logout", s.logout)

	api := r.Group("/api")
	api.Use(s.Auth.RequireAuth())
	{
		api.POST("/tasks", s.createTask)
		api.GET("/tasks", s.listTasks)
		api.GET("/tasks/:id", s.getTask)
		api.POST("/stop", s.stop)
	}
}

func errorJSON(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `form:"username" json:"username"`
		Password string `form:"password" json:"password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid login body")
		return
	}
	id, err := s.Auth.Users.Authenticate(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		errorJSON(c, http.StatusUnauthorized, "invalid username/password")
		return
	}
	if err != nil {
		log.Printf("web: login: %v", err)
		errorJSON(c, http.StatusInternalServerError, "login failed")
		return
	}
	if err := s.Auth.SetSession(c.Writer, c.Request, id); err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id})
}

func (s *Server) logout(c *gin.Context) {
	s.Auth.ClearSession(c.Writer)
	c.Status(http.StatusNoContent)
}

func (s *Server) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

func (s *Server) createTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid task body: "+err.Error())
		return
	}
	task, err := req.task(s.location())
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	ack, err := s.Runner.Register(c.Request.Context(), task)
	if errors.Is(err, runner.ErrStopped) {
		errorJSON(c, http.StatusServiceUnavailable, "runner is stopped")
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	uid, _ := auth.UserID(c)
	log.Printf("web: operator %d submitted task %s", uid, ack.TaskID)
	c.JSON(http.StatusAccepted, ack)
}

func (s *Server) listTasks(c *gin.Context) {
	limit := s.ListLimit
	if limit <= 0 {
		limit = 50
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errorJSON(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, limit)
	}

	if s.History != nil {
		recs, err := s.History.ListRecent(c.Request.Context(), limit)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": recs})
		return
	}
	ss, err := s.Status.List(c.Request.Context())
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(ss) > limit {
		ss = ss[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"tasks": ss})
}

func (s *Server) getTask(c *gin.Context) {
	id := c.Param("id")
	st, err := s.Status.Get(c.Request.Context(), id)
	if err == nil {
		c.JSON(http.StatusOK, st)
		return
	}
	if !errors.Is(err, status.ErrNotFound) {
		log.Printf("web: status %s: %v", id, err)
	}
	if s.History != nil {
		rec, err := s.History.Get(c.Request.Context(), id)
		if err == nil {
			c.JSON(http.StatusOK, rec)
			return
		}
		if !db.IsNotFound(err) {
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}
	}
	errorJSON(c, http.StatusNotFound, "task not found")
}

func (s *Server) stop(c *gin.Context) {
	s.Runner.Stop()
	c.JSON(http.StatusAccepted, gin.H{"stopping": true, "pending": s.Runner.Pending()})
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("web: %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("web: listening on %s", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
