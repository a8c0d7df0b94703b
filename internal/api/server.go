package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"readscore/internal/assist"
	"readscore/internal/queue"
	"readscore/internal/stt"
	"readscore/pkg/cache"
	"readscore/pkg/logger"
	"readscore/pkg/model"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Store is the persistence surface the API needs.
type Store interface {
	CreateTask(ctx context.Context, task *model.AssessmentTask) error
	GetTaskByID(ctx context.Context, id string) (*model.AssessmentTask, error)
	CreatePassage(ctx context.Context, passage *model.Passage) error
	GetPassageByID(ctx context.Context, id string) (*model.Passage, error)
	ListPassagesForAge(ctx context.Context, age int) ([]*model.Passage, error)
	DeletePassage(ctx context.Context, id string) error
}

// Uploader stores uploaded reading recordings.
type Uploader interface {
	UploadRecording(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	GenerateKey(taskID, extension string) string
}

// Publisher enqueues assessment jobs for the worker.
type Publisher interface {
	PublishJob(job *queue.AssessmentJob) error
}

type Server struct {
	e          *echo.Echo
	db         Store
	s3         Uploader
	jobs       Publisher
	cache      cache.Cache
	recognizer stt.Recognizer
	assistant  *assist.Assistant
}

// NewServer wires the HTTP API. The recognizer and assistant may be nil;
// the endpoints that need them respond 503.
func NewServer(db Store, s3 Uploader, jobs Publisher, c cache.Cache, recognizer stt.Recognizer, assistant *assist.Assistant) *Server {
	s := &Server{
		e:          echo.New(),
		db:         db,
		s3:         s3,
		jobs:       jobs,
		cache:      c,
		recognizer: recognizer,
		assistant:  assistant,
	}

	s.e.HideBanner = true
	s.e.Use(middleware.Recover())
	s.e.Use(middleware.CORS())

	s.routes()

	return s
}

func (s *Server) routes() {
	s.e.GET("/", s.handleRoot)
	s.e.GET("/health", s.handleHealth)

	s.e.POST("/assess", s.handleAssess)
	s.e.POST("/assess-text", s.handleAssessText)

	s.e.POST("/assessments", s.handleCreateAssessment)
	s.e.GET("/assessments/:id", s.handleGetAssessment)

	s.e.POST("/tts/word", s.handleWordAudio)
	s.e.POST("/tts/correction", s.handleCorrectionAudio)

	s.e.POST("/passages", s.handleCreatePassage)
	s.e.GET("/passages", s.handleListPassages)
	s.e.GET("/passages/:id", s.handleGetPassage)
	s.e.DELETE("/passages/:id", s.handleDeletePassage)
}

// Start runs the HTTP server until the listener fails.
func (s *Server) Start(addr string) error {
	logger.Info("Starting HTTP server", zap.String("addr", addr))

	err := s.e.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(shutdownCtx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}
