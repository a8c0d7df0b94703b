package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"readscore/internal/assess"
	"readscore/internal/assist"
	"readscore/internal/queue"
	"readscore/internal/textalign"
	"readscore/internal/worker"
	"readscore/pkg/cache"
	"readscore/pkg/logger"
	"readscore/pkg/model"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	minReaderAge     = 5
	maxReaderAge     = 100
	minReferenceLen  = 5
	maxUploadBytes   = 25 << 20
	uploadedMimeType = "audio/ogg"

	// Elapsed time assumed for text-only assessments that do not report one.
	defaultElapsedSeconds = 10
)

type errorResponse struct {
	Error string `json:"error"`
}

type assessTextRequest struct {
	ReferenceText  string  `json:"reference_text" form:"reference_text"`
	RecognizedText string  `json:"recognized_text" form:"recognized_text"`
	ElapsedSeconds float64 `json:"elapsed_seconds" form:"elapsed_seconds"`
	PauseCount     int     `json:"pause_count" form:"pause_count"`
	Age            int     `json:"age" form:"age"`
}

type assessmentResponse struct {
	assess.Result
	Help assist.Help `json:"help"`
}

func validateAssessInput(referenceText string, age int, elapsed float64) error {
	if len(strings.TrimSpace(referenceText)) < minReferenceLen {
		return fmt.Errorf("reference_text must be at least %d characters", minReferenceLen)
	}
	if age != 0 && (age < minReaderAge || age > maxReaderAge) {
		return fmt.Errorf("age must be between %d and %d", minReaderAge, maxReaderAge)
	}
	if elapsed < 0 {
		return fmt.Errorf("elapsed_seconds must not be negative")
	}
	return nil
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "readscore",
		"message": "Reading assessment service is running",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleAssessText scores an already-transcribed reading. Omitted fields
// fall back to a self-comparison baseline: the recognized text defaults to
// the reference and the elapsed time to ten seconds.
func (s *Server) handleAssessText(c echo.Context) error {
	var req assessTextRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := validateAssessInput(req.ReferenceText, req.Age, req.ElapsedSeconds); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if req.RecognizedText == "" {
		req.RecognizedText = req.ReferenceText
	}
	if req.ElapsedSeconds == 0 {
		req.ElapsedSeconds = defaultElapsedSeconds
	}

	result := assess.Run(assess.Request{
		ReferenceText:  req.ReferenceText,
		RecognizedText: req.RecognizedText,
		ElapsedSeconds: req.ElapsedSeconds,
		PauseCount:     req.PauseCount,
		Age:            req.Age,
	})

	return c.JSON(http.StatusOK, assessmentResponse{
		Result: result,
		Help:   assist.Build(result.WordLevelErrors),
	})
}

// handleAssess uploads a recording and scores it synchronously. A transcript
// supplied by the caller (browser speech recognition) takes priority; STT
// runs only when the form carries no recognized_text.
func (s *Server) handleAssess(c echo.Context) error {
	recognizedText := c.FormValue("recognized_text")

	if recognizedText == "" && s.recognizer == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "speech recognition is not configured"})
	}

	referenceText, age, elapsed, err := s.assessmentForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "audio file is required"})
	}
	if file.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "audio file too large"})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to read audio file"})
	}
	defer src.Close()

	ctx := c.Request().Context()

	key := s.s3.GenerateKey(uuid.New().String(), ".ogg")
	audioURI, err := s.s3.UploadRecording(ctx, key, src, uploadedMimeType)
	if err != nil {
		logger.Error("Failed to upload recording", zap.Error(err))
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to store recording"})
	}

	pauses := 0
	if recognizedText == "" {
		operationID, err := s.recognizer.StartRecognition(ctx, audioURI)
		if err != nil {
			logger.Error("Failed to start recognition", zap.Error(err))
			return c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to start speech recognition"})
		}

		recognition, err := s.recognizer.WaitForResult(ctx, operationID)
		if err != nil {
			logger.Error("Recognition failed", zap.Error(err))
			return c.JSON(http.StatusBadGateway, errorResponse{Error: "speech recognition failed"})
		}

		recognizedText = recognition.GetFullText()
		pauses = recognition.CountPauses()
		if elapsed <= 0 {
			elapsed = recognition.SpeechDuration()
		}
	}

	if elapsed <= 0 {
		elapsed = worker.EstimateElapsedSeconds(file.Size)
	}

	result := assess.Run(assess.Request{
		ReferenceText:  referenceText,
		RecognizedText: recognizedText,
		ElapsedSeconds: elapsed,
		PauseCount:     pauses,
		Age:            age,
	})

	return c.JSON(http.StatusOK, assessmentResponse{
		Result: result,
		Help:   assist.Build(result.WordLevelErrors),
	})
}

// handleCreateAssessment queues an async assessment of an uploaded recording.
func (s *Server) handleCreateAssessment(c echo.Context) error {
	referenceText, age, elapsed, err := s.assessmentForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "audio file is required"})
	}
	if file.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "audio file too large"})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to read audio file"})
	}
	defer src.Close()

	ctx := c.Request().Context()
	taskID := uuid.New().String()
	now := time.Now()

	key := s.s3.GenerateKey(taskID, ".ogg")
	audioURI, err := s.s3.UploadRecording(ctx, key, src, uploadedMimeType)
	if err != nil {
		logger.Error("Failed to upload recording", zap.Error(err))
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to store recording"})
	}

	task := &model.AssessmentTask{
		ID:             taskID,
		ReferenceText:  referenceText,
		Age:            age,
		AudioKey:       key,
		ElapsedSeconds: elapsed,
		Status:         model.TaskStatusQueued,
		Meta:           model.JSONB{"mime_type": uploadedMimeType, "file_size": file.Size},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if passageID := c.FormValue("passage_id"); passageID != "" {
		task.PassageID = &passageID
	}

	if err := s.db.CreateTask(ctx, task); err != nil {
		logger.Error("Failed to create task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to create assessment task"})
	}

	job := &queue.AssessmentJob{
		TaskID:         taskID,
		ReferenceText:  referenceText,
		Age:            age,
		AudioKey:       key,
		AudioURI:       audioURI,
		ElapsedSeconds: elapsed,
		FileSize:       file.Size,
		MimeType:       uploadedMimeType,
		CreatedAt:      now,
	}
	if task.PassageID != nil {
		job.PassageID = *task.PassageID
	}

	if err := s.jobs.PublishJob(job); err != nil {
		logger.Error("Failed to publish job", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to queue assessment"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"status":  string(model.TaskStatusQueued),
	})
}

// handleGetAssessment returns the cached result when processing is finished,
// otherwise the current task status.
func (s *Server) handleGetAssessment(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	var result assess.Result
	if err := s.cache.Get(ctx, cache.ResultCacheKey(id), &result); err == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"task_id": id,
			"status":  string(model.TaskStatusDone),
			"result":  result,
			"help":    assist.Build(result.WordLevelErrors),
		})
	}

	task, err := s.db.GetTaskByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "assessment not found"})
	}

	resp := map[string]interface{}{
		"task_id": task.ID,
		"status":  string(task.Status),
	}
	if task.Status == model.TaskStatusDone {
		// Completed but the cached result already expired.
		resp["result_expired"] = true
	}
	if task.ErrorText != nil {
		resp["error"] = *task.ErrorText
	}

	return c.JSON(http.StatusOK, resp)
}

type wordAudioRequest struct {
	Word string `json:"word" form:"word"`
}

func (s *Server) handleWordAudio(c echo.Context) error {
	if s.assistant == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "speech synthesis is not configured"})
	}

	var req wordAudioRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	words := textalign.Normalize(req.Word)
	if len(words) != 1 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "word must be a single word"})
	}

	audio, err := s.assistant.WordAudio(c.Request().Context(), words[0])
	if err != nil {
		logger.Error("Failed to synthesize word", zap.Error(err))
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to synthesize audio"})
	}

	return c.Blob(http.StatusOK, "audio/ogg", audio)
}

type correctionAudioRequest struct {
	Spoken  string `json:"spoken" form:"spoken"`
	Correct string `json:"correct" form:"correct"`
}

func (s *Server) handleCorrectionAudio(c echo.Context) error {
	if s.assistant == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "speech synthesis is not configured"})
	}

	var req correctionAudioRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	spoken := textalign.Normalize(req.Spoken)
	correct := textalign.Normalize(req.Correct)
	if len(spoken) != 1 || len(correct) != 1 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "spoken and correct must each be a single word"})
	}

	audio, err := s.assistant.CorrectionAudio(c.Request().Context(), spoken[0], correct[0])
	if err != nil {
		logger.Error("Failed to synthesize correction", zap.Error(err))
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "failed to synthesize audio"})
	}

	return c.Blob(http.StatusOK, "audio/ogg", audio)
}

type createPassageRequest struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	MinAge int    `json:"min_age"`
	MaxAge int    `json:"max_age"`
}

func (s *Server) handleCreatePassage(c echo.Context) error {
	var req createPassageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if len(strings.TrimSpace(req.Text)) < minReferenceLen {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("text must be at least %d characters", minReferenceLen)})
	}
	if req.MinAge < minReaderAge || req.MaxAge > maxReaderAge || req.MinAge > req.MaxAge {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid age range"})
	}

	passage := &model.Passage{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Text:      req.Text,
		WordCount: len(textalign.Normalize(req.Text)),
		MinAge:    req.MinAge,
		MaxAge:    req.MaxAge,
		CreatedAt: time.Now(),
	}

	if err := s.db.CreatePassage(c.Request().Context(), passage); err != nil {
		logger.Error("Failed to create passage", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to create passage"})
	}

	return c.JSON(http.StatusCreated, passage)
}

func (s *Server) handleGetPassage(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	var cached model.Passage
	if err := s.cache.Get(ctx, cache.PassageCacheKey(id), &cached); err == nil {
		return c.JSON(http.StatusOK, cached)
	}

	passage, err := s.db.GetPassageByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "passage not found"})
	}

	if err := s.cache.Set(ctx, cache.PassageCacheKey(id), passage); err != nil {
		logger.Warn("Failed to cache passage", zap.String("id", id), zap.Error(err))
	}

	return c.JSON(http.StatusOK, passage)
}

func (s *Server) handleListPassages(c echo.Context) error {
	ageParam := c.QueryParam("age")
	if ageParam == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "age query parameter is required"})
	}

	age, err := strconv.Atoi(ageParam)
	if err != nil || age < minReaderAge || age > maxReaderAge {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("age must be between %d and %d", minReaderAge, maxReaderAge)})
	}

	passages, err := s.db.ListPassagesForAge(c.Request().Context(), age)
	if err != nil {
		logger.Error("Failed to list passages", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list passages"})
	}

	if passages == nil {
		passages = []*model.Passage{}
	}

	return c.JSON(http.StatusOK, passages)
}

func (s *Server) handleDeletePassage(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	if err := s.db.DeletePassage(ctx, id); err != nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "passage not found"})
	}

	if err := s.cache.Delete(ctx, cache.PassageCacheKey(id)); err != nil {
		logger.Warn("Failed to evict passage from cache", zap.String("id", id), zap.Error(err))
	}

	return c.NoContent(http.StatusNoContent)
}

// assessmentForm reads the shared multipart fields and resolves the
// reference text, either inline or from a stored passage.
func (s *Server) assessmentForm(c echo.Context) (referenceText string, age int, elapsed float64, err error) {
	referenceText = c.FormValue("reference_text")

	if passageID := c.FormValue("passage_id"); passageID != "" {
		passage, perr := s.db.GetPassageByID(c.Request().Context(), passageID)
		if perr != nil {
			return "", 0, 0, fmt.Errorf("passage not found")
		}
		referenceText = passage.Text
	}

	if v := c.FormValue("age"); v != "" {
		age, err = strconv.Atoi(v)
		if err != nil {
			return "", 0, 0, fmt.Errorf("age must be a number")
		}
	}

	if v := c.FormValue("elapsed_seconds"); v != "" {
		elapsed, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return "", 0, 0, fmt.Errorf("elapsed_seconds must be a number")
		}
	}

	if err := validateAssessInput(referenceText, age, elapsed); err != nil {
		return "", 0, 0, err
	}

	return referenceText, age, elapsed, nil
}
