// Package handler exposes the quiz generation pipeline over HTTP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Ilay1214/Quiz-AI/internal/extractor"
	"github.com/Ilay1214/Quiz-AI/internal/jobs"
	"github.com/Ilay1214/Quiz-AI/internal/models"
	"github.com/Ilay1214/Quiz-AI/internal/repository"
	"github.com/Ilay1214/Quiz-AI/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// userIDHeader identifies the registered user on requests coming through the
// gateway. Absent for guests.
const userIDHeader = "X-User-ID"

// Pipeline is the service surface the handler needs.
type Pipeline interface {
	Submit(ctx context.Context, params service.SubmitParams) (string, error)
	Status(ctx context.Context, jobID string) (jobs.Job, error)
	GetQuiz(ctx context.Context, quizID int64) (*models.Quiz, error)
	ListQuizzes(ctx context.Context, userID int64) ([]models.QuizSummary, error)
}

// Handler serves the quiz generation API.
type Handler struct {
	pipeline       Pipeline
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewHandler(pipeline Pipeline, maxUploadBytes int64, logger *zap.Logger) *Handler {
	return &Handler{
		pipeline:       pipeline,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("handler"),
	}
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	{
		api.GET("/health", h.health)
		api.POST("/generate-questions", h.generateQuestions)
		api.GET("/job-status/:job_id", h.jobStatus)
		api.GET("/quizzes", h.listQuizzes)
		api.GET("/quizzes/:quiz_id", h.getQuiz)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) generateQuestions(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "a document file is required"})
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUploadBytes)})
		return
	}

	ext := strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	if _, err := extractor.ParseFormat(ext); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unsupported file format, use pdf, docx or txt"})
		return
	}

	count, err := strconv.Atoi(c.PostForm("num_questions"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "num_questions must be an integer"})
		return
	}

	mode := models.QuizMode(c.DefaultPostForm("mode", string(models.ModePractice)))

	var duration *int
	if raw := c.PostForm("duration"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "duration must be an integer number of minutes"})
			return
		}
		duration = &d
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	}

	// Parameter validation happens before the file is read, a bad request
	// never creates a job.
	if _, err := models.NewGenerationRequest("", count, mode, duration, userID, title); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to read the uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to read the uploaded file"})
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUploadBytes)})
		return
	}

	jobID, err := h.pipeline.Submit(c.Request.Context(), service.SubmitParams{
		FileData:        data,
		FileExt:         ext,
		QuestionCount:   count,
		Mode:            mode,
		DurationMinutes: duration,
		UserID:          userID,
		Title:           title,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQueueFull):
			c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "the server is busy, try again later"})
		case errors.Is(err, extractor.ErrUnsupportedFormat):
			c.JSON(http.StatusBadRequest, errorResponse{Error: "unsupported file format, use pdf, docx or txt"})
		default:
			h.logger.Error("failed to submit job", zap.Error(err))
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to start quiz generation"})
		}
		return
	}

	c.JSON(http.StatusAccepted, generateResponse{JobID: jobID})
}

func (h *Handler) jobStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.pipeline.Status(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrUnknownJob) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "unknown job"})
			return
		}
		h.logger.Error("failed to load job status", zap.String("jobID", jobID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load job status"})
		return
	}

	c.JSON(http.StatusOK, toJobStatusResponse(job))
}

func (h *Handler) listQuizzes(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if userID == nil {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "a user is required to list quizzes"})
		return
	}

	summaries, err := h.pipeline.ListQuizzes(c.Request.Context(), *userID)
	if err != nil {
		h.logger.Error("failed to list quizzes", zap.Int64("userID", *userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list quizzes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"quizzes": summaries})
}

func (h *Handler) getQuiz(c *gin.Context) {
	quizID, err := strconv.ParseInt(c.Param("quiz_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "quiz_id must be an integer"})
		return
	}

	quiz, err := h.pipeline.GetQuiz(c.Request.Context(), quizID)
	if err != nil {
		if errors.Is(err, repository.ErrQuizNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "quiz not found"})
			return
		}
		h.logger.Error("failed to load quiz", zap.Int64("quizID", quizID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load quiz"})
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// parseUserID reads the optional user header. A missing header means a guest.
func parseUserID(c *gin.Context) (*int64, error) {
	raw := strings.TrimSpace(c.GetHeader(userIDHeader))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid %s header", userIDHeader)
	}
	return &id, nil
}
