package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ilay1214/Quiz-AI/internal/jobs"
	"github.com/Ilay1214/Quiz-AI/internal/mocks"
	"github.com/Ilay1214/Quiz-AI/internal/models"
	"github.com/Ilay1214/Quiz-AI/internal/repository"
	"github.com/Ilay1214/Quiz-AI/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var _ Pipeline = (*mocks.Pipeline)(nil)

const testMaxUpload = 1 << 20

func setupRouter(pipeline *mocks.Pipeline) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(pipeline, testMaxUpload, zap.NewNop()).RegisterRoutes(router)
	return router
}

type uploadForm struct {
	fileName string
	fileData []byte
	fields   map[string]string
}

func defaultForm() uploadForm {
	return uploadForm{
		fileName: "notes.txt",
		fileData: []byte("Photosynthesis converts light into chemical energy stored in glucose."),
		fields: map[string]string{
			"num_questions": "5",
			"mode":          "practice",
			"title":         "Photosynthesis",
		},
	}
}

func buildUpload(t *testing.T, form uploadForm) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if form.fileName != "" {
		part, err := writer.CreateFormFile("file", form.fileName)
		require.NoError(t, err)
		_, err = part.Write(form.fileData)
		require.NoError(t, err)
	}
	for key, value := range form.fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func postUpload(t *testing.T, router *gin.Engine, form uploadForm, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := buildUpload(t, form)
	req := httptest.NewRequest(http.MethodPost, "/api/generate-questions", body)
	req.Header.Set("Content-Type", contentType)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := setupRouter(new(mocks.Pipeline))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGenerateQuestions_Accepted(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	pipeline.On("Submit", mock.Anything, mock.MatchedBy(func(p service.SubmitParams) bool {
		return p.FileExt == "txt" &&
			p.QuestionCount == 5 &&
			p.Mode == models.ModePractice &&
			p.UserID == nil &&
			p.Title == "Photosynthesis"
	})).Return("job-123", nil)
	router := setupRouter(pipeline)

	rec := postUpload(t, router, defaultForm(), nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"job_id":"job-123"}`, rec.Body.String())
	pipeline.AssertExpectations(t)
}

func TestGenerateQuestions_UserHeader(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	pipeline.On("Submit", mock.Anything, mock.MatchedBy(func(p service.SubmitParams) bool {
		return p.UserID != nil && *p.UserID == 42
	})).Return("job-1", nil)
	router := setupRouter(pipeline)

	rec := postUpload(t, router, defaultForm(), map[string]string{"X-User-ID": "42"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestGenerateQuestions_InvalidUserHeader(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	router := setupRouter(pipeline)

	rec := postUpload(t, router, defaultForm(), map[string]string{"X-User-ID": "not-a-number"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	pipeline.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestGenerateQuestions_ExamDurationOutOfRange(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	router := setupRouter(pipeline)

	form := defaultForm()
	form.fields["mode"] = "exam"
	form.fields["duration"] = "200"
	rec := postUpload(t, router, form, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "duration")
	pipeline.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestGenerateQuestions_DurationWithoutExamMode(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	router := setupRouter(pipeline)

	form := defaultForm()
	form.fields["duration"] = "30"
	rec := postUpload(t, router, form, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	pipeline.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestGenerateQuestions_BadQuestionCount(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	router := setupRouter(pipeline)

	for _, count := range []string{"", "abc", "0", "66"} {
		form := defaultForm()
		form.fields["num_questions"] = count
		rec := postUpload(t, router, form, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "num_questions=%q", count)
	}
	pipeline.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestGenerateQuestions_MissingFile(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	router := setupRouter(pipeline)

	form := defaultForm()
	form.fileName = ""
	rec := postUpload(t, router, form, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateQuestions_UnsupportedExtension(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	router := setupRouter(pipeline)

	form := defaultForm()
	form.fileName = "slides.pptx"
	rec := postUpload(t, router, form, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	pipeline.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestGenerateQuestions_FileTooLarge(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	router := setupRouter(pipeline)

	form := defaultForm()
	form.fileData = bytes.Repeat([]byte("a"), testMaxUpload+1)
	rec := postUpload(t, router, form, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	pipeline.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestGenerateQuestions_QueueFull(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	pipeline.On("Submit", mock.Anything, mock.Anything).Return("", service.ErrQueueFull)
	router := setupRouter(pipeline)

	rec := postUpload(t, router, defaultForm(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateQuestions_TitleDefaultsToFilename(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	pipeline.On("Submit", mock.Anything, mock.MatchedBy(func(p service.SubmitParams) bool {
		return p.Title == "notes"
	})).Return("job-1", nil)
	router := setupRouter(pipeline)

	form := defaultForm()
	delete(form.fields, "title")
	rec := postUpload(t, router, form, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	pipeline.AssertExpectations(t)
}

func TestJobStatus_Completed(t *testing.T) {
	quizID := int64(77)
	job := jobs.Job{
		ID:     "job-9",
		Status: jobs.StatusCompleted,
		Artifact: &models.QuizArtifact{
			ID:          "artifact-1",
			Title:       "Photosynthesis",
			Questions:   []models.QuizQuestion{{ID: "q1", Question: "Q?", Type: models.QuestionTypeSingle}},
			Mode:        models.ModePractice,
			GeneratedAt: time.Now().UTC(),
		},
		PersistedQuizID: &quizID,
	}
	pipeline := new(mocks.Pipeline)
	pipeline.On("Status", mock.Anything, "job-9").Return(job, nil)
	router := setupRouter(pipeline)

	req := httptest.NewRequest(http.MethodGet, "/api/job-status/job-9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp jobStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	require.NotNil(t, resp.Session)
	assert.Len(t, resp.Session.Questions, 1)
	require.NotNil(t, resp.PersistedQuizID)
	assert.Equal(t, int64(77), *resp.PersistedQuizID)
	assert.Empty(t, resp.Error)
}

func TestJobStatus_Failed(t *testing.T) {
	job := jobs.Job{
		ID:     "job-8",
		Status: jobs.StatusFailed,
		Failure: &jobs.FailureDetail{
			Code:    jobs.CodeSchemaValidation,
			Message: "the model could not produce the requested questions",
		},
	}
	pipeline := new(mocks.Pipeline)
	pipeline.On("Status", mock.Anything, "job-8").Return(job, nil)
	router := setupRouter(pipeline)

	req := httptest.NewRequest(http.MethodGet, "/api/job-status/job-8", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp jobStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, "schema_validation_failed", resp.ErrorCode)
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, resp.Session)
}

func TestJobStatus_Unknown(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	pipeline.On("Status", mock.Anything, "missing").Return(jobs.Job{}, jobs.ErrUnknownJob)
	router := setupRouter(pipeline)

	req := httptest.NewRequest(http.MethodGet, "/api/job-status/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetQuiz(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	pipeline.On("GetQuiz", mock.Anything, int64(5)).Return(&models.Quiz{
		ID: 5, UserID: 1, Title: "History", Data: json.RawMessage(`{}`), Mode: "practice",
	}, nil)
	router := setupRouter(pipeline)

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var quiz models.Quiz
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quiz))
	assert.Equal(t, int64(5), quiz.ID)
}

func TestGetQuiz_NotFound(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	pipeline.On("GetQuiz", mock.Anything, int64(999)).Return(nil, repository.ErrQuizNotFound)
	router := setupRouter(pipeline)

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetQuiz_BadID(t *testing.T) {
	router := setupRouter(new(mocks.Pipeline))

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListQuizzes(t *testing.T) {
	pipeline := new(mocks.Pipeline)
	pipeline.On("ListQuizzes", mock.Anything, int64(42)).Return([]models.QuizSummary{
		{ID: 1, Title: "History", Mode: "practice"},
		{ID: 2, Title: "Biology", Mode: "exam"},
	}, nil)
	router := setupRouter(pipeline)

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes", nil)
	req.Header.Set("X-User-ID", "42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Quizzes []models.QuizSummary `json:"quizzes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Quizzes, 2)
}

func TestListQuizzes_RequiresUser(t *testing.T) {
	router := setupRouter(new(mocks.Pipeline))

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
