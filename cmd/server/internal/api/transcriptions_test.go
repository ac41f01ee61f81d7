package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/audioscribe/cmd/server/internal/dedupe"
	"github.com/houzhh15/audioscribe/cmd/server/internal/enrich"
	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator"
)

type fakeRunner struct {
	state    *orchestrator.State
	err      error
	gotPath  string
	existed  bool
	contents []byte
}

func (f *fakeRunner) Run(_ context.Context, path string) (*orchestrator.State, error) {
	f.gotPath = path
	data, err := os.ReadFile(path)
	f.existed = err == nil
	f.contents = data
	return f.state, f.err
}

func okState() *orchestrator.State {
	now := time.Now()
	return &orchestrator.State{
		RunID:            "run-42",
		RawTranscript:    "Hello. Hello",
		Transcript:       dedupe.Transcript{Sentences: []string{"Hello"}},
		DetectedLanguage: "en",
		TargetLanguage:   "pt",
		Stages: map[enrich.StageName]enrich.StageResult{
			enrich.StageTranslate:          enrich.Succeeded(enrich.StageTranslate, "Olá", 0),
			enrich.StageEdit:               enrich.Succeeded(enrich.StageEdit, "Olá.", 0),
			enrich.StageSummarize:          enrich.Failed(enrich.StageSummarize, errors.New("timeout"), 0),
			enrich.StageExtractActionItems: enrich.Succeeded(enrich.StageExtractActionItems, "none", 0),
		},
		ActionItems: []string{},
		StartedAt:   now,
		FinishedAt:  now,
	}
}

func upload(t *testing.T, h *TranscriptionHandler, filename string, body []byte, query string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := gin.New()
	r.POST("/api/v1/transcriptions", h.Create)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions"+query, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateTranscription_JSON(t *testing.T) {
	runner := &fakeRunner{state: okState()}
	h := NewTranscriptionHandler(runner, t.TempDir(), 1, nil)

	w := upload(t, h, "meeting.mp3", []byte("ID3 audio bytes"), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res orchestrator.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "run-42", res.RunID)
	assert.Equal(t, "meeting.mp3", res.SourceFile)
	assert.Equal(t, "Olá", res.TranslatedText)
	assert.Empty(t, res.Summary)
	assert.True(t, res.Partial)

	assert.True(t, runner.existed)
	assert.Equal(t, []byte("ID3 audio bytes"), runner.contents)
	_, err := os.Stat(runner.gotPath)
	assert.True(t, os.IsNotExist(err), "upload is removed after the run")
}

func TestCreateTranscription_Markdown(t *testing.T) {
	h := NewTranscriptionHandler(&fakeRunner{state: okState()}, t.TempDir(), 1, nil)

	w := upload(t, h, "meeting.wav", []byte("RIFF"), "?format=markdown")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "## Summary\n\n_stage unavailable_")
}

func TestCreateTranscription_FatalErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"decode", orchestrator.NewDecodeError(errors.New("bad codec")), http.StatusUnprocessableEntity, "DECODE_FAILED"},
		{"invalid", orchestrator.NewInvalidInputError(errors.New("empty")), http.StatusUnprocessableEntity, "INVALID_INPUT"},
		{"transcription", orchestrator.NewTranscriptionError(errors.New("whisper down")), http.StatusBadGateway, "TRANSCRIPTION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTranscriptionHandler(&fakeRunner{err: tt.err}, t.TempDir(), 1, nil)
			w := upload(t, h, "a.wav", []byte("RIFF"), "")

			assert.Equal(t, tt.status, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
		})
	}

	t.Run("unexpected error", func(t *testing.T) {
		h := NewTranscriptionHandler(&fakeRunner{err: errors.New("disk full")}, t.TempDir(), 1, nil)
		w := upload(t, h, "a.wav", []byte("RIFF"), "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestCreateTranscription_BadRequests(t *testing.T) {
	runner := &fakeRunner{state: okState()}
	h := NewTranscriptionHandler(runner, t.TempDir(), 1, nil)

	w := upload(t, h, "", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, h, "notes.txt", []byte("hello"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")

	w = upload(t, h, "big.wav", bytes.Repeat([]byte{0}, 2<<20), "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	assert.Empty(t, runner.gotPath, "runner is not called for rejected uploads")
}
