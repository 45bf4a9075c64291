package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"yt-transcripts/app/model"
	"yt-transcripts/app/repository"
	"yt-transcripts/app/youtube"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", youtube.ErrPlaylistNotFound), http.StatusNotFound},
		{model.ErrDuplicateInFlight, http.StatusBadRequest},
		{fmt.Errorf("3 attempts: %w", youtube.ErrTranscriptsDisabled), http.StatusBadRequest},
		{youtube.ErrNoTranscriptFound, http.StatusBadRequest},
		{fmt.Errorf("2 attempts: %w", youtube.ErrRetrievalFailed), http.StatusBadRequest},
		{youtube.ErrSourceUnavailable, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestParsePage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  repository.Page
	}{
		{"", repository.Page{Number: 1, Size: DefaultPageSize}},
		{"page=3", repository.Page{Number: 3, Size: DefaultPageSize}},
		{"page=-1&page_size=abc", repository.Page{Number: 1, Size: DefaultPageSize}},
		{"page_size=1000", repository.Page{Number: 1, Size: maxPageSize}},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		assert.Equal(t, tt.want, parsePage(c), tt.query)
	}
}
