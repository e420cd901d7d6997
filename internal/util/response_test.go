package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError_MapsSentinels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("publish draft d1: %w", ErrDraftNotFound), http.StatusNotFound},
		{ErrStagedMediaGone, http.StatusNotFound},
		{fmt.Errorf("save draft: %w", ErrVersionConflict), http.StatusConflict},
		{ErrEmailRegistered, http.StatusConflict},
		{ErrInvalidCredential, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{fmt.Errorf("publish draft d1: %w", ErrStagedMediaOwner), http.StatusForbidden},
		{ErrInvalidProgress, http.StatusBadRequest},
		{ErrMediaTooLarge, http.StatusRequestEntityTooLarge},
		{ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{ErrTooManyRequests, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		HandleError(c, tc.err)

		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tc.code, resp.Code)
	}
}

func TestSafeFilename(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "20240601080000_my-diagram.png", SafeFilename("My Diagram.PNG", now))
	assert.Equal(t, "20240601080000_file.mp4", SafeFilename("???.mp4", now))
}

func TestSniffMimeType_KeepsContent(t *testing.T) {
	data := []byte("\x89PNG\r\n\x1a\nrest-of-file")
	mime, r, err := SniffMimeType(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, IsImage(mime))

	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, all)
}
