package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizlive-backend/internal/apperr"

	"github.com/gin-gonic/gin"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: missing token", apperr.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("%w: not your session", apperr.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: session", apperr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: already answered", apperr.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: session finished", apperr.ErrGone), http.StatusGone},
		{fmt.Errorf("%w: nickname required", apperr.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: no free join codes", apperr.ErrResourceExhausted), http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)
		if w.Code != tc.want {
			t.Errorf("respondError(%v) = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}
