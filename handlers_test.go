package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bombersbar/backend/models"
	"github.com/bombersbar/backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestRespondError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{"missing row", utils.ErrorRecordNotFound, http.StatusNotFound},
		{"duplicate srp request", models.ErrDuplicateSRPRequest, http.StatusConflict},
		{"driver failure", &pgconn.PgError{Code: "57P01", Message: "terminating connection"}, http.StatusInternalServerError},
		{"constraint violation", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, http.StatusBadRequest},
		{"context deadline", context.DeadlineExceeded, http.StatusInternalServerError},
		{"context cancelled", context.Canceled, http.StatusInternalServerError},
		{"domain error", errors.New("fleet has already started"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			respondError(c, tc.err)
			if rec.Code != tc.expected {
				t.Fatalf("expected %d, got %d", tc.expected, rec.Code)
			}
		})
	}
}

func TestRespondError_HidesDriverDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	respondError(c, &pgconn.PgError{Code: "53300", Message: "too many connections"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "too many connections") {
		t.Fatal("driver message should not reach the client")
	}
}
