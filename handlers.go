package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bombersbar/backend/models"
	"github.com/bombersbar/backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
)

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// respondError maps model errors onto the REST status conventions:
// missing rows 404, duplicates 409, infrastructure failures 500 with a
// generic message, everything else a 400 with the error text.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, models.ErrDuplicateSRPRequest) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if isInfrastructureError(err) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// isInfrastructureError picks out failures the caller cannot fix by
// changing the request: database errors surfacing from the driver and
// cancelled or timed out contexts.
func isInfrastructureError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 23 is an integrity constraint violation (duplicate row,
		// bad reference), which the caller can fix.
		return !strings.HasPrefix(pgErr.Code, "23")
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
