package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/controller"
	"github.com/nimburion/tutoradmin/pkg/requeststate"
)

// listQuery holds the list controls shared by every list endpoint.
type listQuery struct {
	Page     int
	PageSize int
	Search   string
}

// parseListQuery reads page, page_size and search. Missing values are zero
// and get defaults from the service.
func parseListQuery(c *gin.Context) (listQuery, error) {
	page, err := intQuery(c, "page")
	if err != nil {
		return listQuery{}, err
	}
	pageSize, err := intQuery(c, "page_size")
	if err != nil {
		return listQuery{}, err
	}
	return listQuery{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	}, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, controller.NewValidationError(name, "must be an integer", raw, err)
	}
	return n, nil
}

// bindJSON decodes the request body into dst.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return wrapBodyError(err)
	}
	return nil
}

// wrapBodyError turns a body read or decode failure into a 400, except for
// oversized bodies, which keep their error so they map to 413.
func wrapBodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return controller.NewBadRequestError("request body is malformed", err)
}

func notFound(c *gin.Context) {
	controller.Error(c, controller.NewError("route.not_found", nil).
		WithMessage("no route matches "+c.Request.Method+" "+c.Request.URL.Path).
		WithHTTPStatus(http.StatusNotFound))
}

func methodNotAllowed(c *gin.Context) {
	controller.Error(c, controller.NewError("route.method_not_allowed", nil).
		WithMessage("method "+c.Request.Method+" is not allowed on "+c.Request.URL.Path).
		WithHTTPStatus(http.StatusMethodNotAllowed))
}

// requestStates lists the lifecycle state of every operation the services ran.
func requestStates(tracker *requeststate.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		controller.Success(c, tracker.Snapshot())
	}
}
