package common

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes err as a JSON error response and aborts the chain. Storage
// details are logged and only echoed back in debug mode.
func Fail(c *gin.Context, err error) {
	kind := KindOf(err)
	body := gin.H{"kind": kind}

	if kind == KindStorage {
		Logf(c, "storage error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		body["error"] = "internal error"
		if gin.IsDebugging() {
			body["detail"] = err.Error()
		}
	} else {
		var e *Error
		errors.As(err, &e)
		body["error"] = e.Message
	}

	c.AbortWithStatusJSON(StatusFor(kind), body)
}

// Bind decodes the JSON body into obj.
func Bind(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return Invalid(err)
	}
	return nil
}

// ParamID parses a positive numeric path parameter.
func ParamID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, Validation("invalid %s", name)
	}
	return uint(id), nil
}

// QueryInt reads an integer query parameter, returning fallback when the
// parameter is absent or malformed.
func QueryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
