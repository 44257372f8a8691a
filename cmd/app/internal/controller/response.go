package controller

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"exppro-backend/internal/service"
)

func init() {
	// Report validation failures under the JSON field names clients sent.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	}
}

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{service.MsgBadCredentials}})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "Request entity too large."})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindJSON decodes the body into obj and writes a 400 when it does not fit.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &service.ValidationError{}
		for _, fe := range verrs {
			out.Add(fe.Field(), fieldMessage(fe))
		}
		return out
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return service.NewValidationError(typeErr.Field, "Incorrect type. Expected "+typeErr.Type.String()+".")
	}
	return service.NewValidationError("non_field_errors", "JSON parse error - "+err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return service.MsgRequired
	case "email":
		return service.MsgInvalidEmail
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "gte":
		return "Ensure this value is greater than or equal to " + fe.Param() + "."
	default:
		return "Invalid value."
	}
}

// readPayload decodes the request body as a JSON object.
func readPayload(c *gin.Context) (service.Payload, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	body, err := service.ParsePayload(raw)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return body, true
}

// pathID parses the :id route parameter. Anything non-numeric cannot name a
// row, so it is reported as not found.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, name string, verr *service.ValidationError) *uint {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		verr.Add(name, "A valid integer is required.")
		return nil
	}
	v := uint(n)
	return &v
}

func queryBool(c *gin.Context, name string, verr *service.ValidationError) *bool {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		verr.Add(name, service.MsgNotABoolean)
		return nil
	}
	return &b
}

// mediaURL builds absolute links for stored media paths from the request
// that is being answered.
func mediaURL(c *gin.Context, prefix string) func(string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	base := scheme + "://" + c.Request.Host + prefix
	return func(path string) string {
		if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			return path
		}
		return base + strings.TrimPrefix(path, "/")
	}
}
