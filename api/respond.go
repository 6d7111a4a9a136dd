package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"menu-service/services"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	codeBadRequest      = "BAD_REQUEST"
	codeValidation      = "VALIDATION_ERROR"
	codeEmptyUpdate     = "EMPTY_UPDATE"
	codeConflict        = "CONFLICT"
	codeInternal        = "INTERNAL_ERROR"
	codeMenuNotFound    = "MENU_NOT_FOUND"
	codeSubmenuNotFound = "SUBMENU_NOT_FOUND"
	codeDishNotFound    = "DISH_NOT_FOUND"
)

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// DeleteResult is the body of a successful DELETE.
type DeleteResult struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, meta map[string]string) {
	writeJSON(w, status, &ErrorEnvelope{Message: message, Code: code, Meta: meta})
}

// decode reads the JSON body into dst and validates it. It writes the error
// response itself and reports false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body", nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error(), nil)
			return false
		}
		meta := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			meta[fe.Field()] = fe.Tag()
		}
		writeError(w, http.StatusUnprocessableEntity, codeValidation, "validation failed", meta)
		return false
	}
	return true
}

// entityErrors names the not-found response for one level of the hierarchy.
type entityErrors struct {
	code    string
	message string
}

var (
	menuErrors    = entityErrors{codeMenuNotFound, "menu not found"}
	submenuErrors = entityErrors{codeSubmenuNotFound, "submenu not found"}
	dishErrors    = entityErrors{codeDishNotFound, "dish not found"}
)

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, e entityErrors) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, e.code, e.message, nil)
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusConflict, codeConflict, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidID):
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error(), nil)
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error", nil)
	}
}
