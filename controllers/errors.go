package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yeremiapane/table-reservations/services"
	"github.com/yeremiapane/table-reservations/utils"
)

var errInternal = errors.New("internal server error")

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrInvalidTime),
		errors.Is(err, services.ErrInvalidPartySize),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNoAvailability),
		errors.Is(err, services.ErrTableUnavailable),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrSlotBusy):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondServiceError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		utils.ErrorLogger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.RespondErrorDetail(c, code, errInternal, services.Detail(err))
		return
	}
	utils.RespondErrorDetail(c, code, err, services.Detail(err))
}

// fieldKinds names the error kind reported when request binding rejects a
// field, so malformed input is described the same way as a failed rule.
var fieldKinds = map[string]string{
	"date":       "InvalidDate",
	"time":       "InvalidTime",
	"party_size": "InvalidPartySize",
	"status":     "InvalidStatus",
}

func respondBindingError(c *gin.Context, err error) {
	detail := map[string]string{"kind": "InvalidRequest", "reason": err.Error()}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		detail["field"] = fe.Field()
		detail["reason"] = fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag())
		if kind, ok := fieldKinds[fe.Field()]; ok {
			detail["kind"] = kind
		}
	}
	utils.RespondErrorDetail(c, http.StatusBadRequest, err, detail)
}
