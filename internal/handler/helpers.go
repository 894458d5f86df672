package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps a domain error to its HTTP status and envelope. Shortage
// details ride along for insufficient-inventory rejections so the UI can show
// which lines fell short.
func respondError(c *gin.Context, err error) {
	code := apierror.CodeFor(err)

	status := http.StatusInternalServerError
	switch code {
	case apierror.CodeValidation:
		status = http.StatusUnprocessableEntity
	case apierror.CodeNotFound:
		status = http.StatusNotFound
	case apierror.CodeInsufficientInventory, apierror.CodeInvalidTransition:
		status = http.StatusConflict
	case apierror.CodeGatewayUnavailable:
		status = http.StatusServiceUnavailable
	}

	envelope := apierror.NewCoded(code, err.Error())

	var ii *apierror.InsufficientInventoryError
	if errors.As(err, &ii) {
		c.JSON(status, gin.H{
			"detail":    envelope.Detail,
			"code":      envelope.Code,
			"retryable": envelope.Retryable,
			"shortages": ii.Lines,
		})
		return
	}
	var pf *apierror.PartialFailureError
	if errors.As(err, &pf) {
		c.JSON(status, gin.H{
			"detail":          envelope.Detail,
			"code":            envelope.Code,
			"retryable":       envelope.Retryable,
			"pipeline_id":     pf.PipelineID,
			"failed_step":     pf.FailedStep,
			"completed_steps": pf.CompletedSteps,
		})
		return
	}

	if code == apierror.CodeInternal {
		// Do not leak driver or infrastructure details.
		envelope.Detail = "internal server error"
	}
	c.JSON(status, envelope)
}
