package analytics

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/seller-analytics/internal/common"
	"github.com/noah-isme/seller-analytics/internal/sellerstats"
)

const defaultMaxBodyBytes = 10 << 20

// Handler exposes the seller report endpoint.
type Handler struct {
	Svc          *Service
	Validate     *validator.Validate
	MaxBodyBytes int64
}

type sellerReportRequest struct {
	Sellers         []sellerstats.Seller         `json:"sellers" validate:"required,min=1"`
	Products        []sellerstats.Product        `json:"products" validate:"required,min=1"`
	PurchaseRecords []sellerstats.PurchaseRecord `json:"purchase_records" validate:"required,min=1"`
}

type fieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Sellers computes the seller report for the posted dataset.
func (h *Handler) Sellers(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return
	}
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}

	var req *sellerReportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && isShapeField(typeErr.Field) {
			field := typeErr.Field
			if field == "" {
				field = "data"
			}
			common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", field+" must be "+shapeOf(field), nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if req == nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "data is required", nil)
		return
	}
	if violations := h.validate(req); len(violations) > 0 {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid dataset", violations)
		return
	}

	report, err := h.Svc.SellerReport(r.Context(), &sellerstats.Dataset{
		Sellers:         req.Sellers,
		Products:        req.Products,
		PurchaseRecords: req.PurchaseRecords,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

// isShapeField reports whether a decode type error concerns the dataset itself or one of its
// collections rather than a value nested inside a record.
func isShapeField(field string) bool {
	switch field {
	case "", "sellers", "products", "purchase_records":
		return true
	}
	return false
}

func shapeOf(field string) string {
	if field == "data" {
		return "an object"
	}
	return "an array"
}

func (h *Handler) validate(req *sellerReportRequest) []fieldViolation {
	v := h.Validate
	if v == nil {
		v = NewValidator()
	}
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldViolation{{Field: "data", Rule: err.Error()}}
	}
	out := make([]fieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldViolation{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
