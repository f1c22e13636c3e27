// internal/validation/middleware.go
package validation

import (
	"net/http"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Clés du contexte gin renseignées par les validators
const (
	ValidatorKey         = "validator"
	ValidatedJobIDKey    = "validated_job_id"
	ValidatedCourseIDKey = "validated_course_id"
	ValidatedLessonIDKey = "validated_lesson_id"
	ValidatedRequestKey  = "validated_request"
	ValidatedListKey     = "validated_list_params"
	parsedRequestKey     = "parsed_request"
)

// RequestValidator définit une fonction de validation pour une requête
type RequestValidator func(*gin.Context, *APIValidator) *ValidationResult

// ValidateRequest est le middleware principal qui exécute une liste de validators
func ValidateRequest(validators ...RequestValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		validator := GetValidator(c)
		if validator == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Validation service unavailable"})
			c.Abort()
			return
		}

		// Exécuter toutes les validations dans l'ordre
		for _, validate := range validators {
			if result := validate(c, validator); !result.Valid {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":             "Validation failed",
					"validation_errors": result.Errors,
				})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// GetValidator récupère le validator injecté dans le contexte
func GetValidator(c *gin.Context) *APIValidator {
	if validator, exists := c.Get(ValidatorKey); exists {
		if apiValidator, ok := validator.(*APIValidator); ok {
			return apiValidator
		}
	}
	return nil
}

// idParam construit un validator de paramètre d'URL stockant l'UUID parsé sous key
func idParam(paramName, key string, parse func(*APIValidator, string) (uuid.UUID, *ValidationResult)) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		id, result := parse(v, c.Param(paramName))
		if result.Valid {
			c.Set(key, id)
		}
		return result
	}
}

// ValidateJobIDParam valide un paramètre job_id depuis l'URL
func ValidateJobIDParam(paramName string) RequestValidator {
	return idParam(paramName, ValidatedJobIDKey, (*APIValidator).ValidateJobIDParam)
}

// ValidateCourseIDParam valide un paramètre course_id depuis l'URL
func ValidateCourseIDParam(paramName string) RequestValidator {
	return idParam(paramName, ValidatedCourseIDKey, (*APIValidator).ValidateCourseIDParam)
}

// ValidateLessonIDParam valide un paramètre lesson_id depuis l'URL
func ValidateLessonIDParam(paramName string) RequestValidator {
	return idParam(paramName, ValidatedLessonIDKey, (*APIValidator).ValidateLessonIDParam)
}

// ParseJSONRequest décode le corps JSON et le stocke pour les validators suivants
func ParseJSONRequest[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid JSON format",
				"details": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(parsedRequestKey, req)
		c.Next()
	}
}

// ParseProcessRequest version spécialisée pour ProcessRequest
func ParseProcessRequest() gin.HandlerFunc {
	return ParseJSONRequest[models.ProcessRequest]()
}

// ValidateProcessRequest valide la sélection décodée par ParseProcessRequest
func ValidateProcessRequest(c *gin.Context, v *APIValidator) *ValidationResult {
	raw, exists := c.Get(parsedRequestKey)
	req, ok := raw.(models.ProcessRequest)
	if !exists || !ok {
		return &ValidationResult{Valid: false, Errors: []*ValidationError{{
			Field: "json", Message: "JSON parsing failed", Code: "JSON_PARSE_ERROR",
		}}}
	}

	result := v.ValidateProcessRequest(&req)
	if result.Valid {
		c.Set(ValidatedRequestKey, req)
	}
	return result
}

// ValidateListJobsParams valide les filtres owner et status depuis les query params
func ValidateListJobsParams(c *gin.Context, v *APIValidator) *ValidationResult {
	params, result := v.ValidateListJobsParams(c.Query("owner"), c.Query("status"))
	if result.Valid {
		c.Set(ValidatedListKey, *params)
	}
	return result
}

// CombineValidators combine plusieurs validators (tous doivent passer)
func CombineValidators(validators ...RequestValidator) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		for _, validator := range validators {
			if result := validator(c, v); !result.Valid {
				return result // Arrêter à la première erreur
			}
		}
		return &ValidationResult{Valid: true}
	}
}
