package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"coverletter-service/internal/api/middleware"
	"coverletter-service/internal/api/validation"
	"coverletter-service/internal/coverletter"
	"coverletter-service/internal/logging"
	"coverletter-service/internal/upload"
	"coverletter-service/pkg/models"
)

// CoverLetterGenerator is the generation core as seen by transports
type CoverLetterGenerator interface {
	Generate(ctx context.Context, req *coverletter.Request) (*coverletter.Result, error)
}

var formValidator = validation.New()

// GenerateHandler handles POST /api/generate
func GenerateHandler(generator CoverLetterGenerator, store *upload.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.GetRequestID(c)
		logger := logging.LogWithRequestID(requestID)

		var form models.GenerateForm
		if err := c.Bind(&form); err != nil {
			logger.Warn("Failed to parse generation request", map[string]interface{}{"error": err.Error()})
			if isBodyTooLarge(err) {
				return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "Request body too large"})
			}
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid request",
				Details: "Request body must be multipart/form-data",
			})
		}

		fileHeader, err := c.FormFile("cv")
		hasFile := err == nil
		if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			logger.Warn("Failed to read uploaded file", map[string]interface{}{"error": err.Error()})
			if isBodyTooLarge(err) {
				return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "Request body too large"})
			}
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid request",
				Details: "Could not read uploaded file",
			})
		}

		logger.Info("Received generation request", map[string]interface{}{
			"job_title": form.JobTitle,
			"company":   form.Company,
			"has_file":  hasFile,
		})

		if err := formValidator.Struct(&form); err != nil {
			return validationFailed(c, err)
		}

		inventiveness, _ := validation.ParseSlider(form.Inventiveness, coverletter.DefaultInventiveness)
		humor, _ := validation.ParseSlider(form.Humor, coverletter.DefaultHumor)

		req := &coverletter.Request{
			JobTitle:      form.JobTitle,
			Company:       form.Company,
			Inventiveness: inventiveness,
			Humor:         humor,
		}

		if hasFile {
			staged, err := store.Save(fileHeader)
			if err != nil {
				return uploadFailed(c, logger, err)
			}
			defer func() {
				if err := staged.Remove(); err != nil {
					logger.Warn("Failed to remove staged upload", map[string]interface{}{
						"path":  staged.Path,
						"error": err.Error(),
					})
				}
			}()
			req.CVPath = staged.Path
		}

		result, err := generator.Generate(c.Request().Context(), req)
		if err != nil {
			return generationFailed(c, err)
		}

		return c.JSON(http.StatusOK, models.GenerateResponse{CoverLetter: result.CoverLetter})
	}
}

// isBodyTooLarge reports whether err came from the body size limit.
// echo.HTTPError unwraps to its internal error.
func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func validationFailed(c echo.Context, err error) error {
	fields := validation.FieldErrors(err)
	if fields == nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Details: err.Error()})
	}

	_, jobTitleMissing := fields["jobTitle"]
	_, companyMissing := fields["company"]
	if jobTitleMissing || companyMissing {
		missing := &coverletter.MissingFieldsError{JobTitle: jobTitleMissing, Company: companyMissing}
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing required fields",
			Details: missing.Details(),
		})
	}

	details := make(map[string]string, len(fields))
	for field := range fields {
		details[field] = "must be an integer between 0 and 100"
	}
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request", Details: details})
}

func uploadFailed(c echo.Context, logger logging.Logger, err error) error {
	switch {
	case errors.Is(err, upload.ErrNotPDF):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Only PDF files are allowed"})
	case errors.Is(err, upload.ErrTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "Uploaded file is too large"})
	default:
		logger.Error("Failed to stage uploaded file", map[string]interface{}{"error": err.Error()})
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to process uploaded file"})
	}
}

func generationFailed(c echo.Context, err error) error {
	var missing *coverletter.MissingFieldsError
	if errors.As(err, &missing) {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing required fields",
			Details: missing.Details(),
		})
	}

	if errors.Is(c.Request().Context().Err(), context.DeadlineExceeded) {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: "Request timed out",
			Type:  "timeout",
		})
	}

	var genErr *coverletter.GenerationError
	if errors.As(err, &genErr) {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to generate cover letter",
			Details: genErr.Message,
			Type:    genErr.Type,
		})
	}

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "Failed to generate cover letter",
		Details: err.Error(),
	})
}
