package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/studyhub/materials-portal/internal/api/metrics"
	"github.com/studyhub/materials-portal/internal/core/domain"
	"github.com/studyhub/materials-portal/internal/core/ports"
)

const (
	// multipartMemory is how much of a multipart body is held in RAM; the
	// rest of the file part spills to a temporary file.
	multipartMemory = 1 << 20
	// multipartOverhead allows for boundaries and the text fields on top of
	// the file itself.
	multipartOverhead = 1 << 20
)

type MaterialHandler struct {
	materialService ports.MaterialService
	maxUploadBytes  int64
	log             zerolog.Logger
}

func NewMaterialHandler(materialService ports.MaterialService, maxUploadBytes int64, log zerolog.Logger) *MaterialHandler {
	return &MaterialHandler{
		materialService: materialService,
		maxUploadBytes:  maxUploadBytes,
		log:             log,
	}
}

// Upload stores a file under a branch and records its metadata.
//
// @Summary      Upload a study material
// @Tags         materials
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        branch    formData  string  true  "Branch, e.g. CSE"
// @Param        semester  formData  string  true  "Semester"
// @Param        file      formData  file    true  "File to upload"
// @Success      201  {object}  domain.Material
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/materials [post]
func (h *MaterialHandler) Upload(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	m, err := h.upload(c, identity)
	if err != nil {
		he := HTTPError(err)
		if errors.Is(err, domain.ErrStorage) {
			h.log.Error().Err(err).
				Str("user_id", identity.UserID).
				Msg("upload failed")
			he = echo.NewHTTPError(http.StatusBadRequest, "upload failed").SetInternal(err)
		}
		metrics.UploadsTotal.WithLabelValues(metrics.ResultOf(he.Code)).Inc()
		return he
	}

	metrics.UploadsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.UploadSizeBytes.Observe(float64(m.Size))
	return c.JSON(http.StatusCreated, m)
}

func (h *MaterialHandler) upload(c echo.Context, identity *domain.Identity) (*domain.Material, error) {
	req := c.Request()
	limit := h.maxUploadBytes + multipartOverhead
	if req.ContentLength > limit {
		return nil, domain.ErrFileTooLarge
	}
	req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)

	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, domain.ErrFileTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			return nil, domain.ErrNoFileProvided
		default:
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart body").SetInternal(err)
		}
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	input := ports.UploadInput{
		Branch:   c.FormValue("branch"),
		Semester: c.FormValue("semester"),
		Identity: *identity,
		Size:     -1,
	}

	fh, err := c.FormFile("file")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open multipart file: %w", domain.ErrStorage, err)
		}
		defer f.Close()
		input.File = f
		input.OriginalName = fh.Filename
		input.MimeType = fh.Header.Get(echo.HeaderContentType)
		input.Size = fh.Size
	case errors.Is(err, http.ErrMissingFile):
	default:
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid file part").SetInternal(err)
	}

	return h.materialService.Upload(req.Context(), input)
}

// List returns the materials of one branch in upload order.
//
// @Summary      List materials by branch
// @Tags         materials
// @Produce      json
// @Security     BearerAuth
// @Param        branch  path      string  true  "Branch"
// @Success      200     {array}   domain.Material
// @Failure      401     {object}  map[string]string
// @Router       /api/materials/{branch} [get]
func (h *MaterialHandler) List(c echo.Context) error {
	branch, err := pathParam(c, "branch")
	if err != nil {
		return HTTPError(err)
	}

	materials, err := h.materialService.ListByBranch(c.Request().Context(), branch)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, materials)
}

// Download streams a stored file as an attachment.
//
// @Summary      Download a material
// @Tags         materials
// @Produce      octet-stream
// @Param        branch    path      string  true  "Branch"
// @Param        filename  path      string  true  "Stored file name"
// @Param        token     query     string  true  "JWT issued at login"
// @Success      200       {file}    file
// @Failure      400       {object}  map[string]string
// @Failure      401       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /api/download/{branch}/{filename} [get]
func (h *MaterialHandler) Download(c echo.Context) error {
	target, err := h.resolve(c)
	if err != nil {
		he := HTTPError(err)
		metrics.DownloadsTotal.WithLabelValues(metrics.ResultOf(he.Code)).Inc()
		return he
	}

	metrics.DownloadsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	c.Response().Header().Set(echo.HeaderContentType, target.MimeType)
	return c.Attachment(target.Path, target.OriginalName)
}

func (h *MaterialHandler) resolve(c echo.Context) (*ports.DownloadTarget, error) {
	branch, err := pathParam(c, "branch")
	if err != nil {
		return nil, err
	}
	fileName, err := pathParam(c, "filename")
	if err != nil {
		return nil, err
	}
	return h.materialService.ResolveDownload(c.Request().Context(), branch, fileName)
}

// pathParam returns the decoded value of a route parameter. Echo matches on
// the raw path when the request contains escaped characters such as %2F, in
// which case the parameter is still escaped.
func pathParam(c echo.Context, name string) (string, error) {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return v, nil
	}
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, domain.ErrInvalidPath)
	}
	return decoded, nil
}

