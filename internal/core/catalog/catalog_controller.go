package catalog

import (
	"net/http"
	"strconv"

	"github.com/codegouvfr/sill-sync/internal/database/models"
	"github.com/codegouvfr/sill-sync/internal/utils"
	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
)

type softwareReader interface {
	All() ([]models.Software, error)
	GetByID(id int) (models.Software, error)
}

type sourceReader interface {
	GetAll() ([]models.Source, error)
}

type externalDataReader interface {
	GetBySoftwareID(softwareID int) ([]models.SoftwareExternalData, error)
}

type extraDataReader interface {
	GetBySoftwareID(softwareID int) (*models.OtherSoftwareExtraData, error)
}

// Controller serves the read-only catalog API. Writes go through the batch
// pipeline, never through HTTP.
type Controller struct {
	softwares    softwareReader
	sources      sourceReader
	externalData externalDataReader
	extraData    extraDataReader
}

func NewController(softwares softwareReader, sources sourceReader, externalData externalDataReader, extraData extraDataReader) *Controller {
	return &Controller{
		softwares:    softwares,
		sources:      sources,
		externalData: externalData,
		extraData:    extraData,
	}
}

func (c *Controller) Register(e *echo.Echo) {
	e.GET("/health", c.Health)
	e.GET("/api/softwares", c.ListSoftwares)
	e.GET("/api/softwares/:id", c.GetSoftware)
	e.GET("/api/sources", c.ListSources)
}

func (c *Controller) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

type softwareListItem struct {
	models.Software
	Slug       string `json:"slug"`
	IsEnriched bool   `json:"isEnriched"`
}

func (c *Controller) ListSoftwares(ctx echo.Context) error {
	softwares, err := c.softwares.All()
	if err != nil {
		return err
	}

	items := utils.Map(softwares, func(software models.Software) softwareListItem {
		return softwareListItem{
			Software:   software,
			Slug:       slug.Make(software.Name),
			IsEnriched: software.LastExtraDataFetchAt != nil,
		}
	})
	return ctx.JSON(http.StatusOK, items)
}

type softwareDetail struct {
	models.Software
	Slug         string                         `json:"slug"`
	ExternalData []models.SoftwareExternalData  `json:"externalData"`
	ExtraData    *models.OtherSoftwareExtraData `json:"extraData"`
}

func (c *Controller) GetSoftware(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid software id")
	}

	software, err := c.softwares.GetByID(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "software not found")
	}

	externalData, err := c.externalData.GetBySoftwareID(id)
	if err != nil {
		return err
	}
	extraData, err := c.extraData.GetBySoftwareID(id)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, softwareDetail{
		Software:     software,
		Slug:         slug.Make(software.Name),
		ExternalData: externalData,
		ExtraData:    extraData,
	})
}

func (c *Controller) ListSources(ctx echo.Context) error {
	sources, err := c.sources.GetAll()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sources)
}
