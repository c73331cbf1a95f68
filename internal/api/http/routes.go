package httpapi

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/covid19-stats/internal/covid"
	"github.com/i474232898/covid19-stats/internal/store"
)

var validate = validator.New()

// StatusSource exposes the refresh state machine for the status endpoint.
type StatusSource interface {
	State() covid.CycleState
	Running() bool
	History(n int) []covid.BuildReport
	LastSuccess() (covid.BuildReport, bool)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *covid.Service, status StatusSource) {
	v2 := app.Group("/api/v2")

	v2.Get("/status", func(c *fiber.Ctx) error {
		var q statusQuery
		q.Limit = c.QueryInt("limit", 5)
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		body := fiber.Map{
			"state":   status.State(),
			"running": status.Running(),
			"history": status.History(q.Limit),
		}
		if last, ok := status.LastSuccess(); ok {
			body["lastSuccess"] = last
		}
		return c.JSON(body)
	})

	v2.Get("/current", func(c *fiber.Ctx) error {
		res, err := service.Current()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(res)
	})

	v2.Get("/current/:country", func(c *fiber.Ctx) error {
		var q countryQuery
		country, err := url.PathUnescape(c.Params("country"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed country")
		}
		q.Country = country
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, found, err := service.Country(q.Country)
		if err != nil {
			return toHTTPError(err)
		}
		if !found {
			return fiber.NewError(fiber.StatusNotFound, "no data for country "+strconv.Quote(q.Country))
		}
		return c.JSON(res)
	})

	v2.Get("/total", func(c *fiber.Ctx) error {
		res, err := service.Total()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(res)
	})

	v2.Get("/timeseries/US/:case", func(c *fiber.Ctx) error {
		q := usSeriesQuery{Case: c.Params("case"), State: c.Query("state")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, found, err := service.USTimeSeries(q.State, covid.Metric(q.Case))
		if err != nil {
			return toHTTPError(err)
		}
		if !found {
			return fiber.NewError(fiber.StatusNotFound, "no US data for state "+strconv.Quote(q.State))
		}
		return c.JSON(res)
	})

	v2.Get("/timeseries/:case", func(c *fiber.Ctx) error {
		q := seriesQuery{Case: c.Params("case")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if q.Case == "global" {
			res, err := service.GlobalTimeSeries()
			if err != nil {
				return toHTTPError(err)
			}
			return c.JSON(res)
		}

		res, err := service.MetricTimeSeries(covid.Metric(q.Case))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(res)
	})

	v2.Get("/:metric", func(c *fiber.Ctx) error {
		q := metricQuery{Metric: c.Params("metric")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "unknown resource "+strconv.Quote(q.Metric))
		}

		res, err := service.MetricTotal(covid.Metric(q.Metric))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(res)
	})
}

// toHTTPError maps domain errors onto HTTP status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotReady):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, covid.ErrUnsupportedMetric):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to query snapshot")
	}
}

type statusQuery struct {
	Limit int `validate:"min=0,max=100"`
}

type countryQuery struct {
	Country string `validate:"required,max=64"`
}

type metricQuery struct {
	Metric string `validate:"oneof=confirmed deaths recovered active"`
}

type seriesQuery struct {
	Case string `validate:"oneof=global confirmed deaths recovered"`
}

type usSeriesQuery struct {
	Case  string `validate:"oneof=confirmed deaths recovered"`
	State string `validate:"max=64"`
}
