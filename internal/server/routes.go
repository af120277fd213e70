package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"shama-game/internal/database"
)

// ResultStore is the read side of the match history.
type ResultStore interface {
	GetAll(ctx context.Context) ([]database.Match, error)
	GetByID(ctx context.Context, id string) (database.MatchDetail, error)
	GetByPlayer(ctx context.Context, playerName string) ([]database.Match, error)
	PlayerStats(ctx context.Context, playerName string) (database.PlayerStats, error)
	Tricks(ctx context.Context, matchID string, deal int) ([]database.Trick, error)
	Events(ctx context.Context, matchID string) ([]database.Event, error)
}

// NewRouter wires the websocket endpoint, the results API and static files.
func NewRouter(hub *Hub, db ResultStore, staticDir string, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Debug("request", fields...)
			return nil
		},
	}))

	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	e.GET("/ws", func(c echo.Context) error {
		ServeWs(hub, c.Response(), c.Request())
		return nil
	})

	h := resultsHandler{db: db}
	api := e.Group("/api")
	api.GET("/results", h.list)
	api.GET("/results/player/:name", h.byPlayer)
	api.GET("/results/:id", h.byID)
	api.GET("/results/:id/events", h.events)
	api.GET("/results/:id/deals/:deal/tricks", h.tricks)
	api.GET("/players/:name/stats", h.stats)

	if staticDir != "" {
		e.Static("/", staticDir)
	}
	return e
}

type resultsHandler struct {
	db ResultStore
}

func (h resultsHandler) list(c echo.Context) error {
	results, err := h.db.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch results").SetInternal(err)
	}
	if results == nil {
		results = []database.Match{}
	}
	return c.JSON(http.StatusOK, results)
}

func (h resultsHandler) byID(c echo.Context) error {
	result, err := h.db.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return notFoundOr500(err, "No match with this id")
	}
	return c.JSON(http.StatusOK, result)
}

func (h resultsHandler) byPlayer(c echo.Context) error {
	player := c.Param("name")
	if player == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Player name is required")
	}
	results, err := h.db.GetByPlayer(c.Request().Context(), player)
	if err != nil {
		return notFoundOr500(err, "No results found for player")
	}
	return c.JSON(http.StatusOK, results)
}

func (h resultsHandler) stats(c echo.Context) error {
	stats, err := h.db.PlayerStats(c.Request().Context(), c.Param("name"))
	if err != nil {
		return notFoundOr500(err, "No results found for player")
	}
	return c.JSON(http.StatusOK, stats)
}

func (h resultsHandler) tricks(c echo.Context) error {
	deal, err := strconv.Atoi(c.Param("deal"))
	if err != nil || deal < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "Deal must be a positive number")
	}
	tricks, err := h.db.Tricks(c.Request().Context(), c.Param("id"), deal)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch tricks").SetInternal(err)
	}
	if len(tricks) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No tricks for this deal")
	}
	return c.JSON(http.StatusOK, tricks)
}

func (h resultsHandler) events(c echo.Context) error {
	events, err := h.db.Events(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch events").SetInternal(err)
	}
	if len(events) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No events for this match")
	}
	return c.JSON(http.StatusOK, events)
}

func notFoundOr500(err error, notFound string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch results").SetInternal(err)
}

// Shutdown stops the HTTP server, waiting up to timeout for open requests.
func Shutdown(e *echo.Echo, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.Shutdown(ctx)
}
