// Package scoreserver serves the in-process scorer over HTTP as POST /score.
package scoreserver

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lox/receipt-matcher/internal/scoring"
)

// Server is the scoring delegate HTTP service
type Server struct {
	scorer scoring.Scorer
	logger *log.Logger
	app    *fiber.App
}

func New(scorer scoring.Scorer, logger *log.Logger) *Server {
	s := &Server{
		scorer: scorer,
		logger: logger,
	}

	app := fiber.New(fiber.Config{
		AppName:               "receipt-score-server",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})
	app.Use(recover.New())
	app.Use(s.logRequests)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/score", s.handleScore)

	s.app = app
	return s
}

// App exposes the underlying fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info("Scoring service listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleScore(c *fiber.Ctx) error {
	var req scoring.ScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	candidates, query, err := req.Decode()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	scored, err := s.scorer.Score(c.UserContext(), candidates, query, req.Partner)
	if err != nil {
		s.logger.Error("Scoring failed", "candidates", len(candidates), "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "scoring failed")
	}

	resp := scoring.ScoreResponse{Scores: make([]scoring.WireScore, len(scored))}
	for i, r := range scored {
		resp.Scores[i] = scoring.WireScore{Key: r.ID, Score: r.Score, Reasons: r.Reasons}
	}
	return c.JSON(resp)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	startTime := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}
	s.logger.Debug("Handled request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration", time.Since(startTime))
	return err
}
