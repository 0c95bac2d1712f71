// Score HTTP handlers.
//
// This file exposes the two operations on the scores resource:
//   - GET  {SCORES_PATH}   (list, at most 20 records)
//   - POST {SCORES_PATH}   (create)
//
// Handlers are transport-thin: they decode input, call the score service,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/hanoi-scores/internal/domain"
)

// ScoreService defines the operations consumed by the score handlers.
//
// Implementations should be safe for concurrent use.
type ScoreService interface {
	// Create persists one game result and returns the stored record.
	Create(ctx context.Context, in domain.NewScore) (*domain.Score, error)
	// List returns at most one page of stored records.
	List(ctx context.Context) ([]domain.Score, error)
}

// Handlers groups the HTTP endpoints for scores.
type Handlers struct {
	scoreSvc ScoreService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(scoreSvc ScoreService) *Handlers {
	return &Handlers{scoreSvc: scoreSvc}
}

// CreateScoreRequest is the JSON payload for recording a finished game.
// Pointer fields let the validator tell a missing field from a zero value.
type CreateScoreRequest struct {
	Player     *string `json:"player" binding:"required" example:"ada"`
	NTurn      *int32  `json:"n_turn" binding:"required" example:"12"`
	Disks      *int32  `json:"disks" binding:"required" example:"7"`
	MedianTime *int32  `json:"median_time" binding:"required" example:"340"`
}

func (r CreateScoreRequest) toNewScore() domain.NewScore {
	return domain.NewScore{
		Player:     *r.Player,
		NTurn:      *r.NTurn,
		Disks:      *r.Disks,
		MedianTime: *r.MedianTime,
	}
}

// ListScores godoc
// @ID          listScores
// @Summary     List scores
// @Description Returns at most 20 stored scores, in storage order.
// @Tags        Scores
// @Produce     json
// @Success     200  {array}   domain.Score
// @Failure     500  {string}  string  "Storage error"
// @Router      /scores [get]
func (h *Handlers) ListScores(c *gin.Context) {
	items, err := h.scoreSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []domain.Score{}
	}
	ok(c, http.StatusOK, items)
}

// CreateScore godoc
// @ID          createScore
// @Summary     Record a score
// @Description Stores a finished game and returns the stored record with its id and creation date.
// @Tags        Scores
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CreateScoreRequest  true  "Game result"
// @Success     200   {object}  domain.Score
// @Failure     400   {string}  string  "Json deserialize error"
// @Failure     500   {string}  string  "Storage error"
// @Router      /scores [post]
func (h *Handlers) CreateScore(c *gin.Context) {
	var req CreateScoreRequest
	if err := c.ShouldBindWith(&req, strictJSON{}); err != nil {
		fail(c, http.StatusBadRequest, decodeMessage(&req, err))
		return
	}

	sc, err := h.scoreSvc.Create(c.Request.Context(), req.toNewScore())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, http.StatusOK, sc)
}
