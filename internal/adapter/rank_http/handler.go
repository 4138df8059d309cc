package rank_http

import (
	"errors"
	"net/http"

	"note-ranker/internal/domain"
	"note-ranker/internal/usecase"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	rankUsecase usecase.RankPipelineUsecase
}

func NewHandler(rankUsecase usecase.RankPipelineUsecase) *Handler {
	return &Handler{rankUsecase: rankUsecase}
}

// RankRequest is the body of POST /v1/rank.
type RankRequest struct {
	Query string `json:"query"`
}

// RankResult is one returned chunk with its provenance pointer.
type RankResult struct {
	ChunkID         string  `json:"chunk_id"`
	CalibratedScore float64 `json:"calibrated_score"`
	PatientUID      *string `json:"patient_uid,omitempty"`
	SourceNoteID    string  `json:"source_note_id"`
	Offset          int     `json:"offset"`
}

// RankResponse is the body returned by POST /v1/rank.
type RankResponse struct {
	RunID      string       `json:"run_id"`
	Query      string       `json:"query"`
	Calibrated bool         `json:"calibrated"`
	Results    []RankResult `json:"results"`
	Timings    Timings      `json:"timings"`
}

// Timings reports per-stage wall time in milliseconds.
type Timings struct {
	ScoutMs   int64 `json:"scout_ms"`
	InspectMs int64 `json:"inspect_ms"`
	JudgeMs   int64 `json:"judge_ms"`
}

// Rank runs the full funnel for a query
// (POST /v1/rank)
func (h *Handler) Rank(ctx echo.Context) error {
	var req RankRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing query"})
	}

	output, err := h.rankUsecase.Execute(ctx.Request().Context(), usecase.RankInput{Query: req.Query})
	if err != nil {
		var scorerErr *domain.ScorerError
		if errors.As(err, &scorerErr) {
			return ctx.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	results := make([]RankResult, 0, len(output.Final))
	for _, f := range output.Final {
		results = append(results, RankResult{
			ChunkID:         f.ChunkID,
			CalibratedScore: f.CalibratedScore,
			PatientUID:      f.PatientUID,
			SourceNoteID:    f.Pointer.SourceNoteID,
			Offset:          f.Pointer.Offset,
		})
	}

	return ctx.JSON(http.StatusOK, RankResponse{
		RunID:      output.RunID,
		Query:      req.Query,
		Calibrated: output.Calibrated,
		Results:    results,
		Timings: Timings{
			ScoutMs:   output.Timings.Scout.Milliseconds(),
			InspectMs: output.Timings.Inspect.Milliseconds(),
			JudgeMs:   output.Timings.Judge.Milliseconds(),
		},
	})
}
