package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/discochess/chessassist"
	"github.com/discochess/chessassist/internal/chess"
	"github.com/discochess/chessassist/internal/fen"
	"github.com/discochess/chessassist/internal/notation"
	"github.com/discochess/chessassist/internal/vision"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("server: bad request")

type positionRequest struct {
	FEN string `json:"fen"`
}

type applyRequest struct {
	FEN  string `json:"fen"`
	Move string `json:"move"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type analysisResponse struct {
	*chessassist.Analysis
	Summary string `json:"summary"`
}

type legalMove struct {
	UCI string `json:"uci"`
	SAN string `json:"san"`
}

type movesResponse struct {
	FEN    string      `json:"fen"`
	Turn   string      `json:"turn"`
	Status string      `json:"status"`
	Check  bool        `json:"check"`
	Moves  []legalMove `json:"moves"`
}

type applyResponse struct {
	FEN         string   `json:"fen"`
	UCI         string   `json:"uci"`
	SAN         string   `json:"san"`
	Description string   `json:"description"`
	Notes       []string `json:"notes,omitempty"`
	Turn        string   `json:"turn"`
	Status      string   `json:"status"`
	Check       bool     `json:"check"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	a, err := s.analyzer.Analyze(r.Context(), req.FEN)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnalysisResponse(a))
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxImageBytes+maxBodyBytes)
	if err := r.ParseMultipartForm(s.maxImageBytes); err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: image: %w", errBadRequest, err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.maxImageBytes))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: reading image: %w", errBadRequest, err))
		return
	}

	playingAs := chessassist.White
	if c := r.FormValue("color"); c != "" {
		if playingAs, err = chessassist.ParseColor(c); err != nil {
			s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}
	}
	mediaType := hdr.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}

	a, err := s.analyzer.AnalyzeImage(r.Context(), data, mediaType, playingAs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnalysisResponse(a))
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	pos, err := chessassist.ParsePosition(req.FEN)
	if err != nil {
		s.writeError(w, err)
		return
	}
	legal := chess.LegalMoves(pos)
	resp := movesResponse{
		FEN:    fen.String(pos),
		Turn:   pos.Turn.String(),
		Status: pos.Status().String(),
		Check:  pos.IsCheck(),
		Moves:  make([]legalMove, len(legal)),
	}
	for i, m := range legal {
		resp.Moves[i] = legalMove{UCI: notation.EncodeUCI(m), SAN: notation.EncodeSAN(pos, m)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	pos, err := chessassist.ParsePosition(req.FEN)
	if err != nil {
		s.writeError(w, err)
		return
	}
	m, err := chessassist.ParseMove(pos, req.Move)
	if err != nil {
		s.writeError(w, err)
		return
	}
	next := pos.Apply(m)
	writeJSON(w, http.StatusOK, applyResponse{
		FEN:         fen.String(next),
		UCI:         notation.EncodeUCI(m),
		SAN:         notation.EncodeSAN(pos, m),
		Description: notation.Sentence(pos, m),
		Notes:       notation.Describe(pos, m).Notes(),
		Turn:        next.Turn.String(),
		Status:      next.Status().String(),
		Check:       next.IsCheck(),
	})
}

func newAnalysisResponse(a *chessassist.Analysis) analysisResponse {
	player, err := chessassist.ParseColor(a.SideToMove)
	if err != nil {
		player = chessassist.White
	}
	return analysisResponse{Analysis: a, Summary: a.Summary(player)}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decoding body: %w", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to the HTTP status reported to clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, chessassist.ErrInvalidPosition):
		return http.StatusBadRequest
	case errors.Is(err, notation.ErrIllegalMove),
		errors.Is(err, notation.ErrAmbiguousMove),
		errors.Is(err, chess.ErrInvalidMove),
		errors.Is(err, vision.ErrNoBoard):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chessassist.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, chessassist.ErrNoEngine),
		errors.Is(err, chessassist.ErrNoVision),
		errors.Is(err, chessassist.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
