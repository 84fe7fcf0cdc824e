package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/cellplan/internal/sim"
)

const (
	writeWait    = 10 * time.Second
	minFrameStep = 0.01
	maxFrameStep = 10.0
)

type playbackDone struct {
	Done     bool    `json:"done"`
	RunID    string  `json:"run_id"`
	Makespan float64 `json:"makespan"`
	Frames   int     `json:"frames"`
}

// handlePlayback plans a stored scenario and streams sampled frames
// over a websocket, followed by a done message.
func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text, err := s.readScenario(q.Get("scenario"))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	step := s.timeStep
	if v := q.Get("step"); v != "" {
		step, err = strconv.ParseFloat(v, 64)
		if err != nil || step < minFrameStep || step > maxFrameStep {
			writeError(w, r, s.logger, newValidationError("step must be between 0.01 and 10 seconds", err))
			return
		}
	}

	res, err := s.runPipeline(r.Context(), text)
	if err == nil {
		err = res.CheckFrames(step, s.maxSamples)
	}
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	frames := 0
	err = res.EachFrame(r.Context(), step, s.maxSamples, func(f sim.Frame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(f); err != nil {
			return err
		}
		frames++
		return nil
	})
	if err != nil {
		s.logger.Debug("Playback stopped", zap.Int("frames", frames), zap.Error(err))
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(playbackDone{Done: true, RunID: res.RunID, Makespan: res.Makespan(), Frames: frames}); err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
