package api

import (
	"net/http"

	"github.com/seantiz/warden/internal/model"
)

// statsResponse is the JSON response for GET /v1/stats, aggregated from the
// in-memory run history of every registered task.
type statsResponse struct {
	Tasks         int            `json:"tasks"`
	TotalRuns     int            `json:"total_runs"`
	ByStatus      map[string]int `json:"by_status"`
	ByTrigger     map[string]int `json:"by_trigger"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		ByStatus:  make(map[string]int),
		ByTrigger: make(map[string]int),
	}

	var durationSum int64
	var durationCount int
	runners := s.sched.Runners()
	resp.Tasks = len(runners)

	for _, runner := range runners {
		for _, rec := range runner.History() {
			resp.TotalRuns++
			resp.ByStatus[rec.Status]++
			resp.ByTrigger[rec.TriggeredBy]++
			if model.IsTerminalRun(rec.Status) && rec.DurationMS != nil {
				durationSum += *rec.DurationMS
				durationCount++
			}
		}
	}
	if durationCount > 0 {
		resp.AvgDurationMS = float64(durationSum) / float64(durationCount)
	}

	s.writeJSON(w, http.StatusOK, resp)
}
