package server

import (
	"encoding/json"
	"reflect"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rybkr/gittopo/internal/history"
)

func (s *Server) pollRepo() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	log.Debugf("Repository polling started (period = %s)", s.config.PollInterval)

	for {
		select {
		case <-s.ctx.Done():
			log.Debug("Repository polling stopped")
			return
		case <-ticker.C:
			s.refresh()
		}
	}
}

// refresh recomputes the report and broadcasts it if it differs from the
// cached one. A failed refresh keeps the previous report.
func (s *Server) refresh() {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Recover from panics to prevent one bad refresh from killing the server.
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("PANIC in refresh: %v", r)
		}
	}()

	report, err := history.LinearizeRepository(s.repo, s.config.History)
	if err != nil {
		log.Warnf("Error computing history: %v", err)

		// Clients only hear about errors while no report has been published.
		s.mu.Lock()
		notify := false
		if s.cached.report == nil {
			notify = s.cached.err == nil || s.cached.err.Error() != err.Error()
			s.cached.err = err
		}
		s.mu.Unlock()

		if notify {
			s.broadcastUpdate(MessageTypeError, err.Error())
		}
		return
	}

	s.mu.RLock()
	changed := !reportEqual(s.cached.report, report)
	s.mu.RUnlock()
	if !changed {
		return
	}

	s.mu.Lock()
	s.cached.report = report
	s.cached.err = nil
	s.mu.Unlock()

	s.broadcastUpdate(MessageTypeReport, report)
	log.WithField("commits", len(report.Entries)).Info("History changed, broadcasting update")
}

func reportEqual(a, b *history.Report) bool {
	if a == nil || b == nil {
		return a == b
	}

	// json.Marshal returns a deterministic byte representation.
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		log.Warn("JSON marshaling failed in reportEqual, using DeepEqual fallback")
		return reflect.DeepEqual(a, b)
	}

	return string(aJSON) == string(bJSON)
}
