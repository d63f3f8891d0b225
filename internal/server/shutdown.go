package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const shutdownTimeout = 10 * time.Second

// shutdown stops accepting requests, closes every connection (which emits
// their leave events), stops the modules and finally closes the bus.
func (s *Server) shutdown(stopHub context.CancelFunc, hubDone <-chan struct{}) error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.E.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	stopHub()
	select {
	case <-hubDone:
	case <-ctx.Done():
		errs = append(errs, errors.New("websocket hub did not stop in time"))
	}

	for _, m := range s.modules {
		if err := m.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown module %s: %w", m.Name(), err))
		}
	}

	s.cancelSubs()
	s.runClosers()
	slog.Info("Server stopped")
	return errors.Join(errs...)
}
