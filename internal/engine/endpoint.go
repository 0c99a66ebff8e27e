package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/halrobotics/wsrobot/internal/robot"
	"github.com/halrobotics/wsrobot/internal/transport"
)

// Endpoint construction is the only place the transport role is decided; the
// engine itself is role-agnostic.

// NewServerEndpoint wires an engine to a listener transport waiting for the
// counterpart to connect.
func NewServerEndpoint(host string, port int, path string, r robot.Robot, cfg Config, logger *zap.Logger) *Engine {
	tr := transport.NewServer(fmt.Sprintf("%s:%d", host, port), path, logger)
	return New(r, tr, cfg, logger)
}

// NewClientEndpoint wires an engine to a connector transport dialing out to
// the counterpart.
func NewClientEndpoint(host string, port int, path string, r robot.Robot, cfg Config, logger *zap.Logger) *Engine {
	tr := transport.NewClient(host, port, path, logger)
	return New(r, tr, cfg, logger)
}
