package observability

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/facebookincubator/go-belt/tool/logger/types"

	"github.com/fwscope/fwscope/pkg/observability/hooks/logentryfingerprint"
	"github.com/fwscope/fwscope/pkg/observability/tool/logger/logrus/formatter"
)

// NewLogger returns the default Logger for the fwscope family of
// tools.
func NewLogger(ctx context.Context, opts ...types.Option) logger.Logger {
	l := logrus.DefaultLogrusLogger()
	l.Formatter = &formatter.CompactText{}

	result := logrus.New(l)
	result = result.WithPreHooks(logentryfingerprint.PreHook{})
	result = result.WithLevel(logger.LevelTrace)
	return result
}
