package gpu

import (
	"log/slog"

	"github.com/gogpu/quartz"
)

// slogger returns the module-wide logger configured via quartz.SetLogger.
// All logging in internal/gpu goes through this function.
func slogger() *slog.Logger { return quartz.Logger() }
