// Package logging provides structured logging for the DomoCAN tools.
//
// This package wraps a package-level zap logger with convenience functions.
// Components that need their own logger take a *zap.Logger and fall back to
// a no-op logger when given nil (see OrNop).
//
// # Log Levels
//
//   - Debug: every controller round-trip (command, hid, idx, status, duration)
//   - Info: node lifecycle events in the simulator, refresh results
//   - Warn: failed remote calls that were reported to the operator
//   - Error: startup failures
//
// # Configuration
//
// Logging is silent unless a level is given, either explicitly or through
// DOMOCAN_LOG_LEVEL:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// The interactive panel draws on the terminal, so when it runs with logging
// enabled the output should go to a file:
//
//	DOMOCAN_LOG_LEVEL=debug DOMOCAN_LOG_FILE=/tmp/domocan.log domocan-cfg panel
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned. The underlying zap logger handles synchronization.
package logging
