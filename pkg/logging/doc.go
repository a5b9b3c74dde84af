// Package logging provides structured logging for anybridge built on the
// standard slog package.
//
// Every log entry carries a subsystem identifier so that output from the
// REST server, the MCP server, the upstream executor and the CLI can be
// told apart:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//	logging.Info("REST", "listening on %s", addr)
//	logging.Error("Upstream", err, "request failed: %s %s", method, path)
//
// Subsystems in use: Bootstrap, Config, REST, MCP, Upstream, Client,
// Validator, Auth.
//
// The MCP front door speaks JSON-RPC over stdout, so all logging goes to
// stderr by default.
package logging
