// Package config loads the server-side configuration from the `server:` section
// of config.yaml (the `annotator:` key is ignored by the server binary).
//
// Config fields:
//   - LogLevel            : debug, info, warn or error (default info)
//   - Server.HTTPPort     : port for the REST API and /metrics (default 8080)
//   - Server.Auth.Mode    : "apikey" or "none"
//   - Server.Auth.KeyEnv  : environment variable holding the expected API key
//   - Server.Auth.Header  : HTTP header name (default "x-api-key")
//   - Server.Runs.TTL     : how long a stored run stays queryable (default 30m)
//   - Server.MaxBodyBytes : request body cap (default 32 MiB)
//   - Server.Rules        : flag columns, ratio thresholds, workers
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
