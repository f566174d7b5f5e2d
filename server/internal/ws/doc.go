// Package ws streams annotation runs to WebSocket clients.
//
// New(store, interval) creates a Hub. Hub.Run(ctx) polls the store's
// version every interval and broadcasts when it has changed; it closes all
// connections once ctx is cancelled. Hub.ServeHTTP upgrades the request and
// sends the current list straight away.
//
// Message format:
//
//	{
//	  "event": "runs",
//	  "data":  [ /* same schema as GET /api/v1/runs */ ],
//	  "generated_at": "2024-01-02T15:04:05Z"
//	}
//
// The server mounts the hub at /ws/runs, behind the API key middleware.
package ws
