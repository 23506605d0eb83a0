// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the game handler.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	AuthFailedError     = 3001 // Identity could not be resolved or minted.
	ServerShutdownCode  = 3002 // Server is draining.
)
