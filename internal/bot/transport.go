package bot

import "context"

// Transport is what BotCore needs from the wire: send a Command, read
// the next Response. The websocket implementation lives in client.go;
// tests substitute an in-memory fake.
type Transport interface {
	Send(ctx context.Context, cmd Command) error
	Recv(ctx context.Context) (Response, error)
	Close() error
}
