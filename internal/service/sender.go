package service

import "context"

// Sender abstracts the chat platform client for services that issue
// outbound messages, keeping the engine testable without the network.
type Sender interface {
	// SendMessage delivers text to a chat and returns the platform message id.
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	// EditMessage rewrites a previously sent message in place.
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
}
