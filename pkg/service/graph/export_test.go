package graph

import (
	"time"

	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
)

// MessagesURL is exported for testing
func MessagesURL(svc Service, chatID model.ChatID, since time.Time) string {
	return svc.(*client).messagesURL(chatID, since)
}
