package notify

import (
	"fmt"

	"github.com/anonto42/inkwell/backend/internal/models"
)

func ReactionMessage(username string, kind models.ReactionKind, title string) string {
	return fmt.Sprintf("%s reacted (%s) to your post '%s'", username, kind, title)
}

func CommentMessage(username, title string) string {
	return fmt.Sprintf("%s commented on your post '%s'", username, title)
}

func ReplyMessage(username, title string) string {
	return fmt.Sprintf("%s replied to your comment on '%s'", username, title)
}

func FollowMessage(username string) string {
	return fmt.Sprintf("%s started following you", username)
}
