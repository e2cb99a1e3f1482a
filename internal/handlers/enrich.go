package handlers

import (
	"context"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
)

// EnrichedPost is a post with the author summary and the viewer's flags.
type EnrichedPost struct {
	models.Post
	Author       models.UserCompact   `json:"author"`
	UserReaction *models.ReactionKind `json:"user_reaction"`
	IsBookmarked bool                 `json:"is_bookmarked"`
}

// postEnricher attaches per-viewer state to posts.
type postEnricher struct {
	reactions repositories.ReactionRepository
	bookmarks repositories.BookmarkRepository
}

func (e postEnricher) enrich(ctx context.Context, viewerID uint, posts []models.Post) ([]EnrichedPost, error) {
	out := make([]EnrichedPost, len(posts))
	ids := make([]uint, len(posts))
	for i := range posts {
		out[i] = EnrichedPost{Post: posts[i], Author: posts[i].Author.ToCompact()}
		ids[i] = posts[i].ID
	}
	if viewerID == 0 || len(posts) == 0 {
		return out, nil
	}

	reacted, err := e.reactions.UserReactionsForPosts(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	saved, err := e.bookmarks.BookmarkedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if k, ok := reacted[out[i].ID]; ok {
			kind := k
			out[i].UserReaction = &kind
		}
		out[i].IsBookmarked = saved[out[i].ID]
	}
	return out, nil
}

func (e postEnricher) one(ctx context.Context, viewerID uint, post *models.Post) (*EnrichedPost, error) {
	out, err := e.enrich(ctx, viewerID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// PublicProfile is what other users see of an account.
type PublicProfile struct {
	ID             uint                   `json:"id"`
	Username       string                 `json:"username"`
	Role           models.Role            `json:"role"`
	Bio            string                 `json:"bio"`
	AvatarURL      string                 `json:"avatar_url"`
	SocialLinks    map[string]interface{} `json:"social_links"`
	FollowersCount int64                  `json:"followers_count"`
	FollowingCount int64                  `json:"following_count"`
}

func publicProfile(u *models.User) PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		Role:           u.Role,
		Bio:            u.Bio,
		AvatarURL:      u.AvatarURL,
		SocialLinks:    u.SocialLinks,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
	}
}

func compactUsers(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, len(users))
	for i := range users {
		out[i] = users[i].ToCompact()
	}
	return out
}
