package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/id"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/sse"
	"github.com/pageboundapp/pagebound-server/internal/state"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

// NewGroup is the input to CommunityService.CreateGroup.
type NewGroup struct {
	Name        string `json:"name" validate:"notblank,max=120"`
	BookID      string `json:"book_id" validate:"required"`
	Description string `json:"description" validate:"notblank,max=2000"`
}

// NewDiscussion is the input to CommunityService.CreateDiscussion.
type NewDiscussion struct {
	Title   string `json:"title" validate:"notblank,max=200"`
	Content string `json:"content" validate:"notblank,max=20000"`
}

// CommunityService owns discussion groups and their discussion trees.
//
// Writing inside a group requires membership. Likes only require a
// session and increment on every call; there is no per-user dedup.
type CommunityService struct {
	state     *state.State
	remote    *remote.Adapter
	events    sse.Emitter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCommunityService creates a new community service.
func NewCommunityService(st *state.State, rm *remote.Adapter, events sse.Emitter, v *validation.Validator, logger *slog.Logger) *CommunityService {
	return &CommunityService{
		state:     st,
		remote:    rm,
		events:    events,
		validator: v,
		logger:    logger,
	}
}

// CreateGroup creates a group for a book with the caller as its only member.
func (s *CommunityService) CreateGroup(ctx context.Context, userID string, in NewGroup) (domain.DiscussionGroup, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.DiscussionGroup{}, err
	}
	if err := s.validator.Validate(in); err != nil {
		return domain.DiscussionGroup{}, err
	}
	if !s.state.HasBook(in.BookID) {
		return domain.DiscussionGroup{}, domainerrors.ValidationWithDetails("book_id does not reference a catalog book",
			map[string]string{"book_id": "is unknown"})
	}

	groupID, err := id.Generate(id.PrefixGroup)
	if err != nil {
		return domain.DiscussionGroup{}, fmt.Errorf("generate group ID: %w", err)
	}

	group := domain.DiscussionGroup{
		CreatedAt:   time.Now().UTC(),
		ID:          groupID,
		Name:        strings.TrimSpace(in.Name),
		BookID:      in.BookID,
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   userID,
		Members:     []string{userID},
		Discussions: []domain.Discussion{},
	}

	if err := s.remote.InsertGroup(ctx, group); err != nil {
		return domain.DiscussionGroup{}, err
	}
	if err := s.state.AddGroup(group); err != nil {
		return domain.DiscussionGroup{}, err
	}

	s.logger.Info("group created",
		"group_id", group.ID,
		"book_id", group.BookID,
		"user_id", userID,
	)
	s.events.Emit(sse.NewGroupCreatedEvent(&group))

	return group, nil
}

// JoinGroup adds the caller to a group. Joining twice is a no-op.
func (s *CommunityService) JoinGroup(ctx context.Context, groupID, userID string) (domain.DiscussionGroup, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.DiscussionGroup{}, err
	}
	group, err := s.Group(groupID)
	if err != nil {
		return domain.DiscussionGroup{}, err
	}
	if group.IsMember(userID) {
		return group, nil
	}

	if err := s.remote.InsertMember(ctx, groupID, userID, time.Now().UTC()); err != nil {
		return domain.DiscussionGroup{}, err
	}
	updated, err := s.state.UpdateGroup(groupID, func(g *domain.DiscussionGroup) error {
		g.AddMember(userID)
		return nil
	})
	if err != nil {
		return domain.DiscussionGroup{}, err
	}

	s.logger.Info("group joined", "group_id", groupID, "user_id", userID)
	s.events.Emit(sse.NewMemberJoinedEvent(&updated, userID))

	return updated, nil
}

// LeaveGroup removes the caller from a group. Leaving a group one is not in
// is a no-op. The creator cannot leave, so a group always keeps a member.
func (s *CommunityService) LeaveGroup(ctx context.Context, groupID, userID string) (domain.DiscussionGroup, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.DiscussionGroup{}, err
	}
	group, err := s.Group(groupID)
	if err != nil {
		return domain.DiscussionGroup{}, err
	}
	if !group.IsMember(userID) {
		return group, nil
	}
	if group.CreatedBy == userID {
		return domain.DiscussionGroup{}, domainerrors.Forbidden("the group creator cannot leave the group")
	}

	if err := s.remote.DeleteMember(ctx, groupID, userID); err != nil {
		return domain.DiscussionGroup{}, err
	}
	updated, err := s.state.UpdateGroup(groupID, func(g *domain.DiscussionGroup) error {
		g.RemoveMember(userID)
		return nil
	})
	if err != nil {
		return domain.DiscussionGroup{}, err
	}

	s.logger.Info("group left", "group_id", groupID, "user_id", userID)
	s.events.Emit(sse.NewMemberLeftEvent(&updated, userID))

	return updated, nil
}

// memberOf checks the session and group membership for a write.
func (s *CommunityService) memberOf(groupID, userID string) (*domain.User, domain.DiscussionGroup, error) {
	user, err := activeUser(s.state, userID)
	if err != nil {
		return nil, domain.DiscussionGroup{}, err
	}
	group, err := s.Group(groupID)
	if err != nil {
		return nil, domain.DiscussionGroup{}, err
	}
	if !group.IsMember(userID) {
		return nil, domain.DiscussionGroup{}, domainerrors.Forbidden("only group members can post")
	}
	return user, group, nil
}

// CreateDiscussion starts a discussion in a group.
func (s *CommunityService) CreateDiscussion(ctx context.Context, groupID, userID string, in NewDiscussion) (domain.Discussion, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.Discussion{}, err
	}
	if err := s.validator.Validate(in); err != nil {
		return domain.Discussion{}, err
	}
	user, _, err := s.memberOf(groupID, userID)
	if err != nil {
		return domain.Discussion{}, err
	}

	discussionID, err := id.Generate(id.PrefixDiscussion)
	if err != nil {
		return domain.Discussion{}, fmt.Errorf("generate discussion ID: %w", err)
	}

	stored, err := s.remote.InsertDiscussion(ctx, domain.Discussion{
		CreatedAt: time.Now().UTC(),
		ID:        discussionID,
		GroupID:   groupID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		UserID:    userID,
		UserName:  user.Name,
		Comments:  []domain.Comment{},
	})
	if err != nil {
		return domain.Discussion{}, err
	}

	if _, err := s.state.UpdateGroup(groupID, func(g *domain.DiscussionGroup) error {
		g.Discussions = append(g.Discussions, stored)
		return nil
	}); err != nil {
		return domain.Discussion{}, err
	}

	s.logger.Info("discussion created",
		"discussion_id", stored.ID,
		"group_id", groupID,
		"user_id", userID,
	)
	s.events.Emit(sse.NewDiscussionCreatedEvent(stored))

	return stored, nil
}

// commentText validates reply and comment bodies.
func (s *CommunityService) commentText(text string) error {
	return s.validator.Var("text", text, "notblank,max=5000")
}

// AddComment posts a top-level comment on a discussion.
func (s *CommunityService) AddComment(ctx context.Context, groupID, discussionID, userID, text string) (domain.Comment, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.Comment{}, err
	}
	if err := s.commentText(text); err != nil {
		return domain.Comment{}, err
	}
	user, group, err := s.memberOf(groupID, userID)
	if err != nil {
		return domain.Comment{}, err
	}
	if group.Discussion(discussionID) == nil {
		return domain.Comment{}, domainerrors.NotFoundf("discussion %s not found", discussionID)
	}

	commentID, err := id.Generate(id.PrefixComment)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("generate comment ID: %w", err)
	}

	stored, err := s.remote.InsertComment(ctx, domain.Comment{
		CreatedAt:    time.Now().UTC(),
		ID:           commentID,
		DiscussionID: discussionID,
		UserID:       userID,
		UserName:     user.Name,
		Text:         text,
		Replies:      []domain.Reply{},
	})
	if err != nil {
		return domain.Comment{}, err
	}

	if _, err := s.state.UpdateGroup(groupID, func(g *domain.DiscussionGroup) error {
		d := g.Discussion(discussionID)
		if d == nil {
			return domainerrors.NotFoundf("discussion %s not found", discussionID)
		}
		d.Comments = append(d.Comments, stored)
		return nil
	}); err != nil {
		return domain.Comment{}, err
	}

	s.logger.Info("comment added",
		"comment_id", stored.ID,
		"discussion_id", discussionID,
		"user_id", userID,
	)
	s.events.Emit(sse.NewCommentAddedEvent(groupID, stored))

	return stored, nil
}

// AddReply posts a reply under a comment. Replies do not nest further.
func (s *CommunityService) AddReply(ctx context.Context, groupID, discussionID, commentID, userID, text string) (domain.Reply, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.Reply{}, err
	}
	if err := s.commentText(text); err != nil {
		return domain.Reply{}, err
	}
	user, group, err := s.memberOf(groupID, userID)
	if err != nil {
		return domain.Reply{}, err
	}
	if _, err := findComment(&group, discussionID, commentID); err != nil {
		return domain.Reply{}, err
	}

	replyID, err := id.Generate(id.PrefixReply)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("generate reply ID: %w", err)
	}

	stored, err := s.remote.InsertReply(ctx, domain.Reply{
		CreatedAt: time.Now().UTC(),
		ID:        replyID,
		CommentID: commentID,
		UserID:    userID,
		UserName:  user.Name,
		Text:      text,
	})
	if err != nil {
		return domain.Reply{}, err
	}

	if _, err := s.state.UpdateGroup(groupID, func(g *domain.DiscussionGroup) error {
		c, err := findComment(g, discussionID, commentID)
		if err != nil {
			return err
		}
		c.Replies = append(c.Replies, stored)
		return nil
	}); err != nil {
		return domain.Reply{}, err
	}

	s.logger.Info("reply added",
		"reply_id", stored.ID,
		"comment_id", commentID,
		"user_id", userID,
	)
	s.events.Emit(sse.NewReplyAddedEvent(groupID, discussionID, stored))

	return stored, nil
}

// LikeComment adds one like to a comment.
func (s *CommunityService) LikeComment(ctx context.Context, groupID, discussionID, commentID, userID string) (domain.Comment, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.Comment{}, err
	}
	group, err := s.Group(groupID)
	if err != nil {
		return domain.Comment{}, err
	}
	current, err := findComment(&group, discussionID, commentID)
	if err != nil {
		return domain.Comment{}, err
	}

	likes := current.Likes + 1
	if err := s.remote.SetCommentLikes(ctx, commentID, likes); err != nil {
		return domain.Comment{}, err
	}

	var liked domain.Comment
	if _, err := s.state.UpdateGroup(groupID, func(g *domain.DiscussionGroup) error {
		c, err := findComment(g, discussionID, commentID)
		if err != nil {
			return err
		}
		c.Likes = likes
		liked = c.Clone()
		return nil
	}); err != nil {
		return domain.Comment{}, err
	}

	s.logger.Info("comment liked", "comment_id", commentID, "user_id", userID, "likes", likes)
	s.events.Emit(sse.NewCommentLikedEvent(groupID, discussionID, commentID, likes))

	return liked, nil
}

// LikeReply adds one like to a reply.
func (s *CommunityService) LikeReply(ctx context.Context, groupID, discussionID, commentID, replyID, userID string) (domain.Reply, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.Reply{}, err
	}
	group, err := s.Group(groupID)
	if err != nil {
		return domain.Reply{}, err
	}
	current, err := findReply(&group, discussionID, commentID, replyID)
	if err != nil {
		return domain.Reply{}, err
	}

	likes := current.Likes + 1
	if err := s.remote.SetReplyLikes(ctx, replyID, likes); err != nil {
		return domain.Reply{}, err
	}

	var liked domain.Reply
	if _, err := s.state.UpdateGroup(groupID, func(g *domain.DiscussionGroup) error {
		r, err := findReply(g, discussionID, commentID, replyID)
		if err != nil {
			return err
		}
		r.Likes = likes
		liked = *r
		return nil
	}); err != nil {
		return domain.Reply{}, err
	}

	s.logger.Info("reply liked", "reply_id", replyID, "user_id", userID, "likes", likes)
	s.events.Emit(sse.NewReplyLikedEvent(groupID, discussionID, replyID, likes))

	return liked, nil
}

// Group returns one group tree.
func (s *CommunityService) Group(groupID string) (domain.DiscussionGroup, error) {
	g, ok := s.state.Group(groupID)
	if !ok {
		return domain.DiscussionGroup{}, domainerrors.NotFoundf("group %s not found", groupID)
	}
	return g, nil
}

// Groups returns every group in creation order.
func (s *CommunityService) Groups() []domain.DiscussionGroup {
	return s.state.Groups()
}

// GroupsByUser returns the groups userID is a member of.
func (s *CommunityService) GroupsByUser(userID string) []domain.DiscussionGroup {
	return s.state.GroupsWhere(func(g *domain.DiscussionGroup) bool {
		return g.IsMember(userID)
	})
}

// GroupsByBook returns the groups discussing bookID.
func (s *CommunityService) GroupsByBook(bookID string) []domain.DiscussionGroup {
	return s.state.GroupsWhere(func(g *domain.DiscussionGroup) bool {
		return g.BookID == bookID
	})
}

func findComment(g *domain.DiscussionGroup, discussionID, commentID string) (*domain.Comment, error) {
	d := g.Discussion(discussionID)
	if d == nil {
		return nil, domainerrors.NotFoundf("discussion %s not found", discussionID)
	}
	c := d.Comment(commentID)
	if c == nil {
		return nil, domainerrors.NotFoundf("comment %s not found", commentID)
	}
	return c, nil
}

func findReply(g *domain.DiscussionGroup, discussionID, commentID, replyID string) (*domain.Reply, error) {
	c, err := findComment(g, discussionID, commentID)
	if err != nil {
		return nil, err
	}
	r := c.Reply(replyID)
	if r == nil {
		return nil, domainerrors.NotFoundf("reply %s not found", replyID)
	}
	return r, nil
}
