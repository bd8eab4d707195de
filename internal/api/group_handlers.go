package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/render"
	"github.com/pageboundapp/pagebound-server/internal/service"
)

func (s *Server) registerGroupRoutes() {
	bearer := []map[string][]string{{"bearer": {}}}

	huma.Register(s.api, huma.Operation{
		OperationID: "listGroups",
		Method:      http.MethodGet,
		Path:        "/api/v1/groups",
		Summary:     "List discussion groups",
		Description: "Lists groups, optionally only those about a book or those the caller belongs to",
		Tags:        []string{"Groups"},
	}, s.handleListGroups)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createGroup",
		Method:        http.MethodPost,
		Path:          "/api/v1/groups",
		Summary:       "Create discussion group",
		Description:   "Creates a group about a book; the creator becomes its first member",
		Tags:          []string{"Groups"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateGroup)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGroup",
		Method:      http.MethodGet,
		Path:        "/api/v1/groups/{id}",
		Summary:     "Get discussion group",
		Description: "Returns a group with its full discussion tree",
		Tags:        []string{"Groups"},
	}, s.handleGetGroup)

	huma.Register(s.api, huma.Operation{
		OperationID: "joinGroup",
		Method:      http.MethodPost,
		Path:        "/api/v1/groups/{id}/join",
		Summary:     "Join group",
		Tags:        []string{"Groups"},
		Security:    bearer,
	}, s.handleJoinGroup)

	huma.Register(s.api, huma.Operation{
		OperationID: "leaveGroup",
		Method:      http.MethodPost,
		Path:        "/api/v1/groups/{id}/leave",
		Summary:     "Leave group",
		Description: "The creator of a group cannot leave it",
		Tags:        []string{"Groups"},
		Security:    bearer,
	}, s.handleLeaveGroup)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createDiscussion",
		Method:        http.MethodPost,
		Path:          "/api/v1/groups/{id}/discussions",
		Summary:       "Start discussion",
		Description:   "Members only. Content is markdown.",
		Tags:          []string{"Groups"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateDiscussion)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addComment",
		Method:        http.MethodPost,
		Path:          "/api/v1/groups/{id}/discussions/{discussionId}/comments",
		Summary:       "Comment on discussion",
		Tags:          []string{"Groups"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddComment)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addReply",
		Method:        http.MethodPost,
		Path:          "/api/v1/groups/{id}/discussions/{discussionId}/comments/{commentId}/replies",
		Summary:       "Reply to comment",
		Tags:          []string{"Groups"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddReply)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/groups/{id}/discussions/{discussionId}/comments/{commentId}/like",
		Summary:     "Like comment",
		Description: "Every call adds one like",
		Tags:        []string{"Groups"},
		Security:    bearer,
	}, s.handleLikeComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeReply",
		Method:      http.MethodPost,
		Path:        "/api/v1/groups/{id}/discussions/{discussionId}/comments/{commentId}/replies/{replyId}/like",
		Summary:     "Like reply",
		Description: "Every call adds one like",
		Tags:        []string{"Groups"},
		Security:    bearer,
	}, s.handleLikeReply)
}

// === DTOs ===

// ListGroupsInput filters the group list.
type ListGroupsInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `query:"book_id" doc:"Only groups about this book"`
	Mine          bool   `query:"mine" doc:"Only groups the caller belongs to"`
}

// GroupSummary is a group without its discussions.
type GroupSummary struct {
	CreatedAt       time.Time `json:"created_at"`
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	BookID          string    `json:"book_id"`
	Description     string    `json:"description"`
	CreatedBy       string    `json:"created_by"`
	MemberCount     int       `json:"member_count"`
	DiscussionCount int       `json:"discussion_count"`
	IsMember        bool      `json:"is_member" doc:"Whether the caller belongs to the group"`
}

// DiscussionResponse is a discussion with rendered content.
type DiscussionResponse struct {
	domain.Discussion
	ContentHTML  string `json:"content_html" doc:"Content rendered from markdown"`
	CommentCount int    `json:"comment_count"`
}

// GroupResponse is a group with its full discussion tree.
type GroupResponse struct {
	GroupSummary
	Members     []string             `json:"members"`
	Discussions []DiscussionResponse `json:"discussions"`
}

// GroupListResponse lists groups.
type GroupListResponse struct {
	Groups []GroupSummary `json:"groups"`
	Total  int            `json:"total"`
}

// GroupListOutput wraps a group list.
type GroupListOutput struct {
	Body GroupListResponse
}

// GroupOutput wraps a group.
type GroupOutput struct {
	Body GroupResponse
}

// CreateGroupInput wraps a new group.
type CreateGroupInput struct {
	Authorization string `header:"Authorization"`
	Body          service.NewGroup
}

// GroupIDInput addresses a group.
type GroupIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Group ID"`
}

// CreateDiscussionInput wraps a new discussion.
type CreateDiscussionInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Group ID"`
	Body          service.NewDiscussion
}

// DiscussionOutput wraps a discussion.
type DiscussionOutput struct {
	Body DiscussionResponse
}

// TextRequest is the body of a comment or reply.
type TextRequest struct {
	Text string `json:"text" doc:"Comment text"`
}

// AddCommentInput wraps a new comment.
type AddCommentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Group ID"`
	DiscussionID  string `path:"discussionId" doc:"Discussion ID"`
	Body          TextRequest
}

// CommentOutput wraps a comment.
type CommentOutput struct {
	Body domain.Comment
}

// AddReplyInput wraps a new reply.
type AddReplyInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Group ID"`
	DiscussionID  string `path:"discussionId" doc:"Discussion ID"`
	CommentID     string `path:"commentId" doc:"Comment ID"`
	Body          TextRequest
}

// ReplyOutput wraps a reply.
type ReplyOutput struct {
	Body domain.Reply
}

// CommentIDInput addresses a comment.
type CommentIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Group ID"`
	DiscussionID  string `path:"discussionId" doc:"Discussion ID"`
	CommentID     string `path:"commentId" doc:"Comment ID"`
}

// ReplyIDInput addresses a reply.
type ReplyIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Group ID"`
	DiscussionID  string `path:"discussionId" doc:"Discussion ID"`
	CommentID     string `path:"commentId" doc:"Comment ID"`
	ReplyID       string `path:"replyId" doc:"Reply ID"`
}

func newGroupSummary(g domain.DiscussionGroup, callerID string) GroupSummary {
	return GroupSummary{
		CreatedAt:       g.CreatedAt,
		ID:              g.ID,
		Name:            g.Name,
		BookID:          g.BookID,
		Description:     g.Description,
		CreatedBy:       g.CreatedBy,
		MemberCount:     g.MemberCount(),
		DiscussionCount: g.DiscussionCount(),
		IsMember:        callerID != "" && g.IsMember(callerID),
	}
}

func newDiscussionResponse(d domain.Discussion) DiscussionResponse {
	return DiscussionResponse{
		Discussion:   d,
		ContentHTML:  render.Markdown(d.Content),
		CommentCount: d.CommentCount(),
	}
}

func newGroupResponse(g domain.DiscussionGroup, callerID string) GroupResponse {
	discussions := make([]DiscussionResponse, len(g.Discussions))
	for i, d := range g.Discussions {
		discussions[i] = newDiscussionResponse(d)
	}
	return GroupResponse{
		GroupSummary: newGroupSummary(g, callerID),
		Members:      g.Members,
		Discussions:  discussions,
	}
}

// === Handlers ===

func (s *Server) handleListGroups(ctx context.Context, input *ListGroupsInput) (*GroupListOutput, error) {
	callerID := optionalUserID(ctx)

	var groups []domain.DiscussionGroup
	switch {
	case input.Mine:
		userID, err := GetUserID(ctx)
		if err != nil {
			return nil, err
		}
		groups = s.services.Community.GroupsByUser(userID)
	case input.BookID != "":
		groups = s.services.Community.GroupsByBook(input.BookID)
	default:
		groups = s.services.Community.Groups()
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		if input.Mine && input.BookID != "" && g.BookID != input.BookID {
			continue
		}
		summaries = append(summaries, newGroupSummary(g, callerID))
	}
	return &GroupListOutput{Body: GroupListResponse{Groups: summaries, Total: len(summaries)}}, nil
}

func (s *Server) handleCreateGroup(ctx context.Context, input *CreateGroupInput) (*GroupOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.services.Community.CreateGroup(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &GroupOutput{Body: newGroupResponse(g, userID)}, nil
}

func (s *Server) handleGetGroup(ctx context.Context, input *GroupIDInput) (*GroupOutput, error) {
	g, err := s.services.Community.Group(input.ID)
	if err != nil {
		return nil, err
	}
	return &GroupOutput{Body: newGroupResponse(g, optionalUserID(ctx))}, nil
}

func (s *Server) handleJoinGroup(ctx context.Context, input *GroupIDInput) (*GroupOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.services.Community.JoinGroup(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &GroupOutput{Body: newGroupResponse(g, userID)}, nil
}

func (s *Server) handleLeaveGroup(ctx context.Context, input *GroupIDInput) (*GroupOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.services.Community.LeaveGroup(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &GroupOutput{Body: newGroupResponse(g, userID)}, nil
}

func (s *Server) handleCreateDiscussion(ctx context.Context, input *CreateDiscussionInput) (*DiscussionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.services.Community.CreateDiscussion(ctx, input.ID, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &DiscussionOutput{Body: newDiscussionResponse(d)}, nil
}

func (s *Server) handleAddComment(ctx context.Context, input *AddCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.services.Community.AddComment(ctx, input.ID, input.DiscussionID, userID, input.Body.Text)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: c}, nil
}

func (s *Server) handleAddReply(ctx context.Context, input *AddReplyInput) (*ReplyOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.services.Community.AddReply(ctx, input.ID, input.DiscussionID, input.CommentID, userID, input.Body.Text)
	if err != nil {
		return nil, err
	}
	return &ReplyOutput{Body: r}, nil
}

func (s *Server) handleLikeComment(ctx context.Context, input *CommentIDInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.services.Community.LikeComment(ctx, input.ID, input.DiscussionID, input.CommentID, userID)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: c}, nil
}

func (s *Server) handleLikeReply(ctx context.Context, input *ReplyIDInput) (*ReplyOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.services.Community.LikeReply(ctx, input.ID, input.DiscussionID, input.CommentID, input.ReplyID, userID)
	if err != nil {
		return nil, err
	}
	return &ReplyOutput{Body: r}, nil
}
