// Package sse implements Server-Sent Events for real-time community and
// annotation updates.
package sse

import (
	"time"

	"github.com/pageboundapp/pagebound-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	// EventCatalogReloaded is sent after the catalog was replaced.
	EventCatalogReloaded EventType = "catalog.reloaded"

	EventGroupCreated EventType = "group.created"
	EventMemberJoined EventType = "group.member_joined"
	EventMemberLeft   EventType = "group.member_left"

	EventDiscussionCreated EventType = "discussion.created"
	EventCommentAdded      EventType = "comment.added"
	EventReplyAdded        EventType = "reply.added"
	EventCommentLiked      EventType = "comment.liked"
	EventReplyLiked        EventType = "reply.liked"

	// Annotation events. Private annotations are delivered to their owner only.
	EventAnnotationCreated EventType = "annotation.created"
	EventAnnotationDeleted EventType = "annotation.deleted"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID restricts delivery to one user's clients. Empty means everyone.
	UserID string `json:"-"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// CatalogEventData is the data payload for catalog reloads.
type CatalogEventData struct {
	BookCount int `json:"book_count"`
}

// GroupEventData carries a group summary; the discussion tree is not included.
type GroupEventData struct {
	GroupID     string `json:"group_id"`
	BookID      string `json:"book_id"`
	Name        string `json:"name"`
	CreatedBy   string `json:"created_by"`
	MemberCount int    `json:"member_count"`
}

// MembershipEventData is the payload for join and leave events.
type MembershipEventData struct {
	GroupID     string `json:"group_id"`
	UserID      string `json:"user_id"`
	MemberCount int    `json:"member_count"`
}

// DiscussionEventData is the payload for discussion.created.
type DiscussionEventData struct {
	Discussion domain.Discussion `json:"discussion"`
}

// CommentEventData is the payload for comment.added.
type CommentEventData struct {
	GroupID string         `json:"group_id"`
	Comment domain.Comment `json:"comment"`
}

// ReplyEventData is the payload for reply.added.
type ReplyEventData struct {
	GroupID      string       `json:"group_id"`
	DiscussionID string       `json:"discussion_id"`
	Reply        domain.Reply `json:"reply"`
}

// LikeEventData is the payload for like events. TargetID is a comment or
// reply id depending on the event type.
type LikeEventData struct {
	GroupID      string `json:"group_id"`
	DiscussionID string `json:"discussion_id"`
	TargetID     string `json:"target_id"`
	Likes        int    `json:"likes"`
}

// AnnotationEventData is the payload for annotation.created.
type AnnotationEventData struct {
	Annotation domain.Annotation `json:"annotation"`
}

// AnnotationDeletedEventData is the payload for annotation.deleted.
type AnnotationDeletedEventData struct {
	AnnotationID string `json:"annotation_id"`
	BookID       string `json:"book_id"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, HeartbeatEventData{ServerTime: time.Now()})
}

// NewCatalogReloadedEvent creates a catalog.reloaded event.
func NewCatalogReloadedEvent(bookCount int) Event {
	return newEvent(EventCatalogReloaded, CatalogEventData{BookCount: bookCount})
}

// NewGroupCreatedEvent creates a group.created event.
func NewGroupCreatedEvent(g *domain.DiscussionGroup) Event {
	return newEvent(EventGroupCreated, GroupEventData{
		GroupID:     g.ID,
		BookID:      g.BookID,
		Name:        g.Name,
		CreatedBy:   g.CreatedBy,
		MemberCount: g.MemberCount(),
	})
}

// NewMemberJoinedEvent creates a group.member_joined event.
func NewMemberJoinedEvent(g *domain.DiscussionGroup, userID string) Event {
	return newEvent(EventMemberJoined, MembershipEventData{GroupID: g.ID, UserID: userID, MemberCount: g.MemberCount()})
}

// NewMemberLeftEvent creates a group.member_left event.
func NewMemberLeftEvent(g *domain.DiscussionGroup, userID string) Event {
	return newEvent(EventMemberLeft, MembershipEventData{GroupID: g.ID, UserID: userID, MemberCount: g.MemberCount()})
}

// NewDiscussionCreatedEvent creates a discussion.created event.
func NewDiscussionCreatedEvent(d domain.Discussion) Event {
	return newEvent(EventDiscussionCreated, DiscussionEventData{Discussion: d})
}

// NewCommentAddedEvent creates a comment.added event.
func NewCommentAddedEvent(groupID string, c domain.Comment) Event {
	return newEvent(EventCommentAdded, CommentEventData{GroupID: groupID, Comment: c})
}

// NewReplyAddedEvent creates a reply.added event.
func NewReplyAddedEvent(groupID, discussionID string, r domain.Reply) Event {
	return newEvent(EventReplyAdded, ReplyEventData{GroupID: groupID, DiscussionID: discussionID, Reply: r})
}

// NewCommentLikedEvent creates a comment.liked event.
func NewCommentLikedEvent(groupID, discussionID, commentID string, likes int) Event {
	return newEvent(EventCommentLiked, LikeEventData{GroupID: groupID, DiscussionID: discussionID, TargetID: commentID, Likes: likes})
}

// NewReplyLikedEvent creates a reply.liked event.
func NewReplyLikedEvent(groupID, discussionID, replyID string, likes int) Event {
	return newEvent(EventReplyLiked, LikeEventData{GroupID: groupID, DiscussionID: discussionID, TargetID: replyID, Likes: likes})
}

// NewAnnotationCreatedEvent creates an annotation.created event. Private
// annotations are addressed to their owner.
func NewAnnotationCreatedEvent(a domain.Annotation) Event {
	e := newEvent(EventAnnotationCreated, AnnotationEventData{Annotation: a})
	if a.IsPrivate {
		e.UserID = a.UserID
	}
	return e
}

// NewAnnotationDeletedEvent creates an annotation.deleted event.
func NewAnnotationDeletedEvent(a domain.Annotation) Event {
	e := newEvent(EventAnnotationDeleted, AnnotationDeletedEventData{AnnotationID: a.ID, BookID: a.BookID})
	if a.IsPrivate {
		e.UserID = a.UserID
	}
	return e
}
