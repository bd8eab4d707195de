package remote

import (
	"context"
	"errors"
	"time"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/store"
)

// LoadGroups reads every group with members, discussions, comments and
// replies, assembled into trees in insertion order.
func (a *Adapter) LoadGroups(ctx context.Context) ([]domain.DiscussionGroup, error) {
	groupRows, err := a.selectRows(ctx, store.TableDiscussionGroups, nil)
	if err != nil {
		return nil, err
	}
	memberRows, err := a.selectRows(ctx, store.TableGroupMembers, nil)
	if err != nil {
		return nil, err
	}
	discussionRows, err := a.selectRows(ctx, store.TableDiscussions, nil)
	if err != nil {
		return nil, err
	}
	commentRows, err := a.selectRows(ctx, store.TableComments, nil)
	if err != nil {
		return nil, err
	}
	replyRows, err := a.selectRows(ctx, store.TableReplies, nil)
	if err != nil {
		return nil, err
	}

	replies := make(map[string][]domain.Reply)
	for _, r := range replyRows {
		rep := replyFromRecord(r)
		replies[rep.CommentID] = append(replies[rep.CommentID], rep)
	}

	comments := make(map[string][]domain.Comment)
	for _, r := range commentRows {
		c := commentFromRecord(r)
		c.Replies = orEmpty(replies[c.ID])
		comments[c.DiscussionID] = append(comments[c.DiscussionID], c)
	}

	discussions := make(map[string][]domain.Discussion)
	for _, r := range discussionRows {
		d := discussionFromRecord(r)
		d.Comments = orEmpty(comments[d.ID])
		discussions[d.GroupID] = append(discussions[d.GroupID], d)
	}

	members := make(map[string][]string)
	for _, r := range memberRows {
		gid := r.String("group_id")
		members[gid] = append(members[gid], r.String("user_id"))
	}

	groups := make([]domain.DiscussionGroup, 0, len(groupRows))
	for _, r := range groupRows {
		g := domain.DiscussionGroup{
			CreatedAt:   r.Time("created_at"),
			ID:          r.String("id"),
			Name:        r.String("name"),
			BookID:      r.String("book_id"),
			Description: r.String("description"),
			CreatedBy:   r.String("created_by"),
			Discussions: orEmpty(discussions[r.String("id")]),
		}
		// The creator is a member even if the membership row went missing.
		g.Members = []string{g.CreatedBy}
		for _, uid := range members[g.ID] {
			g.AddMember(uid)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// InsertGroup persists the group row and the creator's membership. If the
// membership write fails the group row is removed again.
func (a *Adapter) InsertGroup(ctx context.Context, g domain.DiscussionGroup) error {
	rec := store.Record{
		"id":          g.ID,
		"name":        g.Name,
		"book_id":     g.BookID,
		"description": g.Description,
		"created_by":  g.CreatedBy,
		"created_at":  store.FormatTime(g.CreatedAt),
	}
	if _, err := a.insert(ctx, store.TableDiscussionGroups, rec); err != nil {
		return err
	}

	if err := a.InsertMember(ctx, g.ID, g.CreatedBy, g.CreatedAt); err != nil {
		if cerr := a.delete(context.WithoutCancel(ctx), store.TableDiscussionGroups, store.Filter{"id": g.ID}); cerr != nil {
			a.logger.Error("failed to roll back group row", "group_id", g.ID, "error", cerr)
		}
		return err
	}
	return nil
}

// InsertMember records a membership. An existing row counts as success.
func (a *Adapter) InsertMember(ctx context.Context, groupID, userID string, joinedAt time.Time) error {
	_, err := a.insert(ctx, store.TableGroupMembers, store.Record{
		"group_id":  groupID,
		"user_id":   userID,
		"joined_at": store.FormatTime(joinedAt),
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		return nil
	}
	return err
}

// DeleteMember removes a membership.
func (a *Adapter) DeleteMember(ctx context.Context, groupID, userID string) error {
	return a.delete(ctx, store.TableGroupMembers, store.Filter{"group_id": groupID, "user_id": userID})
}

// InsertDiscussion persists a discussion and returns it as stored.
func (a *Adapter) InsertDiscussion(ctx context.Context, d domain.Discussion) (domain.Discussion, error) {
	rows, err := a.insert(ctx, store.TableDiscussions, store.Record{
		"id":         d.ID,
		"group_id":   d.GroupID,
		"title":      d.Title,
		"content":    d.Content,
		"user_id":    d.UserID,
		"user_name":  d.UserName,
		"created_at": store.FormatTime(d.CreatedAt),
	})
	if err != nil {
		return domain.Discussion{}, err
	}
	out := discussionFromRecord(rows[0])
	out.Comments = []domain.Comment{}
	return out, nil
}

// InsertComment persists a top-level comment and returns it as stored.
func (a *Adapter) InsertComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	rows, err := a.insert(ctx, store.TableComments, store.Record{
		"id":            c.ID,
		"discussion_id": c.DiscussionID,
		"user_id":       c.UserID,
		"user_name":     c.UserName,
		"text":          c.Text,
		"likes":         c.Likes,
		"created_at":    store.FormatTime(c.CreatedAt),
	})
	if err != nil {
		return domain.Comment{}, err
	}
	out := commentFromRecord(rows[0])
	out.Replies = []domain.Reply{}
	return out, nil
}

// InsertReply persists a reply in the replies table and returns it as stored.
func (a *Adapter) InsertReply(ctx context.Context, r domain.Reply) (domain.Reply, error) {
	rows, err := a.insert(ctx, store.TableReplies, store.Record{
		"id":         r.ID,
		"comment_id": r.CommentID,
		"user_id":    r.UserID,
		"user_name":  r.UserName,
		"text":       r.Text,
		"likes":      r.Likes,
		"created_at": store.FormatTime(r.CreatedAt),
	})
	if err != nil {
		return domain.Reply{}, err
	}
	return replyFromRecord(rows[0]), nil
}

// SetCommentLikes stores a comment's like counter.
func (a *Adapter) SetCommentLikes(ctx context.Context, commentID string, likes int) error {
	return a.upsert(ctx, store.TableComments, store.Record{"id": commentID, "likes": likes}, "id")
}

// SetReplyLikes stores a reply's like counter.
func (a *Adapter) SetReplyLikes(ctx context.Context, replyID string, likes int) error {
	return a.upsert(ctx, store.TableReplies, store.Record{"id": replyID, "likes": likes}, "id")
}

func discussionFromRecord(r store.Record) domain.Discussion {
	return domain.Discussion{
		CreatedAt: r.Time("created_at"),
		ID:        r.String("id"),
		GroupID:   r.String("group_id"),
		Title:     r.String("title"),
		Content:   r.String("content"),
		UserID:    r.String("user_id"),
		UserName:  r.String("user_name"),
	}
}

func commentFromRecord(r store.Record) domain.Comment {
	return domain.Comment{
		CreatedAt:    r.Time("created_at"),
		ID:           r.String("id"),
		DiscussionID: r.String("discussion_id"),
		UserID:       r.String("user_id"),
		UserName:     r.String("user_name"),
		Text:         r.String("text"),
		Likes:        r.Int("likes"),
	}
}

func replyFromRecord(r store.Record) domain.Reply {
	return domain.Reply{
		CreatedAt: r.Time("created_at"),
		ID:        r.String("id"),
		CommentID: r.String("comment_id"),
		UserID:    r.String("user_id"),
		UserName:  r.String("user_name"),
		Text:      r.String("text"),
		Likes:     r.Int("likes"),
	}
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
