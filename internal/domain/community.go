package domain

import (
	"slices"
	"time"
)

// DiscussionGroup is a membership-gated discussion space scoped to one book.
// Members is a set kept in join order; the creator is always the first member.
// Counts are derived from the sequences and never stored.
type DiscussionGroup struct {
	CreatedAt   time.Time    `json:"created_at"`
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	BookID      string       `json:"book_id"`
	Description string       `json:"description"`
	CreatedBy   string       `json:"created_by"`
	Members     []string     `json:"members"`
	Discussions []Discussion `json:"discussions"`
}

// Discussion is a thread inside a group.
type Discussion struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Comments  []Comment `json:"comments"`
}

// Comment is a top-level post on a discussion.
type Comment struct {
	CreatedAt    time.Time `json:"created_at"`
	ID           string    `json:"id"`
	DiscussionID string    `json:"discussion_id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Text         string    `json:"text"`
	Likes        int       `json:"likes"`
	Replies      []Reply   `json:"replies"`
}

// Reply answers a comment. Replies do not nest further.
type Reply struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	CommentID string    `json:"comment_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	Likes     int       `json:"likes"`
}

// IsMember reports whether userID belongs to the group.
func (g *DiscussionGroup) IsMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// AddMember adds userID to the member set. Returns false if already a member.
func (g *DiscussionGroup) AddMember(userID string) bool {
	if g.IsMember(userID) {
		return false
	}
	g.Members = append(g.Members, userID)
	return true
}

// RemoveMember removes userID from the member set. Returns false if absent.
func (g *DiscussionGroup) RemoveMember(userID string) bool {
	i := slices.Index(g.Members, userID)
	if i < 0 {
		return false
	}
	g.Members = slices.Delete(g.Members, i, i+1)
	return true
}

// MemberCount is the size of the member set.
func (g *DiscussionGroup) MemberCount() int { return len(g.Members) }

// DiscussionCount is the number of discussions in the group.
func (g *DiscussionGroup) DiscussionCount() int { return len(g.Discussions) }

// Discussion returns a pointer into the group's discussion sequence.
func (g *DiscussionGroup) Discussion(discussionID string) *Discussion {
	for i := range g.Discussions {
		if g.Discussions[i].ID == discussionID {
			return &g.Discussions[i]
		}
	}
	return nil
}

// CommentCount is the number of top-level comments.
func (d *Discussion) CommentCount() int { return len(d.Comments) }

// Comment returns a pointer into the discussion's comment sequence.
func (d *Discussion) Comment(commentID string) *Comment {
	for i := range d.Comments {
		if d.Comments[i].ID == commentID {
			return &d.Comments[i]
		}
	}
	return nil
}

// Reply returns a pointer into the comment's reply sequence.
func (c *Comment) Reply(replyID string) *Reply {
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			return &c.Replies[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the group tree.
func (g DiscussionGroup) Clone() DiscussionGroup {
	out := g
	out.Members = cloneOrEmpty(g.Members)
	out.Discussions = make([]Discussion, len(g.Discussions))
	for i, d := range g.Discussions {
		out.Discussions[i] = d.Clone()
	}
	return out
}

// Clone returns a deep copy of the discussion.
func (d Discussion) Clone() Discussion {
	out := d
	out.Comments = make([]Comment, len(d.Comments))
	for i, c := range d.Comments {
		out.Comments[i] = c.Clone()
	}
	return out
}

// Clone returns a deep copy of the comment.
func (c Comment) Clone() Comment {
	out := c
	out.Replies = cloneOrEmpty(c.Replies)
	return out
}
