package gormstore

import "github.com/pageboundapp/pagebound-server/internal/store"

// Row is embedded by every model. Seq orders rows by insertion; the
// contract's natural keys are unique indexes on top of it.
type Row struct {
	Seq uint64 `gorm:"column:seq;primaryKey;autoIncrement"`
}

// Timestamps are stored as RFC3339Nano text so every backend returns the
// same representation.

type bookModel struct {
	Row
	ID          string  `gorm:"column:id;size:64;uniqueIndex"`
	Title       string  `gorm:"column:title;not null"`
	Author      string  `gorm:"column:author"`
	CoverURL    string  `gorm:"column:cover_url"`
	Price       float64 `gorm:"column:price"`
	Rating      float64 `gorm:"column:rating"`
	Genre       string  `gorm:"column:genre;index"`
	Synopsis    string  `gorm:"column:synopsis"`
	ReleaseDate string  `gorm:"column:release_date"`
	IsFree      bool    `gorm:"column:is_free"`
}

func (bookModel) TableName() string { return store.TableBooks }

type sampleChapterModel struct {
	Row
	ID       string `gorm:"column:id;size:64;uniqueIndex"`
	BookID   string `gorm:"column:book_id;size:64;index"`
	Position int    `gorm:"column:position"`
	Title    string `gorm:"column:title"`
	Content  string `gorm:"column:content"`
}

func (sampleChapterModel) TableName() string { return store.TableSampleChapters }

type chapterImageModel struct {
	Row
	ID        string `gorm:"column:id;size:64;uniqueIndex"`
	ChapterID string `gorm:"column:chapter_id;size:64;index"`
	Position  int    `gorm:"column:position"`
	URL       string `gorm:"column:url"`
	Caption   string `gorm:"column:caption"`
}

func (chapterImageModel) TableName() string { return store.TableChapterImages }

type userProfileModel struct {
	Row
	ID           string `gorm:"column:id;size:64;uniqueIndex"`
	Name         string `gorm:"column:name"`
	Email        string `gorm:"column:email"`
	Subscription string `gorm:"column:subscription;default:free"`
	CreatedAt    string `gorm:"column:created_at"`
}

func (userProfileModel) TableName() string { return store.TableUserProfiles }

type credentialModel struct {
	Row
	UserID       string `gorm:"column:user_id;size:64;uniqueIndex"`
	Email        string `gorm:"column:email;size:320;uniqueIndex"`
	PasswordHash string `gorm:"column:password_hash"`
}

func (credentialModel) TableName() string { return store.TableCredentials }

type discussionGroupModel struct {
	Row
	ID          string `gorm:"column:id;size:64;uniqueIndex"`
	Name        string `gorm:"column:name"`
	BookID      string `gorm:"column:book_id;size:64;index"`
	Description string `gorm:"column:description"`
	CreatedBy   string `gorm:"column:created_by"`
	CreatedAt   string `gorm:"column:created_at"`
}

func (discussionGroupModel) TableName() string { return store.TableDiscussionGroups }

type groupMemberModel struct {
	Row
	GroupID  string `gorm:"column:group_id;size:64;uniqueIndex:idx_group_member"`
	UserID   string `gorm:"column:user_id;size:64;uniqueIndex:idx_group_member;index"`
	JoinedAt string `gorm:"column:joined_at"`
}

func (groupMemberModel) TableName() string { return store.TableGroupMembers }

type discussionModel struct {
	Row
	ID        string `gorm:"column:id;size:64;uniqueIndex"`
	GroupID   string `gorm:"column:group_id;size:64;index"`
	Title     string `gorm:"column:title"`
	Content   string `gorm:"column:content"`
	UserID    string `gorm:"column:user_id"`
	UserName  string `gorm:"column:user_name"`
	CreatedAt string `gorm:"column:created_at"`
}

func (discussionModel) TableName() string { return store.TableDiscussions }

type commentModel struct {
	Row
	ID           string `gorm:"column:id;size:64;uniqueIndex"`
	DiscussionID string `gorm:"column:discussion_id;size:64;index"`
	UserID       string `gorm:"column:user_id"`
	UserName     string `gorm:"column:user_name"`
	Text         string `gorm:"column:text"`
	Likes        int    `gorm:"column:likes"`
	CreatedAt    string `gorm:"column:created_at"`
}

func (commentModel) TableName() string { return store.TableComments }

type replyModel struct {
	Row
	ID        string `gorm:"column:id;size:64;uniqueIndex"`
	CommentID string `gorm:"column:comment_id;size:64;index"`
	UserID    string `gorm:"column:user_id"`
	UserName  string `gorm:"column:user_name"`
	Text      string `gorm:"column:text"`
	Likes     int    `gorm:"column:likes"`
	CreatedAt string `gorm:"column:created_at"`
}

func (replyModel) TableName() string { return store.TableReplies }

type annotationModel struct {
	Row
	ID        string `gorm:"column:id;size:64;uniqueIndex"`
	BookID    string `gorm:"column:book_id;size:64;index"`
	ChapterID string `gorm:"column:chapter_id"`
	UserID    string `gorm:"column:user_id;size:64;index"`
	Text      string `gorm:"column:text"`
	Highlight string `gorm:"column:highlight"`
	Position  int    `gorm:"column:position"`
	IsPrivate bool   `gorm:"column:is_private"`
	CreatedAt string `gorm:"column:created_at"`
}

func (annotationModel) TableName() string { return store.TableAnnotations }

type readingListModel struct {
	Row
	UserID  string `gorm:"column:user_id;size:64;uniqueIndex:idx_reading_list"`
	BookID  string `gorm:"column:book_id;size:64;uniqueIndex:idx_reading_list"`
	AddedAt string `gorm:"column:added_at"`
}

func (readingListModel) TableName() string { return store.TableReadingList }

type readingProgressModel struct {
	Row
	UserID   string  `gorm:"column:user_id;size:64;uniqueIndex:idx_reading_progress"`
	BookID   string  `gorm:"column:book_id;size:64;uniqueIndex:idx_reading_progress"`
	Progress float64 `gorm:"column:progress"`
	LastRead string  `gorm:"column:last_read"`
}

func (readingProgressModel) TableName() string { return store.TableReadingProgress }

type bookmarkModel struct {
	Row
	ID        string `gorm:"column:id;size:64;uniqueIndex"`
	UserID    string `gorm:"column:user_id;size:64;index"`
	BookID    string `gorm:"column:book_id"`
	ChapterID string `gorm:"column:chapter_id"`
	Position  int    `gorm:"column:position"`
	Note      string `gorm:"column:note"`
	CreatedAt string `gorm:"column:created_at"`
}

func (bookmarkModel) TableName() string { return store.TableBookmarks }

type purchaseModel struct {
	Row
	ID        string  `gorm:"column:id;size:64;uniqueIndex"`
	UserID    string  `gorm:"column:user_id;size:64;index"`
	BookID    string  `gorm:"column:book_id"`
	Amount    float64 `gorm:"column:amount"`
	Method    string  `gorm:"column:method"`
	Receipt   string  `gorm:"column:receipt"`
	CreatedAt string  `gorm:"column:created_at"`
}

func (purchaseModel) TableName() string { return store.TablePurchases }

// models maps each table to a value of its model, used for migration and
// deletes.
var models = map[string]any{
	store.TableBooks:            &bookModel{},
	store.TableSampleChapters:   &sampleChapterModel{},
	store.TableChapterImages:    &chapterImageModel{},
	store.TableUserProfiles:     &userProfileModel{},
	store.TableCredentials:      &credentialModel{},
	store.TableDiscussionGroups: &discussionGroupModel{},
	store.TableGroupMembers:     &groupMemberModel{},
	store.TableDiscussions:      &discussionModel{},
	store.TableComments:         &commentModel{},
	store.TableReplies:          &replyModel{},
	store.TableAnnotations:      &annotationModel{},
	store.TableReadingList:      &readingListModel{},
	store.TableReadingProgress:  &readingProgressModel{},
	store.TableBookmarks:        &bookmarkModel{},
	store.TablePurchases:        &purchaseModel{},
}
