package model

import (
	"strings"
	"time"
)

type PostID string

type DraftID string

// ContentTypeBlogPost tags every record written by the editor.
const ContentTypeBlogPost = "blogPost"

// Field names of a persisted post record.
const (
	FieldUserID      = "userId"
	FieldName        = "name"
	FieldContentType = "contentType"
	FieldBlogPost    = "blogPost"
	FieldTimeStamp   = "timeStamp"
	FieldDate        = "date"
)

// PostRecord is one saved post. CreatedAt is assigned by the document store,
// CreatedAtClient is the wall clock of the process that issued the write.
type PostRecord struct {
	ID PostID `json:"-"`

	AuthorID        UserID    `json:"userId"`
	AuthorName      *string   `json:"name"`
	ContentType     string    `json:"contentType"`
	Body            string    `json:"blogPost"`
	CreatedAt       time.Time `json:"timeStamp"`
	CreatedAtClient time.Time `json:"date"`
}

func NewPostRecord(author *User, markdown string, clientNow time.Time) *PostRecord {
	return &PostRecord{
		AuthorID:        author.UID,
		AuthorName:      author.DisplayName,
		ContentType:     ContentTypeBlogPost,
		Body:            markdown,
		CreatedAtClient: clientNow,
	}
}

// Title returns the first non-empty line of the body, for listings.
func (p *PostRecord) Title() string {
	for _, line := range strings.Split(p.Body, "\n") {
		if t := strings.TrimSpace(strings.TrimLeft(line, "# \t")); t != "" {
			return t
		}
	}
	return "Untitled"
}
