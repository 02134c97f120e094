// Package knowledgebase manages the teaching material the tutor draws on:
// content, question banks, assessments and resources per level and subject.
package knowledgebase

import (
	"slices"
	"time"

	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
)

// Entity is the collection name used in errors, logs and metrics.
const Entity = "knowledge_base_file"

// FileType classifies a knowledge-base file.
type FileType string

// File types
const (
	FileTypeContent      FileType = "content"
	FileTypeQuestionBank FileType = "question_bank"
	FileTypeAssessment   FileType = "assessment"
	FileTypeResource     FileType = "resource"
)

// FileTypes lists every file type.
var FileTypes = []FileType{FileTypeContent, FileTypeQuestionBank, FileTypeAssessment, FileTypeResource}

// Levels lists the education levels files are filed under.
var Levels = []string{
	"Primary 1", "Primary 2", "Primary 3", "Primary 4", "Primary 5", "Primary 6",
	"Secondary 1", "Secondary 2", "Secondary 3", "Secondary 4",
}

// Subjects lists the subjects files are filed under.
var Subjects = []string{
	"Science", "Mathematics", "English", "History", "Geography", "Physics", "Chemistry", "Biology",
}

// File is the metadata of one uploaded file. Content is served by Download
// and never listed.
type File struct {
	repository.BaseModel `yaml:",inline"`
	FileName             string    `json:"file_name" yaml:"file_name"`
	FileType             FileType  `json:"file_type" yaml:"file_type"`
	Level                string    `json:"level" yaml:"level"`
	Subject              string    `json:"subject" yaml:"subject"`
	SizeKB               int       `json:"size_kb" yaml:"size_kb"`
	Description          string    `json:"description,omitempty" yaml:"description,omitempty"`
	UploadedAt           time.Time `json:"uploaded_at" yaml:"uploaded_at"`
	LastModified         time.Time `json:"last_modified" yaml:"last_modified"`
	Content              []byte    `json:"-" yaml:"content,omitempty"`
}

// Clone returns a deep copy of f.
func (f *File) Clone() *File {
	cp := *f
	cp.Content = slices.Clone(f.Content)
	return &cp
}

// Schema exposes the file fields to the query pipeline.
var Schema = query.SchemaFromTags[*File](Entity, "json")

// SearchFields are the fields free-text search looks at.
var SearchFields = []string{"file_name", "description"}

// DefaultSort lists the most recently modified files first.
var DefaultSort = query.Sort{Field: "last_modified", Order: query.SortDesc}

// ListParams are the list-screen controls. Empty filters and "all" impose no
// constraint.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	FileType string
	Level    string
	Subject  string
}

// Options converts p into query options.
func (p ListParams) Options() query.Options {
	filter := query.Filter{}
	for field, value := range map[string]string{"file_type": p.FileType, "level": p.Level, "subject": p.Subject} {
		if value != "" {
			filter[field] = value
		}
	}
	return query.Options{
		Filter:     filter,
		Search:     query.Search{Term: p.Search, Fields: SearchFields},
		Sort:       DefaultSort,
		Pagination: query.Pagination{Page: p.Page, PageSize: p.PageSize},
	}
}

// UploadInput is the payload for uploading a file. When Content is given the
// size is taken from it.
type UploadInput struct {
	FileName    string   `json:"file_name" validate:"notblank"`
	FileType    FileType `json:"file_type" validate:"required,oneof=content question_bank assessment resource"`
	Level       string   `json:"level" validate:"required"`
	Subject     string   `json:"subject" validate:"required"`
	SizeKB      int      `json:"size_kb" validate:"gte=0"`
	Description string   `json:"description"`
	Content     []byte   `json:"content,omitempty"`
}

// UpdateInput is a partial metadata update; nil fields are left unchanged.
type UpdateInput struct {
	FileName    *string   `json:"file_name" validate:"omitempty,notblank"`
	FileType    *FileType `json:"file_type" validate:"omitempty,oneof=content question_bank assessment resource"`
	Level       *string   `json:"level"`
	Subject     *string   `json:"subject"`
	Description *string   `json:"description"`
}

// Stats summarises the knowledge base.
type Stats struct {
	TotalFiles  int              `json:"total_files"`
	TotalSizeKB int              `json:"total_size_kb"`
	ByType      map[FileType]int `json:"files_by_type"`
	BySubject   map[string]int   `json:"files_by_subject"`
}

// Download is the content of one file.
type Download struct {
	FileName    string
	ContentType string
	Content     []byte
}
