package knowledgebase

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/nimburion/tutoradmin/pkg/observability/tracing"
	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
	"github.com/nimburion/tutoradmin/pkg/security"
	"github.com/nimburion/tutoradmin/pkg/service"
)

// Store is the file collection.
type Store = repository.MemoryStore[*File]

// NewStore creates an empty file collection.
func NewStore(opts ...repository.Option) *Store {
	return repository.NewMemoryStore[*File](Entity, opts...)
}

// Service implements knowledge-base management.
type Service struct {
	service.Base
	store *Store
}

// NewService creates a knowledge-base service over store.
func NewService(store *Store, deps service.Deps) *Service {
	return &Service{
		Base:  service.NewBase(Entity, deps),
		store: store,
	}
}

// Store returns the underlying collection.
func (s *Service) Store() *Store {
	return s.store
}

// List returns one page of files, most recently modified first.
func (s *Service) List(ctx context.Context, params ListParams) (query.Page[*File], error) {
	return s.Query(ctx, params.Options())
}

// Query runs arbitrary query options over the file collection.
func (s *Service) Query(ctx context.Context, opts query.Options) (query.Page[*File], error) {
	return service.List(ctx, &s.Base, Schema, opts, s.store.Snapshot)
}

// Get returns the metadata of the file with id.
func (s *Service) Get(ctx context.Context, id string) (*File, error) {
	return service.Read(ctx, &s.Base, "get", func(ctx context.Context) (*File, error) {
		f, ok := s.store.GetByID(ctx, id)
		if !ok {
			return nil, repository.NewNotFoundError(Entity, id)
		}
		return f, nil
	})
}

// Stats counts files and their total size by type and subject.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return service.Read(ctx, &s.Base, "stats", func(ctx context.Context) (Stats, error) {
		stats := Stats{
			ByType:    make(map[FileType]int, len(FileTypes)),
			BySubject: map[string]int{},
		}
		for _, t := range FileTypes {
			stats.ByType[t] = 0
		}
		for _, f := range s.store.Snapshot(ctx) {
			stats.TotalFiles++
			stats.TotalSizeKB += f.SizeKB
			stats.ByType[f.FileType]++
			stats.BySubject[f.Subject]++
		}
		return stats, nil
	})
}

// Upload stores a new file.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*File, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationCreate, "upload", "", func(ctx context.Context) (*File, error) {
		if err := service.ValidateStruct(in); err != nil {
			return nil, err
		}
		if err := checkFileName(&in.FileName); err != nil {
			return nil, err
		}
		if err := checkCatalog(&in.Level, &in.Subject); err != nil {
			return nil, err
		}
		now := s.Now()
		f := &File{
			FileName:     strings.TrimSpace(in.FileName),
			FileType:     in.FileType,
			Level:        in.Level,
			Subject:      in.Subject,
			SizeKB:       in.SizeKB,
			Description:  in.Description,
			UploadedAt:   now,
			LastModified: now,
			Content:      slices.Clone(in.Content),
		}
		if len(f.Content) > 0 {
			f.SizeKB = (len(f.Content) + 1023) / 1024
		}
		return s.store.Add(ctx, f)
	})
}

// Update changes the metadata of the file with id and refreshes its
// last-modified time.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*File, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationUpdate, "update", id, func(ctx context.Context) (*File, error) {
		if err := service.ValidateStruct(in); err != nil {
			return nil, err
		}
		if err := checkFileName(in.FileName); err != nil {
			return nil, err
		}
		if err := checkCatalog(in.Level, in.Subject); err != nil {
			return nil, err
		}
		return s.store.Update(ctx, id, func(f *File) error {
			if in.FileName != nil {
				f.FileName = strings.TrimSpace(*in.FileName)
			}
			if in.FileType != nil {
				f.FileType = *in.FileType
			}
			if in.Level != nil {
				f.Level = *in.Level
			}
			if in.Subject != nil {
				f.Subject = *in.Subject
			}
			if in.Description != nil {
				f.Description = *in.Description
			}
			f.LastModified = s.Now()
			return nil
		})
	})
}

// Delete removes the file with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := service.Mutate(ctx, &s.Base, tracing.SpanOperationDelete, "delete", id, func(ctx context.Context) (*File, error) {
		return s.store.Remove(ctx, id)
	})
	return err
}

// Download returns the content of the file with id. Files uploaded without
// content get a plain-text placeholder describing them.
func (s *Service) Download(ctx context.Context, id string) (Download, error) {
	return service.Read(ctx, &s.Base, "download", func(ctx context.Context) (Download, error) {
		f, ok := s.store.GetByID(ctx, id)
		if !ok {
			return Download{}, repository.NewNotFoundError(Entity, id)
		}
		content := f.Content
		if len(content) == 0 {
			content = []byte(fmt.Sprintf("%s\n%s %s %s\n%s\n", f.FileName, f.Level, f.Subject, f.FileType, f.Description))
		}
		return Download{
			FileName:    f.FileName,
			ContentType: detectMIME(content),
			Content:     content,
		}, nil
	})
}

// detectMIME tries the stdlib sniffer first and falls back to the broader
// mimetype detector when it cannot tell.
func detectMIME(content []byte) string {
	if len(content) == 0 {
		return "application/octet-stream"
	}
	mt := http.DetectContentType(content)
	if mt != "application/octet-stream" {
		return mt
	}
	return mimetype.Detect(content).String()
}

func checkFileName(name *string) error {
	if name == nil {
		return nil
	}
	if err := security.ValidateFileName(*name); err != nil {
		return query.NewInvalidArgumentError("file_name", *name, err.Error())
	}
	return nil
}

func checkCatalog(level, subject *string) error {
	if level != nil && !slices.Contains(Levels, *level) {
		return query.NewInvalidArgumentError("level", *level, "unknown education level")
	}
	if subject != nil && !slices.Contains(Subjects, *subject) {
		return query.NewInvalidArgumentError("subject", *subject, "unknown subject")
	}
	return nil
}
