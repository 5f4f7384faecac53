package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"realia_backend/internal/events"
	"realia_backend/platform/apperr"
	"realia_backend/platform/logger"
	"realia_backend/platform/sanitize"
)

// DocumentSender delivers a stored document to a phone.
type DocumentSender interface {
	SendDocument(ctx context.Context, phone, url, filename, caption string) error
}

// Service finalizes uploads and serves document-send requests.
type Service struct {
	repo     *Repository
	store    ObjectStore
	sender   DocumentSender
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates the documents service. store may be nil when object
// storage is disabled; finalize then fails with a clear error.
func NewService(repo *Repository, store ObjectStore, sender DocumentSender, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, store: store, sender: sender, eventBus: eventBus, log: log}
}

// Finalize persists a completed upload: bytes to object storage, metadata
// row superseding any previous version of the same category+unit.
func (s *Service) Finalize(ctx context.Context, u *Upload, uploadedBy string) (Document, error) {
	if u.Project == nil || u.Category == "" {
		return Document{}, apperr.Validation("upload incomplete")
	}
	if s.store == nil {
		return Document{}, apperr.Unavailable("almacenamiento de archivos no configurado")
	}

	key := objectKey(u)
	url, err := s.store.Put(ctx, key, u.Data, u.MimeType)
	if err != nil {
		return Document{}, apperr.Wrap(apperr.KindUnavailable, "store document", err)
	}

	doc, err := s.repo.Create(ctx, Document{
		ProjectID:  u.Project.ID,
		Category:   u.Category,
		Unit:       u.Unit,
		Filename:   u.Filename,
		MimeType:   u.MimeType,
		URL:        url,
		UploadedBy: uploadedBy,
	})
	if err != nil {
		return Document{}, apperr.Wrap(apperr.KindInternal, "save document", err)
	}

	s.log.Info("document stored",
		"document_id", doc.ID,
		"project_id", doc.ProjectID,
		"category", doc.Category,
	)
	s.eventBus.Publish(ctx, events.DocumentStored{
		BaseEvent:  events.NewBaseEvent(),
		DocumentID: doc.ID,
		ProjectID:  doc.ProjectID,
		Category:   doc.Category,
		Unit:       doc.Unit,
		UploadedBy: uploadedBy,
	})
	return doc, nil
}

// Send delivers the active document of a category to a phone, preferring a
// unit-specific version when a unit is given.
func (s *Service) Send(ctx context.Context, phone string, projectID uuid.UUID, category, unit string) error {
	if !ValidCategory(category) {
		return apperr.Validation(fmt.Sprintf("categoría desconocida %q", category))
	}

	doc, err := s.repo.FindActive(ctx, projectID, category, unit)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(fmt.Sprintf("sin %s disponible", CategoryLabel(category)))
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "find document", err)
	}

	caption := CategoryLabel(doc.Category)
	if doc.Unit != nil {
		caption += " " + *doc.Unit
	}
	if err := s.sender.SendDocument(ctx, phone, doc.URL, doc.Filename, caption); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "send document", err)
	}
	return nil
}

// StoreTemplate uploads a shared file (like the blank import template) and
// returns its URL so it can be sent as a document.
func (s *Service) StoreTemplate(ctx context.Context, filename string, data []byte) (string, error) {
	if s.store == nil {
		return "", apperr.Unavailable("almacenamiento de archivos no configurado")
	}
	url, err := s.store.Put(ctx, "templates/"+filename, data, "text/csv")
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "store template", err)
	}
	return url, nil
}

// List returns a project's active documents.
func (s *Service) List(ctx context.Context, projectID uuid.UUID) ([]Document, error) {
	return s.repo.ListByProject(ctx, projectID)
}

func objectKey(u *Upload) string {
	parts := []string{u.Project.Slug, u.Category}
	if u.Unit != nil {
		parts = append(parts, strings.ToLower(*u.Unit))
	}
	filename := sanitize.Slug(strings.TrimSuffix(u.Filename, ext(u.Filename))) + ext(u.Filename)
	parts = append(parts, fmt.Sprintf("%s-%s", uuid.NewString()[:8], filename))
	return strings.Join(parts, "/")
}

func ext(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return strings.ToLower(filename[i:])
	}
	return ""
}
