package conversation

import (
	"context"
	"errors"
	"fmt"

	"realia_backend/internal/documents"
	"realia_backend/internal/identity"
	"realia_backend/internal/imports"
	"realia_backend/internal/whatsapp"
	"realia_backend/platform/apperr"
)

// handleStaff drives the staff-side flows: pending confirmations first,
// then attachments, then natural-language actions.
func (r *Router) handleStaff(ctx context.Context, bc identity.BusinessContext, contact *identity.Contact, msg whatsapp.Message) {
	phone := msg.SenderPhone

	if raw, ok := r.csvImport.Get(phone); ok {
		r.handleImportConfirmation(ctx, bc, phone, raw.(*imports.ParsedImport), msg.Text)
		return
	}

	if raw, ok := r.uploads.Get(phone); ok && msg.Type == whatsapp.TypeText {
		r.handleUploadReply(ctx, phone, raw.(*documents.Upload), msg.Text)
		return
	}

	if msg.MediaID != "" && (msg.Type == whatsapp.TypeDocument || msg.Type == whatsapp.TypeImage) {
		r.handleAttachment(ctx, bc, phone, msg)
		return
	}

	if msg.Type != whatsapp.TypeText || msg.Text == "" {
		r.send(ctx, phone, "Por ahora solo manejo texto y archivos por acá.")
		return
	}

	r.handleStaffText(ctx, bc, contact, msg)
}

func (r *Router) handleStaffText(ctx context.Context, bc identity.BusinessContext, contact *identity.Contact, msg whatsapp.Message) {
	project := bc.DefaultProject
	var units []identity.Unit
	if project != nil {
		var err error
		units, err = r.directory.ListUnits(ctx, project.ID)
		if err != nil {
			r.log.WithPhone(msg.SenderPhone).Error("list units", "error", err)
		}
	}

	reply, sendTemplate := r.actions.Resolve(ctx, project, UnitList(units), msg.Text)
	if sendTemplate {
		r.sendTemplate(ctx, msg.SenderPhone)
	}
	if reply != "" {
		r.send(ctx, msg.SenderPhone, reply)
	}
}

// handleAttachment downloads the file and routes it to the import or the
// document-upload flow.
func (r *Router) handleAttachment(ctx context.Context, bc identity.BusinessContext, phone string, msg whatsapp.Message) {
	data, mimeType, err := r.media.DownloadMedia(ctx, msg.MediaID)
	if err != nil {
		r.log.WithPhone(phone).Error("media download failed", "error", err)
		r.send(ctx, phone, "No pude descargar el archivo, probá mandarlo de nuevo.")
		return
	}
	if msg.MimeType != "" {
		mimeType = msg.MimeType
	}

	if imports.IsImportFile(msg.Filename, mimeType) {
		r.startImport(ctx, phone, data)
		return
	}

	projects, err := r.directory.ListActiveProjects(ctx, bc.Developer.ID)
	if err != nil {
		r.log.WithPhone(phone).Error("list projects", "error", err)
		r.send(ctx, phone, apologyText)
		return
	}
	if len(projects) == 0 {
		r.send(ctx, phone, "Todavía no hay proyectos cargados. Mandame un CSV de proyecto para empezar (pedime la plantilla si la necesitás).")
		return
	}

	upload := documents.NewUpload(data, msg.Filename, mimeType, projects)
	if upload.Step == documents.StepAskType && upload.Project != nil {
		// Single project: unit hints may be needed right after the type.
		r.preloadUnits(ctx, upload)
	}
	r.uploads.Set(phone, upload)
	r.send(ctx, phone, "📎 Recibí el archivo. "+upload.Prompt())
}

func (r *Router) handleUploadReply(ctx context.Context, phone string, upload *documents.Upload, text string) {
	if !upload.Advance(text) {
		r.uploads.Set(phone, upload) // restart the TTL on activity
		r.send(ctx, phone, "No te entendí. "+upload.Prompt())
		return
	}

	if upload.Step == documents.StepAskUnit && len(upload.Units) == 0 {
		r.preloadUnits(ctx, upload)
	}

	if upload.Step != documents.StepFinalize {
		r.uploads.Set(phone, upload)
		r.send(ctx, phone, upload.Prompt())
		return
	}

	// Clear before finalizing: a failure must not leave the sender stuck
	// retrying a step that already advanced.
	r.uploads.Clear(phone)

	doc, err := r.documents.Finalize(ctx, upload, phone)
	if err != nil {
		r.log.WithPhone(phone).Error("finalize upload", "error", err)
		if apperr.Is(err, apperr.KindUnavailable) {
			r.send(ctx, phone, "El almacenamiento de documentos no está habilitado, avisale al administrador.")
			return
		}
		r.send(ctx, phone, "No pude guardar el documento, mandámelo de nuevo más tarde.")
		return
	}

	confirmation := fmt.Sprintf("✅ Guardé el %s de %s", documents.CategoryLabel(doc.Category), upload.Project.Name)
	if doc.Unit != nil {
		confirmation += ", unidad " + *doc.Unit
	}
	r.send(ctx, phone, confirmation+".")
}

func (r *Router) startImport(ctx context.Context, phone string, data []byte) {
	parsed, err := imports.Parse(data)
	if err != nil {
		r.send(ctx, phone, "No pude usar ese archivo: "+err.Error())
		return
	}
	r.csvImport.Set(phone, parsed)
	r.send(ctx, phone, imports.Summary(parsed))
}

func (r *Router) handleImportConfirmation(ctx context.Context, bc identity.BusinessContext, phone string, parsed *imports.ParsedImport, text string) {
	switch {
	case imports.IsAffirmative(text):
		r.csvImport.Clear(phone)
		project, created, err := r.importer.Commit(ctx, bc.Developer.ID, parsed)
		if err != nil {
			var appErr *apperr.Error
			if errors.As(err, &appErr) && appErr.Kind == apperr.KindConflict {
				r.send(ctx, phone, "❌ "+appErr.Message)
				return
			}
			r.log.WithPhone(phone).Error("import commit", "error", err)
			r.send(ctx, phone, "No pude crear el proyecto, probá de nuevo en un rato.")
			return
		}
		r.send(ctx, phone, fmt.Sprintf("✅ Proyecto *%s* creado con %d unidades.", project.Name, created))

	case imports.IsNegative(text):
		r.csvImport.Clear(phone)
		r.send(ctx, phone, "Listo, descarté el archivo. Mandame otro cuando quieras.")

	default:
		r.csvImport.Set(phone, parsed)
		r.send(ctx, phone, imports.ConfirmPrompt)
	}
}

func (r *Router) sendTemplate(ctx context.Context, phone string) {
	url, err := r.documents.StoreTemplate(ctx, imports.TemplateFilename, imports.BlankTemplate())
	if err != nil {
		r.log.WithPhone(phone).Warn("template upload failed", "error", err)
		r.send(ctx, phone, "No pude generar el archivo de plantilla, avisale al administrador.")
		return
	}
	if err := r.sender.SendDocument(ctx, phone, url, imports.TemplateFilename, "Plantilla para cargar un proyecto"); err != nil {
		r.log.WithPhone(phone).Error("send template", "error", err)
	}
}

func (r *Router) preloadUnits(ctx context.Context, upload *documents.Upload) {
	if upload.Project == nil {
		return
	}
	units, err := r.directory.ListUnits(ctx, upload.Project.ID)
	if err != nil {
		r.log.Error("list units", "project_id", upload.Project.ID, "error", err)
		return
	}
	upload.Units = units
}
