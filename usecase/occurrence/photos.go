package occurrence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/domain"
)

var photoActions = map[domain.PhotoKind]string{
	domain.PhotoBefore:     domain.ActionPhotosAdded,
	domain.PhotoAfter:      domain.ActionAfterPhotoAdded,
	domain.PhotoEvaluation: domain.ActionEvaluationPhotosAdded,
}

// AddPhotos stores evidence files and their records. Before photos belong to
// the reporter (or an admin), after photos to whoever executes the
// occurrence, evaluation photos to the reporter.
func (m *Manager) AddPhotos(ctx context.Context, actorID, occurrenceID int64, kind domain.PhotoKind, uploads []domain.PhotoUpload) ([]domain.Photo, error) {
	action, ok := photoActions[kind]
	if !ok {
		return nil, domain.Invalidf("invalid photo kind %q", kind)
	}
	if m.storage == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "photo storage is not configured")
	}
	if len(uploads) == 0 {
		return nil, domain.Invalidf("no file uploaded")
	}
	extensions := make([]string, len(uploads))
	for i, up := range uploads {
		ext, ok := domain.PhotoExtension(up.Filename)
		if !ok {
			return nil, domain.Invalidf("file type not allowed: %s", up.Filename)
		}
		if len(up.Content) == 0 {
			return nil, domain.Invalidf("empty file: %s", up.Filename)
		}
		if m.maxPhotoBytes > 0 && int64(len(up.Content)) > m.maxPhotoBytes {
			return nil, domain.Invalidf("file too large: %s", up.Filename)
		}
		extensions[i] = ext
	}

	var (
		photos []domain.Photo
		saved  []string
	)
	_, err := m.run(ctx, domain.EventAddPhotos, actorID, occurrenceID, func(ctx context.Context, c *change) (string, string, error) {
		if err := authorizePhotos(c, kind); err != nil {
			return "", "", err
		}
		c.readOnly = true

		for i, up := range uploads {
			name := m.photoName(kind, c.occ.ID, extensions[i])
			if err := m.storage.Save(ctx, name, up.Content); err != nil {
				return "", "", fmt.Errorf("save photo: %w", err)
			}
			saved = append(saved, name)

			photo := domain.Photo{
				OccurrenceID:     c.occ.ID,
				Kind:             kind,
				Filename:         name,
				OriginalFilename: up.Filename,
				FileSize:         int64(len(up.Content)),
			}
			if err := c.store.Photos().Create(ctx, &photo); err != nil {
				return "", "", err
			}
			photos = append(photos, photo)
		}
		return action, fmt.Sprintf("%d foto(s) adicionada(s)", len(uploads)), nil
	})
	if err != nil {
		m.discard(ctx, saved)
		return nil, err
	}
	return photos, nil
}

func (m *Manager) photoName(kind domain.PhotoKind, occurrenceID int64, ext string) string {
	if kind == domain.PhotoAfter {
		return fmt.Sprintf("after_%d_%s.%s", occurrenceID, m.newName(), ext)
	}
	return fmt.Sprintf("%s.%s", m.newName(), ext)
}

// discard removes files written by a transaction that rolled back.
func (m *Manager) discard(ctx context.Context, names []string) {
	for _, name := range names {
		if err := m.storage.Delete(ctx, name); err != nil {
			m.logger.Warn("orphan photo not removed", zap.String("filename", name), zap.Error(err))
		}
	}
}

func authorizePhotos(c *change, kind domain.PhotoKind) error {
	switch kind {
	case domain.PhotoAfter:
		if err := domain.Authorize(c.actor.Actor(), domain.CapExecute).Err(); err != nil {
			return err
		}
		if !canExecute(c.actor, c.occ) {
			return domain.Forbiddenf("occurrence is not assigned to you or your department")
		}
	case domain.PhotoEvaluation:
		if !c.occ.IsReporter(c.actor.ID) {
			return domain.ErrNotReporter
		}
	default:
		if !c.occ.IsReporter(c.actor.ID) && !c.actor.Actor().Has(domain.CapOverride) {
			return domain.ErrNotReporter
		}
	}
	return domain.Authorize(c.actor.Actor()).Err()
}
