package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"alcyxob/lift-log/internal/domain"
	"alcyxob/lift-log/internal/metrics"
	"alcyxob/lift-log/internal/repository"
	"alcyxob/lift-log/internal/storage"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ExportedSet is one committed set in a history snapshot.
type ExportedSet struct {
	Ordinal int    `json:"ordinal"`
	Weight  string `json:"weight"`
	Reps    string `json:"reps"`
}

// HistorySnapshot is the document uploaded by an export.
type HistorySnapshot struct {
	UserID     string                      `json:"userId"`
	ExportedAt time.Time                   `json:"exportedAt"`
	Exercises  []domain.ExerciseDefinition `json:"exercises"`
	Sets       map[string][]ExportedSet    `json:"sets"`
}

// ExportResult points at an uploaded snapshot.
type ExportResult struct {
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ExportService interface {
	// Snapshot collects the catalog and committed sets of the user.
	Snapshot(ctx context.Context, userID string) (*HistorySnapshot, error)
	// Export uploads a snapshot and returns a temporary download link.
	Export(ctx context.Context, userID string) (*ExportResult, error)
}

// exportService implements the ExportService interface.
type exportService struct {
	store       repository.DocumentStore
	fileStorage storage.FileStorage
	urlExpiry   time.Duration
	metrics     *metrics.Manager
}

// NewExportService creates a new instance of exportService. fileStorage may
// be nil, in which case Export returns ErrExportDisabled.
func NewExportService(store repository.DocumentStore, fileStorage storage.FileStorage, m *metrics.Manager) ExportService {
	return &exportService{
		store:       store,
		fileStorage: fileStorage,
		urlExpiry:   storage.DefaultPresignedURLExpiry,
		metrics:     m,
	}
}

func (s *exportService) Snapshot(ctx context.Context, userID string) (*HistorySnapshot, error) {
	docs, err := s.store.ListChildren(ctx, userID, repository.CollectionExercises)
	if err != nil {
		return nil, persistenceFailed(s.metrics, "export.snapshot", userID, err)
	}

	snapshot := &HistorySnapshot{
		UserID:     userID,
		ExportedAt: time.Now().UTC(),
		Exercises:  make([]domain.ExerciseDefinition, 0, len(docs)),
		Sets:       make(map[string][]ExportedSet),
	}
	for _, doc := range docs {
		def, ok := exerciseFromFields(doc.Key.DocID, doc.Fields)
		if !ok {
			continue
		}
		snapshot.Exercises = append(snapshot.Exercises, def)

		history := decodeSetHistory(doc.Key, doc.Fields)
		if len(history) == 0 {
			continue
		}
		// positional, the same numbering a ledger shows after loading
		ledger := domain.NewLedger(history)
		sets := make([]ExportedSet, 0, ledger.Len())
		for _, rec := range ledger.Records() {
			sets = append(sets, ExportedSet{Ordinal: rec.Ordinal, Weight: rec.Past.Weight, Reps: rec.Past.Reps})
		}
		snapshot.Sets[def.Identity] = sets
	}
	sortExercises(snapshot.Exercises)
	return snapshot, nil
}

func (s *exportService) Export(ctx context.Context, userID string) (*ExportResult, error) {
	if s.fileStorage == nil {
		return nil, ErrExportDisabled
	}

	snapshot, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	objectKey := fmt.Sprintf("exports/%s/%s.json", userID, uuid.NewString())
	if err := s.fileStorage.PutObject(ctx, objectKey, "application/json", body); err != nil {
		return nil, persistenceFailed(s.metrics, "export.upload", userID, err)
	}

	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, s.urlExpiry)
	if err != nil {
		if delErr := s.fileStorage.DeleteObject(ctx, objectKey); delErr != nil {
			log.Errorf("failed to remove orphaned export [%s]: %s", objectKey, delErr)
		}
		return nil, persistenceFailed(s.metrics, "export.presign", userID, err)
	}

	s.metrics.CounterExports.Inc()
	log.Infof("exported %d exercises of user [%s] to [%s]", len(snapshot.Exercises), userID, objectKey)
	return &ExportResult{
		ObjectKey:   objectKey,
		DownloadURL: url,
		ExpiresAt:   snapshot.ExportedAt.Add(s.urlExpiry),
	}, nil
}
