package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/domain/interfaces"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// backupRunDoc is the Firestore document representation of model.BackupRun
type backupRunDoc struct {
	ID           string    `firestore:"id"`
	RootDir      string    `firestore:"root_dir"`
	Days         int       `firestore:"days"`
	Status       string    `firestore:"status"`
	UserCount    int       `firestore:"user_count"`
	ChatCount    int       `firestore:"chat_count"`
	MessageCount int       `firestore:"message_count"`
	Error        string    `firestore:"error"`
	StartedAt    time.Time `firestore:"started_at"`
	FinishedAt   time.Time `firestore:"finished_at"`
}

func toBackupRunDoc(r *model.BackupRun) *backupRunDoc {
	return &backupRunDoc{
		ID:           string(r.ID),
		RootDir:      r.RootDir,
		Days:         r.Days,
		Status:       string(r.Status),
		UserCount:    r.UserCount,
		ChatCount:    r.ChatCount,
		MessageCount: r.MessageCount,
		Error:        r.Error,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
}

func fromBackupRunDoc(d *backupRunDoc) *model.BackupRun {
	return &model.BackupRun{
		ID:           model.RunID(d.ID),
		RootDir:      d.RootDir,
		Days:         d.Days,
		Status:       model.RunStatus(d.Status),
		UserCount:    d.UserCount,
		ChatCount:    d.ChatCount,
		MessageCount: d.MessageCount,
		Error:        d.Error,
		StartedAt:    d.StartedAt,
		FinishedAt:   d.FinishedAt,
	}
}

// artifactDoc is the Firestore document representation of model.Artifact
type artifactDoc struct {
	RunID        string    `firestore:"run_id"`
	UserID       string    `firestore:"user_id"`
	ChatID       string    `firestore:"chat_id"`
	Sequence     int       `firestore:"sequence"`
	Path         string    `firestore:"path"`
	MessageCount int       `firestore:"message_count"`
	WrittenAt    time.Time `firestore:"written_at"`
}

func toArtifactDoc(a *model.Artifact) *artifactDoc {
	return &artifactDoc{
		RunID:        string(a.RunID),
		UserID:       string(a.UserID),
		ChatID:       string(a.ChatID),
		Sequence:     a.Sequence,
		Path:         a.Path,
		MessageCount: a.MessageCount,
		WrittenAt:    a.WrittenAt,
	}
}

func fromArtifactDoc(d *artifactDoc) *model.Artifact {
	return &model.Artifact{
		RunID:        model.RunID(d.RunID),
		UserID:       model.UserID(d.UserID),
		ChatID:       model.ChatID(d.ChatID),
		Sequence:     d.Sequence,
		Path:         d.Path,
		MessageCount: d.MessageCount,
		WrittenAt:    d.WrittenAt,
	}
}

type backupRunRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newBackupRunRepository(client *firestore.Client) *backupRunRepository {
	return &backupRunRepository{client: client}
}

func (r *backupRunRepository) runs() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + RunsCollection)
}

// artifacts is a top-level collection queried by run_id so that a single composite index
// serves every run
func (r *backupRunRepository) artifacts() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + ArtifactsCollection)
}

func (r *backupRunRepository) PutRun(ctx context.Context, run *model.BackupRun) error {
	if run.ID == "" {
		return goerr.Wrap(model.ErrMissingIdentifier, "run id is empty")
	}
	if err := run.Status.Validate(); err != nil {
		return err
	}

	if _, err := r.runs().Doc(run.ID.String()).Set(ctx, toBackupRunDoc(run)); err != nil {
		return goerr.Wrap(err, "failed to put backup run", goerr.V(model.RunIDKey, run.ID))
	}
	return nil
}

func (r *backupRunRepository) GetRun(ctx context.Context, id model.RunID) (*model.BackupRun, error) {
	doc, err := r.runs().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "backup run not found", goerr.V(model.RunIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get backup run", goerr.V(model.RunIDKey, id))
	}

	var d backupRunDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal backup run", goerr.V(model.RunIDKey, id))
	}
	return fromBackupRunDoc(&d), nil
}

func (r *backupRunRepository) ListRuns(ctx context.Context, limit int) ([]*model.BackupRun, error) {
	query := r.runs().OrderBy("started_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	runs := make([]*model.BackupRun, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate backup runs")
		}

		var d backupRunDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal backup run", goerr.V("doc_id", doc.Ref.ID))
		}
		runs = append(runs, fromBackupRunDoc(&d))
	}

	return runs, nil
}

func (r *backupRunRepository) PutArtifact(ctx context.Context, artifact *model.Artifact) error {
	if artifact.RunID == "" {
		return goerr.Wrap(model.ErrMissingIdentifier, "artifact run id is empty")
	}

	docID := uuid.NewString()
	if _, err := r.artifacts().Doc(docID).Set(ctx, toArtifactDoc(artifact)); err != nil {
		return goerr.Wrap(err, "failed to put artifact",
			goerr.V(model.RunIDKey, artifact.RunID),
			goerr.V("path", artifact.Path))
	}
	return nil
}

func (r *backupRunRepository) ListArtifacts(ctx context.Context, runID model.RunID) ([]*model.Artifact, error) {
	iter := r.artifacts().
		Where("run_id", "==", runID.String()).
		OrderBy("written_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	artifacts := make([]*model.Artifact, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate artifacts", goerr.V(model.RunIDKey, runID))
		}

		var d artifactDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal artifact", goerr.V("doc_id", doc.Ref.ID))
		}
		artifacts = append(artifacts, fromArtifactDoc(&d))
	}

	return artifacts, nil
}
