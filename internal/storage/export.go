package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/exercise-tracker/apiserver/types"
)

const (
	exportPrefix      = "exports/"
	exportContentType = "application/json"

	metaUserID = "user-id"
	metaCount  = "count"
)

// ExportKey is the object key for a log export taken at the given time.
func ExportKey(userID string, at time.Time) string {
	return fmt.Sprintf("%s%s/%d.json", exportPrefix, userID, at.Unix())
}

func checkExportKey(key string) error {
	if !strings.HasPrefix(key, exportPrefix) || !strings.HasSuffix(key, ".json") {
		return fmt.Errorf("%q is not an export key", key)
	}
	return nil
}

// ExportLog uploads a user's exercise log as JSON and returns its key.
func (s *Storage) ExportLog(ctx context.Context, log types.ExerciseLog, at time.Time) (string, error) {
	if err := s.backend.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket %s: %w", s.Bucket(), err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode log: %w", err)
	}

	key := ExportKey(log.UserID, at)
	err = s.backend.Put(ctx, Object{
		Key:         key,
		Body:        data,
		ContentType: exportContentType,
		Metadata: map[string]string{
			metaUserID: log.UserID,
			metaCount:  strconv.Itoa(log.Count),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// ReadExport downloads an export and decodes it. The object's user-id
// metadata must agree with the body.
func (s *Storage) ReadExport(ctx context.Context, key string) (types.ExerciseLog, error) {
	if err := checkExportKey(key); err != nil {
		return types.ExerciseLog{}, err
	}
	obj, err := s.backend.Get(ctx, key)
	if err != nil {
		return types.ExerciseLog{}, fmt.Errorf("download %s: %w", key, err)
	}

	var log types.ExerciseLog
	if err := json.Unmarshal(obj.Body, &log); err != nil {
		return types.ExerciseLog{}, fmt.Errorf("decode %s: %w", key, err)
	}
	if owner := obj.Metadata[metaUserID]; owner != "" && owner != log.UserID {
		return types.ExerciseLog{}, fmt.Errorf("export %s: metadata user %s does not match body user %s", key, owner, log.UserID)
	}
	return log, nil
}

// DeleteExport removes an export. A missing key reports ErrObjectNotFound.
func (s *Storage) DeleteExport(ctx context.Context, key string) error {
	if err := checkExportKey(key); err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
