package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/agentarena/gungi-backend/internal/apperror"
	"github.com/agentarena/gungi-backend/internal/entity"
)

const archiveKeyPrefix = "archive:"

// ArchiveRepository stores the durable export of finished matches. A
// record is written exactly once, after the match reached a terminal
// status, and is never updated afterwards.
type ArchiveRepository interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
	GetByID(ctx context.Context, matchID string) (*entity.MatchRecord, error)
	List(ctx context.Context) ([]*entity.MatchRecord, error)
}

type dbArchive struct {
	client *redis.Client
}

func NewArchiveRepository(client *redis.Client) ArchiveRepository {
	return &dbArchive{
		client: client,
	}
}

func (that *dbArchive) Save(ctx context.Context, record *entity.MatchRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal match record: %w", err)
	}

	recordKey := archiveKeyPrefix + record.Match.ID
	err = that.client.Set(ctx, recordKey, recordJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set match record: %w", err)
	}

	return nil
}

func (that *dbArchive) GetByID(ctx context.Context, matchID string) (*entity.MatchRecord, error) {
	recordKey := archiveKeyPrefix + matchID

	response, err := that.client.Get(ctx, recordKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match record by ID: %w", err)
	}

	var record entity.MatchRecord
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match record: %w", err)
	}

	return &record, nil
}

func (that *dbArchive) List(ctx context.Context) ([]*entity.MatchRecord, error) {
	var records []*entity.MatchRecord

	iter := that.client.Scan(ctx, 0, archiveKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		response, err := that.client.Get(ctx, iter.Val()).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get match record: %w", err)
		}

		var record entity.MatchRecord
		if err = json.Unmarshal([]byte(response), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match record: %w", err)
		}

		records = append(records, &record)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan match records: %w", err)
	}

	return records, nil
}
