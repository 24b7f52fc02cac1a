// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/usersvc/internal/model"
	"github.com/hitoshi/usersvc/internal/repository"
)

// MetricsRecorder はサービス層から記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordUserCreated()
	RecordUserDeleted()
}

// Input はユーザーの作成・更新で受け取る入力値。
// id、created_atはシステム管理項目のため入力には含めない。
type Input struct {
	Name  string
	Email string
	Age   *int
}

// Validate は必須項目の存在を検証する。不正な場合は*model.APIErrorを返す。
func (in Input) Validate() *model.APIError {
	if strings.TrimSpace(in.Name) == "" {
		return model.NewValidationError("nameは必須です")
	}
	if strings.TrimSpace(in.Email) == "" {
		return model.NewValidationError("emailは必須です")
	}
	return nil
}

// Service はユーザー管理のサービス層。
// メールアドレスの一意性とid/created_atの不変性を強制する。
type Service struct {
	repo    repository.UserRepository
	metrics MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilを許容する（テスト用途）。
func NewService(repo repository.UserRepository, metrics MetricsRecorder) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
	}
}

// Create はユーザーを新規作成する。
// メールアドレスが既存ユーザーと重複する場合はEMAIL_TAKENを返す。
// 事前チェックをすり抜けた同時リクエストはストレージの一意制約で検出する。
func (s *Service) Create(ctx context.Context, in Input) (*model.User, error) {
	if apiErr := in.Validate(); apiErr != nil {
		return nil, apiErr
	}

	existing, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("メールアドレスの重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError(in.Email)
	}

	user := &model.User{
		Email:     in.Email,
		Name:      in.Name,
		Age:       in.Age,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewEmailTakenError(in.Email)
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("user created",
		slog.Int64("user_id", user.ID),
	)

	if s.metrics != nil {
		s.metrics.RecordUserCreated()
	}

	return user, nil
}

// List はユーザー一覧をID昇順で返す。
// skip >= 0、1 <= limit <= 100 はHTTP層で検証済みであることを前提とする。
func (s *Service) List(ctx context.Context, skip, limit int) ([]*model.User, error) {
	users, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// GetByID は指定IDのユーザーを取得する。存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// Update は指定IDのユーザーのname、email、ageを上書き更新する。
// メールアドレスを変更する場合のみ重複を再確認する。同一ユーザー自身の
// 現在のメールアドレスへの「変更」は重複とみなさない。
func (s *Service) Update(ctx context.Context, id int64, in Input) (*model.User, error) {
	if apiErr := in.Validate(); apiErr != nil {
		return nil, apiErr
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != user.Email {
		existing, err := s.repo.FindByEmail(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("メールアドレスの重複確認に失敗しました: %w", err)
		}
		if existing != nil {
			return nil, model.NewEmailTakenError(in.Email)
		}
	}

	user.Name = in.Name
	user.Email = in.Email
	user.Age = in.Age

	if err := s.repo.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewEmailTakenError(in.Email)
		}
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}

	slog.Info("user updated",
		slog.Int64("user_id", user.ID),
	)

	return user, nil
}

// Delete は指定IDのユーザーを物理削除する。存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("user deleted",
		slog.Int64("user_id", id),
	)

	if s.metrics != nil {
		s.metrics.RecordUserDeleted()
	}

	return nil
}
