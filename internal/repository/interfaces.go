// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/usersvc/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	// メールアドレスは保存された値とバイト一致で比較する（大文字小文字を区別する）。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List はユーザー一覧をID昇順（登録順）で返す。
	// skipは読み飛ばす件数、limitは最大取得件数。範囲チェックは呼び出し側の責務。
	List(ctx context.Context, skip, limit int) ([]*model.User, error)

	// Create はユーザーを新規作成し、採番されたIDをuser.IDに設定する。
	// CreatedAtは呼び出し側が設定した値をそのまま永続化する。
	Create(ctx context.Context, user *model.User) error

	// Update はname、email、ageを上書き更新する。idとcreated_atは変更しない。
	Update(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを物理削除する。
	DeleteByID(ctx context.Context, id int64) error
}
