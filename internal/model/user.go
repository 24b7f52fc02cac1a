// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービスに登録されたユーザーを表す。
// IDとCreatedAtはシステムが採番・付与し、作成後は変更されない。
type User struct {
	ID        int64
	Email     string
	Name      string
	Age       *int // 任意項目。未設定の場合はnil。
	CreatedAt time.Time
}
