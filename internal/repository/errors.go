package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// IsUniqueViolation は一意制約違反に起因するエラーかどうかを判定する。
// メールアドレスの事前チェックと同時リクエストが競合した場合、最終的な衝突検出は
// ストレージ側の一意インデックスに委ねるため、ドライバ固有のエラーをここで吸収する。
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	// PostgreSQL: unique_violation (23505)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	// SQLite: modernc.org/sqliteはSQLITE_CONSTRAINT_UNIQUEをメッセージで報告する
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
