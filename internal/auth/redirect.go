package auth

import "strings"

// SafeNext はログイン後の戻り先として candidate が安全な場合のみそれを返します。
// 許可されるのは同一オリジンの相対パスのみです。具体的には、先頭が単一の "/" であり、
// "//"（プロトコル相対 URL として別ホストに解釈される）や "/\"、スキーム区切りを
// 含まないこと。条件を満たさない場合や candidate が空の場合は fallback を返します。
//
// 呼び出し側は、利用者由来の戻り先を読むたびに必ずこの関数を通すこと。
func SafeNext(candidate string, fallback string) string {
	if candidate == "" {
		return fallback
	}
	if !strings.HasPrefix(candidate, "/") {
		return fallback
	}
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return fallback
	}
	if strings.Contains(candidate, "://") {
		return fallback
	}
	return candidate
}
