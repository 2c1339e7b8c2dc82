// Package password はパスワードのハッシュ化と照合を提供します。
package password

import "golang.org/x/crypto/bcrypt"

// hashCost は bcrypt のコストパラメータです。
// 値を上げるとオフライン総当たりに強くなる代わりにログインが遅くなります。
const hashCost = bcrypt.DefaultCost

// MaxPasswordBytes は bcrypt が処理できるパスワードの最大バイト数です。
// これを超える入力には Hash がエラーを返すため、呼び出し側で事前に検証すること。
const MaxPasswordBytes = 72

// Hash はパスワードを bcrypt でハッシュ化します。
// ソルトは呼び出しごとにランダム生成され、コストとともにダイジェストへ埋め込まれます。
// 同じパスワードでも毎回異なるダイジェストが返ります。
func Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify はパスワードがダイジェストと一致するかを返します。
// ダイジェストに埋め込まれたソルト・コストで再計算し、定数時間で比較します。
// ダイジェストが不正な形式の場合もエラーにはせず false を返します。
func Verify(password string, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
