package pkg

import (
	cryptoRand "crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	ClassCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ClassCodeLen      = 6
)

var ErrCodeExhausted = errors.New("class code generation exhausted")

// RandClassCode 生成一个 [A-Z0-9]{6} 候选码
func RandClassCode() (string, error) {
	var b strings.Builder
	n := big.NewInt(int64(len(ClassCodeAlphabet)))
	for i := 0; i < ClassCodeLen; i++ {
		x, err := cryptoRand.Int(cryptoRand.Reader, n)
		if err != nil {
			return "", err
		}
		b.WriteByte(ClassCodeAlphabet[x.Int64()])
	}
	return b.String(), nil
}

// GenerateClassCode 拒绝采样：碰撞则重新生成。
// 真正的唯一性由 class_code 唯一索引兜底，这里只做尽力而为。
func GenerateClassCode(exists func(code string) (bool, error)) (string, error) {
	for i := 0; i < 16; i++ {
		code, err := RandClassCode()
		if err != nil {
			return "", err
		}
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}
