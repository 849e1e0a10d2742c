package pkg

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codeRe = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestRandClassCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := RandClassCode()
		require.NoError(t, err)
		assert.True(t, codeRe.MatchString(code), "bad code %q", code)
		seen[code] = true
	}
	// 36^6 空间里抽一千个，撞车概率可忽略
	assert.Greater(t, len(seen), 990)
}

func TestGenerateClassCode(t *testing.T) {
	code, err := GenerateClassCode(func(string) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.True(t, codeRe.MatchString(code))
}

func TestGenerateClassCodeRetries(t *testing.T) {
	calls := 0
	code, err := GenerateClassCode(func(string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	require.NoError(t, err)
	assert.True(t, codeRe.MatchString(code))
	assert.Equal(t, 3, calls)
}

func TestGenerateClassCodeExhausted(t *testing.T) {
	_, err := GenerateClassCode(func(string) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, ErrCodeExhausted)
}

func TestGenerateClassCodeExistsError(t *testing.T) {
	boom := errors.New("db down")
	_, err := GenerateClassCode(func(string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
