package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com/watch?v=abc123",
		"http://example.com",
		"https://sub.domain.example.org/path/to/media",
		"http://192.168.1.10:8000/stream",
	}
	for _, u := range valid {
		assert.True(t, ValidateURL(u), u)
	}

	invalid := []string{
		"",
		"example.com/watch",
		"//example.com/no-scheme",
		"https://",
		"ftp://example.com/file",
		"file:///etc/passwd",
		"not a url at all",
		"https:///path-without-host",
	}
	for _, u := range invalid {
		assert.False(t, ValidateURL(u), u)
	}
}

func TestSplitExtraArgs(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		args, err := SplitExtraArgs("   ")
		assert.NoError(t, err)
		assert.Nil(t, args)
	})

	t.Run("quoted values survive splitting", func(t *testing.T) {
		args, err := SplitExtraArgs(`--proxy "http://proxy:3128" --geo-bypass`)
		assert.NoError(t, err)
		assert.Equal(t, []string{"--proxy", "http://proxy:3128", "--geo-bypass"}, args)
	})

	t.Run("output redirection flags rejected", func(t *testing.T) {
		_, err := SplitExtraArgs(`-o /etc/cron.d/evil`)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not allowed")
	})

	t.Run("exec flag rejected", func(t *testing.T) {
		_, err := SplitExtraArgs(`--exec rm`)
		assert.Error(t, err)
	})

	t.Run("shell metacharacters rejected", func(t *testing.T) {
		_, err := SplitExtraArgs(`--proxy 'http://p;rm'`)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "disallowed character")
	})
}
