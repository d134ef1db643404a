package config

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := NewAppConfig()

	require.Equal(t, ":8080", c.ApiAddr())
	require.Equal(t, "db.sqlite", c.DB())
	require.Equal(t, 24, c.JwtTTLHours())
	require.Empty(t, c.JwtKey())
}

func TestLoadFile(t *testing.T) {
	f, err := os.CreateTemp("", "hangpal_test")
	require.NoError(t, err)

	fmt.Fprint(f, "---\nwelcome_msg: aaa\njwt:\n    key: secret\n")
	f.Close()

	c := NewAppConfig()
	require.True(t, c.Load(f.Name()))

	require.Equal(t, "aaa", c.WelcomeMsg())
	require.Equal(t, "secret", c.JwtKey())
	require.Equal(t, ":8080", c.ApiAddr())
}

func TestLoadMissingFile(t *testing.T) {
	c := NewAppConfig()
	require.False(t, c.Load("no_such_file.yml"))
}
