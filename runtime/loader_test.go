package runtime

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_LoadAll_Embedded_Dictionaries(t *testing.T) {
	req := require.New(t)

	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll("censored")
	req.NoError(err)

	req.Contains(data.Languages, "en")
	req.Contains(data.Languages, "fr")
	req.NotEmpty(data.Words)
	req.Contains(data.Words, "scammer")
}

func Test_LoadModerator_Censors_With_Embedded_Words(t *testing.T) {
	req := require.New(t)

	moderator, err := LoadModerator(slog.Default(), '*')
	req.NoError(err)

	censored, words := moderator.Censor("beware of this scammer")
	req.Equal("beware of this *******", censored)
	req.Equal([]string{"scammer"}, words)
}
