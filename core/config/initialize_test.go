package config

import (
	"io/ioutil"
	"log"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := Initialize(tempDir, log.New(ioutil.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, tempDir, cfg.Dir())

	t.Run("LoadConfigFile", func(t *testing.T) {
		_, err := Load(filepath.Join(tempDir, ConfigurationName))
		assert.Nil(t, err)
	})

	t.Run("OpenAppLog", func(t *testing.T) {
		_, err := cfg.OpenAppLog()
		assert.ErrorIs(t, err, ErrNoAppLog)

		cfg.AppLog = "app.log"
		fd, err := cfg.OpenAppLog()
		require.Nil(t, err)
		fd.Close()

		assert.FileExists(t, filepath.Join(tempDir, "app.log"))

		fd, err = cfg.ReadAppLog()
		require.Nil(t, err)
		fd.Close()
	})

	t.Run("HistoryPath", func(t *testing.T) {
		cfg.HistoryFile = ""
		assert.Equal(t, "", cfg.HistoryPath())
		cfg.HistoryFile = "history"
		assert.Equal(t, filepath.Join(tempDir, "history"), cfg.HistoryPath())
		cfg.HistoryFile = "/var/msh_history"
		assert.Equal(t, "/var/msh_history", cfg.HistoryPath())
	})

	t.Run("Idempotent", func(t *testing.T) {
		_, err := Initialize(tempDir, log.New(ioutil.Discard, "", 0))
		assert.Nil(t, err)
	})
}

func TestLoadFs(t *testing.T) {
	cases := map[string]struct {
		contents string
		wantErr  bool
		want     func(*testing.T, *Configuration)
	}{
		"partial": {
			contents: "prompt: '$ '\nsyntax: words\n",
			want: func(t *testing.T, cfg *Configuration) {
				assert.Equal(t, "$ ", cfg.Prompt)
				assert.Equal(t, "words", cfg.Syntax)
				assert.Equal(t, 1024, cfg.MaxLineLength)
			},
		},
		"unknown-field": {
			contents: "prompt: '$ '\nfancy: true\n",
			wantErr:  true,
		},
		"invalid": {
			contents: "max_line_length: -1\n",
			wantErr:  true,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, filepath.Join("/etc/msh", ConfigurationName), []byte(tc.contents), 0600))

			cfg, err := LoadFs(fs, "/etc/msh")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.want(t, cfg)
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := LoadFs(afero.NewMemMapFs(), "/etc/msh")
		assert.Error(t, err)
	})
}
