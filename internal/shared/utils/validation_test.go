package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePluginID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "bing-dict", false},
		{"dots and underscores", "org.dicthub.google_translate", false},
		{"empty", "", true},
		{"spaces", "bing dict", true},
		{"slash", "../etc", true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePluginID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOptionName(t *testing.T) {
	assert.NoError(t, ValidateOptionName("apiKey"))
	assert.NoError(t, ValidateOptionName("_private"))
	assert.Error(t, ValidateOptionName("api.key"))
	assert.Error(t, ValidateOptionName("1st"))
	assert.Error(t, ValidateOptionName(""))
}

func TestValidateQueryText(t *testing.T) {
	assert.NoError(t, ValidateQueryText("hola"))
	assert.Error(t, ValidateQueryText(""))
	assert.Error(t, ValidateQueryText("   \n"))
	assert.Error(t, ValidateQueryText(strings.Repeat("x", MaxQueryTextBytes+1)))
	assert.Error(t, ValidateQueryText(string([]byte{0xff, 0xfe})))
}

func TestValidateRepositoryURL(t *testing.T) {
	assert.NoError(t, ValidateRepositoryURL("https://example.com/index.json"))
	assert.NoError(t, ValidateRepositoryURL("http://127.0.0.1:8080/index.json"))
	assert.Error(t, ValidateRepositoryURL("ftp://example.com/index.json"))
	assert.Error(t, ValidateRepositoryURL("https:///index.json"))
	assert.Error(t, ValidateRepositoryURL(""))
}
