package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageDomains_Check(t *testing.T) {
	d := newStorageDomains([]string{"files.example.com", "https://Uploads.Example.org:9000/", "10.0.0.5"})

	tests := []struct {
		url string
		ok  bool
	}{
		{"https://files.example.com/a.pdf", true},
		{"https://bucket.s3.example.com/a.pdf", true},
		{"http://uploads.example.org/a.pdf", true},
		{"https://cdn.example.org:8443/a.pdf", true},
		{"http://10.0.0.5/a.pdf", true},
		{"http://10.0.0.6/a.pdf", false},
		{"https://example.net/a.pdf", false},
		{"ftp://files.example.com/a.pdf", false},
		{"/relative/a.pdf", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := d.check(tt.url)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStorageDomains_DisabledAllowsAnyHost(t *testing.T) {
	d := newStorageDomains(nil)
	assert.False(t, d.enabled())
	assert.NoError(t, d.check("https://anywhere.test/file"))
	assert.Error(t, d.check("not a url"))
}
