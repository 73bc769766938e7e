package upload

import (
	"strings"
	"testing"

	"github.com/littlenest/core/internal/config"
)

func TestNewS3UploaderValidation(t *testing.T) {
	_, err := newS3Uploader(config.S3Options{Bucket: "b", Region: "us-east-1"})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}

	u, err := newS3Uploader(config.S3Options{
		Bucket:          "media",
		Region:          "us-east-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.endpoint.Host != "s3.us-east-1.amazonaws.com" {
		t.Errorf("default endpoint = %q", u.endpoint.Host)
	}
	if u.pathStyle {
		t.Error("default AWS endpoint should use virtual-hosted style")
	}
}

func TestCustomEndpointForcesPathStyle(t *testing.T) {
	u, err := newS3Uploader(config.S3Options{
		Endpoint:        "minio.internal:9000",
		Bucket:          "media",
		Region:          "us-east-1",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.pathStyle {
		t.Error("custom endpoint should force path-style access")
	}
	if u.endpoint.Scheme != "https" {
		t.Errorf("scheme = %q, want https", u.endpoint.Scheme)
	}
}

func TestBuildTarget(t *testing.T) {
	pathStyle, _ := newS3Uploader(config.S3Options{
		Endpoint:        "https://minio.internal:9000",
		Bucket:          "media",
		Region:          "us-east-1",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
	})
	requestURL, canonicalURI, host, err := pathStyle.buildTarget("uploads/a b.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if canonicalURI != "/media/uploads/a%20b.png" {
		t.Errorf("canonicalURI = %q", canonicalURI)
	}
	if host != "minio.internal:9000" {
		t.Errorf("host = %q", host)
	}
	if requestURL != "https://minio.internal:9000/media/uploads/a%20b.png" {
		t.Errorf("requestURL = %q", requestURL)
	}

	hosted, _ := newS3Uploader(config.S3Options{
		Bucket:          "media",
		Region:          "eu-west-1",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
	})
	_, canonicalURI, host, _ = hosted.buildTarget("uploads/x.jpg")
	if host != "media.s3.eu-west-1.amazonaws.com" {
		t.Errorf("host = %q", host)
	}
	if canonicalURI != "/uploads/x.jpg" {
		t.Errorf("canonicalURI = %q", canonicalURI)
	}
}

func TestCanonicalPutRequest(t *testing.T) {
	headers := map[string]string{
		"host":                 "media.s3.us-east-1.amazonaws.com",
		"x-amz-date":           "20260314T093000Z",
		"content-type":         "image/png",
		"content-length":       "4",
		"x-amz-content-sha256": "abc123",
	}
	canonical, signed, sortedKeys := canonicalPutRequest("/uploads/x.png", headers, "abc123")

	wantSigned := "content-length;content-type;host;x-amz-content-sha256;x-amz-date"
	if signed != wantSigned {
		t.Errorf("signed headers = %q, want %q", signed, wantSigned)
	}
	if len(sortedKeys) != 5 || sortedKeys[0] != "content-length" || sortedKeys[4] != "x-amz-date" {
		t.Errorf("sortedKeys = %v", sortedKeys)
	}

	lines := strings.Split(canonical, "\n")
	if lines[0] != "PUT" || lines[1] != "/uploads/x.png" || lines[2] != "" {
		t.Errorf("canonical request head = %v", lines[:3])
	}
	if lines[len(lines)-1] != "abc123" {
		t.Errorf("canonical request payload hash line = %q", lines[len(lines)-1])
	}
	if !strings.Contains(canonical, "host:media.s3.us-east-1.amazonaws.com") {
		t.Errorf("canonical request missing host header: %q", canonical)
	}
}

func TestDeriveSigningKeyDeterministic(t *testing.T) {
	a := deriveSigningKey("secret", "20260314", "us-east-1", "s3")
	b := deriveSigningKey("secret", "20260314", "us-east-1", "s3")
	if string(a) != string(b) {
		t.Error("signing key derivation is not deterministic")
	}
	c := deriveSigningKey("secret", "20260315", "us-east-1", "s3")
	if string(a) == string(c) {
		t.Error("date must change the signing key")
	}
}

func TestNormalizeObjectKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/uploads//x.png", "uploads/x.png"},
		{"uploads\\sub\\x.png", "uploads/sub/x.png"},
		{"  uploads/x.png  ", "uploads/x.png"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeObjectKey(tt.in); got != tt.want {
			t.Errorf("normalizeObjectKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
